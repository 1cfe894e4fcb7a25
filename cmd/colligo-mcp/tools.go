package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createRetrieveDocumentsTool returns the retrieve_documents tool definition
func createRetrieveDocumentsTool() mcp.Tool {
	return mcp.NewTool("retrieve_documents",
		mcp.WithDescription("Retrieve passages from the ISCC certificate knowledge base using hybrid semantic search"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language question or search phrase"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum passages to return (default: 3, max: 10)"),
		),
	)
}

// createKnowledgeBaseInfoTool returns the get_knowledge_base_info tool definition
func createKnowledgeBaseInfoTool() mcp.Tool {
	return mcp.NewTool("get_knowledge_base_info",
		mcp.WithDescription("Report the configured knowledge base ID, region and availability"),
	)
}

// createSearchDocumentsTool returns the search_documents tool definition
func createSearchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search over locally stored certificate documents"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query matched against titles and content"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 10, max: 100)"),
		),
	)
}

// createGetDocumentTool returns the get_document tool definition
func createGetDocumentTool() mcp.Tool {
	return mcp.NewTool("get_document",
		mcp.WithDescription("Retrieve a single document by its unique ID"),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("Document ID (format: doc_{uuid})"),
		),
	)
}
