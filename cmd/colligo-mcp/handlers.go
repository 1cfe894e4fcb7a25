package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// handleRetrieveDocuments implements the retrieve_documents tool
func handleRetrieveDocuments(kb interfaces.KnowledgeBaseService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: query parameter is required"),
				},
			}, nil
		}

		limit := request.GetInt("limit", 3)
		if limit > 10 {
			limit = 10
		}

		results, err := kb.Retrieve(ctx, query, limit)
		if err != nil {
			logger.Error().Err(err).Msg("Knowledge base retrieve failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Retrieval error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatRetrievalResults(query, results)),
			},
		}, nil
	}
}

// handleKnowledgeBaseInfo implements the get_knowledge_base_info tool
func handleKnowledgeBaseInfo(kb interfaces.KnowledgeBaseService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		info, err := kb.Info(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Knowledge base info failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Info error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatKnowledgeBaseInfo(info)),
			},
		}, nil
	}
}

// handleSearchDocuments implements the search_documents tool
func handleSearchDocuments(docs interfaces.DocumentStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: query parameter is required"),
				},
			}, nil
		}

		limit := request.GetInt("limit", 10)
		if limit > 100 {
			limit = 100
		}

		matches, err := docs.FullTextSearch(query, limit)
		if err != nil {
			logger.Error().Err(err).Msg("Search failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Search error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatSearchResults(query, matches)),
			},
		}, nil
	}
}

// handleGetDocument implements the get_document tool
func handleGetDocument(docs interfaces.DocumentStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docID, err := request.RequireString("document_id")
		if err != nil || docID == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: document_id parameter is required"),
				},
			}, nil
		}

		doc, err := docs.GetDocument(docID)
		if err != nil {
			logger.Error().Err(err).Str("doc_id", docID).Msg("GetDocument failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Document not found: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatDocument(doc)),
			},
		}, nil
	}
}
