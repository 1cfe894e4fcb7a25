package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/colligo/internal/models"
)

// excerptLength caps passage content in retrieval output
const excerptLength = 800

// formatRetrievalResults formats knowledge base passages as markdown
func formatRetrievalResults(query string, results []*models.RetrievalResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Knowledge Base Results for \"%s\" (%d passages)\n\n", query, len(results)))

	if len(results) == 0 {
		sb.WriteString("No passages found.\n")
		return sb.String()
	}

	for i, result := range results {
		sb.WriteString(fmt.Sprintf("### %d. Score %.2f\n", i+1, result.Score))
		if result.SourceURI != "" {
			sb.WriteString(fmt.Sprintf("**Source:** %s\n\n", result.SourceURI))
		}

		content := result.Content
		if len(content) > excerptLength {
			content = content[:excerptLength] + "..."
		}
		sb.WriteString(content)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// formatKnowledgeBaseInfo formats knowledge base status as markdown
func formatKnowledgeBaseInfo(info *models.KnowledgeBaseInfo) string {
	var sb strings.Builder
	sb.WriteString("## Knowledge Base\n\n")
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", info.KnowledgeBaseID))
	sb.WriteString(fmt.Sprintf("**Region:** %s\n", info.Region))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", info.Status))
	if info.Error != "" {
		sb.WriteString(fmt.Sprintf("**Error:** %s\n", info.Error))
	}
	return sb.String()
}

// formatSearchResults formats search results as markdown
func formatSearchResults(query string, docs []*models.Document) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\" (%d results)\n\n", query, len(docs)))

	if len(docs) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, doc.Title))
		sb.WriteString(fmt.Sprintf("**Source:** %s (%s)\n", doc.SourceType, doc.SourceID))
		if doc.URL != "" {
			sb.WriteString(fmt.Sprintf("**URL:** %s\n", doc.URL))
		}
		sb.WriteString(fmt.Sprintf("**Updated:** %s\n\n", doc.UpdatedAt.Format(time.RFC3339)))

		content := doc.ContentMarkdown
		if len(content) > 300 {
			content = content[:300] + "..."
		}
		sb.WriteString("#### Content:\n")
		sb.WriteString(content)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// formatDocument formats a single document as markdown
func formatDocument(doc *models.Document) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", doc.Title))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", doc.ID))
	sb.WriteString(fmt.Sprintf("**Source:** %s (%s)\n", doc.SourceType, doc.SourceID))
	if doc.URL != "" {
		sb.WriteString(fmt.Sprintf("**URL:** %s\n", doc.URL))
	}
	if doc.S3Key != "" {
		sb.WriteString(fmt.Sprintf("**S3 Key:** %s\n", doc.S3Key))
	}
	sb.WriteString(fmt.Sprintf("**Created:** %s\n", doc.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Updated:** %s\n\n", doc.UpdatedAt.Format(time.RFC3339)))

	sb.WriteString("## Content\n\n")
	sb.WriteString(doc.ContentMarkdown)
	sb.WriteString("\n")

	if len(doc.Metadata) > 0 {
		metadataJSON, _ := json.MarshalIndent(doc.Metadata, "", "  ")
		sb.WriteString(fmt.Sprintf("\n## Metadata\n\n```json\n%s\n```\n", string(metadataJSON)))
	}

	return sb.String()
}
