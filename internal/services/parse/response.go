package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

// isThrottle reports whether an error is a Bedrock throttling response
func isThrottle(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "ThrottlingException") ||
		strings.Contains(msg, "TooManyRequests") ||
		strings.Contains(msg, "429")
}

// DecodeSummary parses the model response into a summary. Models often
// wrap JSON in markdown fences or add prose around it, so the decoder
// locates the outermost JSON object before unmarshalling.
func DecodeSummary(response string) (*models.AuditReportSummary, error) {
	cleaned := strings.TrimSpace(response)

	// Strip markdown code fences
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	// Locate the outermost JSON object
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	cleaned = cleaned[start : end+1]

	var summary models.AuditReportSummary
	if err := json.Unmarshal([]byte(cleaned), &summary); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}

	return &summary, nil
}
