package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/llm"
)

const systemInstruction = `You answer questions about ISCC certificates and audit reports.
Use only the retrieved passages provided in the conversation. If the passages do not
contain the answer, say so instead of guessing. Cite the source document for every
claim using its s3 URI.`

// defaultRetrievalLimit is the number of passages pulled from the
// knowledge base per question
const defaultRetrievalLimit = 5

// contentGenerator is the subset of the provider factory used by the
// agent, narrowed so tests can substitute a fake
type contentGenerator interface {
	GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error)
}

// Answer is the agent's response to a question, including the passages
// it was grounded on
type Answer struct {
	Text    string
	Model   string
	Sources []*models.RetrievalResult
}

// Agent answers natural language questions about archived certificates
// by retrieving knowledge base passages and prompting an LLM over them
type Agent struct {
	kb        interfaces.KnowledgeBaseService
	generator contentGenerator
	logger    arbor.ILogger
}

// NewAgent creates a question answering agent
func NewAgent(kb interfaces.KnowledgeBaseService, generator contentGenerator, logger arbor.ILogger) *Agent {
	return &Agent{
		kb:        kb,
		generator: generator,
		logger:    logger,
	}
}

// Ask retrieves passages matching the question and generates a grounded
// answer with source citations
func (a *Agent) Ask(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	results, err := a.kb.Retrieve(ctx, question, defaultRetrievalLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve passages: %w", err)
	}
	if len(results) == 0 {
		return &Answer{
			Text: "No documents in the knowledge base match this question.",
		}, nil
	}

	a.logger.Debug().
		Str("question", question).
		Int("passages", len(results)).
		Msg("Answering question from knowledge base")

	response, err := a.generator.GenerateContent(ctx, &llm.ContentRequest{
		SystemInstruction: systemInstruction,
		Messages: []interfaces.Message{
			{Role: "user", Content: composePrompt(question, results)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &Answer{
		Text:    response.Text,
		Model:   response.Model,
		Sources: results,
	}, nil
}

// composePrompt renders the retrieved passages and the question into a
// single user turn
func composePrompt(question string, results []*models.RetrievalResult) string {
	var b strings.Builder
	b.WriteString("Retrieved passages:\n\n")
	for i, result := range results {
		fmt.Fprintf(&b, "[%d] Source: %s (score %.2f)\n%s\n\n", i+1, result.SourceURI, result.Score, result.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
