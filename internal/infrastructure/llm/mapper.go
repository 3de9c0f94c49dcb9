package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

const systemPrompt = `You compare grocery listings from different stores.
Decide whether two listings are the same physical product: same brand, same variant, same pack size.
Answer with a JSON object {"is_match": true|false, "confidence": number between 0 and 1} and nothing else.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type verdict struct {
	IsMatch    bool    `json:"is_match"`
	Confidence float64 `json:"confidence"`
}

// jsonFencePattern extracts the body of a ```json fenced block
var jsonFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

func buildRequest(model string, a, b domain.CatalogEntry) chatRequest {
	user := fmt.Sprintf("Listing A (%s): %s\nListing B (%s): %s", a.Store, a.Name, b.Store, b.Name)

	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		Temperature:    0,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
}

// parseConfirmation reads the verdict from the first choice, tolerating
// models that wrap the JSON in a code fence
func parseConfirmation(resp chatResponse) (domain.Confirmation, error) {
	if len(resp.Choices) == 0 {
		return domain.Confirmation{}, fmt.Errorf("%w: response has no choices", domain.ErrOracleFailure)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if m := jsonFencePattern.FindStringSubmatch(content); m != nil {
		content = m[1]
	}

	var v verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return domain.Confirmation{}, fmt.Errorf("%w: unparseable verdict %q: %v", domain.ErrOracleFailure, content, err)
	}

	confidence := v.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return domain.Confirmation{IsMatch: v.IsMatch, Confidence: confidence}, nil
}
