package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GenerationError indicates the model did not return the expected structured
// shape. Callers are expected to recover locally rather than crash the turn.
type GenerationError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("llm %s: malformed structured output: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

const jsonInstruction = "Respond ONLY with valid JSON. No markdown, no explanation."

// InvokeStructured sends a prompt and unmarshals the JSON response into out.
// Markdown code fences around the payload are tolerated and stripped. A
// response that does not parse yields a *GenerationError.
func InvokeStructured(ctx context.Context, client Client, req *CompletionRequest, out any) error {
	system := req.System
	if system == "" {
		system = jsonInstruction
	} else {
		system = system + "\n" + jsonInstruction
	}

	resp, err := client.Complete(ctx, &CompletionRequest{
		Model:       req.Model,
		System:      system,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return &GenerationError{Provider: client.Name(), Err: err}
	}

	cleaned := stripFences(resp.Content)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &GenerationError{Provider: client.Name(), Raw: resp.Content, Err: err}
	}

	return nil
}

func stripFences(s string) string {
	cleaned := strings.TrimSpace(s)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[3:]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
