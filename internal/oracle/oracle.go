package oracle

import (
	"context"
	"errors"
	"fmt"

	"fs-organizer/internal/contextutil"
	"fs-organizer/internal/llm"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_oracle.go -package=mocks fs-organizer/internal/oracle Oracle

// Oracle makes the semantic placement decision for a batch of items.
type Oracle interface {
	Classify(ctx context.Context, req *Request) (*Response, error)
}

// Completer is the JSON-mode chat completion the LLM oracle relies on.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMOracle classifies batches by prompting a chat completion model.
type LLMOracle struct {
	completer Completer
}

// NewLLMOracle creates an oracle backed by completer.
func NewLLMOracle(completer Completer) *LLMOracle {
	return &LLMOracle{completer: completer}
}

// Classify renders the prompt, asks the model, and decodes and validates
// its answer. Malformed answers yield an error matching ErrContract.
func (o *LLMOracle) Classify(ctx context.Context, req *Request) (*Response, error) {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := o.completer.CompleteJSON(ctx, SystemPrompt, RenderPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("classify batch: %w", err)
	}

	var resp Response
	if err := llm.DecodeJSON(content, &resp); err != nil {
		logger.DebugContext(ctx, "undecodable oracle response", "content", content)
		var contractErr *ContractError
		if errors.As(err, &contractErr) {
			return nil, contractErr
		}
		return nil, &ContractError{Field: "response", Reason: err.Error()}
	}
	if err := resp.Validate(req); err != nil {
		return nil, err
	}
	return &resp, nil
}
