package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/orcd/orcd/internal/model"
)

// AnthropicRunner invokes the Anthropic API directly, in-process,
// rather than shelling out to a CLI binary. It is useful in
// environments with no local agent binary installed (CI runners,
// containers without the CLI). The model is instructed to emit the
// PhaseResult document as its entire final response so the same
// ParsePhaseResult path as SubprocessRunner applies.
type AnthropicRunner struct {
	Client anthropic.Client
	Model  anthropic.Model
}

// NewAnthropicRunner builds a runner reading its API key from the
// environment, following the SDK's own default client construction.
func NewAnthropicRunner(model_ anthropic.Model) *AnthropicRunner {
	client := anthropic.NewClient(option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")))
	return &AnthropicRunner{Client: client, Model: model_}
}

func (r *AnthropicRunner) RunAgent(ctx context.Context, prompt, resultPath string, timeout time.Duration) (*model.PhaseResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	instructed := prompt + "\n\nRespond with exactly one JSON object matching the PhaseResult schema, and nothing else."

	msg, err := r.Client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     r.Model,
		MaxTokens: 8192,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(instructed)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic message request failed: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("anthropic response contained no text content")
	}

	if err := os.WriteFile(resultPath, []byte(text), 0644); err != nil {
		return nil, fmt.Errorf("writing anthropic result to %s: %w", resultPath, err)
	}
	return ParsePhaseResult(resultPath)
}
