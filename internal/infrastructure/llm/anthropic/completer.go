package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/resilience"
)

// MessageCreator is the slice of the SDK client the completer needs.
type MessageCreator interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

type Completer struct {
	messages  MessageCreator
	model     string
	maxTokens int64
	executor  *resilience.Executor
}

func New(apiKey, model string, maxTokens int64, executor *resilience.Executor) *Completer {
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewWithMessages(&client.Messages, model, maxTokens, executor)
}

func NewWithMessages(messages MessageCreator, model string, maxTokens int64, executor *resilience.Executor) *Completer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Completer{
		messages:  messages,
		model:     model,
		maxTokens: maxTokens,
		executor:  executor,
	}
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	var text string
	call := func(callCtx context.Context) error {
		msg, err := c.messages.New(callCtx, sdk.MessageNewParams{
			Model:     sdk.Model(c.model),
			MaxTokens: c.maxTokens,
			Messages: []sdk.MessageParam{
				sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return fmt.Errorf("anthropic create message: %w", err)
		}
		text = joinText(msg)
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "anthropic.messages", call, classifyAnthropicError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if classifyAnthropicError(err).Retryable || resilience.IsCircuitOpen(err) {
			return "", domain.WrapError(domain.ErrTemporary, "anthropic complete", err)
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func joinText(msg *sdk.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

func classifyAnthropicError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.Ignored
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Ignored
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.Transient
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout, 529:
			return resilience.Transient
		default:
			return resilience.Ignored
		}
	}
	return resilience.Permanent
}
