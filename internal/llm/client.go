package llm

import (
	"context"
	"errors"

	"gateready.app/booking-assistant/internal/intent"
)

// ErrUnavailable means no usable LLM is configured or reachable. Callers are
// expected to degrade to their deterministic fallback text.
var ErrUnavailable = errors.New("llm unavailable")

type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// BookingFields is the full payload a booking render may draw on; the
// renderer must not introduce facts beyond these.
type BookingFields struct {
	FlightNumber string
	Origin       string
	Destination  string
	Date         string
	Status       string
}

// Client is the LLM boundary. Every method is best-effort and bounded by a
// per-call timeout; the orchestrator never depends on one succeeding.
type Client interface {
	// ChatCompletion answers a whole conversation under the given system prompt.
	ChatCompletion(ctx context.Context, systemPrompt string, history []ChatMessage) (string, error)
	// ClassifyIntent is the classifier's rule-chain fallback.
	ClassifyIntent(ctx context.Context, text string) (intent.Result, error)
	// BookingSummary renders one sentence grounded strictly in the fields.
	BookingSummary(ctx context.Context, booking BookingFields) (string, error)
	// FlightInfoAnswer answers the literal question from the details blob only.
	FlightInfoAnswer(ctx context.Context, detailsText, question string) (string, error)
	Close()
}

// Disabled is the no-key deployment mode: every call reports ErrUnavailable
// so all LLM-dependent paths take their deterministic fallbacks.
type Disabled struct{}

func (Disabled) ChatCompletion(context.Context, string, []ChatMessage) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) ClassifyIntent(context.Context, string) (intent.Result, error) {
	return intent.Result{}, ErrUnavailable
}

func (Disabled) BookingSummary(context.Context, BookingFields) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) FlightInfoAnswer(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) Close() {}
