package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fallbackFunc func(ctx context.Context, text string) (Result, error)

func (f fallbackFunc) ClassifyIntent(ctx context.Context, text string) (Result, error) {
	return f(ctx, text)
}

// refusingFallback fails the test if the LLM is consulted at all.
func refusingFallback(t *testing.T) Fallback {
	return fallbackFunc(func(_ context.Context, text string) (Result, error) {
		t.Fatalf("LLM fallback invoked for rule-covered text %q", text)
		return Result{}, nil
	})
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Show my AI-888 wifi details!", "show my ai-888 wifi details"},
		{"flight AI‑888", "flight ai-888"}, // non-breaking hyphen folds to ASCII
		{"  What's   my    NEXT trip? ", "what s my next trip"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestClassify_Rules(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Result
	}{
		{"flight number alone", "What about AI-888?", Result{Intent: IntentFlight, FlightNumber: "AI-888"}},
		{"flight number lowercase input", "status of ai-888 please", Result{Intent: IntentFlight, FlightNumber: "AI-888"}},
		{"flight number unicode hyphen", "details on AI–888", Result{Intent: IntentFlight, FlightNumber: "AI-888"}},
		{"flight number without hyphen", "is BA42 on time", Result{Intent: IntentFlight, FlightNumber: "BA42"}},
		{"flight number with info topic", "Show my AI-888 wifi details", Result{Intent: IntentFlightInfo, FlightNumber: "AI-888", InfoTopic: "wifi"}},
		{"meals topic with flight", "Is there a meal on AI-999?", Result{Intent: IntentFlightInfo, FlightNumber: "AI-999", InfoTopic: "meals"}},
		{"baggage topic with flight", "AI-888 luggage allowance", Result{Intent: IntentFlightInfo, FlightNumber: "AI-888", InfoTopic: "baggage"}},
		{"aircraft topic with flight", "what plane is AI-888", Result{Intent: IntentFlightInfo, FlightNumber: "AI-888", InfoTopic: "aircraft"}},
		{"seating topic with flight", "seat pitch on AI-888", Result{Intent: IntentFlightInfo, FlightNumber: "AI-888", InfoTopic: "seating"}},
		{"list bookings", "list my bookings", Result{Intent: IntentAll}},
		{"show flights", "show flights", Result{Intent: IntentAll}},
		{"all trips", "all my trips", Result{Intent: IntentAll}},
		{"latest", "what's my latest booking", Result{Intent: IntentLatest}},
		{"next", "when is my next flight", Result{Intent: IntentLatest}},
		{"upcoming", "anything upcoming?", Result{Intent: IntentLatest}},
		{"where am i flying", "Where am I flying?", Result{Intent: IntentLatest}},
		{"itinerary", "send me my itinerary", Result{Intent: IntentAll}},
		{"travel plans", "what are my travel plans", Result{Intent: IntentAll}},
		{"topic without flight", "do I get wifi on board?", Result{Intent: IntentFlightInfo, InfoTopic: "wifi"}},
		{"meal priority over seating", "meal and seat options?", Result{Intent: IntentFlightInfo, InfoTopic: "meals"}},
		{"booking keyword", "I have a question about my booking", Result{Intent: IntentLatest}},
		{"ticket keyword", "lost my ticket", Result{Intent: IntentLatest}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier(refusingFallback(t))
			require.Equal(t, tc.want, c.Classify(context.Background(), tc.text))
		})
	}
}

// Rule-based classification must be deterministic: repeated calls agree and
// never touch the LLM.
func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(refusingFallback(t))
	text := "Show my AI-888 wifi details"
	first := c.Classify(context.Background(), text)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, c.Classify(context.Background(), text))
	}
}

func TestClassify_FlightNumberWinsOverTopicKeywords(t *testing.T) {
	// An explicit flight token always yields that token uppercased and
	// hyphen-normalized, whatever topic keywords co-occur.
	c := NewClassifier(refusingFallback(t))
	for _, text := range []string{
		"wifi and baggage on ai‑888?",
		"MEAL options, AI-888, seat pitch",
	} {
		got := c.Classify(context.Background(), text)
		require.Equal(t, "AI-888", got.FlightNumber, "text %q", text)
		require.Equal(t, IntentFlightInfo, got.Intent)
	}
}

func TestClassify_Fallback(t *testing.T) {
	t.Run("valid fallback result", func(t *testing.T) {
		c := NewClassifier(fallbackFunc(func(_ context.Context, _ string) (Result, error) {
			return Result{Intent: IntentLatest, FlightNumber: ""}, nil
		}))
		got := c.Classify(context.Background(), "hmm, remind me please")
		require.Equal(t, IntentLatest, got.Intent)
	})

	t.Run("invalid intent coerced to unknown", func(t *testing.T) {
		c := NewClassifier(fallbackFunc(func(_ context.Context, _ string) (Result, error) {
			return Result{Intent: "teleport"}, nil
		}))
		got := c.Classify(context.Background(), "hmm, remind me please")
		require.Equal(t, IntentUnknown, got.Intent)
	})

	t.Run("fallback error resolves to unknown", func(t *testing.T) {
		c := NewClassifier(fallbackFunc(func(_ context.Context, _ string) (Result, error) {
			return Result{}, errors.New("llm unreachable")
		}))
		got := c.Classify(context.Background(), "hmm, remind me please")
		require.Equal(t, Result{Intent: IntentUnknown}, got)
	})

	t.Run("nil fallback resolves to unknown", func(t *testing.T) {
		c := NewClassifier(nil)
		got := c.Classify(context.Background(), "hmm, remind me please")
		require.Equal(t, Result{Intent: IntentUnknown}, got)
	})
}
