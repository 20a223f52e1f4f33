// Package intent turns free-form user text into a structured booking intent.
// An ordered chain of deterministic rules handles the high-confidence cases;
// only the final catch-all consults the LLM.
package intent

import (
	"context"
	"regexp"
	"strings"
)

type Intent string

const (
	IntentLatest     Intent = "latest"
	IntentAll        Intent = "all"
	IntentFlight     Intent = "flight"
	IntentFlightInfo Intent = "flight_info"
	IntentUnknown    Intent = "unknown"
)

// Result is transient per-turn state; it is never persisted.
type Result struct {
	Intent       Intent `json:"intent"`
	FlightNumber string `json:"flight_number"`
	InfoTopic    string `json:"info_topic"`
}

// Fallback is the LLM classifier consulted only when every rule passes.
// Implementations are best-effort; any error resolves to IntentUnknown.
type Fallback interface {
	ClassifyIntent(ctx context.Context, text string) (Result, error)
}

var (
	unicodeHyphens = regexp.MustCompile(`[\x{2010}-\x{2015}]`)
	nonNormalChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	flightNumberRe = regexp.MustCompile(`\b([A-Z]{2,3}-?\d{2,4})\b`)
	listPhraseRe   = regexp.MustCompile(`\b(all|list|show)\s+(my\s+)?(flight|booking|trip)s?\b`)
	latestPhraseRe = regexp.MustCompile(`\b(latest|next|upcoming)\b`)
)

var bookingKeywords = []string{"booking", "flight", "ticket", "where am i flying", "where am i travelling"}

var itineraryKeywords = []string{"itinerary", "travel plans", "trip info"}

// input carries the per-call views of the text each rule keys off. The flight
// number is matched against the uppercased raw text, not the normalized form,
// so punctuation outside the token still bounds it.
type input struct {
	raw          string
	lowered      string
	normalized   string
	infoTopic    string
	flightNumber string
}

type rule struct {
	name  string
	apply func(in input) (Result, bool)
}

// orderedRules is the heuristic chain; first match wins and the order is
// load-bearing.
var orderedRules = []rule{
	{
		name: "flight-number",
		apply: func(in input) (Result, bool) {
			if in.flightNumber == "" {
				return Result{}, false
			}
			if in.infoTopic != "" {
				return Result{Intent: IntentFlightInfo, FlightNumber: in.flightNumber, InfoTopic: in.infoTopic}, true
			}
			return Result{Intent: IntentFlight, FlightNumber: in.flightNumber}, true
		},
	},
	{
		name: "list-all",
		apply: func(in input) (Result, bool) {
			if listPhraseRe.MatchString(in.normalized) {
				return Result{Intent: IntentAll}, true
			}
			return Result{}, false
		},
	},
	{
		name: "latest",
		apply: func(in input) (Result, bool) {
			if latestPhraseRe.MatchString(in.normalized) || strings.Contains(in.normalized, "where am i flying") {
				return Result{Intent: IntentLatest}, true
			}
			return Result{}, false
		},
	},
	{
		name: "itinerary",
		apply: func(in input) (Result, bool) {
			for _, kw := range itineraryKeywords {
				if strings.Contains(in.normalized, kw) {
					return Result{Intent: IntentAll}, true
				}
			}
			return Result{}, false
		},
	},
	{
		name: "info-topic",
		apply: func(in input) (Result, bool) {
			if in.infoTopic != "" {
				return Result{Intent: IntentFlightInfo, InfoTopic: in.infoTopic}, true
			}
			return Result{}, false
		},
	},
	{
		name: "booking-keyword",
		apply: func(in input) (Result, bool) {
			for _, kw := range bookingKeywords {
				if strings.Contains(in.lowered, kw) {
					return Result{Intent: IntentLatest}, true
				}
			}
			return Result{}, false
		},
	},
}

type Classifier struct {
	fallback Fallback
}

// NewClassifier builds a classifier; fallback may be nil, in which case
// unmatched text resolves to IntentUnknown without any LLM call.
func NewClassifier(fallback Fallback) *Classifier {
	return &Classifier{fallback: fallback}
}

// Classify runs the rule chain over text. The chain is deterministic; only
// text no rule claims reaches the LLM fallback.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	in := input{
		raw:        text,
		lowered:    strings.ToLower(text),
		normalized: Normalize(text),
	}
	in.infoTopic = detectInfoTopic(in.normalized)
	in.flightNumber = detectFlightNumber(text)

	for _, r := range orderedRules {
		if result, ok := r.apply(in); ok {
			return result
		}
	}

	if c.fallback == nil {
		return Result{Intent: IntentUnknown}
	}
	result, err := c.fallback.ClassifyIntent(ctx, text)
	if err != nil {
		return Result{Intent: IntentUnknown}
	}
	if !ValidIntent(result.Intent) {
		result.Intent = IntentUnknown
	}
	result.InfoTopic = ""
	return result
}

// Normalize folds unicode hyphen variants to ASCII, lowercases, strips
// everything outside [a-z0-9\s-] and collapses whitespace.
func Normalize(text string) string {
	text = unicodeHyphens.ReplaceAllString(text, "-")
	text = nonNormalChars.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Join(strings.Fields(text), " ")
}

// detectInfoTopic checks keyword membership in priority order; first match wins.
func detectInfoTopic(normalized string) string {
	type topic struct {
		name     string
		keywords []string
	}
	topics := []topic{
		{"meals", []string{"meal", "food", "snack"}},
		{"wifi", []string{"wifi"}},
		{"baggage", []string{"baggage", "luggage"}},
		{"aircraft", []string{"aircraft", "plane", "type"}},
		{"seating", []string{"seat", "legroom", "pitch"}},
	}
	for _, t := range topics {
		for _, kw := range t.keywords {
			if strings.Contains(normalized, kw) {
				return t.name
			}
		}
	}
	return ""
}

// detectFlightNumber matches codes like AI-888 or BA42 against the raw text,
// uppercased and with unicode hyphens folded.
func detectFlightNumber(raw string) string {
	candidate := unicodeHyphens.ReplaceAllString(strings.ToUpper(raw), "-")
	if m := flightNumberRe.FindStringSubmatch(candidate); m != nil {
		return m[1]
	}
	return ""
}

func ValidIntent(i Intent) bool {
	switch i {
	case IntentLatest, IntentAll, IntentFlight, IntentFlightInfo, IntentUnknown:
		return true
	}
	return false
}
