package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"gateready.app/booking-assistant/internal/intent"
	"gateready.app/booking-assistant/internal/llm"
	"gateready.app/booking-assistant/internal/store"
	"gateready.app/booking-assistant/internal/thread"
)

const (
	// AnonymousThreadID keys the shared thread for unauthenticated callers.
	AnonymousThreadID = "anon"

	maxBookingsInReply = 5

	chatSystemPrompt = "You are a secure booking assistant. Be concise and helpful. " +
		"If the user asks about bookings, tell them you will check their latest booking."

	cannedGreeting    = "Hi! Ask me about your bookings."
	fallbackChatReply = "I can help with booking info. Try asking about your next flight."
	noBookingReply    = "I couldn't find a booking for your account. Please verify you're logged in."
	noBookingsReply   = "I couldn't find any bookings for your account."
	askFlightNumber   = "Which flight number do you want details for?"
)

var greetingPrefixes = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening"}

// AuthContext is the per-request identity the caller derives from the auth
// layer. The access token stays opaque here; only the gateway forwards it.
type AuthContext struct {
	UserID          string
	IsAuthenticated bool
	AccessToken     string
}

// Gateway is the data-access boundary. Absence is its only failure signal.
type Gateway interface {
	LatestBooking(ctx context.Context, accessToken string) *store.Booking
	AllBookings(ctx context.Context, accessToken string) []store.Booking
	BookingByFlight(ctx context.Context, accessToken, flightNumber string) *store.Booking
	FlightInfo(ctx context.Context, accessToken, flightNumber string) *store.FlightInfo
}

// UserDirectory resolves a user id for greeting personalization.
type UserDirectory interface {
	GetUserByID(userID string) (*store.User, error)
}

// Orchestrator runs one conversation turn: greeting shortcut, intent
// classification, the matching data-fetch branch, composition, and the two
// appends to the thread. Turns for the same thread are serialized; turns for
// different threads run concurrently.
type Orchestrator struct {
	threads    thread.Store
	gateway    Gateway
	llm        llm.Client
	users      UserDirectory
	classifier *intent.Classifier
	composer   *Composer

	locks sync.Map // thread id -> *sync.Mutex
}

func NewOrchestrator(threads thread.Store, gw Gateway, llmClient llm.Client, users UserDirectory) *Orchestrator {
	return &Orchestrator{
		threads:    threads,
		gateway:    gw,
		llm:        llmClient,
		users:      users,
		classifier: intent.NewClassifier(llmClient),
		composer:   NewComposer(llmClient),
	}
}

// ThreadID resolves the thread for this caller: the authenticated user id,
// or the anonymous sentinel.
func ThreadID(auth AuthContext) string {
	if auth.IsAuthenticated && auth.UserID != "" {
		return auth.UserID
	}
	return AnonymousThreadID
}

func (o *Orchestrator) lockFor(threadID string) *sync.Mutex {
	mu, _ := o.locks.LoadOrStore(threadID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Turn processes one user utterance and returns the full appended message
// log. A thread-store failure fails the turn; every other downstream failure
// degrades to a deterministic reply.
func (o *Orchestrator) Turn(ctx context.Context, auth AuthContext, text string) ([]thread.Message, error) {
	threadID := ThreadID(auth)
	mu := o.lockFor(threadID)
	mu.Lock()
	defer mu.Unlock()

	history, err := o.threads.Load(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed != "" {
		userMsg := thread.Message{Role: thread.RoleUser, Content: text}
		if err := o.threads.Append(ctx, threadID, userMsg); err != nil {
			return nil, fmt.Errorf("failed to append user message: %w", err)
		}
		history = append(history, userMsg)
	}

	reply := o.respond(ctx, auth, history, trimmed)

	assistantMsg := thread.Message{Role: thread.RoleAssistant, Content: reply}
	if err := o.threads.Append(ctx, threadID, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to append assistant message: %w", err)
	}
	return append(history, assistantMsg), nil
}

// ClearThread drops a conversation, e.g. on logout.
func (o *Orchestrator) ClearThread(ctx context.Context, threadID string) error {
	mu := o.lockFor(threadID)
	mu.Lock()
	defer mu.Unlock()
	return o.threads.Clear(ctx, threadID)
}

// ThreadStoreKind reports the configured backend for health checks.
func (o *Orchestrator) ThreadStoreKind() string {
	return o.threads.Kind()
}

func (o *Orchestrator) respond(ctx context.Context, auth AuthContext, history []thread.Message, trimmed string) string {
	if trimmed == "" {
		return cannedGreeting
	}
	if isGreeting(trimmed) {
		return o.greet(auth)
	}

	result := o.classifier.Classify(ctx, trimmed)
	switch result.Intent {
	case intent.IntentLatest:
		return o.latestBooking(ctx, auth)
	case intent.IntentAll:
		return o.allBookings(ctx, auth)
	case intent.IntentFlight:
		return o.bookingByFlight(ctx, auth, result.FlightNumber)
	case intent.IntentFlightInfo:
		return o.flightInfo(ctx, auth, result.FlightNumber, trimmed)
	default:
		return o.generalChat(ctx, history)
	}
}

func isGreeting(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, g := range greetingPrefixes {
		if strings.HasPrefix(lowered, g) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) greet(auth AuthContext) string {
	displayName := "there"
	if auth.IsAuthenticated && auth.UserID != "" {
		user, err := o.users.GetUserByID(auth.UserID)
		if err != nil {
			log.Printf("Failed to look up user %s for greeting: %v", auth.UserID, err)
		} else if user != nil && user.Username != "" {
			displayName = user.Username
		}
	}
	return fmt.Sprintf("Hi, %s! How can I help you with bookings today?", displayName)
}

func (o *Orchestrator) latestBooking(ctx context.Context, auth AuthContext) string {
	booking := o.gateway.LatestBooking(ctx, auth.AccessToken)
	if booking == nil {
		return noBookingReply
	}
	return o.composer.BookingSummary(ctx, booking)
}

func (o *Orchestrator) allBookings(ctx context.Context, auth AuthContext) string {
	bookings := o.gateway.AllBookings(ctx, auth.AccessToken)
	if len(bookings) == 0 {
		return noBookingsReply
	}

	shown := bookings
	if len(shown) > maxBookingsInReply {
		shown = shown[:maxBookingsInReply]
	}
	lines := make([]string, 0, len(shown))
	for i := range shown {
		lines = append(lines, BookingLine(&shown[i]))
	}

	reply := "Here are your bookings: " + strings.Join(lines, "; ")
	if extra := len(bookings) - maxBookingsInReply; extra > 0 {
		reply += fmt.Sprintf(" And %d more.", extra)
	}
	return reply
}

func (o *Orchestrator) bookingByFlight(ctx context.Context, auth AuthContext, flightNumber string) string {
	booking := o.gateway.BookingByFlight(ctx, auth.AccessToken, flightNumber)
	if booking == nil {
		return fmt.Sprintf("I couldn't find a booking for flight %s.", flightNumber)
	}
	return FlightLine(booking)
}

func (o *Orchestrator) flightInfo(ctx context.Context, auth AuthContext, flightNumber, question string) string {
	if flightNumber == "" {
		return askFlightNumber
	}
	info := o.gateway.FlightInfo(ctx, auth.AccessToken, flightNumber)
	if info == nil {
		return fmt.Sprintf("I couldn't find info for flight %s.", flightNumber)
	}
	return o.composer.FlightInfoAnswer(ctx, flightNumber, info.DetailsText, question)
}

func (o *Orchestrator) generalChat(ctx context.Context, history []thread.Message) string {
	converted := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		converted = append(converted, llm.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	reply, err := o.llm.ChatCompletion(ctx, chatSystemPrompt, converted)
	if err != nil || reply == "" {
		if err != nil && err != llm.ErrUnavailable {
			log.Printf("General chat completion failed, using fallback: %v", err)
		}
		return fallbackChatReply
	}
	return reply
}
