package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"gateready.app/booking-assistant/internal/auth"
	"gateready.app/booking-assistant/internal/core"
	"gateready.app/booking-assistant/internal/store"
	"gateready.app/booking-assistant/internal/thread"
)

// TurnService is the slice of the orchestrator the handlers need.
type TurnService interface {
	Turn(ctx context.Context, authCtx core.AuthContext, text string) ([]thread.Message, error)
	ClearThread(ctx context.Context, threadID string) error
	ThreadStoreKind() string
}

type APIHandler struct {
	store   *store.SQLiteStore
	turns   TurnService
	revoked *auth.RevokedSet
}

func NewAPIHandler(db *store.SQLiteStore, turns TurnService, revoked *auth.RevokedSet) *APIHandler {
	return &APIHandler{store: db, turns: turns, revoked: revoked}
}

type ctxKey int

const authContextKey ctxKey = iota

// AuthContextMiddleware resolves the Authorization header into a
// core.AuthContext for every request. Resolution never fails: a missing or
// invalid token just yields an unauthenticated context.
func (h *APIHandler) AuthContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		result := auth.DecodeBearerToken(header)
		authCtx := core.AuthContext{
			UserID:          result.UserID,
			IsAuthenticated: result.IsAuthenticated,
			AccessToken:     auth.BearerToken(header),
		}
		ctx := context.WithValue(r.Context(), authContextKey, authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth gates the booking data routes.
func (h *APIHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authFromContext(r).IsAuthenticated {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authFromContext(r *http.Request) core.AuthContext {
	authCtx, _ := r.Context().Value(authContextKey).(core.AuthContext)
	return authCtx
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.Username, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	h.writeTokenPair(w, user.UserID)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *APIHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result := auth.DecodeRefreshToken(req.RefreshToken)
	if !result.IsAuthenticated || result.UserID == "" || result.TokenID == "" {
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}
	if h.revoked.Contains(result.TokenID) {
		http.Error(w, "Refresh token revoked", http.StatusUnauthorized)
		return
	}
	// Rotation: each refresh token is good for exactly one exchange.
	h.revoked.Add(result.TokenID)

	h.writeTokenPair(w, result.UserID)
}

func (h *APIHandler) writeTokenPair(w http.ResponseWriter, userID string) {
	accessToken, err := auth.GenerateJWT(userID)
	if err != nil {
		log.Printf("Error generating access token for user %s: %v", userID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	refreshToken, err := auth.GenerateRefreshJWT(userID)
	if err != nil {
		log.Printf("Error generating refresh token for user %s: %v", userID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result := auth.DecodeRefreshToken(req.RefreshToken)
	if !result.IsAuthenticated || result.TokenID == "" {
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}
	h.revoked.Add(result.TokenID)

	if result.UserID != "" {
		if err := h.turns.ClearThread(r.Context(), result.UserID); err != nil {
			log.Printf("Failed to clear thread for user %s on logout: %v", result.UserID, err)
		}
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	authCtx := authFromContext(r)
	messages, err := h.turns.Turn(r.Context(), authCtx, req.Message)
	if err != nil {
		// The turn cannot proceed without the thread store; this is the one
		// failure that surfaces as a request error.
		log.Printf("Turn failed for thread %s: %v", core.ThreadID(authCtx), err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	reply := ""
	if len(messages) > 0 {
		reply = messages[len(messages)-1].Content
	}
	json.NewEncoder(w).Encode(ChatResponse{Reply: reply})
}

type BookingCreateRequest struct {
	UserID       string `json:"user_id"`
	FlightNumber string `json:"flight_number"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Date         string `json:"date"`
	Status       string `json:"status"`
}

type BookingCreateResponse struct {
	BookingID string `json:"booking_id"`
}

func (h *APIHandler) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	var req BookingCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	authCtx := authFromContext(r)
	if req.UserID != authCtx.UserID {
		http.Error(w, "Cannot create booking for another user", http.StatusForbidden)
		return
	}
	if err := validateISODate(req.Date); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	booking := store.Booking{
		UserID:       req.UserID,
		FlightNumber: req.FlightNumber,
		Origin:       req.Origin,
		Destination:  req.Destination,
		Date:         req.Date,
		Status:       req.Status,
	}
	if err := h.store.CreateBooking(&booking); err != nil {
		log.Printf("Error creating booking for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to create booking", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(BookingCreateResponse{BookingID: booking.BookingID})
}

func validateISODate(value string) error {
	candidate := value
	if strings.HasSuffix(candidate, "Z") {
		candidate = strings.TrimSuffix(candidate, "Z") + "+00:00"
	}
	if _, err := time.Parse("2006-01-02T15:04:05-07:00", candidate); err != nil {
		if _, err := time.Parse("2006-01-02T15:04:05", candidate); err != nil {
			return fmt.Errorf("date must be ISO 8601 (e.g. 2026-04-01T09:30:00Z)")
		}
	}
	return nil
}

func (h *APIHandler) ListBookingsHandler(w http.ResponseWriter, r *http.Request) {
	authCtx := authFromContext(r)
	filter := store.BookingFilter{
		Origin:      r.URL.Query().Get("origin"),
		Destination: r.URL.Query().Get("destination"),
		Status:      r.URL.Query().Get("status"),
	}

	bookings, err := h.store.GetBookingsByUserID(authCtx.UserID, filter)
	if err != nil {
		log.Printf("Error listing bookings for user %s: %v", authCtx.UserID, err)
		http.Error(w, "Failed to list bookings", http.StatusInternalServerError)
		return
	}
	if bookings == nil {
		bookings = []store.Booking{}
	}
	json.NewEncoder(w).Encode(bookings)
}

func (h *APIHandler) LatestBookingHandler(w http.ResponseWriter, r *http.Request) {
	authCtx := authFromContext(r)
	booking, err := h.store.GetLatestBooking(authCtx.UserID)
	if err != nil {
		log.Printf("Error getting latest booking for user %s: %v", authCtx.UserID, err)
		http.Error(w, "Failed to get latest booking", http.StatusInternalServerError)
		return
	}
	if booking == nil {
		http.Error(w, "No booking found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(booking)
}

func (h *APIHandler) BookingByFlightHandler(w http.ResponseWriter, r *http.Request) {
	authCtx := authFromContext(r)
	flightNumber := chi.URLParam(r, "flightNumber")

	booking, err := h.store.GetBookingByFlight(authCtx.UserID, flightNumber)
	if err != nil {
		log.Printf("Error getting booking %s for user %s: %v", flightNumber, authCtx.UserID, err)
		http.Error(w, "Failed to get booking", http.StatusInternalServerError)
		return
	}
	if booking == nil {
		http.Error(w, "No booking found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(booking)
}

func (h *APIHandler) FlightInfoHandler(w http.ResponseWriter, r *http.Request) {
	flightNumber := chi.URLParam(r, "flightNumber")

	info, err := h.store.GetFlightInfo(flightNumber)
	if err != nil {
		log.Printf("Error getting flight info %s: %v", flightNumber, err)
		http.Error(w, "Failed to get flight info", http.StatusInternalServerError)
		return
	}
	if info == nil {
		http.Error(w, "No flight info found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(info)
}

func (h *APIHandler) SeedHandler(w http.ResponseWriter, r *http.Request) {
	if err := Seed(h.store); err != nil {
		log.Printf("Seeding failed: %v", err)
		http.Error(w, "Failed to seed", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "seeded"})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":       "ok",
		"thread_store": h.turns.ThreadStoreKind(),
	})
}
