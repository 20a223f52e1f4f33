package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"gateready.app/booking-assistant/internal/auth"
	"gateready.app/booking-assistant/internal/config"
	"gateready.app/booking-assistant/internal/core"
	"gateready.app/booking-assistant/internal/store"
	"gateready.app/booking-assistant/internal/thread"
)

type fakeTurns struct {
	reply          string
	err            error
	lastAuth       core.AuthContext
	lastText       string
	clearedThreads []string
}

func (f *fakeTurns) Turn(_ context.Context, authCtx core.AuthContext, text string) ([]thread.Message, error) {
	f.lastAuth = authCtx
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return []thread.Message{
		{Role: thread.RoleUser, Content: text},
		{Role: thread.RoleAssistant, Content: f.reply},
	}, nil
}

func (f *fakeTurns) ClearThread(_ context.Context, threadID string) error {
	f.clearedThreads = append(f.clearedThreads, threadID)
	return nil
}

func (f *fakeTurns) ThreadStoreKind() string { return "fake" }

func setupAPI(t *testing.T) (*httptest.Server, *store.SQLiteStore, *fakeTurns) {
	t.Helper()
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.JWTRefreshSecret = "test-refresh-secret"
	config.AppConfig.AccessTTLMinutes = 15
	config.AppConfig.RefreshTTLDays = 7

	db, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Seed(db))

	turns := &fakeTurns{reply: "assistant reply"}
	srv := httptest.NewServer(NewRouter(NewAPIHandler(db, turns, auth.NewRevokedSet())))
	t.Cleanup(srv.Close)
	return srv, db, turns
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getWithToken(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func login(t *testing.T, srv *httptest.Server) TokenPairResponse {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/login", LoginRequest{Username: "user_123", Password: "demo-pass"}, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokens TokenPairResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokens))
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	return tokens
}

func TestLogin(t *testing.T) {
	srv, _, _ := setupAPI(t)

	t.Run("valid credentials", func(t *testing.T) {
		tokens := login(t, srv)
		require.Equal(t, "bearer", tokens.TokenType)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/login", LoginRequest{Username: "user_123", Password: "nope"}, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/login", LoginRequest{Username: "ghost", Password: "demo-pass"}, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRefreshRotation(t *testing.T) {
	srv, _, _ := setupAPI(t)
	tokens := login(t, srv)

	resp := postJSON(t, srv.URL+"/api/refresh", RefreshRequest{RefreshToken: tokens.RefreshToken}, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated TokenPairResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rotated))
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The first refresh token is spent now.
	replay := postJSON(t, srv.URL+"/api/refresh", RefreshRequest{RefreshToken: tokens.RefreshToken}, nil)
	defer replay.Body.Close()
	require.Equal(t, http.StatusUnauthorized, replay.StatusCode)

	garbage := postJSON(t, srv.URL+"/api/refresh", RefreshRequest{RefreshToken: "garbage"}, nil)
	defer garbage.Body.Close()
	require.Equal(t, http.StatusUnauthorized, garbage.StatusCode)
}

func TestLogoutClearsThreadAndRevokes(t *testing.T) {
	srv, _, turns := setupAPI(t)
	tokens := login(t, srv)

	resp := postJSON(t, srv.URL+"/api/logout", LogoutRequest{RefreshToken: tokens.RefreshToken}, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"user_123"}, turns.clearedThreads)

	// The revoked refresh token cannot be exchanged afterwards.
	replay := postJSON(t, srv.URL+"/api/refresh", RefreshRequest{RefreshToken: tokens.RefreshToken}, nil)
	defer replay.Body.Close()
	require.Equal(t, http.StatusUnauthorized, replay.StatusCode)
}

func TestChat(t *testing.T) {
	t.Run("anonymous caller", func(t *testing.T) {
		srv, _, turns := setupAPI(t)
		resp := postJSON(t, srv.URL+"/api/chat", ChatRequest{Message: "Hello"}, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var chat ChatResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&chat))
		require.Equal(t, "assistant reply", chat.Reply)
		require.False(t, turns.lastAuth.IsAuthenticated)
	})

	t.Run("authenticated caller carries token through", func(t *testing.T) {
		srv, _, turns := setupAPI(t)
		tokens := login(t, srv)

		resp := postJSON(t, srv.URL+"/api/chat", ChatRequest{Message: "list my bookings"},
			map[string]string{"Authorization": "Bearer " + tokens.AccessToken})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, turns.lastAuth.IsAuthenticated)
		require.Equal(t, "user_123", turns.lastAuth.UserID)
		require.Equal(t, tokens.AccessToken, turns.lastAuth.AccessToken)
		require.Equal(t, "list my bookings", turns.lastText)
	})

	t.Run("thread store failure surfaces as 500", func(t *testing.T) {
		srv, _, turns := setupAPI(t)
		turns.err = errors.New("thread store unavailable")

		resp := postJSON(t, srv.URL+"/api/chat", ChatRequest{Message: "Hello"}, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestBookingRoutes(t *testing.T) {
	srv, _, _ := setupAPI(t)
	tokens := login(t, srv)

	t.Run("unauthorized without token", func(t *testing.T) {
		resp := getWithToken(t, srv.URL+"/api/bookings/latest", "")
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("latest", func(t *testing.T) {
		resp := getWithToken(t, srv.URL+"/api/bookings/latest", tokens.AccessToken)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var booking store.Booking
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&booking))
		require.Equal(t, "AI-999", booking.FlightNumber) // later date wins
	})

	t.Run("list with filter", func(t *testing.T) {
		resp := getWithToken(t, srv.URL+"/api/bookings?origin=Pune", tokens.AccessToken)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var bookings []store.Booking
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&bookings))
		require.Len(t, bookings, 1)
		require.Equal(t, "AI-888", bookings[0].FlightNumber)
	})

	t.Run("by flight", func(t *testing.T) {
		resp := getWithToken(t, srv.URL+"/api/bookings/flight/AI-888", tokens.AccessToken)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		missing := getWithToken(t, srv.URL+"/api/bookings/flight/XX-000", tokens.AccessToken)
		defer missing.Body.Close()
		require.Equal(t, http.StatusNotFound, missing.StatusCode)
	})

	t.Run("flight info", func(t *testing.T) {
		resp := getWithToken(t, srv.URL+"/api/flight-info/AI-888", tokens.AccessToken)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var info store.FlightInfo
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		require.Contains(t, info.DetailsText, "Wi-Fi is not available")

		missing := getWithToken(t, srv.URL+"/api/flight-info/XX-000", tokens.AccessToken)
		defer missing.Body.Close()
		require.Equal(t, http.StatusNotFound, missing.StatusCode)
	})
}

func TestCreateBooking(t *testing.T) {
	srv, db, _ := setupAPI(t)
	tokens := login(t, srv)
	authHeader := map[string]string{"Authorization": "Bearer " + tokens.AccessToken}

	t.Run("created", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/bookings", BookingCreateRequest{
			UserID: "user_123", FlightNumber: "AI-777", Origin: "Mumbai",
			Destination: "Goa", Date: "2026-05-01T08:00:00Z", Status: "Confirmed",
		}, authHeader)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created BookingCreateResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		require.NotEmpty(t, created.BookingID)

		stored, err := db.GetBookingByFlight("user_123", "AI-777")
		require.NoError(t, err)
		require.NotNil(t, stored)
	})

	t.Run("other user forbidden", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/bookings", BookingCreateRequest{
			UserID: "someone_else", FlightNumber: "AI-1", Origin: "A",
			Destination: "B", Date: "2026-05-01T08:00:00Z", Status: "Confirmed",
		}, authHeader)
		defer resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("bad date", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/bookings", BookingCreateRequest{
			UserID: "user_123", FlightNumber: "AI-1", Origin: "A",
			Destination: "B", Date: "next tuesday", Status: "Confirmed",
		}, authHeader)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHealth(t *testing.T) {
	srv, _, _ := setupAPI(t)
	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "ok", health["status"])
	require.Equal(t, "fake", health["thread_store"])
}

func TestValidateISODate(t *testing.T) {
	require.NoError(t, validateISODate("2026-04-01T09:30:00Z"))
	require.NoError(t, validateISODate("2026-04-01T09:30:00+05:30"))
	require.NoError(t, validateISODate("2026-04-01T09:30:00"))
	require.Error(t, validateISODate("next tuesday"))
	require.Error(t, validateISODate(""))
}
