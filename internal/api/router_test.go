package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/advisor-checkout/internal/client"
	"github.com/akylbek/payment-system/advisor-checkout/internal/events"
	"github.com/akylbek/payment-system/advisor-checkout/internal/handlers"
	"github.com/akylbek/payment-system/advisor-checkout/internal/lock"
	"github.com/akylbek/payment-system/advisor-checkout/internal/middleware"
	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
	"github.com/akylbek/payment-system/advisor-checkout/internal/repository"
	"github.com/akylbek/payment-system/advisor-checkout/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend answers the advisor backend's routes and records the
// Authorization header of each call.
type fakeBackend struct {
	mu    sync.Mutex
	auth  map[string]string
	calls []string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth[r.URL.Path] = r.Header.Get("Authorization")
	f.calls = append(f.calls, r.URL.Path)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/payment/create-intent":
		_, _ = w.Write([]byte(`{"clientSecret":"pi_ABCDEFGHIJ123456_secret_xyz","amount":5000}`))
	case "/api/payment/create-method":
		var card struct {
			CardNumber string `json:"cardNumber"`
		}
		_ = json.NewDecoder(r.Body).Decode(&card)
		if card.CardNumber == declinedCard {
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write([]byte(`{"message":"Your card was declined."}`))
			return
		}
		_, _ = w.Write([]byte(`{"paymentMethodId":"pm_card_visa"}`))
	case "/api/payment/confirm":
		_, _ = w.Write([]byte(`{"status":"succeeded"}`))
	case "/api/auth/profile":
		_, _ = w.Write([]byte(`{"email":"advisor@example.com","isEmailVerified":true}`))
	case "/api/auth/forgot-password":
		_, _ = w.Write([]byte(`{"message":"sent"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

const declinedCard = "4000000000000002"

// memoryLedger is an in-memory attempt ledger with the same conditional
// transition rule as the Postgres one.
type memoryLedger struct {
	mu   sync.Mutex
	rows map[string]*models.AttemptStateInfo
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{rows: make(map[string]*models.AttemptStateInfo)}
}

func (l *memoryLedger) InsertInitialState(_ context.Context, attemptID, sessionID string, state models.CheckoutState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.rows[attemptID] = &models.AttemptStateInfo{AttemptID: attemptID, SessionID: sessionID, State: string(state), CreatedAt: now, UpdatedAt: now}
	return nil
}

func (l *memoryLedger) TransitionState(_ context.Context, attemptID string, from, to models.CheckoutState, intentID, reason string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[attemptID]
	if !ok || row.State != string(from) {
		return 0, nil
	}
	row.PreviousState, row.State = row.State, string(to)
	if intentID != "" {
		row.PaymentIntentID = intentID
	}
	if reason != "" {
		row.FailureReason = reason
	}
	row.UpdatedAt = time.Now()
	return 1, nil
}

func (l *memoryLedger) GetByAttemptID(_ context.Context, attemptID string) (*models.AttemptStateInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[attemptID]
	if !ok {
		return nil, repository.ErrAttemptNotFound
	}
	info := *row
	return &info, nil
}

func (f *fakeBackend) authFor(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[path]
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestServer(t *testing.T, burst int) (*gin.Engine, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{auth: make(map[string]string)}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	backend := client.New(srv.URL, 2*time.Second, client.WithTokenSource(client.StaticToken("server-token")))
	repo := newMemoryLedger()
	registry := service.NewRegistry(time.Minute, nil)

	r := NewRouter(Handlers{
		Checkout: handlers.NewCheckoutHandler(registry, service.NewOrchestrator(backend, repo, lock.NewLocalLocker(), events.Noop{})),
		Recovery: handlers.NewRecoveryHandler(registry, service.NewRecovery(backend, events.Noop{}, time.Minute)),
		Attempts: handlers.NewAttemptHandler(repo),
	}, middleware.NewRateLimiter(0.001, burst))
	return r, fb
}

func do(r http.Handler, method, path, body string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestServer(t, 5)

	w, body := do(r, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, serviceName, body["service"])
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestServer(t, 5)

	w, _ := do(r, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CheckoutEndToEnd(t *testing.T) {
	r, fb := newTestServer(t, 5)

	w, created := do(r, http.MethodPost, "/checkout/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := created["id"].(string)

	form := `{"firstName":"Ada","lastName":"Lovelace","cardNumber":"4242 4242 4242 4242","expiry":"12/30","cvv":"123","country":"USA","postalCode":"12345"}`
	w, body := do(r, http.MethodPost, "/checkout/sessions/"+id+"/submit", form, http.Header{
		"Authorization": {"Bearer caller-token"},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.MsgPaymentSuccess, body["message"])
	session := body["session"].(map[string]any)
	assert.Equal(t, "IDLE", session["state"])
	assert.NotContains(t, session, "paymentIntentId", "a successful checkout resets the session")
	assert.EqualValues(t, 5000, session["amount"])

	assert.Equal(t, "Bearer caller-token", fb.authFor("/api/payment/confirm"))
	assert.Equal(t, []string{"/api/payment/create-intent", "/api/payment/create-method", "/api/payment/confirm"}, fb.callLog())

	attemptID, ok := body["attemptId"].(string)
	require.True(t, ok, "submit response names its attempt")

	w, attempt := do(r, http.MethodGet, "/checkout/attempts/"+attemptID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, attemptID, attempt["attempt_id"])
	assert.Equal(t, id, attempt["session_id"])
	assert.Equal(t, "SUCCEEDED", attempt["state"])
	assert.Equal(t, "CONFIRMING", attempt["previous_state"])
	assert.Equal(t, "pi_ABCDEFGHIJ123456", attempt["payment_intent_id"])
}

func TestRouter_FailedCheckoutNamesAttempt(t *testing.T) {
	r, _ := newTestServer(t, 5)

	_, created := do(r, http.MethodPost, "/checkout/sessions", "", nil)
	id := created["id"].(string)

	form := `{"firstName":"Ada","lastName":"Lovelace","cardNumber":"4000 0000 0000 0002","expiry":"12/30","cvv":"123","country":"USA","postalCode":"12345"}`
	w, body := do(r, http.MethodPost, "/checkout/sessions/"+id+"/submit", form, nil)

	require.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())
	assert.Equal(t, "Your card was declined.", body["error"])
	attemptID, ok := body["attemptId"].(string)
	require.True(t, ok)

	w, attempt := do(r, http.MethodGet, "/checkout/attempts/"+attemptID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FAILED", attempt["state"])
	assert.Equal(t, "Your card was declined.", attempt["failure_reason"])
}

func TestRouter_CheckoutValidation(t *testing.T) {
	r, fb := newTestServer(t, 5)

	_, created := do(r, http.MethodPost, "/checkout/sessions", "", nil)
	id := created["id"].(string)

	w, body := do(r, http.MethodPost, "/checkout/sessions/"+id+"/submit", `{"firstName":"A"}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, body["fields"], "cardNumber")
	assert.Empty(t, fb.callLog())
}

func TestRouter_RecoveryRateLimited(t *testing.T) {
	r, _ := newTestServer(t, 1)

	_, created := do(r, http.MethodPost, "/password-recovery/views", "", nil)
	id := created["id"].(string)
	defer do(r, http.MethodDelete, "/password-recovery/views/"+id, "", nil)

	w, body := do(r, http.MethodPost, "/password-recovery/views/"+id+"/submit", `{"email":"advisor@example.com"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	status := body["status"].(map[string]any)
	assert.Equal(t, true, status["disabled"])
	assert.Equal(t, "Wait 1:00", status["label"])

	w, _ = do(r, http.MethodPost, "/password-recovery/views/"+id+"/submit", `{"email":"advisor@example.com"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouter_UnknownAttempt(t *testing.T) {
	r, _ := newTestServer(t, 5)

	w, _ := do(r, http.MethodGet, "/checkout/attempts/unknown", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
