package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/mailer"
	"github.com/metinatakli/cinema-ticketing/internal/validator"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-payments-key"

var (
	customerID = uuid.MustParse("aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee")
	staffID    = uuid.MustParse("cccccccc-dddd-4eee-8fff-000000000000")
	showtimeID = uuid.MustParse("5f0c6a0e-3f5c-4d7a-9d0b-1c2e3f4a5b6c")
	hallID     = uuid.MustParse("0b7d1f5e-8a44-4d6c-a0f1-2b3c4d5e6f70")

	customer = domain.Identity{HolderID: customerID, Role: domain.RoleCustomer}
	staff    = domain.Identity{HolderID: staffID, Role: domain.RoleStaff}
)

func newTestApplication(opts ...func(*application)) *application {
	app := &application{
		validator:      validator.NewValidator(),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		mailer:         mailer.NewMockMailer(),
		sessionManager: scs.New(),
	}

	app.config.env = "test"
	app.config.paymentsAPIKey = testAPIKey
	app.config.booking.staleAfter = domain.StaleBookingAge
	app.config.booking.seatMapTTL = time.Minute

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// setupTestSession stores a session for identity and attaches its cookie to r.
func setupTestSession(t *testing.T, app *application, r *http.Request, identity domain.Identity) *http.Request {
	t.Helper()

	ctx, err := app.sessionManager.Load(context.Background(), "")
	require.NoError(t, err)

	app.sessionManager.Put(ctx, SessionKeyUserId.String(), identity.HolderID.String())
	if identity.Role != domain.RoleCustomer {
		app.sessionManager.Put(ctx, SessionKeyRole.String(), string(identity.Role))
	}

	token, _, err := app.sessionManager.Commit(ctx)
	require.NoError(t, err)

	r.AddCookie(&http.Cookie{Name: app.sessionManager.Cookie.Name, Value: token})

	return r
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	var reader io.Reader = http.NoBody

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		jsonData, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantErrMessage string) {
	t.Helper()

	if wantStatus >= 200 && wantStatus < 300 {
		return
	}

	switch wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in %+v", wantErrMessage, validationResp.ValidationErrors)
		}

	default:
		var errorResp ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if wantErrMessage != "" && errorResp.Message != wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, wantErrMessage)
		}
	}
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	err := json.NewDecoder(w.Body).Decode(&v)
	require.NoError(t, err, "Failed to decode response")

	return v
}

func ptr[T any](v T) *T {
	return &v
}
