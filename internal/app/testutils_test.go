package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/cinehub/booking-engine/api"
	"github.com/cinehub/booking-engine/internal/domain"
	"github.com/cinehub/booking-engine/internal/mailer"
	"github.com/cinehub/booking-engine/internal/payment"
	"github.com/cinehub/booking-engine/internal/validator"
)

const (
	testWebhookClientID    = "client-1"
	testWebhookAPIKey      = "api-key-1"
	testWebhookChecksumKey = "checksum-secret"
)

func newTestApplication(opts ...func(*application)) *application {
	var cfg config
	cfg.env = "test"
	cfg.holds.duration = 10 * time.Minute
	cfg.holds.staffDuration = 30 * time.Minute
	cfg.payment.bankBIN = "970422"
	cfg.payment.accountNumber = "0011223344"
	cfg.payment.accountName = "CINEHUB JSC"
	cfg.payment.accountCity = "HANOI"

	app := &application{
		config:          cfg,
		validator:       validator.NewValidator(),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessionManager:  scs.New(),
		webhookVerifier: payment.NewWebhookVerifier(testWebhookClientID, testWebhookAPIKey, testWebhookChecksumKey),
		discount:        domain.NoDiscount,
		mailer:          mailer.NewMockMailer(),
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// executeRequest routes the request through the full middleware stack so
// sessions, staff auth and URL params behave as in production.
func executeRequest(t *testing.T, app *application, method, url string, body any, mutate ...func(r *http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")

	for _, fn := range mutate {
		fn(r)
	}

	w := httptest.NewRecorder()
	app.routes().ServeHTTP(w, r)

	return w
}

func asStaff(staffID string) func(r *http.Request) {
	return func(r *http.Request) {
		r.Header.Set(HeaderStaffID, staffID)
	}
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantErrMessage string) {
	t.Helper()

	if wantStatus >= 200 && wantStatus < 300 {
		return
	}

	switch wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if wantErrMessage != "" && errorResp.Message != wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, wantErrMessage)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
