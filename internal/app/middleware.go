package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cinehub/booking-engine/internal/domain"
)

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := app.logger.With("request_id", chimiddleware.GetReqID(r.Context()))

		ctx := context.WithValue(r.Context(), loggerContextKey, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensureGuestSession guarantees every request carries a session token. The
// token is the opaque actor id that scopes hold ownership, so it must exist
// before the first hold is placed.
func (app *application) ensureGuestSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionId := app.sessionManager.Token(r.Context())

		if sessionId == "" {
			app.sessionManager.Put(r.Context(), SessionKeyGuest.String(), true)

			_, _, err := app.sessionManager.Commit(r.Context())
			if err != nil {
				app.serverErrorResponse(w, r, err)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// requireStaff gates counter-sale endpoints. Staff identity is asserted by
// the upstream identity service and forwarded as an opaque numeric id.
func (app *application) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		staffID := app.readStaffID(r)
		if staffID == 0 {
			app.unauthorizedAccessResponse(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), staffContextKey, staffID)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}

func (app *application) contextGetLogger(r *http.Request) *slog.Logger {
	logger, ok := r.Context().Value(loggerContextKey).(*slog.Logger)
	if !ok {
		return app.logger
	}

	return logger
}

// actorFromRequest resolves the acting identity: the staff id when the
// request carries one, the session token otherwise.
func (app *application) actorFromRequest(r *http.Request) domain.Actor {
	if staffID := app.readStaffID(r); staffID != 0 {
		return domain.StaffActor(staffID)
	}

	return domain.SessionActor(app.sessionManager.Token(r.Context()))
}
