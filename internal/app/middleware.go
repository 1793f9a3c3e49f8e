package app

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
)

const apiKeyHeader = "X-Api-Key"

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
		logger := app.logger.With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"uri", r.URL.RequestURI(),
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, contextSetLogger(r, logger))

		logger.Info("request completed",
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// requireAuthentication resolves the caller from the session shared with the
// auth service. Sessions without a role belong to customers.
func (app *application) requireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userId, err := uuid.Parse(app.sessionManager.GetString(r.Context(), SessionKeyUserId.String()))
		if err != nil {
			app.unauthorizedAccessResponse(w, r)
			return
		}

		role := domain.Role(app.sessionManager.GetString(r.Context(), SessionKeyRole.String()))
		if role == "" {
			role = domain.RoleCustomer
		}

		identity := domain.Identity{HolderID: userId, Role: role}

		logger := app.contextGetLogger(r).With("user_id", userId, "role", role)
		r = contextSetLogger(contextSetIdentity(r, identity), logger)

		next.ServeHTTP(w, r)
	})
}

// authenticateService lets the payment system in with its API key and falls
// back to the session for everyone else.
func (app *application) authenticateService(next http.Handler) http.Handler {
	sessionAuth := app.requireAuthentication(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			sessionAuth.ServeHTTP(w, r)
			return
		}

		if app.config.paymentsAPIKey == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(app.config.paymentsAPIKey)) != 1 {
			app.unauthorizedAccessResponse(w, r)
			return
		}

		next.ServeHTTP(w, contextSetIdentity(r, domain.SystemIdentity))
	})
}

func (app *application) requireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := app.contextGetIdentity(r)

			if !identity.Is(roles...) {
				app.forbiddenResponse(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitLocks caps lock requests per caller. It fails open when the
// limiter errors.
func (app *application) rateLimitLocks(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.lockLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		identity := app.contextGetIdentity(r)

		decision, err := app.lockLimiter.Allow(r.Context(), identity.HolderID.String())
		if err != nil {
			app.contextGetLogger(r).Warn("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !decision.Allowed {
			seconds := int(decision.RetryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}

			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			app.rateLimitExceededResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
