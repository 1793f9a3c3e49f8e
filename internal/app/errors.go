package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	appvalidator "github.com/metinatakli/cinema-ticketing/internal/validator"
)

const (
	ErrInternalServer   = "The server encountered a problem and could not process your request"
	ErrNotFound         = "The requested resource not found"
	ErrUnauthorized     = "You must be authenticated to access this resource"
	ErrForbidden        = "You are not allowed to access this resource"
	ErrRateLimited      = "Too many requests, try again later"
	ErrValidationFailed = "One or more fields are invalid"
)

func (app *application) logError(r *http.Request, err error) {
	app.contextGetLogger(r).Error(err.Error())
}

func newErrorResponse(r *http.Request, message string) ErrorResponse {
	return ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.writeErrorBody(w, r, status, newErrorResponse(r, message))
}

func (app *application) writeErrorBody(w http.ResponseWriter, r *http.Request, status int, body any) {
	err := app.writeJSON(w, status, body, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, "The method is not supported for this resource")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusUnauthorized, ErrUnauthorized)
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusForbidden, ErrForbidden)
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, ErrRateLimited)
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, conflict *domain.ConflictError) {
	app.writeErrorBody(w, r, http.StatusConflict, ConflictErrorResponse{
		ErrorResponse: newErrorResponse(r, conflict.Error()),
		Seats:         conflict.SeatCodes,
	})
}

func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	resp := ValidationErrorResponse{
		ErrorResponse:    newErrorResponse(r, ErrValidationFailed),
		ValidationErrors: []ValidationError{},
	}

	var (
		fieldErrs validator.ValidationErrors
		domainErr *domain.ValidationError
	)

	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			resp.ValidationErrors = append(resp.ValidationErrors, ValidationError{
				Field: fe.Field(),
				Issue: appvalidator.ValidationMessage(fe),
			})
		}
	case errors.As(err, &domainErr):
		resp.ValidationErrors = append(resp.ValidationErrors, ValidationError{
			Field: domainErr.Field,
			Issue: domainErr.Message,
		})
	default:
		app.badRequestResponse(w, r, err)
		return
	}

	app.writeErrorBody(w, r, http.StatusUnprocessableEntity, resp)
}

// serviceErrorResponse maps the domain error taxonomy onto HTTP statuses.
// Anything outside of it is a server error.
func (app *application) serviceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		conflict *domain.ConflictError
		notFound *domain.NotFoundError
		state    *domain.StateError
	)

	switch {
	case errors.As(err, &conflict):
		app.conflictResponse(w, r, conflict)
	case errors.Is(err, domain.ErrValidation):
		app.failedValidationResponse(w, r, err)
	case errors.As(err, &notFound):
		app.errorResponse(w, r, http.StatusNotFound, notFound.Error())
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.As(err, &state):
		app.errorResponse(w, r, http.StatusConflict, state.Error())
	default:
		app.serverErrorResponse(w, r, err)
	}
}
