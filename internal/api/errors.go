package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/dataplane"
	"github.com/evalgo/digitaltwins/internal/jobs"
	"github.com/evalgo/digitaltwins/internal/tdql"
)

// ErrorResponse is the JSON body written for every non-2xx response,
// matching the teacher's http/server.go ErrorResponse shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// errorHandler maps the service's sentinel error taxonomy (catalog,
// dataplane, jobs, tdql) onto HTTP status codes, following the teacher's
// CustomHTTPErrorHandler pattern of checking for *echo.HTTPError first
// and falling back to a generic mapping otherwise.
func errorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			writeError(c, he.Code, http.StatusText(he.Code), fmtMessage(he.Message))
			return
		}

		code, label := classify(err)
		if code >= http.StatusInternalServerError {
			log.WithError(err).WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Error("unhandled request error")
		}
		writeError(c, code, label, err.Error())
	}
}

func writeError(c echo.Context, code int, label, details string) {
	_ = c.JSON(code, ErrorResponse{Error: label, Message: http.StatusText(code), Details: details})
}

func fmtMessage(m interface{}) string {
	if s, ok := m.(string); ok {
		return s
	}
	return ""
}

// classify maps a service error to an HTTP status code and a short
// machine-readable label, per spec §7's error taxonomy.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrModelNotFound),
		errors.Is(err, dataplane.ErrDigitalTwinNotFound),
		errors.Is(err, dataplane.ErrRelationshipNotFound),
		errors.Is(err, dataplane.ErrComponentNotFound),
		errors.Is(err, jobs.ErrJobNotFound),
		errors.Is(err, jobs.ErrLockNotFound):
		return http.StatusNotFound, "not_found"

	case errors.Is(err, catalog.ErrModelAlreadyExists),
		errors.Is(err, catalog.ErrModelReferencesNotDeleted),
		errors.Is(err, catalog.ErrModelExtendsChanged),
		errors.Is(err, catalog.ErrModelUpdateValidationError),
		errors.Is(err, jobs.ErrJobExists),
		errors.Is(err, jobs.ErrLockHeld),
		errors.Is(err, jobs.ErrNotOwner):
		return http.StatusConflict, "conflict"

	case errors.Is(err, dataplane.ErrPreconditionFailed):
		return http.StatusPreconditionFailed, "precondition_failed"

	case errors.Is(err, dataplane.ErrArgumentError),
		errors.Is(err, jobs.ErrInvalidTransition):
		return http.StatusBadRequest, "bad_request"

	default:
		var (
			resolveErr   *catalog.ResolutionError
			catValidErr  *catalog.ValidationError
			dpValidErr   *dataplane.ValidationFailed
			tdqlParseErr *tdql.ParseError
		)
		switch {
		case errors.As(err, &resolveErr), errors.As(err, &catValidErr), errors.As(err, &dpValidErr), errors.As(err, &tdqlParseErr):
			return http.StatusBadRequest, "validation_failed"
		}
		return http.StatusInternalServerError, "internal_error"
	}
}
