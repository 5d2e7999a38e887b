package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/wafflestudio/seminar-system/internal/api/metrics"
	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

const codeInternal = "internal.error"

// Translator renders an error code in the language of an Accept-Language header.
type Translator interface {
	T(acceptLanguage, code string, data map[string]any) (string, bool)
}

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to a status code by their Kind.
//   - Localizes the message by Accept-Language when tr is non-nil.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<id>"}.
func NewHTTPErrorHandler(log zerolog.Logger, tr Translator) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if tr != nil && body.Code != "" {
			if msg, ok := tr.T(c.Request().Header.Get("Accept-Language"), body.Code, argsOf(err)); ok {
				body.Error = msg
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var de *domain.Error
	if errors.As(err, &de) {
		metrics.DomainErrorsTotal.WithLabelValues(de.Code).Inc()
		return statusOf(de.Kind), errorResponse{Error: de.Message, Code: de.Code}
	}

	// Echo's own errors (unknown route, method not allowed, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: httpCode(he.Code)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: codeInternal}
}

func statusOf(k domain.Kind) int {
	switch k {
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// httpCode names a plain HTTP failure, e.g. 404 -> "http.not_found".
func httpCode(status int) string {
	text := strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	if text == "" {
		return fmt.Sprintf("http.%d", status)
	}
	return "http." + text
}

func argsOf(err error) map[string]any {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Args
	}
	return nil
}
