// Package httpx holds the JSON envelope and error rendering shared by the HTTP handlers.
package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message,omitempty"`
	Code     string            `json:"code,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Data     any               `json:"data,omitempty"`
}

// OK writes a success envelope.
func OK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Bind decodes the request body into dst, reporting malformed input as INVALID_INPUT.
func Bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "Invalid request body", err)
	}
	return nil
}

// Render maps err to a status code and a failure envelope. Causes of internal
// errors never reach the client.
func Render(err error) (int, Envelope) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Code < http.StatusInternalServerError && he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, Envelope{Success: false, Message: msg}
	}
	ae := apperrors.As(err)
	if ae == nil || ae.Kind() == apperrors.KindInternal {
		return http.StatusInternalServerError, Envelope{
			Success: false,
			Message: "Internal server error",
			Code:    string(apperrors.CodeInternal),
		}
	}
	return ae.Kind().HTTPStatus(), Envelope{
		Success:  false,
		Message:  ae.Message,
		Code:     string(ae.Code),
		Metadata: ae.Metadata,
	}
}

// ErrorHandler returns an echo.HTTPErrorHandler that renders errors as envelopes and
// logs server-side failures with their cause.
func ErrorHandler(logger log.FieldLogger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := Render(err)
		if status >= http.StatusInternalServerError {
			logger.WithFields(log.Fields{
				"method":     c.Request().Method,
				"path":       c.Path(),
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).WithError(err).Error("http: request failed")
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.WithError(werr).Warn("http: failed to write error response")
		}
	}
}
