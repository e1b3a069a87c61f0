// internal/app/features/errors/errorlog.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger pairs structured logging with client-facing JSON errors so
// handlers report failures in one call. The log message carries the detail;
// the client only sees the user message.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger around the given zap logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs err at error level and writes a 500 with the user
// message. Internal details never reach the response body.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Error(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	if userMsg == "" {
		userMsg = "an internal error occurred"
	}
	Render(w, http.StatusInternalServerError, userMsg)
}

// LogBadRequest logs at warn level and writes a 400 with the message.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	e.log.Warn("bad request",
		zap.String("reason", msg),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	Render(w, http.StatusBadRequest, msg)
}

// LogForbidden logs at warn level and writes a 403 with the message.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	e.log.Warn("forbidden",
		zap.String("reason", msg),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	RenderForbidden(w, r, msg)
}

// LogConflict logs at warn level and writes a 409 with the message.
func (e *ErrorLogger) LogConflict(w http.ResponseWriter, r *http.Request, msg string) {
	e.log.Warn("conflict",
		zap.String("reason", msg),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	Render(w, http.StatusConflict, msg)
}
