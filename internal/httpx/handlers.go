package httpx

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/logging"
)

// AppHandler is an http handler that reports failures by returning an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to http.HandlerFunc. Returned errors are
// logged and rendered as {"error": ...}: *HTTPError keeps its code and
// message, common.ErrorNotFound and common.ErrorUnauthorized map to 404 and
// 401, anything else becomes a 500 with a generic message.
func MakeHandler(logger logging.Logger, handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}

		ctx := r.Context()
		body := errorBody{}
		var statusCode int
		var httpErr *HTTPError

		switch {
		case errors.As(err, &httpErr):
			statusCode = httpErr.Code
			body.Error = httpErr.Message
			body.Details = httpErr.Details

			args := []any{"code", statusCode, "msg", httpErr.Message, "path", r.URL.Path, "method", r.Method}
			if cause := errors.Unwrap(httpErr); cause != nil && cause.Error() != httpErr.Message {
				args = append(args, "cause", cause)
			}
			if statusCode >= http.StatusInternalServerError {
				logger.Error(ctx, "server error response", args...)
			} else {
				logger.Warn(ctx, "client error response", args...)
			}

		case errors.Is(err, common.ErrorNotFound):
			statusCode = http.StatusNotFound
			body.Error = msgNotFound
			logger.Info(ctx, "resource not found", "path", r.URL.Path, "method", r.Method, "error", err)

		case errors.Is(err, common.ErrorUnauthorized):
			statusCode = http.StatusUnauthorized
			body.Error = msgUnauthorized
			logger.Warn(ctx, "unauthorized", "path", r.URL.Path, "method", r.Method)

		default:
			statusCode = http.StatusInternalServerError
			body.Error = msgInternalServer
			logger.Error(ctx, "unhandled internal error", "path", r.URL.Path, "method", r.Method, "error", err)
		}

		if HasResponseWriterSentHeader(w) {
			logger.Warn(ctx, "handler returned error after writing response header",
				"path", r.URL.Path, "method", r.Method, "error", err)
			return
		}

		RespondWithJSON(w, statusCode, body)
	}
}
