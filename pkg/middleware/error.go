package middleware

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/PKayu/cannabis-compare-sub000/pkg/appctx"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// domainStatus maps resolver sentinel errors that escape a handler unwrapped.
var domainStatus = []struct {
	err  error
	code int
}{
	{models.ErrEmptyName, http.StatusUnprocessableEntity},
	{models.ErrNotParent, http.StatusConflict},
	{models.ErrParentNotFound, http.StatusConflict},
	{models.ErrCandidateLoad, http.StatusServiceUnavailable},
}

// Error renders every handler error as an ErrorResponse. httperror values keep
// their status and meta; echo errors keep their code.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal Server Error"
		meta := map[string]any{}

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		case httperror.IsHTTPError(err):
			httperr := httperror.ToHTTPError(err)
			code = httperror.GetStatusCode(err)
			message = httperr.Error()
			meta = httperr.Meta
		default:
			for _, mapping := range domainStatus {
				if errors.Is(err, mapping.err) {
					code = mapping.code
					message = err.Error()
					break
				}
			}
		}

		log := logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"status":    code,
			"method":    appctx.GetMethod(ctx),
			"route":     appctx.GetRoute(ctx),
			"remote_ip": appctx.GetRemoteIP(ctx),
			"reviewer":  appctx.GetReviewer(ctx),
		})
		if code >= http.StatusInternalServerError {
			log.Error("Request failed")
		} else {
			log.Warn("Request rejected")
		}

		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: appctx.GetRequestID(ctx),
			TraceID:   tracing.GetTraceID(ctx),
			Meta:      meta,
		})
	}
}
