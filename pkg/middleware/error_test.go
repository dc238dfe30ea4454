package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"http error", httperror.NewHTTPError(http.StatusConflict, "already approved"), http.StatusConflict, "already approved"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "nope"},
		{"empty name", fmt.Errorf("reject: %w", models.ErrEmptyName), http.StatusUnprocessableEntity, ""},
		{"candidate load", fmt.Errorf("%w: timeout", models.ErrCandidateLoad), http.StatusServiceUnavailable, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
	}

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = Error(logger)
			e.Use(Context())
			e.GET("/", func(echo.Context) error { return tt.err })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(echo.HeaderXRequestID, "req-42")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "req-42", body.RequestID)
			if tt.message != "" {
				assert.Contains(t, body.Message, tt.message)
			} else {
				assert.Equal(t, tt.err.Error(), body.Message)
			}
		})
	}
}
