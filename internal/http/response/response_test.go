package response

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/dinewise/dinewise-server/internal/errors"
	"github.com/dinewise/dinewise-server/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]int{"count": 3}, discard())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":3}`, w.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		code   string
	}{
		{"not found", func(w http.ResponseWriter) { NotFound(w, "no route", discard()) }, http.StatusNotFound, "NOT_FOUND"},
		{"method", func(w http.ResponseWriter) { MethodNotAllowed(w, "use POST", discard()) }, http.StatusMethodNotAllowed, "VALIDATION"},
		{"rate limited", func(w http.ResponseWriter) { TooManyRequests(w, "slow down", discard()) }, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "boom", discard()) }, http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Code)
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Run("domain error keeps details", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := fmt.Errorf("handler: %w", domainerrors.ValidationWithDetails("validation failed", map[string]string{"top_n": "too big"}))
		HandleError(w, err, discard())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "VALIDATION", body.Code)
		assert.Equal(t, map[string]any{"top_n": "too big"}, body.Details)
	})

	t.Run("store error uses its status", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, store.ErrNotFound.WithCause(errors.New("no rows")), discard())

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "restaurant not found", decode(t, w).Message)
	})

	t.Run("unknown error hides cause", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, errors.New("sqlite: disk I/O error"), discard())

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decode(t, w).Message)
	})
}
