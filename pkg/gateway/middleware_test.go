package gateway

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{status: http.StatusOK, level: "INFO"},
		{status: http.StatusConflict, level: "WARN"},
		{status: http.StatusInternalServerError, level: "ERROR"},
	}

	for _, tc := range tests {
		var out bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

		handler := requestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte("body"))
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/messages", nil))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
		require.Equal(t, tc.level, entry["level"])
		require.Equal(t, "/api/v1/messages", entry["path"])
		require.Equal(t, float64(tc.status), entry["status"])
		require.Equal(t, float64(4), entry["bytes"])
	}
}
