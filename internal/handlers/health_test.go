package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		status int
		want   map[string]string
	}{
		{
			name:   "all healthy",
			checks: map[string]Check{"redis": func(context.Context) error { return nil }},
			status: http.StatusOK,
			want:   map[string]string{"redis": "ok"},
		},
		{
			name: "one failing",
			checks: map[string]Check{
				"redis":  func(context.Context) error { return nil },
				"scylla": func(context.Context) error { return errors.New("no hosts available") },
			},
			status: http.StatusServiceUnavailable,
			want:   map[string]string{"redis": "ok", "scylla": "no hosts available"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/healthz", NewHealthHandler(tt.checks).Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			require.Equal(t, tt.status, w.Code)

			var body struct {
				Success bool              `json:"success"`
				Checks  map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.status == http.StatusOK, body.Success)
			assert.Equal(t, tt.want, body.Checks)
		})
	}
}
