package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, header http.Header) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		c.Request.Header[k] = v
	}
	return c
}

func TestGetTraceID(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		want   string
	}{
		{
			name:   "traceparent",
			header: http.Header{"Traceparent": {"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}},
			want:   "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{
			name: "traceparent wins over X-Trace-ID",
			header: http.Header{
				"Traceparent": {"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
				"X-Trace-Id":  {"legacy"},
			},
			want: "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{
			name: "malformed traceparent falls back",
			header: http.Header{
				"Traceparent": {"garbage"},
				"X-Trace-Id":  {"legacy"},
			},
			want: "legacy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetTraceID(newContext(t, tt.header)))
		})
	}
}

func TestGetTraceID_Generated(t *testing.T) {
	a := GetTraceID(newContext(t, nil))
	b := GetTraceID(newContext(t, nil))

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware())

	var fromHandler string
	r.GET("/users/:id", func(c *gin.Context) {
		fromHandler = c.GetString("trace_id")
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside")
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	req.Header.Set(TraceIDHeader, "abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc123", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "abc123", fromHandler)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inside, request map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inside))
	require.NoError(t, json.Unmarshal(lines[1], &request))

	assert.Equal(t, "abc123", inside["trace_id"])
	assert.Equal(t, "warn", request["level"])
	assert.Equal(t, "/users/:id", request["route"])
	assert.Equal(t, "/users/42", request["path"])
	assert.EqualValues(t, http.StatusNotFound, request["status"])
}
