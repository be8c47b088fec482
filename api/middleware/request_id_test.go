package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func requestIDFor(t *testing.T, inbound string) string {
	t.Helper()
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	if inbound != "" {
		req.Header.Set(requestIDHeader, inbound)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	return rec.Header().Get(requestIDHeader)
}

func TestRequestIDReusesWellFormedInbound(t *testing.T) {
	assert.Equal(t, "edge-7f3a.42:1", requestIDFor(t, "edge-7f3a.42:1"))
}

func TestRequestIDReplacesMissingOrMalformedInbound(t *testing.T) {
	for _, inbound := range []string{
		"",
		strings.Repeat("a", maxRequestIDLen+1),
		"abc\r\nX-Injected: 1",
		"has space",
		"{\"json\":true}",
	} {
		got := requestIDFor(t, inbound)
		assert.NotEqual(t, inbound, got)
		_, err := uuid.Parse(got)
		assert.NoError(t, err, "expected fresh uuid for %q", inbound)
	}
}
