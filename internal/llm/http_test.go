package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/legal-intake/internal/common"
)

func TestSendJSON_PropagatesRequestID(t *testing.T) {
	var gotID, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(RequestIDHeader)
		gotType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ctx := common.WithOwnerID(common.WithRequestID(context.Background(), "transcribe-job-42"), "u1")
	body, status, err := SendJSON(ctx, srv.Client(), srv.URL, map[string]any{"a": 1}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "transcribe-job-42", gotID)
	assert.Equal(t, "application/json", gotType)
}

func TestSend_GeneratesRequestIDWhenMissing(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(RequestIDHeader)
	}))
	defer srv.Close()

	_, _, err := Send(context.Background(), srv.Client(), srv.URL, []byte("x"), nil, nil)
	require.NoError(t, err)
	assert.Len(t, gotID, 36)
}

func TestSend_Non2xxReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(strings.Repeat("slow down ", 100)))
	}))
	defer srv.Close()

	_, status, err := Send(context.Background(), srv.Client(), srv.URL, []byte("x"), nil, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, status)

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusTooManyRequests, he.StatusCode)
	assert.LessOrEqual(t, len([]rune(he.Body)), errorBodyRunes+3)
}
