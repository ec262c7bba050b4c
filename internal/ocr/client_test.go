package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Efan404/slack-test-app/internal/config"
	"github.com/Efan404/slack-test-app/internal/retry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]time.Duration) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(nil, config.OCRConfig{
		Endpoint: srv.URL,
		APIKey:   "key",
		Secret:   "secret",
		Region:   "ap-northeast-1",
	})

	var delays []time.Duration
	c.retryCfg.Sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return c, &delays
}

func TestRecognizeJoinsDetections(t *testing.T) {
	t.Parallel()

	var gotReq request
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-OCR-KEY"))
		assert.Equal(t, "secret", r.Header.Get("X-OCR-SECRET"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(response{Detections: []detection{
			{Text: "STORE A"},
			{Text: "   "},
			{Text: "TOTAL 12.00"},
		}})
	})

	text, err := c.Recognize(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "STORE A\nTOTAL 12.00", text)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), gotReq.Image)
	assert.Equal(t, "ap-northeast-1", gotReq.Region)
}

func TestRecognizeEmptyDetectionsIsValid(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(response{})
	})

	text, err := c.Recognize(context.Background(), []byte("blank"))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestRecognizeServerErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls int
	c, delays := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "bad image", http.StatusUnprocessableEntity)
	})

	_, err := c.Recognize(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr status 422")
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

// flakyTransport fails the first failures calls with a transient
// network error, then delegates to the real transport.
type flakyTransport struct {
	next     http.RoundTripper
	failures int
	calls    int
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("read tcp 127.0.0.1:0: connection reset by peer")
	}
	return f.next.RoundTrip(req)
}

func TestRecognizeRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	c, delays := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(response{Detections: []detection{{Text: "RECOVERED"}}})
	})
	transport := &flakyTransport{next: http.DefaultTransport, failures: 1}
	c.httpClient.Transport = transport

	text, err := c.Recognize(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "RECOVERED", text)
	assert.Equal(t, 2, transport.calls)
	require.Equal(t, []time.Duration{300 * time.Millisecond}, *delays)
}

func TestRecognizeExhaustsRetries(t *testing.T) {
	t.Parallel()

	c, delays := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request should never reach the server")
	})
	transport := &flakyTransport{next: http.DefaultTransport, failures: 10}
	c.httpClient.Transport = transport

	_, err := c.Recognize(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, 4, transport.calls)
	assert.Equal(t, []time.Duration{
		300 * time.Millisecond,
		600 * time.Millisecond,
		1200 * time.Millisecond,
	}, *delays)
}
