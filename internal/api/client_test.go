package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBible = "592420522e16049f-01"

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "test-key" {
			http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-Request-Id") == "" {
			http.Error(w, "missing request id", http.StatusBadRequest)
			return
		}
		body, ok := routes[r.URL.EscapedPath()]
		if !ok {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ListBooks(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/bibles/" + testBible + "/books": `{"data":[{"id":"GEN","name":"Génesis"},{"id":"X","name":""}]}`,
	})
	c := NewClient(srv.URL+"/", "test-key", testBible)

	got, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Book{{ID: "GEN", Name: "Génesis"}, {ID: "X", Name: ""}}, got.Data)
}

func TestClient_ListChaptersAndVerses(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/bibles/" + testBible + "/books/GEN/chapters":    `{"data":[{"id":"GEN.intro","reference":"Génesis"},{"id":"GEN.1","number":"1","reference":"Génesis 1"}]}`,
		"/bibles/" + testBible + "/chapters/GEN.1/verses": `{"data":[{"id":"GEN.1.1","chapterId":"GEN.1","reference":"Génesis 1:1"}]}`,
		"/bibles/" + testBible + "/verses/GEN.1.1":        `{"data":{"id":"GEN.1.1","reference":"Génesis 1:1","content":"<p>En el principio...</p>"}}`,
	})
	c := NewClient(srv.URL, "test-key", testBible)
	ctx := context.Background()

	chapters, err := c.ListChapters(ctx, "GEN")
	require.NoError(t, err)
	require.Len(t, chapters.Data, 2)
	assert.Equal(t, "Génesis 1", chapters.Data[1].Reference)

	verses, err := c.ListVerses(ctx, "GEN.1")
	require.NoError(t, err)
	assert.Equal(t, []Verse{{ID: "GEN.1.1", ChapterID: "GEN.1", Reference: "Génesis 1:1"}}, verses.Data)

	text, err := c.GetVerseText(ctx, "GEN.1.1")
	require.NoError(t, err)
	assert.Equal(t, "<p>En el principio...</p>", text.Data.Content)
}

func TestClient_EscapesPathSegments(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/bibles/" + testBible + "/books/a%2Fb/chapters": `{"data":[]}`,
	})
	c := NewClient(srv.URL, "test-key", testBible)

	got, err := c.ListChapters(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Empty(t, got.Data)
}

func TestClient_StatusError(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, "wrong-key", testBible)

	_, err := c.ListBooks(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, opBooks, statusErr.Op)
	assert.Contains(t, statusErr.Body, "unauthorized")
}

func TestClient_DecodeError(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/bibles/" + testBible + "/books": `not json`,
	})
	c := NewClient(srv.URL, "test-key", testBible)

	_, err := c.ListBooks(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_CanceledContext(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/bibles/" + testBible + "/books": `{"data":[]}`,
	})
	c := NewClient(srv.URL, "test-key", testBible)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListBooks(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_RecordsMetrics(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/bibles/" + testBible + "/books": `{"data":[]}`,
	})
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := NewClient(srv.URL, "test-key", testBible, WithMetrics(m))

	_, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	_, err = c.ListVerses(context.Background(), "missing")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(opBooks, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(opVerses, "404")))
}

func TestClient_TimeoutDoesNotMutateInjectedClient(t *testing.T) {
	injected := &http.Client{Timeout: time.Minute}

	c := NewClient("http://example.invalid", "k", testBible,
		WithHTTPClient(injected),
		WithTimeout(3*time.Second),
	)

	assert.Equal(t, time.Minute, injected.Timeout)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
	assert.NotSame(t, injected, c.httpClient)

	kept := NewClient("http://example.invalid", "k", testBible, WithHTTPClient(injected))
	assert.Same(t, injected, kept.httpClient)

	def := NewClient("http://example.invalid", "k", testBible, WithTimeout(0))
	assert.Equal(t, defaultTimeout, def.httpClient.Timeout)
	assert.Equal(t, time.Duration(0), http.DefaultClient.Timeout)
}
