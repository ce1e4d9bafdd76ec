package http

import (
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoReadsBodyAndHeaders(t *testing.T) {
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", "req-1")
		w.WriteHeader(stdhttp.StatusCreated)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Do(context.Background(), NewRequest("GET", server.URL))
	require.NoError(t, err)

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, `{"ok": true}`, resp.BodyString())
	assert.Equal(t, "req-1", resp.Header("x-request-id"))
	assert.True(t, resp.IsJSON())
	assert.Greater(t, resp.Duration, time.Duration(0))
}

func TestDoSendsBodyAndHeaders(t *testing.T) {
	var gotBody string
	var gotHeader string
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		gotHeader = r.Header.Get("X-Custom")
		w.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("POST", server.URL).
		SetHeader("X-Custom", "value").
		SetBody(`{"a": 1}`)

	_, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, gotBody)
	assert.Equal(t, "value", gotHeader)
}

func TestDefaultHeadersApplied(t *testing.T) {
	var gotUA, gotOverride string
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotOverride = r.Header.Get("X-Shared")
		w.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := NewClient(
		WithDefaultHeader("User-Agent", "loadflow-test"),
		WithDefaultHeader("X-Shared", "default"),
	)
	req := NewRequest("GET", server.URL).SetHeader("X-Shared", "override")

	_, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "loadflow-test", gotUA)
	assert.Equal(t, "override", gotOverride)
}

func TestPerRequestTimeout(t *testing.T) {
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("GET", server.URL).SetTimeout(20 * time.Millisecond)

	_, err := client.Do(context.Background(), req)
	assert.Error(t, err)
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewClient()
	_, err := client.Do(ctx, NewRequest("GET", server.URL))
	assert.Error(t, err)
}

func TestRedirectsNotFollowedWhenDisabled(t *testing.T) {
	mux := stdhttp.NewServeMux()
	mux.HandleFunc("/from", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		stdhttp.Redirect(w, r, "/to", stdhttp.StatusFound)
	})
	mux.HandleFunc("/to", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(WithFollowRedirects(false))
	resp, err := client.Do(context.Background(), NewRequest("GET", server.URL+"/from"))
	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
}

func TestMaxRedirectsStopsChain(t *testing.T) {
	var server *httptest.Server
	hops := 0
	server = httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if hops < 10 {
			hops++
			stdhttp.Redirect(w, r, server.URL, stdhttp.StatusFound)
			return
		}
		w.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithMaxRedirects(3))
	resp, err := client.Do(context.Background(), NewRequest("GET", server.URL))
	require.NoError(t, err)

	// the chain is cut at the limit, the last redirect is the response
	assert.Equal(t, 302, resp.StatusCode)
	assert.LessOrEqual(t, hops, 4)
}

func TestGetAndPostHelpers(t *testing.T) {
	var gotMethod, gotBody string
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		gotMethod = r.Method
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := NewClient()

	resp, err := client.Get(context.Background(), server.URL, map[string]string{"X-Check": "1"})
	require.NoError(t, err)
	assert.Equal(t, "GET", gotMethod)
	assert.True(t, resp.IsSuccess())

	_, err = client.Post(context.Background(), server.URL, `{"a":1}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "POST", gotMethod)
	assert.Equal(t, `{"a":1}`, gotBody)
}

func TestQueryParamsAppended(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		gotQuery = r.URL.Query().Get("page")
		w.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("GET", server.URL).SetQueryParam("page", "2")

	_, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "2", gotQuery)
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://example.com/path"))
	assert.NoError(t, ValidateURL("http://localhost:8080"))
	assert.Error(t, ValidateURL("ftp://example.com"))
	assert.Error(t, ValidateURL("not a url"))
	assert.Error(t, ValidateURL("https://"))
}

func TestResponseHelpers(t *testing.T) {
	resp := &Response{
		StatusCode: 404,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
		Body:       []byte(`{"error": "not found"}`),
		Duration:   1500 * time.Millisecond,
	}

	assert.True(t, resp.IsJSON())
	assert.True(t, resp.IsClientError())
	assert.False(t, resp.IsSuccess())
	assert.False(t, resp.IsServerError())
	assert.Equal(t, int64(1500), resp.DurationMs())

	assert.True(t, (&Response{StatusCode: 503}).IsServerError())

	body, err := resp.BodyJSON()
	require.NoError(t, err)
	assert.Equal(t, "not found", body.(map[string]any)["error"])

	v, ok := resp.HeaderExact("Content-Type")
	assert.True(t, ok)
	assert.Contains(t, v, "application/json")

	_, ok = resp.HeaderExact("content-type")
	assert.False(t, ok)
}
