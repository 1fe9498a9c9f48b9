package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/curriculum-api/internal/models"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
)

func TestEncodeURIComponent(t *testing.T) {
	assert.Equal(t, "Cloud%20Computing", encodeURIComponent("Cloud Computing"))
	assert.Equal(t, "C%2B%2B%20%26%20Go", encodeURIComponent("C++ & Go"))
	assert.Equal(t, "a-b_c.d!e~f*g'h(i)", encodeURIComponent("a-b_c.d!e~f*g'h(i)"))
	assert.Equal(t, "caf%C3%A9", encodeURIComponent("café"))
}

func TestStaticResourceProvider(t *testing.T) {
	p := NewStaticResourceProvider()
	res, err := p.FetchResources(context.Background(), "Machine Learning", models.SkillLevelIntermediate)
	require.NoError(t, err)
	require.Len(t, res, 6)

	assert.Equal(t, "🌐 Machine Learning Tutorial - Intermediate Guide", res[0].Title)
	assert.Equal(t, "https://www.coursera.org/search?query=Machine%20Learning", res[0].URL)
	assert.Equal(t, "Comprehensive intermediate guide covering Machine Learning fundamentals and practical applications.", res[0].Description)
	assert.Equal(t, "https://github.com/search?q=Machine%20Learning&type=repositories", res[3].URL)
	assert.Equal(t, "https://www.youtube.com/results?search_query=Machine%20Learning%20tutorial", res[5].URL)

	again, _ := p.FetchResources(context.Background(), "Machine Learning", models.SkillLevelIntermediate)
	assert.Equal(t, res, again)
}

func TestStaticResourceProviderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStaticResourceProvider().FetchResources(ctx, "Go", models.SkillLevelBeginner)
	assert.ErrorIs(t, err, context.Canceled)
}

const searchPage = `<html><body>
<div class="result"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Ftour">A Tour of Go</a></div>
<div class="result"><a class="result__a" href="https://gobyexample.com/">Go by
  Example</a></div>
<div class="result"><a class="result__a" href="https://gobyexample.com/">duplicate</a></div>
<div class="result"><a class="result__a" href="javascript:void(0)">script</a></div>
<div class="result"><a class="result__a" href="/relative/page">Relative</a></div>
</body></html>`

func TestWebSearchResourceProviderParsesResults(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		_, _ = io.WriteString(w, searchPage)
	}))
	defer server.Close()

	p := NewWebSearchResourceProvider(server.Client(), WebSearchConfig{BaseURL: server.URL + "/html/"}, zap.NewNop())
	res, err := p.FetchResources(context.Background(), "Go", models.SkillLevelBeginner)
	require.NoError(t, err)

	assert.Equal(t, "Go beginner tutorial", query)
	require.Len(t, res, 3)
	assert.Equal(t, "🌐 A Tour of Go", res[0].Title)
	assert.Equal(t, "https://go.dev/tour", res[0].URL)
	assert.Equal(t, "🌐 Go by Example", res[1].Title)
	assert.Equal(t, server.URL+"/relative/page", res[2].URL)
}

func TestWebSearchResourceProviderRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, searchPage)
	}))
	defer server.Close()

	p := NewWebSearchResourceProvider(server.Client(), WebSearchConfig{
		BaseURL:    server.URL,
		Retries:    1,
		RetryDelay: time.Millisecond,
	}, nil)
	res, err := p.FetchResources(context.Background(), "Go", models.SkillLevelAdvanced)
	require.NoError(t, err)
	assert.NotEmpty(t, res)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWebSearchResourceProviderFailsAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewWebSearchResourceProvider(server.Client(), WebSearchConfig{BaseURL: server.URL, Retries: 2, RetryDelay: time.Millisecond}, nil)
	_, err := p.FetchResources(context.Background(), "Go", models.SkillLevelAdvanced)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}
