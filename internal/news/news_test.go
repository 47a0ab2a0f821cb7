package news

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edubase4teachers/edubase-server/internal/logger"
)

const feedPage = `<!DOCTYPE html>
<html><body>
<header><h1>Education Daily</h1></header>
<article>
  <h2><a href="/news/new-curriculum">New curriculum announced</a></h2>
  <img src="/img/curriculum.jpg">
  <p>The ministry published the <strong>new</strong> framework.</p>
  <time datetime="2026-08-30">August 30</time>
</article>
<article>
  <h2><a href="https://other.example/post">External post</a></h2>
  <p>Cross-posted item.</p>
</article>
<article>
  <p>No title or link here, should be skipped.</p>
</article>
</body></html>`

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard, Level: slog.LevelError})
}

func TestFetchParsesArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, feedPage)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL)
	defer f.Close()

	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	first := items[0]
	if first.Title != "New curriculum announced" {
		t.Errorf("Title: got %q", first.Title)
	}
	if first.URL != srv.URL+"/news/new-curriculum" {
		t.Errorf("relative URL should resolve against the feed: got %q", first.URL)
	}
	if first.Image != srv.URL+"/img/curriculum.jpg" {
		t.Errorf("Image: got %q", first.Image)
	}
	if !strings.Contains(first.Summary, "**new**") {
		t.Errorf("summary should be markdown: got %q", first.Summary)
	}
	if first.PublishedAt != "2026-08-30" {
		t.Errorf("PublishedAt: got %q", first.PublishedAt)
	}

	if items[1].URL != "https://other.example/post" {
		t.Errorf("absolute URL should pass through: got %q", items[1].URL)
	}
}

func TestFetchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL)
	defer f.Close()

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestServiceCachesWithinTTL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, feedPage)
	}))
	defer srv.Close()

	svc := NewService(NewFetcher(srv.URL), time.Hour, testLogger())
	defer svc.Close()

	for range 3 {
		items, err := svc.Items(context.Background())
		if err != nil {
			t.Fatalf("Items: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("got %d items", len(items))
		}
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("expected a single upstream fetch, got %d", got)
	}
}

func TestServiceServesStaleOnRefreshFailure(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, feedPage)
	}))
	defer srv.Close()

	svc := NewService(NewFetcher(srv.URL), 0, testLogger()) // TTL 0: always refresh
	defer svc.Close()

	if _, err := svc.Items(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	fail.Store(true)
	items, err := svc.Items(context.Background())
	if err != nil {
		t.Fatalf("stale serve: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected stale items, got %d", len(items))
	}
}
