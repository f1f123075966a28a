package document

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcherReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent: %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte("%PDF-1.4 body"))
	}))
	defer srv.Close()

	data, err := NewFetcher(nil, time.Second).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "%PDF-1.4 body" {
		t.Fatalf("unexpected body: %q", data)
	}
}

func TestFetcherDecodesGzip(t *testing.T) {
	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, _ = zw.Write([]byte("compressed body"))
	_ = zw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(compressed.Bytes())
	}))
	defer srv.Close()

	data, err := NewFetcher(nil, time.Second).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "compressed body" {
		t.Fatalf("unexpected body: %q", data)
	}
}

func TestFetcherBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(nil, time.Second).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewFetcher(nil, 50*time.Millisecond).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error on timeout, got %v", err)
	}
}

func TestFetcherRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 11)))
	}))
	defer srv.Close()

	f := NewFetcher(nil, time.Second)
	f.MaxBytes = 10

	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrTransport) || !strings.Contains(err.Error(), "document too large") {
		t.Fatalf("expected too large transport error, got %v", err)
	}

	f.MaxBytes = 11
	data, err := f.Fetch(context.Background(), srv.URL)
	if err != nil || len(data) != 11 {
		t.Fatalf("expected body at the limit to pass, got %d bytes, %v", len(data), err)
	}
}
