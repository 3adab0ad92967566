package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hour.csv" {
			t.Errorf("Expected path /hour.csv, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("dteday,cnt\n2011-01-01,16\n"))
	}))
	defer server.Close()

	c := NewClient(5*time.Second, ClientConfig{MaxRetries: 3, RetryDelayBase: time.Millisecond})
	body, err := c.Fetch(context.Background(), server.URL+"/hour.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "dteday,cnt\n2011-01-01,16\n" {
		t.Errorf("Unexpected body: %q", body)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewClient(5*time.Second, ClientConfig{MaxRetries: 3, RetryDelayBase: time.Millisecond})
	body, err := c.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "ok" || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected success on third attempt, got %q after %d calls", body, calls)
	}
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(5*time.Second, ClientConfig{MaxRetries: 3, RetryDelayBase: time.Millisecond})
	_, err := c.Fetch(context.Background(), server.URL)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected StatusError 404, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected a single attempt, got %d", calls)
	}
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(5*time.Second, ClientConfig{MaxRetries: 2, RetryDelayBase: time.Millisecond})
	if _, err := c.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
}
