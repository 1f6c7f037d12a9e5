package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/handiism/lyrics-harvester/internal/model"
)

func TestClient_Get(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("test-agent"))
	body, err := c.GetString(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetString() error: %v", err)
	}
	if body != "hello" {
		t.Errorf("body = %q", body)
	}
	if gotUA != "test-agent" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		header    string
		wantErr   error
		wantRetry time.Duration
	}{
		{"rate limited", http.StatusTooManyRequests, "3", model.ErrRateLimited, 3 * time.Second},
		{"unauthorized", http.StatusUnauthorized, "", model.ErrAuthFailure, 0},
		{"not found", http.StatusNotFound, "", model.ErrNotFound, 0},
		{"server error", http.StatusBadGateway, "", model.ErrNetwork, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set("Retry-After", tt.header)
				}
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			_, err := NewClient().Get(context.Background(), srv.URL)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get() = %v, want %v", err, tt.wantErr)
			}

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("error is not *StatusError: %T", err)
			}
			if se.Code != tt.code || se.RetryAfter() != tt.wantRetry {
				t.Errorf("StatusError = %+v", se)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewClient(WithTimeout(20*time.Millisecond)).Get(context.Background(), srv.URL)
	if !errors.Is(err, model.ErrTimeout) {
		t.Errorf("Get() = %v, want ErrTimeout", err)
	}
}

func TestClient_GetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><ol class="list"><li>a</li><li>b</li></ol></body></html>`))
	}))
	defer srv.Close()

	doc, err := NewClient().GetDocument(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetDocument() error: %v", err)
	}
	if n := doc.Find("ol.list li").Length(); n != 2 {
		t.Errorf("found %d items, want 2", n)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Second},
		{"-1", 0},
		{"soon", 0},
		{now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in, now); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
