package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("chat_id") != "42" || r.PostForm.Get("text") != "- Video\nScore: 65.0" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		if r.PostForm.Get("parse_mode") != "Markdown" {
			t.Errorf("expected Markdown parse mode")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(server.URL+"/", "TOKEN", "42")
	if err := n.PublishDigest(context.Background(), "- Video\nScore: 65.0"); err != nil {
		t.Fatalf("PublishDigest returned error: %v", err)
	}
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	if err := NewNotifier(server.URL, "TOKEN", "42").PublishDigest(context.Background(), "x"); err == nil {
		t.Fatalf("expected error on non-200 response")
	}

	n := NewNotifier("", "", "")
	if n.Enabled() {
		t.Fatalf("notifier without credentials must be disabled")
	}
	if err := n.PublishDigest(context.Background(), "x"); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}
