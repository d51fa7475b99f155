package share_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/classkit/planner/internal/share"
)

func TestDocumentIDIsStable(t *testing.T) {
	a := share.DocumentID([]byte("lesson body"))
	b := share.DocumentID([]byte("lesson body"))
	if a != b {
		t.Errorf("same content produced different ids: %s vs %s", a, b)
	}
	if c := share.DocumentID([]byte("other body")); c == a {
		t.Error("different content produced the same id")
	}
	if len(a) != 64 {
		t.Errorf("id length = %d, want 64 hex chars", len(a))
	}
}

func TestUploadReturnsContentAddressedURL(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	body := []byte("shared lesson")
	u := share.New(srv.URL, srv.Client(), nil)
	url, err := u.Upload(t.Context(), body, "application/json")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	wantPath := "/d/" + share.DocumentID(body)
	if gotPath != wantPath {
		t.Errorf("path = %q, want %q", gotPath, wantPath)
	}
	if !strings.HasSuffix(url, wantPath) {
		t.Errorf("url = %q, want suffix %q", url, wantPath)
	}
	if gotType != "application/json" {
		t.Errorf("content type = %q", gotType)
	}
	if string(gotBody) != string(body) {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
}

func TestUploadTreatsConflictAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	u := share.New(srv.URL, srv.Client(), nil)
	if _, err := u.Upload(t.Context(), []byte("dup"), "text/plain"); err != nil {
		t.Errorf("Upload on conflict: %v", err)
	}
}

func TestUploadRejectsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := share.New(srv.URL, srv.Client(), nil)
	if _, err := u.Upload(t.Context(), []byte("x"), "text/plain"); err == nil {
		t.Fatal("Upload succeeded on server error")
	}
}
