package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestUploadTargetCarriesScopedToken(t *testing.T) {
	s := NewSignedStorage("http://files.local", []byte("key"), nil, zerolog.Nop())

	target, err := s.GenerateUploadTarget(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if target.Ref == "" {
		t.Fatal("empty ref")
	}

	u, err := url.Parse(target.UploadURL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(u.Path, "/upload/"+target.Ref) {
		t.Fatalf("unexpected upload path %q", u.Path)
	}
	ref, action, err := s.ParseToken(u.Query().Get("token"))
	if err != nil {
		t.Fatal(err)
	}
	if ref != target.Ref || action != "upload" {
		t.Fatalf("token scoped to %q/%q", ref, action)
	}
}

func TestResolveURL(t *testing.T) {
	s := NewSignedStorage("http://files.local", []byte("key"), nil, zerolog.Nop())

	if _, err := s.ResolveURL(context.Background(), ""); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("empty ref: %v", err)
	}
	got, err := s.ResolveURL(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got != "http://files.local/objects/abc" {
		t.Fatalf("url = %q", got)
	}
}

func TestDeleteSendsSignedRequest(t *testing.T) {
	var s *SignedStorage
	var gotPath, gotAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gotPath = r.URL.Path
		_, gotAction, _ = s.ParseToken(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s = NewSignedStorage(srv.URL, []byte("key"), srv.Client(), zerolog.Nop())

	if err := s.Delete(context.Background(), "obj-1"); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/objects/obj-1" || gotAction != "delete" {
		t.Fatalf("path=%q action=%q", gotPath, gotAction)
	}
	if err := s.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("missing object should not fail: %v", err)
	}
}

func TestDeleteReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSignedStorage(srv.URL, []byte("key"), srv.Client(), zerolog.Nop())
	if err := s.Delete(context.Background(), "obj-1"); err == nil {
		t.Fatal("expected error")
	}
}
