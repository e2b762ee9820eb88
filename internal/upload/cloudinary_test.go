package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// rewriteTransport sends every request to the test server regardless of
// the request URL, so the fixed Cloudinary endpoint can be exercised.
type rewriteTransport struct {
	target *url.URL
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func testUploader(t *testing.T, srv *httptest.Server) *Uploader {
	t.Helper()
	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	u := New("demo-cloud", "unsigned-tasks")
	u.HTTPClient = &http.Client{Transport: &rewriteTransport{target: target}}
	return u
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1_1/demo-cloud/upload" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("upload_preset"); got != "unsigned-tasks" {
			t.Errorf("upload_preset: got %q", got)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file part: %v", err)
		}
		defer f.Close()
		if header.Filename != "photo.png" {
			t.Errorf("filename: got %q", header.Filename)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "fake image bytes" {
			t.Errorf("file content: got %q", data)
		}
		w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo-cloud/image/upload/photo.png"}`))
	}))
	defer srv.Close()

	path := writeTempFile(t, "photo.png", "fake image bytes")
	got, err := testUploader(t, srv).Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	want := "https://res.cloudinary.com/demo-cloud/image/upload/photo.png"
	if got != want {
		t.Errorf("url: got %q, want %q", got, want)
	}
}

func TestUploadNotConfigured(t *testing.T) {
	cases := []*Uploader{
		New("", "preset"),
		New("cloud", ""),
		New("", ""),
	}
	for _, u := range cases {
		_, err := u.Upload(context.Background(), "irrelevant")
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("cloud=%q preset=%q: got %v, want ErrNotConfigured", u.CloudName, u.UploadPreset, err)
		}
	}
}

func TestUploadMissingSecureURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"public_id":"abc"}`))
	}))
	defer srv.Close()

	path := writeTempFile(t, "photo.png", "x")
	_, err := testUploader(t, srv).Upload(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "secure_url") {
		t.Errorf("expected secure_url error, got %v", err)
	}
}

func TestUploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid upload preset"}}`))
	}))
	defer srv.Close()

	path := writeTempFile(t, "photo.png", "x")
	_, err := testUploader(t, srv).Upload(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestUploadMissingFile(t *testing.T) {
	u := New("cloud", "preset")
	_, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
