package netx

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadPUT(t *testing.T) {
	file := []byte("%PDF-1.7 fake")

	t.Run("success 200 OK", func(t *testing.T) {
		var gotBody []byte
		var gotCT string
		var gotMethod string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			body, _ := io.ReadAll(r.Body)
			_ = r.Body.Close()
			gotBody = body
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		err := UploadPUT(nil, ts.URL+"/some/presigned?X-Amz-Signature=abc", "image/png", file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodPut {
			t.Fatalf("method = %q, want PUT", gotMethod)
		}
		if gotCT != "image/png" {
			t.Fatalf("Content-Type = %q, want image/png", gotCT)
		}
		if !bytes.Equal(gotBody, file) {
			t.Fatalf("body = %q, want %q", string(gotBody), string(file))
		}
	})

	t.Run("non-200 -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer ts.Close()

		err := UploadPUT(nil, ts.URL, "", file)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "upload failed: 403") {
			t.Fatalf("error = %q, want to contain 403", err.Error())
		}
	})
}

func TestUploadPOST(t *testing.T) {
	file := []byte("%PDF-1.7 fake")

	t.Run("sends policy fields and file part", func(t *testing.T) {
		var gotKey, gotCT, gotFile, gotFileName string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			gotKey = r.FormValue("key")
			gotCT = r.FormValue("Content-Type")

			f, header, err := r.FormFile("file")
			if err != nil {
				t.Errorf("form file: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer f.Close()
			body, _ := io.ReadAll(f)
			gotFile = string(body)
			gotFileName = header.Filename

			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		fields := map[string]string{
			"key":          "users/u1/papers/p1/attention.pdf",
			"Content-Type": "application/pdf",
		}
		err := UploadPOST(nil, ts.URL, fields, "attention.pdf", file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotKey != "users/u1/papers/p1/attention.pdf" {
			t.Fatalf("key = %q", gotKey)
		}
		if gotCT != "application/pdf" {
			t.Fatalf("Content-Type field = %q", gotCT)
		}
		if gotFile != string(file) {
			t.Fatalf("file body = %q", gotFile)
		}
		if gotFileName != "attention.pdf" {
			t.Fatalf("file name = %q", gotFileName)
		}
	})

	t.Run("policy rejection -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer ts.Close()

		err := UploadPOST(nil, ts.URL, nil, "x.pdf", file)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "403") {
			t.Fatalf("error = %q, want to contain 403", err.Error())
		}
	})
}
