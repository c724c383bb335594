package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"echowipe/internal/detector"
	"echowipe/internal/domain"
)

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	} else if err := w.WriteField("other", "value"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func postUpload(app *testApp, t *testing.T, path, field, filename string, content []byte, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func assertUploadDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected upload dir to be empty, found %d entries", len(entries))
	}
}

func TestDetectAPI_Success(t *testing.T) {
	app := newTestApp(t, false)
	var sawFile bool
	app.clf.OnClassify = func(path string) {
		_, err := os.Stat(path)
		sawFile = err == nil
	}

	rec := postUpload(app, t, "/api/detect", "audio", "clip.wav", []byte("RIFF....WAVE"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got domain.DetectionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Label != domain.LabelFake || got.Fake != 0.9 || got.Real != 0.1 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if !sawFile {
		t.Fatalf("classifier should see the saved upload")
	}
	assertUploadDirEmpty(t, app.upload)
}

func TestDetectAPI_MissingFile(t *testing.T) {
	app := newTestApp(t, false)

	rec := postUpload(app, t, "/api/detect", "", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "No file uploaded" {
		t.Fatalf("unexpected error message: %q", body["error"])
	}
}

func TestDetectAPI_EmptyUpload(t *testing.T) {
	app := newTestApp(t, false)

	rec := postUpload(app, t, "/api/detect", "audio", "clip.wav", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	assertUploadDirEmpty(t, app.upload)
}

func TestDetectAPI_ClassifierFailure(t *testing.T) {
	app := newTestApp(t, false)
	app.clf.Err = &detector.ProcessError{ExitCode: 1, Stderr: "Traceback"}

	rec := postUpload(app, t, "/api/detect", "audio", "clip.mp3", []byte("ID3"))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("Traceback")) {
		t.Fatalf("diagnostic output must not reach the client")
	}
	assertUploadDirEmpty(t, app.upload)
}

func TestDetectPage_RequiresSession(t *testing.T) {
	app := newTestApp(t, false)

	rec := postUpload(app, t, "/detect", "audio", "clip.wav", []byte("RIFF"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", rec.Code)
	}
	if app.clf.LastPath != "" {
		t.Fatalf("classifier must not run without a session")
	}
}

func TestDetectPage_RendersResult(t *testing.T) {
	app := newTestApp(t, false)
	cookie := sessionCookie(t, postForm(app.router, "/", signUpForm("ada@example.com")))
	app.clf.Result = detector.Result{Fake: 0.25, Real: 0.75}

	rec := postUpload(app, t, "/detect", "audio", "clip.wav", []byte("RIFF"), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !bytes.Contains([]byte(body), []byte("REAL VOICE")) {
		t.Fatalf("expected real verdict, got %s", body)
	}
	if !bytes.Contains([]byte(body), []byte("0.250000")) || !bytes.Contains([]byte(body), []byte("0.750000")) {
		t.Fatalf("expected probabilities with six decimals")
	}
	assertUploadDirEmpty(t, app.upload)
}

func TestDetectPage_ErrorText(t *testing.T) {
	app := newTestApp(t, false)
	cookie := sessionCookie(t, postForm(app.router, "/", signUpForm("ada@example.com")))
	app.clf.Err = errors.New("boom")

	rec := postUpload(app, t, "/detect", "audio", "clip.wav", []byte("RIFF"), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Detection failed")) {
		t.Fatalf("expected detection failure text")
	}

	rec = postUpload(app, t, "/detect", "", "", nil, cookie)
	if !bytes.Contains(rec.Body.Bytes(), []byte("No file uploaded")) {
		t.Fatalf("expected missing file text")
	}
}

func TestDetectAPI_TooLarge(t *testing.T) {
	app := newTestApp(t, false)

	rec := postUpload(app, t, "/api/detect", "audio", "clip.wav", bytes.Repeat([]byte("x"), 2<<20))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "File too large" {
		t.Fatalf("unexpected error message: %q", body["error"])
	}
	if app.clf.LastPath != "" {
		t.Fatalf("classifier must not run for oversized uploads")
	}
	assertUploadDirEmpty(t, app.upload)
}
