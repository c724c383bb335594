package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// HTTPClassifier envía el audio a un servicio de modelo remoto. El servicio
// responde con el mismo texto que imprime el script local.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier construye un cliente contra DETECTOR_URL. El timeout de
// cada llamada lo fija el contexto del llamador.
func NewHTTPClassifier(url string, httpClient *http.Client) (*HTTPClassifier, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("detector url is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &HTTPClassifier{url: url, client: httpClient}, nil
}

func (c *HTTPClassifier) Classify(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", filepath.Base(path))
	if err != nil {
		return Result{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return Result{}, fmt.Errorf("copy audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Result{}, fmt.Errorf("%w: do request: %v", ErrProcessFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %v", ErrProcessFailed, err)
	}
	if resp.StatusCode >= 400 {
		return Result{Raw: string(respBody)}, &ProcessError{
			ExitCode: resp.StatusCode,
			Stderr:   string(respBody),
		}
	}

	return ParseOutput(string(respBody))
}
