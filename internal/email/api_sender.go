package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APISender envia correos via una API transaccional HTTP (formato Brevo:
// cabecera api-key y cuerpo JSON con sender/to/subject/textContent).
type APISender struct {
	url      string
	apiKey   string
	from     string
	fromName string
	client   *http.Client
}

func NewAPISender(url, apiKey, from, fromName string, httpClient *http.Client) (*APISender, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("email api url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("email api key is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("email from is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &APISender{
		url:      url,
		apiKey:   apiKey,
		from:     from,
		fromName: fromName,
		client:   httpClient,
	}, nil
}

type apiContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type apiMessage struct {
	Sender      apiContact   `json:"sender"`
	To          []apiContact `json:"to"`
	Subject     string       `json:"subject"`
	TextContent string       `json:"textContent"`
}

func (s *APISender) SendVerificationOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to email is required")
	}

	body, err := json.Marshal(apiMessage{
		Sender:      apiContact{Email: s.from, Name: s.fromName},
		To:          []apiContact{{Email: toEmail}},
		Subject:     verificationSubject,
		TextContent: verificationBody(code, expiresAt),
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
