package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// SubmitError carries the purchase service's own message when it sent one.
type SubmitError struct {
	Status  int
	Message string
}

func (e *SubmitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("checkout: status %d", e.Status)
}

type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSubmitter(baseURL string, client *http.Client) (*HTTPSubmitter, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return nil, fmt.Errorf("checkout base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse checkout base url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSubmitter{endpoint: base.JoinPath("/api/outfit").String(), client: client}, nil
}

func (s *HTTPSubmitter) Submit(ctx context.Context, order Order) (Outcome, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return 0, fmt.Errorf("encode order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("checkout request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return Created, nil
	case http.StatusConflict:
		return Duplicate, nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return 0, &SubmitError{Status: resp.StatusCode, Message: gjson.GetBytes(raw, "error").String()}
}
