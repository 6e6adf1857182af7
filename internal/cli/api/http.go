package api

import (
	"DriveKeeper/internal/config"
	"DriveKeeper/internal/middleware"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// StatusError — сервер ответил не 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server status %d: %s", e.Code, e.Body)
}

// Client — HTTP-клиент сервера DriveKeeper. Каждый запрос несёт X-User-ID и X-Client-ID.
type Client struct {
	BaseURL  string
	UserID   int64
	ClientID string
	HTTP     *http.Client
}

// New создаёт клиента по конфигу.
func New(cfg *config.Config) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(cfg.ServerURL, "/"),
		UserID:   cfg.UserID,
		ClientID: cfg.ClientID,
		HTTP:     &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// DoJSON отправляет payload (если не nil) как JSON и декодирует ответ в out (если не nil).
func (c *Client) DoJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserID > 0 {
		req.Header.Set(middleware.HeaderUserID, strconv.FormatInt(c.UserID, 10))
	}
	if c.ClientID != "" {
		req.Header.Set(middleware.HeaderClientID, c.ClientID)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
