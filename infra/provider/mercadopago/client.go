// Package mercadopago is the HTTP client for the Mercado Pago v1 API: payment
// lookups, PIX charges, card payments and installment plans.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/google/uuid"
)

// ProviderName identifies this processor in errors and logs.
const ProviderName = "mercadopago"

const (
	headerIdempotencyKey = "X-Idempotency-Key"
	headerRequestID      = "X-Request-Id"
)

// Client talks to the Mercado Pago REST API. It never retries; callers
// decide whether a failed call is worth repeating.
type Client struct {
	baseURL         string
	accessToken     string
	notificationURL string
	httpClient      *http.Client
	logger          *slog.Logger
	idempotencyKey  func() string
}

// New creates a Client from config. The HTTP timeout is fixed for the
// lifetime of the client.
func New(cfg *config.MercadoPago, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		accessToken:     cfg.AccessToken,
		notificationURL: cfg.NotificationURL,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger:         logger.With("provider", ProviderName),
		idempotencyKey: func() string { return uuid.NewString() },
	}
}

// apiError is the error envelope returned by the API.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Cause   []struct {
		Code        json.RawMessage `json:"code"`
		Description string          `json:"description"`
	} `json:"cause"`
}

// do performs a JSON request. Writes carry a fresh idempotency key.
func (c *Client) do(
	ctx context.Context,
	op, method, path string,
	query url.Values,
	in, out any,
) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set(headerIdempotencyKey, c.idempotencyKey())
	}

	log := c.logger.With("op", op, "method", method, "path", path)
	log.Debug("calling processor")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("processor request failed", "error", err)
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &domain.ProviderAPIError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			TraceID:    traceID(resp.Header),
		}
		var env apiError
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Code = env.Error
			apiErr.Message = env.Message
			if len(env.Cause) > 0 {
				apiErr.Code = strings.Trim(string(env.Cause[0].Code), `"`)
				if apiErr.Message == "" {
					apiErr.Message = env.Cause[0].Description
				}
			}
		}
		log.Warn("processor returned non-success",
			"status", resp.StatusCode,
			"code", apiErr.Code,
			"trace_id", apiErr.TraceID,
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func traceID(h http.Header) string {
	for _, k := range []string{headerRequestID, "X-Trace-Id"} {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// IsNotFound reports whether err is a 404 from the processor.
func IsNotFound(err error) bool {
	var apiErr *domain.ProviderAPIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
