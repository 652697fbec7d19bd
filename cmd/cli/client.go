package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iho/edufinance/internal/adapter/http/dto"
)

const idempotencyKeyHeader = "Idempotency-Key"

// apiClient talks to the edufinance HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status  int
	Message string
	Details string
}

func (e *apiError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("server returned %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body any, header http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body dto.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return &apiError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	return &apiError{Status: resp.StatusCode, Message: body.Error, Details: body.Message}
}

func (c *apiClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}

// ListTransactions returns the view of a period.
func (c *apiClient) ListTransactions(ctx context.Context, query url.Values) (*dto.ViewResponse, error) {
	var view dto.ViewResponse
	if err := c.getJSON(ctx, "/api/v1/transactions", query, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// CreateTransaction posts a new transaction. An empty key sends no
// Idempotency-Key header.
func (c *apiClient) CreateTransaction(ctx context.Context, req dto.TransactionRequest, idempotencyKey string) (*dto.TransactionResponse, error) {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(idempotencyKeyHeader, idempotencyKey)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v1/transactions", nil, req, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tx dto.TransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &tx, nil
}

// DeleteTransaction removes a transaction.
func (c *apiClient) DeleteTransaction(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/v1/transactions/"+url.PathEscape(id), nil, nil, nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Summary returns the totals and breakdown of a period.
func (c *apiClient) Summary(ctx context.Context, query url.Values) (*dto.PeriodSummaryResponse, error) {
	var summary dto.PeriodSummaryResponse
	if err := c.getJSON(ctx, "/api/v1/summary", query, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Reconcile compares the server's ledger with its stored copy. Drift
// comes back as 409 with the same body and is not an error here.
func (c *apiClient) Reconcile(ctx context.Context) (*dto.ReconciliationResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/ledger/reconcile", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return nil, decodeAPIError(resp)
	}

	var result dto.ReconciliationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// Export downloads a report and returns its suggested filename.
func (c *apiClient) Export(ctx context.Context, format string, query url.Values) ([]byte, string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/reports/"+format, query, nil, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read report: %w", err)
	}

	filename := "report." + format
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}

	return data, filename, nil
}
