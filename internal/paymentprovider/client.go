// Package paymentprovider клиент REST API платежного шлюза карточных платежей.
package paymentprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/quick-stock/internal/config"
)

// APIError ответ шлюза с кодом, отличным от 2xx.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment gateway: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("payment gateway: status %d: %s", e.StatusCode, e.Message)
}

// Client клиент платежного шлюза.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент шлюза с собственным таймаутом запросов.
func NewClient(cfg config.Payment) *Client {
	return &Client{
		secretKey:  cfg.SecretKey,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, form url.Values) (*http.Request, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body apiErrorBody
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			apiErr.Type = body.Error.Type
			apiErr.Message = body.Error.Message
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreatePaymentIntent создает платежное намерение для оплаты картой.
func (c *Client) CreatePaymentIntent(ctx context.Context, reqParams CreateIntentRequest) (*Intent, error) {
	const op = "paymentprovider.CreatePaymentIntent"

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(reqParams.AmountMinor, 10))
	form.Set("currency", reqParams.Currency)
	form.Add("payment_method_types[]", "card")
	for k, v := range reqParams.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/payment_intents", form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if reqParams.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", reqParams.IdempotencyKey)
	}

	var intent Intent
	if err := c.do(req, &intent); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &intent, nil
}

// GetPaymentIntent запрашивает текущее состояние платежного намерения.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*Intent, error) {
	const op = "paymentprovider.GetPaymentIntent"

	req, err := c.newRequest(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var intent Intent
	if err := c.do(req, &intent); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &intent, nil
}
