package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the dynamic-points HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// PutSettings saves a settings entry for a rule. The optional eventContext
// is the authoring-time entity hierarchy used for attribute resolution.
// ErrSettingsRejected is returned when the server discarded the entry; the
// SaveResult still carries the validation errors in that case.
func (c *Client) PutSettings(ctx context.Context, ruleID string, settings map[string]any, eventContext map[string]any) (SaveResult, error) {
	if strings.TrimSpace(ruleID) == "" {
		return SaveResult{}, ErrEmptyRuleID
	}

	payload := map[string]any{"settings": settings}
	if eventContext != nil {
		payload["context"] = eventContext
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SaveResult{}, err
	}

	u := fmt.Sprintf("%s/rules/%s/settings", c.baseURL, url.PathEscape(ruleID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return SaveResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SaveResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var rejected struct {
			Details []FieldError `json:"details"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&rejected)
		return SaveResult{Errors: rejected.Details}, ErrSettingsRejected
	}

	var result SaveResult
	if err := decodeJSON(resp, &result); err != nil {
		return SaveResult{}, err
	}
	return result, nil
}

// GetSettings loads the stored settings entry for a rule.
func (c *Client) GetSettings(ctx context.Context, ruleID string) (map[string]any, error) {
	if strings.TrimSpace(ruleID) == "" {
		return nil, ErrEmptyRuleID
	}
	u := fmt.Sprintf("%s/rules/%s/settings", c.baseURL, url.PathEscape(ruleID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	var body struct {
		Settings map[string]any `json:"settings"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Settings, nil
}

// DeleteSettings removes the stored settings entry for a rule.
func (c *Client) DeleteSettings(ctx context.Context, ruleID string) error {
	if strings.TrimSpace(ruleID) == "" {
		return ErrEmptyRuleID
	}
	u := fmt.Sprintf("%s/rules/%s/settings", c.baseURL, url.PathEscape(ruleID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		OK bool `json:"ok"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return err
	}
	if !body.OK {
		return errors.New("settings not deleted")
	}
	return nil
}

// Fire computes the award for one rule firing. The firingContext carries
// the attribute values; currentAward is the award computed so far (a
// non-zero value passes through unchanged on the server).
func (c *Client) Fire(ctx context.Context, ruleID string, currentAward int64, firingContext map[string]any) (int64, error) {
	if strings.TrimSpace(ruleID) == "" {
		return 0, ErrEmptyRuleID
	}
	body, err := json.Marshal(map[string]any{
		"current_award": currentAward,
		"context":       firingContext,
	})
	if err != nil {
		return 0, err
	}

	u := fmt.Sprintf("%s/rules/%s/fire", c.baseURL, url.PathEscape(ruleID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var result struct {
		Award int64 `json:"award"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return 0, err
	}
	return result.Award, nil
}

// Describe fetches the configuration schema, including the registered
// rounding strategies.
func (c *Client) Describe(ctx context.Context) (Description, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/schema", nil)
	if err != nil {
		return Description{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Description{}, err
	}
	defer resp.Body.Close()

	var d Description
	if err := decodeJSON(resp, &d); err != nil {
		return Description{}, err
	}
	return d, nil
}

// TopRules returns up to n rules ranked by cumulative awarded points.
func (c *Client) TopRules(ctx context.Context, n int) ([]RuleScore, error) {
	u := fmt.Sprintf("%s/rules/top?n=%d", c.baseURL, n)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Rules []RuleScore `json:"rules"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Rules, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	u := c.baseURL + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
