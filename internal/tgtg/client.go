// Package tgtg talks to the surprise-bag marketplace API: fetching a user's
// favorite listings and running the email-based authentication flow.
package tgtg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ritwyck/too-good-to-go-terminal/internal/model"
)

const (
	itemsPath       = "/item/v8/"
	refreshPath     = "/token/v1/refresh"
	authByEmailPath = "/auth/v5/authByEmail"
	authPollPath    = "/auth/v5/authByRequestPollingId"

	// favoritesPageSize is large enough to cover a user's favorites in one
	// request; the marketplace caps favorites well below this.
	favoritesPageSize = 400

	authPollEvery = 5 * time.Second
)

// RawPrice is a fixed-point price as sent by the marketplace.
type RawPrice struct {
	Code       string `json:"code"`
	MinorUnits int64  `json:"minor_units"`
	Decimals   int    `json:"decimals"`
}

// Listing is one raw favorites record as returned by the marketplace. Fields
// the normalizer requires are pointers or checked for zero values so missing
// data is detectable.
type Listing struct {
	Item struct {
		ItemID string    `json:"item_id"`
		Name   string    `json:"name"`
		Price  *RawPrice `json:"item_price"`
	} `json:"item"`
	Store struct {
		StoreID   string `json:"store_id"`
		StoreName string `json:"store_name"`
	} `json:"store"`
	ItemsAvailable int `json:"items_available"`
	PickupLocation struct {
		Address struct {
			AddressLine string `json:"address_line"`
		} `json:"address"`
	} `json:"pickup_location"`
}

// Client is an HTTP client for the marketplace API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	pollEvery time.Duration
	log       *zap.Logger
}

// NewClient creates a marketplace client.
func NewClient(baseURL, userAgent string, log *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: 30 * time.Second},
		pollEvery: authPollEvery,
		log:       log,
	}
}

// FetchItems returns the raw favorite listings for the given credentials.
// When the access token has expired the client refreshes it once and retries;
// the rotated credentials are returned so the caller can persist them, nil
// when unchanged. Any other failure is returned as an error the poll loop
// treats as a per-user recoverable failure.
func (c *Client) FetchItems(ctx context.Context, creds model.Credentials) ([]Listing, *model.Credentials, error) {
	listings, err := c.fetchItems(ctx, creds)
	if err == nil {
		return listings, nil, nil
	}
	if !isAuthExpired(err) {
		return nil, nil, err
	}

	c.log.Debug("access token expired, refreshing")
	rotated, err := c.refresh(ctx, creds)
	if err != nil {
		return nil, nil, fmt.Errorf("refreshing token: %w", err)
	}

	listings, err = c.fetchItems(ctx, *rotated)
	if err != nil {
		return nil, nil, err
	}
	return listings, rotated, nil
}

func (c *Client) fetchItems(ctx context.Context, creds model.Credentials) ([]Listing, error) {
	body := map[string]any{
		"favorites_only": true,
		"origin":         map[string]float64{"latitude": 0, "longitude": 0},
		"radius":         21,
		"page":           1,
		"page_size":      favoritesPageSize,
	}

	var resp struct {
		Items []Listing `json:"items"`
	}
	if err := c.post(ctx, itemsPath, &creds, body, &resp); err != nil {
		return nil, fmt.Errorf("fetching items: %w", err)
	}
	return resp.Items, nil
}

func (c *Client) refresh(ctx context.Context, creds model.Credentials) (*model.Credentials, error) {
	body := map[string]string{"refresh_token": creds.RefreshToken}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.post(ctx, refreshPath, &creds, body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("refresh response missing access token")
	}

	rotated := creds
	rotated.AccessToken = resp.AccessToken
	if resp.RefreshToken != "" {
		rotated.RefreshToken = resp.RefreshToken
	}
	return &rotated, nil
}

// StartAuth begins email-based authentication and returns the polling ID the
// marketplace assigned to the request. The user must approve the login from
// the email the marketplace sends them.
func (c *Client) StartAuth(ctx context.Context, email string) (string, error) {
	body := map[string]string{
		"device_type": "ANDROID",
		"email":       email,
	}

	var resp struct {
		State     string `json:"state"`
		PollingID string `json:"polling_id"`
	}
	if err := c.post(ctx, authByEmailPath, nil, body, &resp); err != nil {
		return "", fmt.Errorf("starting auth: %w", err)
	}
	if resp.PollingID == "" {
		return "", fmt.Errorf("auth response missing polling id (state %q)", resp.State)
	}
	return resp.PollingID, nil
}

// PollAuth polls the marketplace until the user approves the login, then
// returns the issued credentials. Gives up when ctx is done.
func (c *Client) PollAuth(ctx context.Context, email, pollingID string) (*model.Credentials, error) {
	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for {
		creds, done, err := c.pollAuthOnce(ctx, email, pollingID)
		if err != nil {
			return nil, err
		}
		if done {
			return creds, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for auth approval: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) pollAuthOnce(ctx context.Context, email, pollingID string) (*model.Credentials, bool, error) {
	body := map[string]string{
		"device_type":        "ANDROID",
		"email":              email,
		"request_polling_id": pollingID,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, false, fmt.Errorf("encoding auth poll request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+authPollPath, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("building auth poll request: %w", err)
	}
	c.setHeaders(req, nil)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("polling auth: %w", err)
	}
	defer httpResp.Body.Close()

	// 202: not approved yet, keep polling.
	if httpResp.StatusCode == http.StatusAccepted {
		io.Copy(io.Discard, httpResp.Body)
		return nil, false, nil
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, false, readAPIError(httpResp)
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, false, fmt.Errorf("decoding auth response: %w", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, false, fmt.Errorf("auth response missing tokens")
	}

	creds := &model.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	for _, cookie := range httpResp.Cookies() {
		if cookie.Name == "datadome" {
			creds.Cookie = cookie.String()
		}
	}
	return creds, true, nil
}

// post sends an authenticated JSON POST and decodes the JSON response.
// creds may be nil for unauthenticated endpoints.
func (c *Client) post(ctx context.Context, path string, creds *model.Credentials, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req, creds)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, creds *model.Credentials) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if creds != nil {
		if creds.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
		}
		if creds.Cookie != "" {
			req.Header.Set("Cookie", creds.Cookie)
		}
	}
}

// apiError is a non-200 marketplace response.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("marketplace returned %d: %s", e.Status, e.Body)
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func isAuthExpired(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
