// Package sharetransport implements the bearer-token REST client that
// uploads, downloads, and deletes backup/recovery shares against the
// backend described by spec §4.3/§6. Grounded on the teacher's
// internal/chain/eth/etherscan client (bearer-header auth, a rate
// limiter, a capped-body JSON decode loop) — generalized from a
// balance-query GET to the backend's share endpoints.
package sharetransport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

const (
	// DefaultTimeout bounds a single share-transport HTTP call.
	DefaultTimeout = 30 * time.Second

	// maxResponseBody caps how much of an error response we read.
	maxResponseBody = 1 << 20

	backupSharePath   = "/user/shares/backup"
	recoverySharePath = "/user/shares/recovery"
	allSharesPath     = "/user/shares"
	addressPath       = "/user/address"

	appNameHeader = "X-APP-NAME"
)

// Client talks to the backend's share-storage endpoints on behalf of a
// single authenticated user. Every call takes the caller's access token
// explicitly (spec's façade holds the token, not this client) so the
// client itself stays stateless and safe to share across users.
type Client struct {
	baseURL    string
	appName    string
	httpClient *http.Client
}

// Options configures a Client.
type Options struct {
	// HTTPClient overrides the default HTTP client (useful for testing).
	HTTPClient *http.Client
}

// NewClient builds a share-transport client against baseURL, identifying
// itself to the backend as appName on every request.
func NewClient(baseURL, appName string, opts *Options) *Client {
	c := &Client{
		baseURL: baseURL,
		appName: appName,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
	}
	if opts != nil && opts.HTTPClient != nil {
		c.httpClient = opts.HTTPClient
	}
	return c
}

type shareEnvelope struct {
	Share string `json:"share"`
}

// UploadBackupShare stores share under the caller's account, replacing
// any previously stored backup share.
func (c *Client) UploadBackupShare(ctx context.Context, accessToken, share string) error {
	return c.sendJSON(ctx, accessToken, http.MethodPost, backupSharePath, shareEnvelope{Share: share})
}

// UploadRecoveryShare stores share as the caller's recovery share.
func (c *Client) UploadRecoveryShare(ctx context.Context, accessToken, share string) error {
	return c.sendJSON(ctx, accessToken, http.MethodPost, recoverySharePath, shareEnvelope{Share: share})
}

// DownloadBackupShare fetches the caller's stored backup share. A 404
// response is not an error: it surfaces as ("", nil) per spec §4.5's
// source-collection step, which treats an absent share as optional.
func (c *Client) DownloadBackupShare(ctx context.Context, accessToken string) (string, error) {
	return c.get(ctx, accessToken, backupSharePath)
}

// DownloadRecoveryShare fetches the caller's stored recovery share.
func (c *Client) DownloadRecoveryShare(ctx context.Context, accessToken string) (string, error) {
	return c.get(ctx, accessToken, recoverySharePath)
}

// DeleteAllShares removes every share the backend holds for the caller,
// used by the wallet-deletion flow (spec §4.6).
func (c *Client) DeleteAllShares(ctx context.Context, accessToken string) error {
	req, err := c.newRequest(ctx, accessToken, http.MethodDelete, allSharesPath, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return sigilerr.ErrMissingAccessToken
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return sigilerr.WithBackendStatus(resp.StatusCode, readBody(resp))
	}
	return nil
}

type addressEnvelope struct {
	Address string `json:"address"`
}

// UploadAddress PUTs the caller's freshly generated address for
// networkKey to the backend, the "if network.can_do_purchases" step of
// §4.11's generate_new_address.
func (c *Client) UploadAddress(ctx context.Context, accessToken, networkKey, address string) error {
	return c.sendJSON(ctx, accessToken, http.MethodPut, addressPath+"?network_key="+networkKey, addressEnvelope{Address: address})
}

func (c *Client) sendJSON(ctx context.Context, accessToken, method, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := c.newRequest(ctx, accessToken, method, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return sigilerr.ErrMissingAccessToken
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return sigilerr.WithBackendStatus(resp.StatusCode, readBody(resp))
	}
	return nil
}

func (c *Client) get(ctx context.Context, accessToken, path string) (string, error) {
	req, err := c.newRequest(ctx, accessToken, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return "", nil
	case http.StatusUnauthorized:
		return "", sigilerr.ErrMissingAccessToken
	case http.StatusOK:
	default:
		return "", sigilerr.WithBackendStatus(resp.StatusCode, readBody(resp))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var env shareEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", sigilerr.WithBackendStatus(resp.StatusCode, truncateBody(string(body), 512))
	}
	return env.Share, nil
}

func (c *Client) newRequest(ctx context.Context, accessToken, method, path string, body io.Reader) (*http.Request, error) {
	if accessToken == "" {
		return nil, sigilerr.ErrMissingAccessToken
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set(appNameHeader, c.appName)
	return req, nil
}

func readBody(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return ""
	}
	return truncateBody(string(body), 512)
}

func truncateBody(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
