package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// Default endpoints for the Drive v3 API.
const (
	DefaultBaseURL   = "https://www.googleapis.com/drive/v3"
	DefaultUploadURL = "https://www.googleapis.com/upload/drive/v3"
	defaultUserAgent = "gdrive-go/0.1"
)

// TokenSource provides bearer tokens. tokensession.Session implements it.
type TokenSource interface {
	Acquire(ctx context.Context, force, forceAccountReselect bool) (string, error)
}

// Client is an HTTP client for the Google Drive v3 API.
type Client struct {
	baseURL          string
	uploadURL        string
	httpClient       *http.Client
	tokens           TokenSource
	supportAllDrives bool
	logger           *slog.Logger
	userAgent        string
}

// NewClient creates a Drive API client. Empty URLs fall back to the public
// endpoints. tokens may be nil, in which case every call must pass a token.
func NewClient(
	baseURL, uploadURL string,
	httpClient *http.Client,
	tokens TokenSource,
	supportAllDrives bool,
	logger *slog.Logger,
	userAgent string,
) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if uploadURL == "" {
		uploadURL = DefaultUploadURL
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:          baseURL,
		uploadURL:        uploadURL,
		httpClient:       httpClient,
		tokens:           tokens,
		supportAllDrives: supportAllDrives,
		logger:           logger,
		userAgent:        userAgent,
	}
}

// SupportsAllDrives reports whether requests are widened to shared drives.
func (c *Client) SupportsAllDrives() bool {
	return c.supportAllDrives
}

// resolveToken returns token if non-empty, otherwise asks the token source
// for the cached (or a freshly acquired) credential.
func (c *Client) resolveToken(ctx context.Context, token string) (string, error) {
	if token != "" {
		return token, nil
	}

	if c.tokens == nil {
		return "", &AuthError{}
	}

	tok, err := c.tokens.Acquire(ctx, false, false)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("drive: acquiring token: %w", ctx.Err())
		}

		return "", &AuthError{Err: err}
	}

	if tok == "" {
		return "", &AuthError{}
	}

	return tok, nil
}

// allDrivesParams returns query parameters carrying the all-drives flag.
func (c *Client) allDrivesParams() url.Values {
	params := url.Values{}
	params.Set("supportsAllDrives", strconv.FormatBool(c.supportAllDrives))

	return params
}

// fileURL builds <base>/files/<id><suffix>?<params>.
func (c *Client) fileURL(id, suffix string, params url.Values) string {
	return c.baseURL + "/files/" + url.PathEscape(id) + suffix + "?" + params.Encode()
}

// do executes one authenticated request. Non-2xx responses are drained and
// returned as *RemoteError. The caller closes the body on success.
func (c *Client) do(
	ctx context.Context, method, rawURL, token, contentType string, body io.Reader,
) (*http.Response, error) {
	tok, err := c.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("drive: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("drive: request canceled: %w", ctx.Err())
		}

		c.logger.Error("request failed",
			slog.String("method", method),
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("drive: %s request failed: %w", method, err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	c.logger.Warn("request returned error status",
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
	)

	return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(errBody)}
}

// IsRemoteStatus reports whether err is a RemoteError with the given status.
func IsRemoteStatus(err error, status int) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.StatusCode == status
	}

	return false
}
