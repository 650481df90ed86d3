// Package identity implements the callback-driven identity client used by
// token sessions: an OAuth2 authorization code + PKCE flow against a
// loopback redirect, with the grant saved to disk so later rounds can
// resume silently.
//
// A round runs on its own goroutine and always finishes by invoking the
// session callback, with nil when no token could be obtained.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/tonimelisma/gdrive-go/internal/tokenfile"
	"github.com/tonimelisma/gdrive-go/internal/tokensession"
)

// DefaultRoundTimeout bounds a browser round when Config.RoundTimeout is zero.
const DefaultRoundTimeout = 5 * time.Minute

// Config describes the registered application and where its grant lives.
type Config struct {
	ClientID     string
	ClientSecret string
	Scope        string // space-separated
	TokenPath    string

	// Endpoint defaults to Google's OAuth2 endpoints.
	Endpoint oauth2.Endpoint

	// OpenURL launches a browser at the authorization URL. When nil or when
	// it fails, the URL is printed to stderr.
	OpenURL func(string) error

	// HTTPClient is used for token exchange and refresh.
	HTTPClient *http.Client

	RoundTimeout time.Duration
}

// Client is a tokensession.IdentityClient.
type Client struct {
	cfg     Config
	oauth   *oauth2.Config
	deliver tokensession.Callback
	logger  *slog.Logger

	// base scopes every round; canceling it abandons outstanding rounds
	// with a nil delivery.
	base context.Context
}

// NewFactory returns a tokensession.ClientFactory that builds Clients bound
// to the session callback. ctx must outlive the session.
func NewFactory(ctx context.Context, cfg Config, logger *slog.Logger) tokensession.ClientFactory {
	return func(cb tokensession.Callback) tokensession.IdentityClient {
		return New(ctx, cfg, cb, logger)
	}
}

// New creates a Client that reports every round outcome to deliver.
func New(ctx context.Context, cfg Config, deliver tokensession.Callback, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Endpoint == (oauth2.Endpoint{}) {
		cfg.Endpoint = endpoints.Google
	}

	if cfg.RoundTimeout <= 0 {
		cfg.RoundTimeout = DefaultRoundTimeout
	}

	return &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     cfg.Endpoint,
			Scopes:       strings.Fields(cfg.Scope),
		},
		deliver: deliver,
		logger:  logger,
		base:    ctx,
	}
}

// RequestAccessToken starts a round and returns immediately. The outcome
// arrives through the callback.
func (c *Client) RequestAccessToken(opts tokensession.RequestOptions) {
	go c.round(opts)
}

func (c *Client) round(opts tokensession.RequestOptions) {
	ctx, cancel := context.WithTimeout(c.base, c.cfg.RoundTimeout)
	defer cancel()

	tok, err := c.acquire(ctx, opts)
	if err != nil {
		c.logger.Warn("identity round failed", slog.String("error", err.Error()))
		c.deliver(nil)

		return
	}

	c.deliver(accountFromToken(tok))
}

func (c *Client) acquire(ctx context.Context, opts tokensession.RequestOptions) (*oauth2.Token, error) {
	if c.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.cfg.HTTPClient)
	}

	if opts.Prompt == "" {
		tok, err := c.resume(ctx)
		if err != nil {
			c.logger.Info("saved grant unusable, starting browser sign-in",
				slog.String("error", err.Error()),
			)
		} else if tok != nil {
			return tok, nil
		}
	}

	return c.browserLogin(ctx, opts.Prompt)
}

// resume returns a valid token from the saved grant, refreshing it when
// expired. Returns (nil, nil) when there is no matching grant.
func (c *Client) resume(ctx context.Context) (*oauth2.Token, error) {
	if c.cfg.TokenPath == "" {
		return nil, nil //nolint:nilnil // no persistence configured
	}

	tf, err := tokenfile.Load(c.cfg.TokenPath)
	if err != nil {
		return nil, err
	}

	if !tf.Matches(c.cfg.ClientID, c.cfg.Scope) {
		return nil, nil //nolint:nilnil // nothing reusable
	}

	tok, err := c.oauth.TokenSource(ctx, tf.Token).Token()
	if err != nil {
		return nil, fmt.Errorf("identity: refreshing saved grant: %w", err)
	}

	if tok.AccessToken != tf.Token.AccessToken {
		c.logger.Debug("saved grant refreshed", slog.Time("expiry", tok.Expiry))
		c.save(tok)
	}

	return tok, nil
}

// browserLogin runs the authorization code + PKCE flow. prompt is forwarded
// to the authorization endpoint when non-empty.
func (c *Client) browserLogin(ctx context.Context, prompt string) (*oauth2.Token, error) {
	resultCh := make(chan callbackResult, 1)
	mux := http.NewServeMux()

	srv, port, err := startCallbackServer(ctx, mux, resultCh, c.logger)
	if err != nil {
		return nil, err
	}

	defer shutdownCallbackServer(srv, c.logger)

	cfg := *c.oauth
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d%s", port, callbackPath)

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()

	registerCallbackHandler(mux, state, resultCh)

	authOpts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	}
	if prompt != "" {
		authOpts = append(authOpts, oauth2.SetAuthURLParam("prompt", prompt))
	}

	c.launchBrowser(cfg.AuthCodeURL(state, authOpts...))

	code, err := waitForCallback(ctx, resultCh)
	if err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("identity: token exchange failed: %w", err)
	}

	c.logger.Info("browser sign-in successful", slog.Time("expiry", tok.Expiry))
	c.save(tok)

	return tok, nil
}

func (c *Client) launchBrowser(authURL string) {
	if c.cfg.OpenURL != nil {
		err := c.cfg.OpenURL(authURL)
		if err == nil {
			return
		}

		c.logger.Warn("failed to open browser, printing URL", slog.String("error", err.Error()))
	}

	fmt.Fprintf(os.Stderr, "Open this URL in your browser:\n%s\n", authURL)
}

// save persists tok. A failure only costs the next process a browser round,
// so it is logged rather than returned.
func (c *Client) save(tok *oauth2.Token) {
	if c.cfg.TokenPath == "" {
		return
	}

	err := tokenfile.Save(c.cfg.TokenPath, &tokenfile.File{
		Token:    tok,
		ClientID: c.cfg.ClientID,
		Scope:    c.cfg.Scope,
	})
	if err != nil {
		c.logger.Warn("failed to persist token",
			slog.String("path", c.cfg.TokenPath),
			slog.String("error", err.Error()),
		)
	}
}

func accountFromToken(tok *oauth2.Token) *tokensession.Account {
	acc := &tokensession.Account{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
		Expiry:      tok.Expiry,
	}

	if scope, ok := tok.Extra("scope").(string); ok {
		acc.Scope = scope
	}

	return acc
}

// Logout removes the saved grant. A missing file is not an error.
func Logout(tokenPath string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	removed, err := tokenfile.Remove(tokenPath)
	if err != nil {
		return err
	}

	if !removed {
		logger.Info("logout: no saved grant (already logged out)", slog.String("path", tokenPath))

		return nil
	}

	logger.Info("logout: removed saved grant", slog.String("path", tokenPath))

	return nil
}

// ErrNotLoggedIn is returned by Status when no grant is saved.
var ErrNotLoggedIn = errors.New("identity: not logged in")

// Status describes the saved grant without contacting the network.
type Status struct {
	ClientID string
	Scope    string
	Expiry   time.Time
	SavedAt  time.Time
	Expired  bool
}

// LoadStatus reads the saved grant at tokenPath.
func LoadStatus(tokenPath string) (*Status, error) {
	tf, err := tokenfile.Load(tokenPath)
	if err != nil {
		return nil, err
	}

	if tf == nil {
		return nil, ErrNotLoggedIn
	}

	return &Status{
		ClientID: tf.ClientID,
		Scope:    tf.Scope,
		Expiry:   tf.Token.Expiry,
		SavedAt:  tf.SavedAt,
		Expired:  !tf.Token.Expiry.IsZero() && tf.Token.Expiry.Before(time.Now()),
	}, nil
}
