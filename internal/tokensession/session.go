// Package tokensession owns the single cached access token of a client
// session and coordinates acquisition rounds with an external,
// callback-driven identity client.
//
// A round starts when Acquire finds no cached token (or is forced) and ends
// when the identity client invokes the callback it was built with. Callers
// that arrive while a round is outstanding join it; one delivery resolves
// every waiter. A round abandoned by all of its callers no longer blocks new
// requests, though a late delivery from it is still cached. Tokens are never
// refreshed proactively.
package tokensession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNoCredential is returned when a round completes without a token.
var ErrNoCredential = errors.New("tokensession: identity flow returned no token")

// PromptSelectAccount asks the identity client to show the account chooser.
const PromptSelectAccount = "select_account"

// Account is the completion payload of an acquisition round.
type Account struct {
	AccessToken string
	TokenType   string
	Scope       string
	Expiry      time.Time
}

// RequestOptions are per-round overrides for the identity client.
// An empty Prompt lets the identity client reuse an existing grant.
type RequestOptions struct {
	Prompt string
}

// Callback receives the outcome of a round. A nil Account (or one with an
// empty AccessToken) means no token was obtained.
type Callback func(acc *Account)

// IdentityClient starts acquisition rounds. It must eventually invoke the
// Callback it was constructed with, from any goroutine; a round it abandons
// silently leaves waiters blocked until their context ends.
type IdentityClient interface {
	RequestAccessToken(opts RequestOptions)
}

// ClientFactory builds an IdentityClient bound to the session's callback.
type ClientFactory func(cb Callback) IdentityClient

// Session holds at most one cached token.
type Session struct {
	client IdentityClient
	logger *slog.Logger

	mu       sync.Mutex
	cached   string
	inFlight bool
	waiters  []chan string
}

// New creates a Session whose identity client is built by factory with
// Session.Deliver as its completion callback.
func New(factory ClientFactory, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{logger: logger}
	s.client = factory(s.Deliver)

	return s
}

// Acquire returns the cached token unless force is set or nothing is
// cached, in which case it starts (or joins) an acquisition round and waits
// for its outcome. A call joins the outstanding round only when other
// callers are still waiting on it and force is unset; otherwise it issues a
// new request with its own prompt. Returns ErrNoCredential when the round
// yields no token.
func (s *Session) Acquire(ctx context.Context, force, forceAccountReselect bool) (string, error) {
	s.mu.Lock()

	if s.cached != "" && !force {
		tok := s.cached
		s.mu.Unlock()

		return tok, nil
	}

	// A round nobody waits on any more may never complete, and a forced
	// call needs its own request; both issue a fresh one. Queued waiters
	// stay and are resolved by whichever delivery arrives first.
	start := !s.inFlight || len(s.waiters) == 0 || force

	ch := make(chan string, 1)
	s.waiters = append(s.waiters, ch)
	s.inFlight = true
	s.mu.Unlock()

	if start {
		opts := RequestOptions{}
		if forceAccountReselect {
			opts.Prompt = PromptSelectAccount
		}

		s.logger.Info("starting token acquisition round",
			slog.Bool("force", force),
			slog.String("prompt", opts.Prompt),
		)

		s.client.RequestAccessToken(opts)
	} else {
		s.logger.Debug("joining outstanding token acquisition round")
	}

	select {
	case tok := <-ch:
		if tok == "" {
			return "", ErrNoCredential
		}

		return tok, nil
	case <-ctx.Done():
		s.removeWaiter(ch)
		return "", fmt.Errorf("tokensession: acquisition canceled: %w", ctx.Err())
	}
}

// Deliver completes the outstanding round. It is the identity client's
// callback. A delivery with no round outstanding is dropped.
func (s *Session) Deliver(acc *Account) {
	tok := ""
	if acc != nil {
		tok = acc.AccessToken
	}

	s.mu.Lock()

	if !s.inFlight {
		s.mu.Unlock()
		s.logger.Debug("dropping token delivery with no round outstanding")

		return
	}

	s.cached = tok
	waiters := s.waiters
	s.waiters = nil
	s.inFlight = false
	s.mu.Unlock()

	if tok == "" {
		s.logger.Warn("token acquisition round returned no token")
	} else {
		attrs := []any{slog.Int("waiters", len(waiters))}
		if acc != nil && !acc.Expiry.IsZero() {
			attrs = append(attrs, slog.Time("expiry", acc.Expiry))
		}

		s.logger.Info("token acquisition round complete", attrs...)
	}

	for _, ch := range waiters {
		ch <- tok
	}
}

// Cached returns the cached token without starting a round.
func (s *Session) Cached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cached, s.cached != ""
}

// Invalidate drops the cached token, typically after the service rejected
// it. The next Acquire starts a round.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.cached = ""
	s.mu.Unlock()

	s.logger.Debug("cached token invalidated")
}

func (s *Session) removeWaiter(ch chan string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, w := range s.waiters {
		if w == ch {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}
