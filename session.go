package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"

	"github.com/tonimelisma/gdrive-go/internal/config"
	"github.com/tonimelisma/gdrive-go/internal/drive"
	"github.com/tonimelisma/gdrive-go/internal/identity"
	"github.com/tonimelisma/gdrive-go/internal/picker"
	"github.com/tonimelisma/gdrive-go/internal/tokensession"
)

// Session bundles the token session and the clients built on it for one
// command invocation.
type Session struct {
	Tokens *tokensession.Session
	Drive  *drive.Client
	cfg    *config.Config
}

// newSession validates the OAuth settings and wires the loopback identity
// client, the token session and the Drive client. ctx must outlive every
// call made through the session.
func newSession(ctx context.Context, cc *CLIContext) (*Session, error) {
	if err := config.ValidateOAuth(&cc.Cfg.OAuth); err != nil {
		return nil, fmt.Errorf("incomplete OAuth settings (set them in %s or GDRIVE_GO_* variables): %w",
			config.DefaultConfigPath(), err)
	}

	httpClient := newHTTPClient(cc.Cfg)

	factory := identity.NewFactory(ctx, identity.Config{
		ClientID:     cc.Cfg.OAuth.ClientID,
		ClientSecret: cc.Cfg.OAuth.ClientSecret,
		Scope:        cc.Cfg.OAuth.Scope,
		TokenPath:    config.DefaultTokenPath(),
		OpenURL:      openBrowser,
		HTTPClient:   httpClient,
	}, cc.Logger)

	tokens := tokensession.New(factory, cc.Logger)

	client := drive.NewClient(
		cc.Cfg.Drive.BaseURL,
		cc.Cfg.Drive.UploadURL,
		httpClient,
		tokens,
		cc.Cfg.Drive.SupportAllDrives,
		cc.Logger,
		cc.Cfg.Network.UserAgent,
	)

	return &Session{Tokens: tokens, Drive: client, cfg: cc.Cfg}, nil
}

// PickerConfig returns the application identity the picker widget needs.
func (s *Session) PickerConfig() picker.Config {
	return picker.Config{
		APIKey:           s.cfg.OAuth.APIKey,
		ProjectNumber:    s.cfg.OAuth.ProjectNumber,
		SupportAllDrives: s.cfg.Drive.SupportAllDrives,
	}
}

// explain turns credential failures into actionable messages. A 401 from
// the API drops the cached token so the next call starts a fresh round.
func (s *Session) explain(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, drive.ErrUnauthorized) {
		return fmt.Errorf("not signed in (run 'gdrive-go login'): %w", err)
	}

	if drive.IsRemoteStatus(err, http.StatusUnauthorized) {
		s.Tokens.Invalidate()

		return fmt.Errorf("credential rejected (run 'gdrive-go login'): %w", err)
	}

	return err
}

// openBrowser launches the platform URL opener.
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
