package picker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tonimelisma/gdrive-go/internal/drive"
	"github.com/tonimelisma/gdrive-go/internal/mimetype"
)

// TokenSource provides the credential handed to the widget.
type TokenSource interface {
	Acquire(ctx context.Context, force, forceAccountReselect bool) (string, error)
}

// Config carries the application identity the widget needs.
type Config struct {
	APIKey           string
	ProjectNumber    string
	SupportAllDrives bool
}

// PickOptions narrows a file pick. Empty fields use defaults: the session
// token and no MIME filter. MimeTypes is a comma-separated list.
type PickOptions struct {
	Token     string
	MimeTypes string
}

// Service runs picker rounds.
type Service struct {
	factory Factory
	tokens  TokenSource
	cfg     Config
	logger  *slog.Logger
}

// NewService creates a Service.
func NewService(factory Factory, tokens TokenSource, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		factory: factory,
		tokens:  tokens,
		cfg:     cfg,
		logger:  logger,
	}
}

// Show displays one widget and waits for its first terminal event.
//
// With an empty token the session token is used; if none can be obtained
// Show returns (nil, nil) without building a widget. viewFunc replaces the
// default docs view; viewSettings and builderSettings customize the view
// and builder before the widget is built. A picked event returns its docs;
// cancel, error and unrecognized events return (nil, nil). Loaded events are
// ignored. Canceling ctx hides the widget and returns ctx's error.
func (s *Service) Show(
	ctx context.Context,
	token string,
	viewSettings func(View),
	builderSettings func(Builder),
	viewFunc func() View,
) ([]drive.File, error) {
	if token == "" {
		tok, err := s.acquire(ctx)
		if err != nil {
			return nil, err
		}

		if tok == "" {
			return nil, nil
		}

		token = tok
	}

	var view View
	if viewFunc != nil {
		view = viewFunc()
	} else {
		view = s.factory.NewView(ViewDocs)
	}

	if viewSettings != nil {
		viewSettings(view)
	}

	done := make(chan Response, 1)

	var once sync.Once

	builder := s.factory.NewBuilder()
	builder.AddView(view)
	builder.SetAppID(s.cfg.ProjectNumber)
	builder.SetDeveloperKey(s.cfg.APIKey)
	builder.SetOAuthToken(token)
	builder.SetCallback(func(resp Response) {
		if resp.Action == ActionLoaded {
			s.logger.Debug("picker loaded")
			return
		}

		once.Do(func() { done <- resp })
	})

	if s.cfg.SupportAllDrives {
		builder.EnableFeature(FeatureSupportDrives)
	}

	if builderSettings != nil {
		builderSettings(builder)
	}

	widget := builder.Build()

	s.logger.Info("showing picker")
	widget.SetVisible(true)

	select {
	case resp := <-done:
		return s.project(resp), nil
	case <-ctx.Done():
		widget.SetVisible(false)
		return nil, fmt.Errorf("picker: selection canceled: %w", ctx.Err())
	}
}

// acquire returns the session token, "" when none is available, or an
// error only when ctx ended.
func (s *Service) acquire(ctx context.Context) (string, error) {
	if s.tokens == nil {
		return "", nil
	}

	tok, err := s.tokens.Acquire(ctx, false, false)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("picker: acquiring token: %w", ctx.Err())
		}

		s.logger.Warn("no credential for picker",
			slog.String("error", err.Error()),
		)

		return "", nil
	}

	return tok, nil
}

// project maps a terminal event to the selection result.
func (s *Service) project(resp Response) []drive.File {
	switch resp.Action {
	case ActionPicked:
		s.logger.Info("picker selection made", slog.Int("count", len(resp.Docs)))
		return resp.Docs
	case ActionCancel:
		s.logger.Info("picker canceled")
	case ActionError:
		s.logger.Warn("picker reported an error")
	default:
		s.logger.Warn("unrecognized picker action, treating as canceled",
			slog.String("action", string(resp.Action)),
		)
	}

	return nil
}

// PickFile lets the user select one file. Returns nil if canceled or
// unauthorized.
func (s *Service) PickFile(ctx context.Context, opts PickOptions) (*drive.File, error) {
	files, err := s.pickFiles(ctx, opts, false)
	if err != nil || len(files) == 0 {
		return nil, err
	}

	return &files[0], nil
}

// PickFiles lets the user select several files. Returns nil if canceled or
// unauthorized.
func (s *Service) PickFiles(ctx context.Context, opts PickOptions) ([]drive.File, error) {
	return s.pickFiles(ctx, opts, true)
}

func (s *Service) pickFiles(ctx context.Context, opts PickOptions, multiple bool) ([]drive.File, error) {
	return s.Show(ctx, opts.Token,
		func(v View) {
			if opts.MimeTypes != "" {
				v.SetMimeTypes(opts.MimeTypes)
			}
		},
		func(b Builder) {
			if multiple {
				b.EnableFeature(FeatureMultiselectEnabled)
			}
		},
		nil,
	)
}

// PickFolder lets the user select one folder. Returns nil if canceled or
// unauthorized.
func (s *Service) PickFolder(ctx context.Context, token string) (*drive.File, error) {
	folders, err := s.Show(ctx, token,
		func(v View) {
			v.SetIncludeFolders(true)
			v.SetSelectFolderEnabled(true)
			v.SetMimeTypes(mimetype.FolderMimeType)
		},
		nil,
		func() View { return s.factory.NewView(ViewFolders) },
	)
	if err != nil || len(folders) == 0 {
		return nil, err
	}

	return &folders[0], nil
}
