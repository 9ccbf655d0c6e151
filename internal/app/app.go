package app

import (
	"context"
	"io"

	"grocery_sheets/internal/listing"
	"grocery_sheets/internal/notifications"
	"grocery_sheets/internal/products"
	"grocery_sheets/internal/session"
	"grocery_sheets/internal/sheets"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// App bundles the wired components.
type App struct {
	Config    *Config
	Session   *session.Session
	Store     *sheets.Store
	Container *listing.Container
	Ntfy      *notifications.Client
}

// Build wires the session, the spreadsheet store and the list container.
// The session is not restored until Start is called.
// Notices go to out (if not nil), the log, and ntfy when enabled. Extra
// client options are appended to the Sheets client's.
func Build(ctx context.Context, cfg *Config, out io.Writer, extra ...option.ClientOption) (*App, error) {
	log.Debug().Msg("Initializing clients")

	sess := session.New(session.NewFileStore(cfg.SessionFile), session.GoogleProfiles{})

	opts := append([]option.ClientOption{sheets.WithBearer(sess)}, extra...)
	client, err := sheets.NewClient(ctx, cfg.SpreadsheetID, opts...)
	if err != nil {
		return nil, err
	}

	gen, _ := products.GeneratorFor(cfg.IDScheme)
	store := sheets.NewStore(client, cfg.Layout,
		sheets.WithIDGenerator(gen),
		sheets.WithResilience(cfg.Resilience),
	)

	ntfy := InitializeNotificationClient(cfg)
	notifier := notifications.Multi{notifications.LogNotifier{}, ntfy}
	if out != nil {
		notifier = append(notifier, notifications.NewWriterNotifier(out))
	}

	container := listing.New(store, sess, notifier)

	log.Debug().
		Str("spreadsheet", cfg.SpreadsheetID).
		Str("sheet", cfg.Layout.SheetName).
		Str("id_scheme", cfg.IDScheme).
		Msg("Clients initialized successfully")

	return &App{
		Config:    cfg,
		Session:   sess,
		Store:     store,
		Container: container,
		Ntfy:      ntfy,
	}, nil
}

// InitializeNotificationClient creates and returns the ntfy client
func InitializeNotificationClient(cfg *Config) *notifications.Client {
	log.Debug().
		Bool("enabled", cfg.NtfyEnabled).
		Str("base_url", cfg.NtfyURL).
		Str("topic", cfg.NtfyTopic).
		Msg("Initializing notification client")

	client := notifications.NewClient(cfg.NtfyURL, cfg.NtfyTopic, cfg.NtfyEnabled, cfg.NtfyPriority, cfg.NotifyRetry())

	if cfg.NtfyEnabled {
		log.Info().Str("topic", cfg.NtfyTopic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}

	return client
}

// Start restores a persisted session, loads the list if one was found and
// then keeps the list in step with later sign-ins and sign-outs. It reports
// whether a session was restored.
func (a *App) Start(ctx context.Context) (bool, error) {
	restored, err := a.Session.Restore(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not restore session")
		restored = false
	}

	var loadErr error
	if restored {
		loadErr = a.Container.Load(ctx)
	}
	a.Container.Attach(a.Session)
	return restored, loadErr
}

// Close flushes pending notifications.
func (a *App) Close() {
	if a.Ntfy != nil {
		a.Ntfy.Wait()
	}
}
