// Package bot wires the rename workflow to Telegram.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	coreconfig "github.com/m3rciful/vidbot/core/config"
	"github.com/m3rciful/vidbot/core/logger"
	tg "github.com/m3rciful/vidbot/core/telegram"
	"github.com/m3rciful/vidbot/core/telegram/commands"
	"github.com/m3rciful/vidbot/core/telegram/router"
	"github.com/m3rciful/vidbot/core/telegram/sender"
	appconfig "github.com/m3rciful/vidbot/internal/config"
	"github.com/m3rciful/vidbot/internal/journal"
	"github.com/m3rciful/vidbot/internal/session"
	"github.com/m3rciful/vidbot/internal/staging"
	"github.com/m3rciful/vidbot/internal/transfer"
)

// App owns the bot's components for one process lifetime.
type App struct {
	cfg       *appconfig.Config
	registry  *tg.Registry
	handlers  *Handlers
	machine   *session.Machine
	transport *Transport
	staging   staging.Dir
}

// New assembles the session machine, the transfer pipeline and the handlers.
// A nil journal falls back to an in-memory one.
func New(cfg *appconfig.Config, j journal.Journal) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	if j == nil {
		j = journal.NewMemory(journal.DefaultCapacity)
	}

	store := session.NewStore()
	dir := staging.New(cfg.Transfer.StagingDir)
	transport := NewTransport(cfg.Telegram.APIURL, cfg.Telegram.Token)
	orchestrator := transfer.New(transfer.Options{
		Downloader:       transport,
		Uploader:         transport,
		Notifier:         statusNotifier{transport: transport},
		Ledger:           store,
		Staging:          dir,
		Caption:          cfg.Transfer.Caption,
		RateLimitRetries: cfg.Transfer.RateLimitRetries,
		VerifyStaged:     cfg.Transfer.VerifyStaged,
	})
	machine := session.NewMachine(session.Options{
		Store:             store,
		MaxFileSize:       cfg.Transfer.MaxFileSize,
		RejectWhileActive: cfg.Transfer.RejectWhileActive,
		Transferer:        orchestrator,
	})

	a := &App{
		cfg:       cfg,
		registry:  tg.NewRegistry(),
		handlers:  NewHandlers(machine, j, orchestrator.Caption()),
		machine:   machine,
		transport: transport,
		staging:   dir,
	}
	if err := a.register(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) register() error {
	h := a.handlers
	cmds := map[string]commands.Command{
		"/start":   {Handler: h.Start, Description: "Welcome message"},
		"/help":    {Handler: h.Help, Description: "How to use the bot"},
		"/cancel":  {Handler: h.Cancel, Description: "Cancel current operation"},
		"/history": {Handler: h.History, Description: "Recent activity"},
	}
	for name, cmd := range cmds {
		if err := a.registry.RegisterCommand(name, cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	if err := a.registry.RegisterCallback(copyCaptionUnique, h.CopyCaption); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	return nil
}

// TelegramRunOptions describes the runtime: middleware chain, routes and the
// lifecycle hooks that bind the transport and prepare the staging directory.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.CallbackRoute(a.registry))
	routes = append(routes, router.MessageRoutes(a.registry, router.MessageOptions{
		Flow:         a.handlers,
		Video:        a.handlers.Video,
		Document:     a.handlers.Document,
		UnknownMedia: a.handlers.OtherMedia,
	})...)

	return tg.RunOptions{
		Config:   a.CoreConfig(),
		Registry: a.registry,
		// One worker keeps replies in order.
		DispatcherOptions: sender.Options{QueueSize: 64, Workers: 1, MaxRetries: 2},
		Middlewares: tg.DefaultMiddlewares(a.CoreConfig(), tg.MiddlewareOptions{
			OnDenied: a.handlers.Denied,
		}),
		Routes:  routes,
		OnStart: a.onStart,
		OnStop:  a.onStop,
	}, nil
}

// CoreConfig exposes the embedded core configuration.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg.CoreConfig()
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	if err := a.staging.Ensure(); err != nil {
		return err
	}
	a.transport.Bind(rt.Bot, rt.HTTPClient)
	logger.Info(ctx, logger.CompApp, "bot.start",
		slog.Int64("owner_id", a.cfg.Telegram.OwnerID),
		slog.String("mode", a.cfg.Telegram.RunMode),
		slog.String("staging_dir", a.staging.Root()),
		slog.Int64("max_file_size", a.machine.MaxFileSize()),
	)
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	if sess, ok := a.machine.Cancel(ctx, a.cfg.Telegram.OwnerID); ok {
		logger.Info(ctx, logger.CompApp, "bot.stop", slog.String("dropped_session", sess.ID))
	}
	return nil
}
