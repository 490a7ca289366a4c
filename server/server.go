package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/config"
	"github.com/indieinfra/hydrogen/notify"
	"github.com/indieinfra/hydrogen/reconcile"
	"github.com/indieinfra/hydrogen/schedule"
	"github.com/indieinfra/hydrogen/server/auth"
	mediahandler "github.com/indieinfra/hydrogen/server/handler/media"
	"github.com/indieinfra/hydrogen/server/handler/syncjob"
	"github.com/indieinfra/hydrogen/server/handler/upload"
	"github.com/indieinfra/hydrogen/server/middleware"
	"github.com/indieinfra/hydrogen/server/resp"
	"github.com/indieinfra/hydrogen/server/state"
	"github.com/indieinfra/hydrogen/shopify"
	"github.com/indieinfra/hydrogen/storage/media"
	mediafactory "github.com/indieinfra/hydrogen/storage/media/factory"
	"github.com/indieinfra/hydrogen/storage/remote"
	uploadclient "github.com/indieinfra/hydrogen/upload"
)

const shutdownTimeout = 15 * time.Second

// App is the fully wired set of components shared by the server and the CLI commands.
type App struct {
	State      *state.HydrogenState
	Dispatcher *notify.Dispatcher
	Hub        *notify.Hub
}

func initializeMediaStore(cfg *config.Store) (media.Store, error) {
	store, err := mediafactory.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}

	return store, nil
}

// Bootstrap builds every component from cfg. Callers must Close the returned App.
func Bootstrap(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	store, err := initializeMediaStore(&cfg.Store)
	if err != nil {
		return nil, err
	}

	gateway, err := shopify.NewClient(shopify.SessionFromConfig(&cfg.Shopify), logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	uploader := uploadclient.NewClient(gateway, logger, uploadclient.WithTransferTimeout(cfg.Shopify.Timeout))

	dispatcher := notify.NewDispatcher(logger)
	dispatcher.Subscribe("log", notify.LogSubscriber{Logger: logger})

	var hub *notify.Hub
	if cfg.Notify.Websocket {
		hub = notify.NewHub(cfg.Notify.QueueSize, logger)
		dispatcher.Subscribe("websocket", hub)
	}

	return &App{
		State: &state.HydrogenState{
			Cfg:        cfg,
			Logger:     logger,
			MediaStore: store,
			Remote:     remote.NewAdapter(uploader, logger),
			Job:        reconcile.NewJob(store, gateway, dispatcher, logger),
		},
		Dispatcher: dispatcher,
		Hub:        hub,
	}, nil
}

func (app *App) Close() {
	if app.Hub != nil {
		app.Hub.Close()
	}

	if app.State.MediaStore != nil {
		if err := app.State.MediaStore.Close(); err != nil {
			app.State.Logger.Warn().Err(err).Msg("failed to close media store")
		}
	}
}

// NewRouter registers every route on a new ServeMux.
func NewRouter(app *App) *http.ServeMux {
	st := app.State
	verifier := auth.NewVerifier(&st.Cfg.Server.Auth)
	guard := func(scope auth.Scope, opts middleware.Options, h http.Handler) http.Handler {
		return middleware.RequireScope(verifier, st.Logger, scope, opts, h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /media", guard(auth.ScopeMedia, middleware.Options{}, upload.HandleMediaUpload(st)))
	mux.Handle("GET /media/{id}", guard(auth.ScopeRead, middleware.Options{}, mediahandler.HandleGetMedia(st)))
	mux.Handle("POST /sync", guard(auth.ScopeSync, middleware.Options{}, syncjob.HandleSync(st)))
	if app.Hub != nil {
		mux.Handle("GET /events", guard(auth.ScopeRead, middleware.Options{AllowQueryToken: true}, app.Hub))
	}
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		resp.WriteOK(w, map[string]string{"status": "ok"})
	})

	return mux
}

// StartServer serves HTTP and runs the reconciliation scheduler until SIGINT or SIGTERM.
func StartServer(cfg *config.Config, logger zerolog.Logger) error {
	app, err := Bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	scheduler, err := schedule.New(&cfg.Sync, app.State.Job, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bindAddress := net.JoinHostPort(cfg.Server.Address, fmt.Sprint(cfg.Server.Port))
	ln, err := net.Listen("tcp", bindAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", bindAddress, err)
	}

	srv := &http.Server{
		Handler:           NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", ln.Addr().String()).Msg("serving http requests")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	scheduler.Start(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if app.Hub != nil {
		app.Hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown incomplete")
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("scheduler shutdown incomplete")
	}

	return serveErr
}
