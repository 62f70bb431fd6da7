// Command server runs the portfolio dashboard service: it keeps the
// normalized record store warm from upstream pulls and push updates, and
// serves the rendered dashboard tables over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/api"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/config"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/database"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/diagnostics"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/logging"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/push"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/repository"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/service"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/store"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

// settingsTokenSource resolves the upstream token from encrypted settings.
// A missing token means unauthenticated requests, not a failure.
type settingsTokenSource struct {
	repo *repository.SettingsRepository
}

func (s settingsTokenSource) Token(ctx context.Context) (string, error) {
	token, err := s.repo.Secret(ctx, repository.SettingUpstreamToken)
	if errors.Is(err, apperrors.ErrSettingNotFound) {
		return "", nil
	}
	return token, err
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logging.New(cfg.Logging)
	log.Info().Str("addr", cfg.Server.Addr()).Msg("starting dashboard server")

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	settings, err := repository.NewSettingsRepository(db, cfg.Database.EncryptionKey,
		log.With().Str("component", "settings").Logger())
	if err != nil {
		return err
	}
	snapshots := repository.NewSnapshotRepository(db)

	client := upstream.NewClient(cfg.Upstream, settingsTokenSource{repo: settings},
		log.With().Str("component", "upstream").Logger())
	notifier := diagnostics.NewNotifier(log.With().Str("component", "diagnostics").Logger())
	hub := push.NewHub(log.With().Str("component", "stream").Logger())
	notifier.Subscribe(func(change diagnostics.Change) {
		payload, err := json.Marshal(change)
		if err != nil {
			return
		}
		hub.Broadcast(push.Envelope{
			DataType: push.DataDiagnostics,
			EntryID:  cfg.Upstream.EntryID,
			Data:     payload,
		})
	})

	svc := service.NewDashboardService(service.Options{
		Store:     store.New(),
		Upstream:  client,
		Snapshots: snapshots,
		Notifier:  notifier,
		Hub:       hub,
		EntryID:   cfg.Upstream.EntryID,
		Logger:    log.With().Str("component", "dashboard").Logger(),
	})

	dispatcher := push.NewDispatcher(cfg.Upstream.EntryID,
		log.With().Str("component", "dispatcher").Logger())
	svc.RegisterHandlers(dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	warmStart(ctx, svc, client, log)

	jobs, err := scheduleJobs(ctx, cfg, svc, client, log)
	if err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop()

	router := api.NewRouter(api.Dependencies{
		Service:    svc,
		Dispatcher: dispatcher,
		Hub:        hub,
		CORS:       cfg.CORS,
		Logger:     log.With().Str("component", "api").Logger(),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := svc.PersistSnapshot(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("persisting snapshot on shutdown")
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// warmStart serves cached data immediately and refreshes from the upstream
// when one is configured. Neither failing is fatal; the dashboard then
// starts empty and fills from pushes.
func warmStart(ctx context.Context, svc *service.DashboardService, client *upstream.Client, log zerolog.Logger) {
	if err := svc.RestoreSnapshot(ctx); err != nil {
		if errors.Is(err, apperrors.ErrSnapshotNotFound) {
			log.Info().Msg("no persisted snapshot, starting cold")
		} else {
			log.Warn().Err(err).Msg("restoring snapshot")
		}
	}
	if !client.Enabled() {
		log.Info().Msg("no upstream configured, running on push updates only")
		return
	}
	if err := svc.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial refresh failed, serving cached data")
	}
}

// scheduleJobs sets up the periodic refresh and snapshot persistence.
func scheduleJobs(ctx context.Context, cfg *config.Config, svc *service.DashboardService, client *upstream.Client, log zerolog.Logger) (*cron.Cron, error) {
	jobs := cron.New()

	if client.Enabled() && cfg.Upstream.RefreshInterval > 0 {
		spec := fmt.Sprintf("@every %s", cfg.Upstream.RefreshInterval)
		if _, err := jobs.AddFunc(spec, func() {
			if err := svc.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("scheduled refresh failed")
			}
		}); err != nil {
			return nil, fmt.Errorf("scheduling refresh: %w", err)
		}
	}

	if cfg.Upstream.SnapshotInterval > 0 {
		spec := fmt.Sprintf("@every %s", cfg.Upstream.SnapshotInterval)
		if _, err := jobs.AddFunc(spec, func() {
			if err := svc.PersistSnapshot(ctx); err != nil {
				log.Warn().Err(err).Msg("scheduled snapshot failed")
			}
		}); err != nil {
			return nil, fmt.Errorf("scheduling snapshot: %w", err)
		}
	}

	return jobs, nil
}
