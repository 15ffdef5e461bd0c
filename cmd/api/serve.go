package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"recruitment-portal/internal/api"
	"recruitment-portal/internal/common/auth"
	awsc "recruitment-portal/internal/common/aws"
	"recruitment-portal/internal/common/camunda"
	"recruitment-portal/internal/common/config"
	"recruitment-portal/internal/common/database"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/observability"
	"recruitment-portal/internal/common/realtime"
	"recruitment-portal/internal/common/storage"
	"recruitment-portal/internal/common/validation"
	"recruitment-portal/internal/dashboard"
	"recruitment-portal/internal/intake"
	"recruitment-portal/internal/search"
	"recruitment-portal/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the application form and the admin console API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		return fmt.Errorf("observability init failed: %w", err)
	}
	defer obs.Shutdown()

	loc, err := time.LoadLocation(cfg.Dashboard.Timezone)
	if err != nil {
		return fmt.Errorf("dashboard.timezone: %w", err)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	checks := map[string]api.ReadinessCheck{
		"postgres": pg.Ping,
		"redis":    rdb.Ping,
	}

	awsCfg, err := awsc.LoadConfig(ctx, cfg.Storage.S3.Region)
	if err != nil {
		return fmt.Errorf("aws config failed: %w", err)
	}
	documents := storage.NewDocumentStore(
		storage.NewS3Client(awsCfg, cfg.Storage),
		cfg.Storage.S3.Bucket,
		cfg.Storage.S3.PublicBaseURL,
	)

	applicants := store.NewApplicantStore(pg.DB, log)
	master := store.NewMasterStore(pg.DB, log)
	bus := realtime.NewBus(rdb.Client, log)
	cache := dashboard.NewStatsCache(rdb.Client, config.GetDuration(cfg.Dashboard.StatsCacheTTL))
	svc := dashboard.NewService(applicants, cache, documents, cfg.Dashboard.PageSize, log).WithLocation(loc)

	pipeline := intake.NewPipeline(documents, applicants, log).WithNotifier(bus)
	if cfg.Intake.SchemaEnabled {
		v, err := validation.ApplicantValidator()
		if err != nil {
			return fmt.Errorf("applicant schema: %w", err)
		}
		pipeline = pipeline.WithSchema(v)
	}
	if cfg.Camunda.Enabled {
		zeebe, err := camunda.NewClient(cfg.Camunda.BrokerAddress, cfg.Camunda.ProcessID)
		if err != nil {
			// Submissions still succeed; only the follow-up process is lost.
			log.Warn("zeebe unavailable, applicant process disabled", map[string]interface{}{"error": err.Error()})
		} else {
			defer zeebe.Close()
			pipeline = pipeline.WithProcessStarter(zeebe)
			checks["zeebe"] = zeebe.HealthCheck
		}
	}

	deps := api.Deps{
		Config:        cfg,
		Auth:          auth.NewKeycloakClient(cfg.Auth.Keycloak.URL, cfg.Auth.Keycloak.Realm, cfg.Auth.Keycloak.ClientID, cfg.Auth.Keycloak.ClientSecret),
		Intake:        pipeline,
		Applicants:    applicants,
		Master:        master,
		Dashboard:     svc,
		Notifier:      bus,
		Changes:       bus,
		Observability: obs,
		Checks:        checks,
		Location:      loc,
		Logger:        log,
	}
	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		deps.Search = search.NewIndex(es.Client, es.Index, log)
		checks["elasticsearch"] = es.Ping
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      api.NewServer(deps).Router(),
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", map[string]interface{}{"addr": srv.Addr, "version": cfg.App.Version})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return svc.RunInvalidator(gctx, bus)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
