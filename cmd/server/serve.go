package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/quiz-api/internal/config"
	"github.com/iliyamo/quiz-api/internal/database"
	"github.com/iliyamo/quiz-api/internal/handler"
	"github.com/iliyamo/quiz-api/internal/queue"
	"github.com/iliyamo/quiz-api/internal/router"
	"github.com/iliyamo/quiz-api/internal/service"
	"github.com/iliyamo/quiz-api/internal/telemetry"
)

func newServeCommand(a *app) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	log := a.log

	shutdownTracing, err := telemetry.Init(ctx, serviceName, a.cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error("shutdown tracing", zap.Error(err))
		}
	}()

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(ctx, db, a.cfg.DB.Driver, log); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(a.cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable, caching and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e := router.New(router.Options{
		Deps: &handler.Deps{
			DB:         db,
			Tokens:     a.cfg.Tokens(),
			BcryptCost: a.cfg.BcryptCost,
			Mail:       queue.NewPublisher(a.cfg.RabbitURL, a.cfg.EmailQueue, log),
			Now:        service.SystemClock,
			Log:        log,
		},
		Redis:     rdb,
		Cache:     a.cfg.Cache,
		RateLimit: a.cfg.RateLimit,
		CORS:      a.cfg.CORSAllowOrigins,
		Registry:  reg,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           telemetry.Wrap(e, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("db", a.cfg.DB.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
