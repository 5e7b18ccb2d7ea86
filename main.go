package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/logger"
	"Gin_postgres_redis_library/routes"

	"golang.org/x/sync/errgroup"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logger.New(logger.Config{
		Format:      cfg.Log.Format,
		Environment: cfg.AppEnv,
		Level:       logger.ParseLevel(cfg.Log.Level),
	})

	application := app.MustNew(cfg, log)
	defer application.Close()

	routes.RegisterRoutes(application.Router, application)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return application.Trigger.Run(ctx) })
	g.Go(func() error { return application.Worker.Run(ctx) })

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		application.Close()
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
