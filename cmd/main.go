package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/placenotes/internal/auth"
	"github.com/ukydev/placenotes/internal/config"
	"github.com/ukydev/placenotes/internal/db"
	"github.com/ukydev/placenotes/internal/handlers"
	"github.com/ukydev/placenotes/internal/location"
	"github.com/ukydev/placenotes/internal/middleware"
	"github.com/ukydev/placenotes/internal/nearby"
	"github.com/ukydev/placenotes/internal/photos"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	if err := config.SetupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.WithError(err).Fatal("Invalid logging configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
	log.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	places := db.NewMongoPlaceCollection(database)
	if err := places.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	users := &db.MongoUserCollection{Collection: database.Collection("users")}

	a, err := newApp(ctx, cfg, places, users)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// app is the wired server: stores, location pipeline and HTTP handler.
type app struct {
	handler http.Handler
	feed    *db.PlaceFeed
	tracker *location.Tracker
	watcher *nearby.Watcher
	mqtt    *location.MQTTSource
	cancel  context.CancelFunc
	done    chan struct{}
}

func newApp(ctx context.Context, cfg *config.Config, places db.PlaceCollection, users db.UserCollection) (*app, error) {
	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	storage, err := photos.NewLocalStorage(cfg.PhotoDir, "/photos")
	if err != nil {
		return nil, err
	}

	feed := db.NewPlaceFeed(places)
	if err := feed.Refresh(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	a := &app{
		feed:    feed,
		tracker: location.NewTracker(),
		watcher: nearby.NewWatcher(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(a.done)
		if err := a.watcher.Run(ctx, a.tracker.Subscribe(ctx), feed.Subscribe(ctx)); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Nearby watcher stopped")
		}
	}()

	if cfg.MQTTEnabled() {
		a.mqtt = location.NewMQTTSource(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic, a.tracker)
		if err := a.mqtt.Start(); err != nil {
			// Fixes can still arrive over HTTP.
			log.WithError(err).WithField("broker", cfg.MQTTBroker).Error("MQTT location source unavailable")
		}
	}

	api := &handlers.API{
		Auth:       handlers.NewAuthHandler(authService, users),
		Places:     handlers.NewPlaceHandler(feed, storage, a.watcher),
		Location:   handlers.NewLocationHandler(a.tracker),
		Photos:     handlers.NewPhotoHandler(storage, storage.MaxBytes),
		PhotoFiles: http.FileServer(http.Dir(storage.Dir)),
	}
	a.handler = api.Routes(
		middleware.NewAuthMiddleware(authService),
		middleware.NewRateLimitMiddleware(cfg.RateLimit, cfg.RateWindow),
	)
	return a, nil
}

func (a *app) close() {
	if a.mqtt != nil {
		a.mqtt.Stop()
	}
	a.cancel()
	a.tracker.Close()
	a.feed.Close()
	<-a.done
}
