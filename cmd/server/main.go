package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/bus-ticket-reservation/internal/config"
	"github.com/iliyamo/bus-ticket-reservation/internal/database"
	"github.com/iliyamo/bus-ticket-reservation/internal/handler"
	"github.com/iliyamo/bus-ticket-reservation/internal/logging"
	"github.com/iliyamo/bus-ticket-reservation/internal/middleware"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
	"github.com/iliyamo/bus-ticket-reservation/internal/router"
	"github.com/iliyamo/bus-ticket-reservation/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := openDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx, db, cfg.DBDriver)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	store := repository.NewStore(db, database.Dialect{Driver: cfg.DBDriver})
	opts := []service.Option{
		service.WithLogger(log),
		service.WithCancelWindow(cfg.CancelWindow),
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.WithField("addr", cfg.Redis.Addr).Warn("redis unavailable; rate limiting and trip cache disabled")
	} else {
		defer rdb.Close()
		if cfg.TripCache.Enabled {
			opts = append(opts, service.WithTripCache(repository.NewTripCache(rdb, cfg.TripCache.TTL, cfg.TripCache.Prefix)))
		}
	}

	if cfg.EventsEnabled {
		opts = append(opts, service.WithEvents(queue.NewPublisher(cfg.RabbitURL, log)))
	}
	stopConsumer := make(chan struct{})
	if cfg.EventsConsumerEnabled {
		go queue.NewConsumer(cfg.RabbitURL, cfg.EventsLogDir, log).Run(stopConsumer)
	}

	svc := service.NewTicketService(service.NewSQLStore(store), opts...)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))

	tickets := handler.NewTicketHandler(svc)
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db})
	router.RegisterPublic(e, tickets)
	router.RegisterTickets(e, tickets, cfg.JWTSecret, middleware.NewTokenBucket(cfg.RateLimit, rdb))

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "db": cfg.DBDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	close(stopConsumer)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("server stopped")
}

func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == database.SQLite {
		return database.OpenSQLite(cfg.SQLitePath)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
