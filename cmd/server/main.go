package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/usagi-project/usagi-api/internal/config"
	"github.com/usagi-project/usagi-api/internal/events"
	"github.com/usagi-project/usagi-api/internal/httpserver"
	"github.com/usagi-project/usagi-api/internal/logging"
	"github.com/usagi-project/usagi-api/internal/middleware"
	"github.com/usagi-project/usagi-api/internal/repo"
	"github.com/usagi-project/usagi-api/internal/search"
	"github.com/usagi-project/usagi-api/internal/service"
	"github.com/usagi-project/usagi-api/internal/tokens"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.OpenDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	userRepo := repo.New(db)
	codec := tokens.NewCodec(cfg.SecretKey, cfg.AccessTokenExpire, cfg.RefreshTokenExpire)

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	var index *search.Index
	esClient, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search falls back to SQL", "error", err)
	} else if esClient != nil {
		index = search.NewIndex(esClient, cfg.ESIndex)
	}

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = config.SeedInitialAdmin(seedCtx, userRepo, cfg, logger)
	cancel()
	if err != nil {
		log.Fatalf("seed error: %v", err)
	}

	authSvc := &service.AuthService{Repo: userRepo, Codec: codec, Events: producer, Search: index}
	userSvc := &service.UserService{Repo: userRepo, Events: producer, Search: index}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	httpserver.Register(e, &httpserver.Deps{
		Auth:        &httpserver.AuthHTTP{Svc: authSvc},
		Users:       &httpserver.UserHTTP{Svc: userSvc},
		Admin:       &httpserver.AdminHTTP{Svc: userSvc},
		Gate:        middleware.NewGate(codec, userRepo),
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
