package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"starlog/backend/internal/config"
	"starlog/backend/internal/db"
	"starlog/backend/internal/handler"
	transport "starlog/backend/internal/http"
	"starlog/backend/internal/logger"
	"starlog/backend/internal/network"
	"starlog/backend/internal/repository"
	"starlog/backend/internal/service"
	"starlog/backend/internal/service/apod"
	"starlog/backend/internal/snowflake"
)

// @title Starlog API
// @version 1.0
// @description Personal journaling backend with astronomy picture enrichment.
// @BasePath /api
func main() {
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := snowflake.Init(cfg.NodeID); err != nil {
		log.Fatalf("init snowflake: %v", err)
	}

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer dbConn.Close()

	entryRepo := repository.NewEntryRepository(dbConn)

	clientFactory := network.NewClientFactory(cfg.ProxyURL)
	pictureProvider := apod.NewClient(cfg.APODBaseURL, cfg.NASAAPIKey, cfg.APODTimeout, clientFactory)

	entryService := service.NewEntryService(entryRepo, pictureProvider)
	entryHandler := handler.NewEntryHandler(entryService)

	router := transport.NewRouter(entryHandler, cfg.StaticDir)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down", "module", "server", "action", "shutdown", "resource", "http", "result", "ok")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := router.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "module", "server", "action", "shutdown", "resource", "http", "result", "failed", "error", err)
		}
	}()

	if err := router.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("start server: %v", err)
	}
}
