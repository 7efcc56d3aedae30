package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Abhishek-Shewale/salesdash/internal/api"
	"github.com/Abhishek-Shewale/salesdash/internal/cache"
	"github.com/Abhishek-Shewale/salesdash/internal/config"
	"github.com/Abhishek-Shewale/salesdash/internal/dashboard"
	"github.com/Abhishek-Shewale/salesdash/internal/pkg/logger"
	"github.com/Abhishek-Shewale/salesdash/internal/recommend"
	"github.com/Abhishek-Shewale/salesdash/internal/sheets"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	sa := sheets.ServiceAccount{
		Email:      cfg.Google.ServiceAccountEmail,
		PrivateKey: cfg.Google.PrivateKey,
	}

	signup, err := sheets.NewGoogleSource(sa, cfg.Google.SignupSpreadsheetID)
	if err != nil {
		log.Fatalf("Failed to build signup source: %v", err)
	}

	opts := dashboard.Options{
		Signup: signup,
		NewSource: func(spreadsheetID string) (sheets.Source, error) {
			return sheets.NewGoogleSource(sa, spreadsheetID)
		},
		ConversionSheetName: cfg.Google.ConversionSheetName,
		DemoStatusSheetName: cfg.Google.DemoStatusSheetName,
		Collect: sheets.CollectOptions{
			Fetch: sheets.FetchOptions{
				MaxRetries:   cfg.Fetch.MaxRetries,
				InitialDelay: time.Duration(cfg.Fetch.InitialDelayMillis) * time.Millisecond,
				MaxDelay:     time.Duration(cfg.Fetch.MaxDelayMillis) * time.Millisecond,
			},
			InterSheetDelay:  time.Duration(cfg.Fetch.InterSheetDelayMS) * time.Millisecond,
			InterSheetJitter: time.Duration(cfg.Fetch.InterSheetJitterMS) * time.Millisecond,
			FallbackLastN:    cfg.Fetch.FallbackRecentCount,
		},
		TTL: cfg.Cache.TTL(),
	}

	if id := cfg.Google.WhatsAppSpreadsheetID; id != "" {
		src, err := sheets.NewGoogleSource(sa, id)
		if err != nil {
			log.Fatalf("Failed to build whatsapp source: %v", err)
		}
		opts.WhatsApp = src
	}
	if id := cfg.Google.ConversionSpreadsheetID; id != "" {
		src, err := sheets.NewGoogleSource(sa, id)
		if err != nil {
			log.Fatalf("Failed to build conversion source: %v", err)
		}
		opts.Conversion = src
	}
	if id := cfg.Google.DemoStatusSpreadsheetID; id != "" {
		src, err := sheets.NewGoogleSource(sa, id)
		if err != nil {
			log.Fatalf("Failed to build demo status source: %v", err)
		}
		opts.DemoStatus = src
	}

	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to in-process cache", "error", err.Error())
			opts.Store = cache.NewMemory()
		} else {
			logger.Info("using redis cache", "addr", cfg.Cache.RedisAddr)
			opts.Store = cache.NewRedis(client)
		}
	} else {
		opts.Store = cache.NewMemory()
	}

	svc := dashboard.NewService(opts)

	var recommender *recommend.Client
	if cfg.Gemini.APIKey != "" {
		recommender, err = recommend.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Fatalf("Failed to build gemini client: %v", err)
		}
	} else {
		logger.Warn("no gemini API key configured, recommendations disabled")
	}

	server := api.NewServer(svc, recommender, cfg.Server.RequestTimeout(), cfg.Server.AllowedOrigins)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := cfg.Server.Addr()
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err.Error())
	}
	logger.Info("server stopped")
}
