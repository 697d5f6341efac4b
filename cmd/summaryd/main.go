package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"summaryd/internal/cache"
	"summaryd/internal/config"
	"summaryd/internal/httpapi"
	"summaryd/internal/manager"
	"summaryd/internal/qa"
	"summaryd/internal/registry"
	"summaryd/internal/service"
	"summaryd/internal/summarize"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "summaryd",
		Short:        "Summarization and question answering daemon",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a yaml, json or toml config file")

	root.AddCommand(&cobra.Command{
		Use:   "models",
		Short: "List the configured models and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := registry.New(cfg.Models)
			if err != nil {
				return err
			}
			for _, m := range reg.List() {
				fmt.Printf("%s\t%s\t%s\t%s\n", m.ID, m.Task, m.Family, m.Language)
			}
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		cfg = config.Merge(loaded, config.Default())
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()

	reg, err := registry.New(cfg.Models)
	if err != nil {
		return fmt.Errorf("model registry: %w", err)
	}

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Capacity:    cfg.MaxResidentModels,
		HardCap:     cfg.HardCapacity,
		DeviceMode:  cfg.DeviceMode,
		Quantize:    cfg.Quantize,
		LoadTimeout: time.Duration(cfg.LoadTimeoutSec) * time.Second,
		LoadRetries: cfg.LoadRetries,
		LeaseWait:   time.Duration(cfg.LeaseWaitSec) * time.Second,
		Logger:      log.With().Str("component", "manager").Logger(),
	})

	var resultCache *cache.Cache
	if cfg.EnableResultCache && cfg.RedisURL != "" {
		resultCache, err = cache.New(cfg.RedisURL, cfg.CacheTTL(), log.With().Str("component", "cache").Logger())
		if err != nil {
			return fmt.Errorf("result cache: %w", err)
		}
	}

	summaries := summarize.New(mgr, reg, cfg, resultCache, log.With().Str("component", "summarize").Logger())
	questions := qa.New(mgr, reg, cfg, log.With().Str("component", "qa").Logger())
	svc := service.New(mgr, reg, summaries, questions)

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetRequestTimeoutSeconds(int64(cfg.RequestTimeoutSec))
	httpapi.SetRateLimitPerMinute(cfg.RateLimitPerMinute)
	if cfg.CORSEnabled {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{"GET", "POST", "DELETE", "OPTIONS"},
			[]string{"Accept", "Content-Type", "X-Log-Level"})
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(svc)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Int("models", len(reg.List())).Msg("summaryd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	if err := mgr.Close(); err != nil {
		log.Warn().Err(err).Msg("manager close error")
	}
	return nil
}
