package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kembridge/kembridge-core/internal/config"
	"github.com/kembridge/kembridge-core/pkg/auth"
	"github.com/kembridge/kembridge-core/pkg/chainadapter/ethereum"
	"github.com/kembridge/kembridge-core/pkg/chainadapter/near"
	"github.com/kembridge/kembridge-core/pkg/keymanager"
	"github.com/kembridge/kembridge-core/pkg/metrics"
	"github.com/kembridge/kembridge-core/pkg/ratelimit"
	"github.com/kembridge/kembridge-core/pkg/swap"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge core and serve its metrics and health endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cfg *config.Config) error {
	level := metrics.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = metrics.LevelDebug
	}
	metrics.GetLogger().SetLevel(level)
	logger := metrics.GetLogger().Named("kembridged")

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("serve: open database: %w", err)
	}

	nonceDB := db
	if cfg.NonceStoreURL != cfg.DatabaseURL {
		nonceDB, err = gorm.Open(postgres.Open(cfg.NonceStoreURL), &gorm.Config{})
		if err != nil {
			return fmt.Errorf("serve: open nonce store: %w", err)
		}
	}

	masterKeyRaw, err := cfg.MasterKey()
	if err != nil {
		return fmt.Errorf("serve: decode master key: %w", err)
	}
	masterKey, err := keymanager.LoadMasterKey(masterKeyRaw)
	if err != nil {
		return fmt.Errorf("serve: load master key: %w", err)
	}

	collector := metrics.Global()

	keyStore := keymanager.NewGormStore(db)
	keyManager := keymanager.NewManager(keyStore, masterKey)
	keyManager.SetObserver(metrics.NewBridgeObserver(metrics.BridgeObserverConfig{
		Collector: collector,
		Component: "keymanager",
	}))

	adapters := map[string]swap.ChainAdapter{}
	for name, chain := range cfg.Chains {
		switch name {
		case "ethereum":
			adapters[name] = ethereum.New(chain.RPCURL, chain.ChainID, nil)
		case "near":
			adapters[name] = near.New(chain.RPCURL, chain.ChainID, nil)
		default:
			logger.Warn("no chain adapter available for configured chain", metrics.Fields{"chain": name})
		}
	}

	swapStore := swap.NewGormStore(db)
	coordinator := swap.NewCoordinator(swapStore, keyManager, adapters)
	coordinator.SetObserver(metrics.NewBridgeObserver(metrics.BridgeObserverConfig{
		Collector: collector,
		Component: "swap",
	}))
	swapLimiter := ratelimit.NewTokenBucketLimiter(1, 5)
	swapLimiter.SetObserver(metrics.NewRateLimitObserver(collector, logger, "swap"))
	coordinator.SetRateLimiter(swapLimiter)

	nonceStore := auth.NewGormNonceStore(nonceDB)
	userStore := auth.NewGormUserStore(db)
	authenticator, err := auth.NewAuthenticator(nonceStore, userStore, []byte(cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("serve: build authenticator: %w", err)
	}
	authenticator.SetObserver(metrics.NewBridgeObserver(metrics.BridgeObserverConfig{
		Collector: collector,
		Component: "auth",
	}))
	nonceLimiter := ratelimit.NewTokenBucketLimiter(0.5, 3)
	nonceLimiter.SetObserver(metrics.NewRateLimitObserver(collector, logger, "nonce"))
	authenticator.SetRateLimiter(nonceLimiter)

	// coordinator and authenticator are constructed and observed here;
	// mounting their operations behind an HTTP or RPC router is out of
	// scope (see Non-goals).

	server := metrics.NewServer(metrics.ServerConfig{
		Collector:        collector,
		Version:          "dev",
		Namespace:        "kembridge",
		EnablePrometheus: true,
		EnableHealth:     true,
	})
	server.AddHealthCheck("database", func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", metrics.Fields{"address": cfg.ListenAddress})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
}
