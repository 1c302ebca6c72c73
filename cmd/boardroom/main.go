package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/towerhq/boardroom/internal/advisor"
	"github.com/towerhq/boardroom/internal/board"
	"github.com/towerhq/boardroom/internal/completion"
	"github.com/towerhq/boardroom/internal/config"
	"github.com/towerhq/boardroom/internal/forge"
	"github.com/towerhq/boardroom/internal/natsbus"
	"github.com/towerhq/boardroom/internal/registry"
	"github.com/towerhq/boardroom/internal/scheduler"
	"github.com/towerhq/boardroom/internal/store"
	"github.com/towerhq/boardroom/internal/telegram"
	"github.com/towerhq/boardroom/internal/vault"
	"github.com/towerhq/boardroom/internal/web"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("boardroom %s\n", version)
	case "gateway":
		if err := runGateway(); err != nil {
			slog.Error("gateway failed", "error", err)
			os.Exit(1)
		}
	case "vault":
		if err := runVault(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "backup":
		if err := runBackup(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: boardroom <command>\n\nCommands:\n  gateway    Start the boardroom gateway service\n  vault      Manage encrypted secrets\n  backup     Archive the data directory\n  version    Print version\n")
}

func runGateway() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting boardroom gateway", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite store
	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	slog.Info("store initialized", "path", cfg.Store.Path)

	// Secrets vault
	var v *vault.Vault
	if cfg.Vault.Passphrase != "" {
		v = vault.New(cfg.Vault.Passphrase)
	} else {
		slog.Warn("vault passphrase not set, secrets API disabled")
	}

	// Embedded NATS
	bus, err := natsbus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("init nats: %w", err)
	}
	defer bus.Close()
	slog.Info("nats started", "port", bus.Port())

	events, err := natsbus.NewClient(bus)
	if err != nil {
		return fmt.Errorf("init nats client: %w", err)
	}
	defer events.Close()

	// Advisor panel and workspace registry
	panel, err := advisor.PanelFromConfig(cfg.Advisors)
	if err != nil {
		return fmt.Errorf("build advisor panel: %w", err)
	}
	reg := registry.New(panel, cfg.Advisors.BasePath)
	if err := reg.Sync(); err != nil {
		return fmt.Errorf("sync advisor registry: %w", err)
	}
	slog.Info("advisor panel ready", "advisors", len(panel))

	// Completion client
	if cfg.Completion.APIKey == "" && cfg.Completion.APIKeySecret != "" && v != nil {
		key, err := loadSecretValue(db, v, cfg.Completion.APIKeySecret)
		if err != nil {
			return fmt.Errorf("load api key from vault: %w", err)
		}
		cfg.Completion.APIKey = key
	}
	var client completion.Client = completion.NewHTTPClient(cfg.Completion)
	if cfg.Completion.Retries > 0 {
		client = completion.NewRetryClient(client, cfg.Completion.Retries)
	}

	// Board engine
	engine := board.NewEngine(panel, reg, client, db, events, cfg.Completion.Timeout)

	// Review scheduler
	sched := scheduler.New(db, engine, events, cfg.Scheduler)
	go sched.Start(ctx)

	// Forge build-job bridge
	var forgeClient *forge.Client
	if cfg.Forge.BaseURL != "" {
		forgeClient = forge.NewClient(cfg.Forge)
		slog.Info("forge bridge enabled", "url", cfg.Forge.BaseURL)
	}

	// Telegram bot
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram, engine)
		if err != nil {
			return fmt.Errorf("init telegram bot: %w", err)
		}
		go bot.Start(ctx)
		slog.Info("telegram bot started")
	} else {
		slog.Warn("telegram token not set, bot disabled")
	}

	// Web API
	if cfg.Web.Enabled {
		srv := web.NewServer(db, bus, engine, reg, v, forgeClient, cfg.Web, version)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("web server error", "error", err)
			}
		}()
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)
	cancel()

	return nil
}

func loadSecretValue(db *store.Store, v *vault.Vault, name string) (string, error) {
	sec, err := db.GetSecret(name)
	if err != nil {
		return "", err
	}
	if sec == nil {
		return "", fmt.Errorf("secret %q not found", name)
	}
	plaintext, err := v.Open(sec.Value, sec.Nonce)
	if err != nil {
		return "", fmt.Errorf("decrypt secret %q: %w", name, err)
	}
	return string(plaintext), nil
}
