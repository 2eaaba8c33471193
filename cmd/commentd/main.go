// Package main runs the commentd daemon: an HTTP control surface over
// browser-automated comment posting for TikTok and Instagram accounts.
// Credentials are captured through interactive login, encrypted at
// rest, and replayed into fresh browser contexts per action.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/socialkit/commentd/pkg/automation"
	"github.com/socialkit/commentd/pkg/browser"
	"github.com/socialkit/commentd/pkg/config"
	"github.com/socialkit/commentd/pkg/logging"
	"github.com/socialkit/commentd/pkg/platform"
	"github.com/socialkit/commentd/pkg/server"
	"github.com/socialkit/commentd/pkg/store/sqlite"
	"github.com/socialkit/commentd/pkg/vault"
)

const version = "0.1.0"

// shutdownGrace bounds how long in-flight requests get to finish on
// SIGINT/SIGTERM.
const shutdownGrace = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.commentd/config.json)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("commentd v%s\n", version)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "commentd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.NewLogger("main")
	if err != nil {
		// Fallback logger still works; note the degradation and move on.
		fmt.Fprintf(os.Stderr, "commentd: file logging unavailable: %v\n", err)
	}
	defer log.Close()
	log.Infof("commentd v%s starting", version)

	if cfg.Storage.SelectorsFile != "" {
		if err := platform.LoadOverrides(cfg.Storage.SelectorsFile); err != nil {
			return fmt.Errorf("load selector overrides: %w", err)
		}
		log.Infof("selector overrides loaded from %s", cfg.Storage.SelectorsFile)
	}

	v, err := vault.New(cfg.EncryptionSecret)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}

	db, err := sqlite.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	log.Infof("database ready in %s", cfg.Storage.DataDir)

	engine := browser.NewEngine(browser.EngineOptions{Headless: cfg.Automation.Headless})
	if err := engine.Start(); err != nil {
		return fmt.Errorf("start browser engine: %w", err)
	}
	defer engine.Stop()
	log.Infof("browser engine started (headless=%t)", cfg.Automation.Headless)

	sessions := browser.NewSessionStore(engine, v)

	actionLog, _ := logging.NewLogger("automation")
	defer actionLog.Close()
	poster := automation.NewEngine(
		automation.NewBrowserBroker(sessions),
		db.Accounts,
		automation.Options{
			NavigationTimeout: cfg.NavigationTimeout(),
			SelectorTimeout:   cfg.SelectorTimeout(),
			SubmitEnabled:     cfg.Automation.SubmitEnabled,
		},
		actionLog,
	)
	if cfg.Automation.SubmitEnabled {
		log.Warnf("submit enabled: comments will actually be posted")
	} else {
		log.Infof("running in simulation mode: comments are typed but never submitted")
	}

	serverLog, _ := logging.NewLogger("server")
	defer serverLog.Close()
	srv := server.New(server.Deps{
		Accounts: db.Accounts,
		Comments: db.Comments,
		Vault:    v,
		Poster:   poster,
		Capturer: loginCapturer{store: sessions, window: cfg.LoginWait()},
		Log:      serverLog,
	}, automation.PacingPolicy{
		MaxBatchSize:   cfg.Automation.MaxBatchSize,
		InterItemDelay: cfg.InterItemDelay(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		errCh <- srv.Start(cfg.Server.Addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("shutdown: %v", err)
		return err
	}
	log.Infof("commentd stopped")
	return nil
}

// loginCapturer binds the configured login wait window to the session
// store's capture flow.
type loginCapturer struct {
	store  *browser.SessionStore
	window time.Duration
}

func (c loginCapturer) CaptureLogin(ctx context.Context, p platform.Platform, username string) ([]browser.Cookie, error) {
	return c.store.CaptureLoginWindow(ctx, p, username, c.window)
}
