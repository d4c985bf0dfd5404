// Command calque builds replication blueprints from rendered pages.
//
// Usage:
//
//	calque -url https://example.com          # capture a page, print its blueprint
//	calque -evidence bundle.json             # offline build from an evidence bundle
//	calque -serve                            # HTTP API + MCP-over-QUIC service
//	calque -config calque.yaml -serve        # service with explicit config
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/calque/engine"
	"github.com/hazyhaar/calque/evidence"
	"github.com/hazyhaar/calque/mcpquic"
)

func main() {
	configPath := flag.String("config", "", "path to calque.yaml config file")
	singleURL := flag.String("url", "", "capture a single URL and print its blueprint")
	evidencePath := flag.String("evidence", "", "build from an evidence bundle JSON file")
	serve := flag.Bool("serve", false, "run the HTTP API and MCP service")
	quicAddr := flag.String("mcp-quic", "", "MCP-over-QUIC listen address (e.g. :9444); empty disables")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *singleURL, *evidencePath, *serve, *quicAddr); err != nil {
		logger.Error("calque: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, singleURL, evidencePath string, serve bool, quicAddr string) error {
	cfg := &engine.Config{}
	if configPath != "" {
		loaded, err := engine.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}

	e, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	switch {
	case singleURL != "":
		return runSingle(ctx, e, singleURL)
	case evidencePath != "":
		return runEvidence(ctx, e, logger, evidencePath)
	case serve:
		return runServe(ctx, e, cfg, logger, quicAddr)
	}

	fmt.Fprintln(os.Stderr, "usage: calque -url <url> | -evidence <file> | -serve")
	os.Exit(1)
	return nil
}

func runSingle(ctx context.Context, e *engine.Engine, url string) error {
	bp, err := e.CaptureAndBuild(ctx, url)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	return printJSON(bp)
}

func runEvidence(ctx context.Context, e *engine.Engine, logger *slog.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read evidence %s: %w", filepath.Base(path), err)
	}
	bundle, err := evidence.DecodeBundle(data, logger)
	if err != nil {
		return fmt.Errorf("decode evidence: %w", err)
	}
	bp, err := e.BuildBlueprint(ctx, bundle)
	if err != nil {
		return err
	}
	return printJSON(bp)
}

func runServe(ctx context.Context, e *engine.Engine, cfg *engine.Config, logger *slog.Logger, quicAddr string) error {
	// Optional MCP over QUIC.
	if quicAddr != "" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "calque",
			Version: "1.0.0",
		}, nil)
		e.RegisterMCP(mcpSrv)

		tlsCfg, err := mcpquic.SelfSignedTLSConfig()
		if err != nil {
			return fmt.Errorf("mcp tls: %w", err)
		}
		ql, err := mcpquic.NewListener(quicAddr, tlsCfg, mcpSrv, logger)
		if err != nil {
			return fmt.Errorf("mcp listener: %w", err)
		}
		defer ql.Close()
		go func() {
			logger.Info("calque: mcp quic starting", "addr", quicAddr)
			if err := ql.Serve(ctx); err != nil && ctx.Err() == nil {
				logger.Error("calque: mcp quic", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           e.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("calque: http starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("calque: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("calque: shutdown", "error", err)
	}
	logger.Info("calque: stopped")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
