package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eigenwallet/swapwatch/internal/clock"
	"github.com/eigenwallet/swapwatch/internal/daemonrpc"
	"github.com/eigenwallet/swapwatch/internal/feed"
	"github.com/eigenwallet/swapwatch/internal/httpserver"
	"github.com/eigenwallet/swapwatch/internal/readmodel"
	"github.com/eigenwallet/swapwatch/internal/socketrpc"
)

// runServer starts the headless monitor: the daemon feed, the session read
// model, and the socket RPC plus HTTP API surfaces.
func runServer(cfg appConfig) error {
	logger, err := buildLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	// The control socket client doubles as swap info fetcher, approval
	// resolver, and swap commander. A missing daemon socket degrades to
	// read-only display of the live feed.
	var daemon *daemonrpc.Client
	daemon, err = daemonrpc.Dial(cfg.DaemonSocketPath)
	if err != nil {
		logger.Warn("daemon control socket unavailable, running read-only",
			zap.String("socket", cfg.DaemonSocketPath), zap.Error(err))
		daemon = nil
	} else {
		defer daemon.Close()
	}

	var fetcher readmodel.SwapInfoFetcher
	var resolver readmodel.ApprovalResolver
	var commander socketrpc.SwapCommander
	if daemon != nil {
		fetcher = daemon
		resolver = daemon
		commander = daemon
	}

	store := readmodel.NewSessionStore(clock.Real{}, logger, fetcher, resolver,
		readmodel.WithLogCapacity(cfg.LogCapacity))
	defer store.Close()

	subscriber := feed.New(feed.Config{
		URL:            cfg.DaemonURL,
		MaxRetries:     cfg.FeedMaxRetries,
		ReconnectDelay: cfg.FeedRetryDelay,
	}, store, logger)
	defer subscriber.Close()

	// Start HTTP API server if enabled
	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, store, subscriber)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	// Start socket RPC server for TUI IPC
	sockServer := socketrpc.NewServer(cfg.SocketPath, store, commander, logger)
	if err := sockServer.Start(); err != nil {
		return fmt.Errorf("failed to start socket server: %w", err)
	}
	defer sockServer.Stop()

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now — not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		cleanupSocket(cfg.SocketPath)
		os.Exit(1)
	}()

	printStartupBanner(cfg, daemon != nil)

	// Use errgroup for concurrent goroutine lifecycle management.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := subscriber.Run(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("monitor exited with error", zap.Error(err))
		return err
	}

	cancel()
	signal.Stop(sigCh)

	return nil
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

func printStartupBanner(cfg appConfig, daemonConnected bool) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔═╗╦ ╦╔═╗╔═╗╦ ╦╔═╗╔╦╗╔═╗╦ ╦
    ╚═╗║║║╠═╣╠═╝║║║╠═╣ ║ ║  ╠═╣
    ╚═╝╚╩╝╩ ╩╩  ╚╩╝╩ ╩ ╩ ╚═╝╩ ╩`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Daemon"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Event Feed     %s", check, cyan.Render(cfg.DaemonURL)))
	if daemonConnected {
		lines = append(lines, fmt.Sprintf("    %s  Control Socket %s", check, cyan.Render(shortenPath(cfg.DaemonSocketPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Control Socket %s", dot, dim.Render("unavailable (read-only)")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")
	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", check, cyan.Render(shortenPath(cfg.SocketPath))))

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
