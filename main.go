// Package main provides the entry point for the VPN Connect application.
// VPN Connect drives a tunnel daemon through the connect view model: it
// projects tunnel states into view snapshots, throttles the connect
// button and gates DNS changes behind confirmations.
//
// Features:
//   - Connect view snapshots with a prioritized notification slot
//   - Throttled connect and reconnect requests
//   - Confirmed custom DNS and local DNS server changes
//   - Desktop notifications over D-Bus
//   - Account token storage in the system keyring
//
// Usage:
//
//	vpn-connect [options]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yllada/vpn-connect/cli"
	"github.com/yllada/vpn-connect/common"
	"github.com/yllada/vpn-connect/config"
	"github.com/yllada/vpn-connect/connect"
	"github.com/yllada/vpn-connect/keyring"
	"github.com/yllada/vpn-connect/notify"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

var (
	// General flags
	showVersion = flag.Bool("version", false, "Show version and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showHelp    = flag.Bool("help", false, "Show help message")
	configPath  = flag.String("config", "", "Path to the configuration file")

	// Connect view flags
	showStatus   = flag.Bool("status", false, "Show the connect view and tunnel settings")
	watch        = flag.Bool("watch", false, "Print every view update until interrupted")
	connectVPN   = flag.Bool("connect", false, "Connect and wait for the tunnel")
	reconnectVPN = flag.Bool("reconnect", false, "Reconnect and wait for the tunnel")
	disconnect   = flag.Bool("disconnect", false, "Disconnect the tunnel")
	showDetail   = flag.Bool("detail", false, "Show the expanded tunnel detail")

	// Advanced settings flags
	enableDNS  = flag.Bool("enable-dns", false, "Enable custom DNS")
	disableDNS = flag.Bool("disable-dns", false, "Disable custom DNS")
	addDNS     = flag.String("add-dns", "", "Add a custom DNS server")
	removeDNS  = flag.String("remove-dns", "", "Remove a custom DNS server")
	mtu        = flag.Int("mtu", -1, "Set the WireGuard MTU (0 for default)")

	// Account flags
	setToken = flag.String("set-token", "", "Store the account token")
	account  = flag.Bool("account", false, "Open the account page")
)

func main() {
	flag.Parse()

	// Handle help flag
	if *showHelp {
		cli.PrintHelp()
		os.Exit(0)
	}

	// Handle version flag
	if *showVersion {
		fmt.Printf("VPN Connect v%s\n", appVersion)
		if buildTime != "unknown" {
			fmt.Printf("  Build:  %s\n", buildTime)
			fmt.Printf("  Commit: %s\n", commitSHA)
		}
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		cfg = config.DefaultConfig()
	}

	// Initialize logger with structured logging and file output
	logLevel := common.ParseLogLevel(cfg.LogLevel)
	if *verbose {
		logLevel = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{
		Level:       logLevel,
		EnableFile:  cfg.LogToFile,
		MaxFileSize: 5, // MB
		MaxBackups:  5,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}

	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals (SIGINT, SIGTERM)
	setupSignalHandler(cancel)

	common.LogInfo("Starting %s v%s", common.AppName, appVersion)
	code := runCLI(ctx, cfg, path)
	cancel()
	common.CloseLogger()
	os.Exit(code)
}

// runCLI assembles the engine, runs the requested operations in order and
// returns the process exit code.
func runCLI(ctx context.Context, cfg *config.Config, cfgPath string) int {
	var tokens common.TokenStore
	if dir, err := common.GetConfigDir(); err == nil {
		tokens = keyring.NewStore(keyring.ServiceName, dir)
	} else {
		common.LogWarn("Account token storage unavailable: %v", err)
	}

	var notifier common.Notifier
	if cfg.DesktopNotifications {
		notifier = notify.NewNotifier()
	}

	engine := cli.NewEngine(cli.Options{
		Config:   cfg,
		Tokens:   tokens,
		Notifier: notifier,
		Version:  &connect.VersionInfo{CurrentVersion: appVersion, IsSupported: true},
	})
	engine.Start(ctx)
	defer func() {
		if err := engine.Stop(); err != nil {
			common.LogError("Engine shutdown failed: %v", err)
		}
	}()

	cliApp := cli.New(engine, tokens, cfg, cfgPath)

	// Check if context is already cancelled before proceeding
	select {
	case <-ctx.Done():
		common.LogInfo("Operation cancelled before execution")
		return 1
	default:
	}

	ops := []struct {
		enabled bool
		run     func() error
	}{
		{*setToken != "", func() error { return cliApp.SetAccountToken(*setToken) }},
		{*mtu >= 0, func() error { return cliApp.SetMTU(ctx, *mtu) }},
		{*enableDNS, func() error { return cliApp.EnableCustomDNS(ctx) }},
		{*disableDNS, func() error { return cliApp.DisableCustomDNS(ctx) }},
		{*addDNS != "", func() error { return cliApp.AddDNSServer(ctx, *addDNS) }},
		{*removeDNS != "", func() error { return cliApp.RemoveDNSServer(ctx, *removeDNS) }},
		{*connectVPN, func() error { return cliApp.Connect(ctx) }},
		{*reconnectVPN, func() error { return cliApp.Reconnect(ctx) }},
		{*showDetail, func() error { return cliApp.ToggleDetail(ctx) }},
		{*disconnect, func() error { return cliApp.Disconnect(ctx) }},
		{*account, func() error { return cliApp.ManageAccount(ctx) }},
		{*showStatus, func() error { return cliApp.Status(ctx) }},
		{*watch, func() error { return cliApp.Watch(ctx) }},
	}

	ran := false
	for _, op := range ops {
		if !op.enabled {
			continue
		}
		ran = true
		if err := op.run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if !ran {
		if err := cliApp.Status(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

// setupSignalHandler configures graceful shutdown on SIGINT/SIGTERM.
// When a signal is received, it cancels the context to allow cleanup.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()
}
