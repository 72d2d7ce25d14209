// Command garage-server starts the multiplayer session server for the
// garage driving client.
//
// It exposes a WebSocket endpoint at /ws carrying the realtime room
// protocol, plus thin HTTP status endpoints (/health, /api/stats). Flags
// control host/port, debug logging, version output, and optional ngrok
// tunneling for easy external access during development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/vroomhub/garage-server/api"
	"github.com/vroomhub/garage-server/game/config"
	"github.com/vroomhub/garage-server/game/room"
	"github.com/vroomhub/garage-server/game/router"
	"github.com/vroomhub/garage-server/transport/websocket"
)

// Version information
const (
	Version = "1.2.0"
	AppName = "Garage Session Server"
)

var (
	port         = flag.Int("port", 0, "HTTP server port (overrides PORT env)")
	host         = flag.String("host", "", "HTTP server host (overrides HOST env)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

func main() {
	// Load .env file if it exists (ignore error if not found).
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *host != "" {
		cfg.Host = *host
	}

	log := newLogger(cfg, *debug)
	log.Info("starting", "app", AppName, "version", Version, "addr", cfg.Addr())

	// Explicit object graph: registry -> router -> gateway -> HTTP server.
	rooms := room.NewManager(cfg, log)
	rt := router.New(cfg, rooms, log)
	gateway := websocket.NewGateway(cfg, rooms, rt, log)
	apiServer := api.NewServer(gateway)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      apiServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	// Heartbeat and idle-room sweeps.
	wg.Add(1)
	go func() {
		defer wg.Done()
		gateway.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info("http server listening", "addr", cfg.Addr())
		log.Info("websocket endpoint", "url", fmt.Sprintf("ws://%s/ws", cfg.Addr()))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Start ngrok tunnel if enabled (flag or environment).
	ngrokShouldRun := *ngrokEnabled
	if !ngrokShouldRun {
		if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
			ngrokShouldRun = true
		}
	}
	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, apiServer, log)
		}()
	}

	sig := <-stop
	log.Info("shutting down", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", "error", err)
	}

	wg.Wait()
	log.Info("shutdown complete")
}

// newLogger builds the process-wide slog logger honoring LOG_LEVEL and
// the -debug flag.
func newLogger(cfg *config.Config, debug bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// runNgrokTunnel serves the HTTP handler through an ngrok tunnel for
// development access from external clients.
func runNgrokTunnel(ctx context.Context, handler http.Handler, log *slog.Logger) {
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}
	if authToken == "" {
		log.Warn("ngrok enabled but no auth token provided (use -ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error("failed to start ngrok tunnel", "error", err)
		return
	}
	defer tun.Close()

	log.Info("ngrok tunnel established", "url", tun.URL())

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Error("ngrok server error", "error", err)
	}
}
