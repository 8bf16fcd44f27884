package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/nicebartender/bci-bridge/bridge"
	"github.com/nicebartender/bci-bridge/db"
	"github.com/nicebartender/bci-bridge/rpc"
	"github.com/nicebartender/bci-bridge/ws"
)

// The headset monitor page is usually opened from disk or another local
// port, so any origin may connect.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func serveCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept classified commands over WebSocket and HTTP and forward them",
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cfg.slogLevel()
			setupLogging(os.Stdout, level)
			return runServe(cmd.Context(), *cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "Listen address")
	cmd.Flags().StringVar(&cfg.Token, "token", cfg.Token, "Shared token classifier clients must present (optional)")
	return cmd
}

func runServe(ctx context.Context, cfg Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(cfg.Token)
	opts := []bridge.Option{bridge.WithObserver(rpc.Broadcaster(hub))}

	var database *db.DB
	if cfg.DBPath != "" {
		var err error
		database, err = db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
		opts = append(opts, bridge.WithRecorder(database))
	}

	b := bridge.NewHTTP(cfg.ConsumerURL, cfg.Policy(), opts...)
	router := rpc.NewRouter(hub, b, database)

	go hub.Run(ctx)
	go b.Run(ctx, cfg.PollInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade failed", "err", err)
			return
		}
		client := ws.NewClient(hub, conn)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/classify", router.ClassifyHTTP)
	mux.HandleFunc("/status", router.StatusHTTP)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("bci-bridge starting", "addr", cfg.ListenAddr, "consumer", cfg.ConsumerURL,
		"threshold", cfg.Threshold, "cooldown", cfg.Cooldown)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("bci-bridge stopped")
	return nil
}
