package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfagnish/itemsvc/internal/config"
	"github.com/alfagnish/itemsvc/internal/feed"
	grpcserver "github.com/alfagnish/itemsvc/internal/grpc"
	"github.com/alfagnish/itemsvc/internal/items"
	"github.com/alfagnish/itemsvc/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd(config.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "itemsvc",
		Short:        "Serve the in-memory item API",
		Long:         "itemsvc serves a small in-memory item collection over HTTP (JSON and an HTML status page) and gRPC.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), config.Load(v))
		},
	}

	cmd.Flags().Int("port", config.DefaultPort, "HTTP port (env PORT)")
	cmd.Flags().Int("grpc-port", config.DefaultGRPCPort, "gRPC port, 0 disables (env GRPC_PORT)")
	cmd.Flags().String("env", config.DefaultEnvironment, "environment label (env APP_ENV or FLASK_ENV)")
	bindFlag(v, cmd, "port", "port")
	bindFlag(v, cmd, "grpc_port", "grpc-port")
	bindFlag(v, cmd, "env", "env")

	return cmd
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// 1. Logging.
	if cfg.Debug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
	log.Printf("config: listen=%s grpc=%s env=%s", cfg.ListenAddr(), cfg.GRPCAddr(), cfg.Environment())

	// 2. Create the change feed and the seeded item store.
	hub := feed.NewHub(feed.DefaultBuffer)
	store := items.NewStore(hub)

	// 3. Start the gRPC server, unless disabled.
	var rpc *grpcserver.Server
	if addr := cfg.GRPCAddr(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("grpc listen %s: %w", addr, err)
		}
		rpc = grpcserver.NewServer(store, hub)
		go func() {
			log.Printf("grpc listening on %s", addr)
			if err := rpc.Serve(lis); err != nil {
				log.Printf("grpc server error: %v", err)
			}
		}()
	}

	// 4. Start the HTTP server.
	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      server.New(cfg, store, hub),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no write timeout to support WebSocket sessions
		IdleTimeout:  120 * time.Second,
	}

	lis, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		if rpc != nil {
			rpc.Stop()
		}
		return fmt.Errorf("http listen %s: %w", srv.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", srv.Addr)
		log.Printf("visit http://localhost:%d in your browser", cfg.Port)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		log.Printf("server error: %v", serveErr)
	}
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	// Closing the feed ends open WebSocket and gRPC watch streams.
	hub.Close()
	if rpc != nil {
		rpc.Stop()
	}

	log.Println("server stopped")
	if serveErr != nil {
		return fmt.Errorf("http serve: %w", serveErr)
	}
	return nil
}
