package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sqlpp/internal/api"
	"sqlpp/internal/config"
	"sqlpp/internal/middleware"
)

func newServeCmd(s *settings) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the formatter over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := s.cfg
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listen
			}
			for _, w := range cfg.Warnings {
				s.logger.Warn(w)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.ListenAddr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
			}
			return serve(ctx, s, cfg, ln)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, \":8080\")")
	return cmd
}

// serve runs the HTTP service on ln until ctx is done, then shuts it down.
func serve(ctx context.Context, s *settings, cfg *config.Config, ln net.Listener) error {
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	go limiter.Run(ctx, 5*time.Minute)

	handler, err := api.NewHandler(api.Config{
		Defaults:           cfg.FormatOptions(),
		MaxBodyBytes:       cfg.MaxRequestBytes,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimit:          limiter,
		Logger:             s.logger,
		Version:            version,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Serve returns as soon as Shutdown starts; drained is closed once
	// in-flight requests have finished.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown", "error", err)
		}
	}()

	s.logger.Info("sqlpp listening", "addr", ln.Addr().String(), "tls", cfg.TLSCertFile != "")
	if cfg.TLSCertFile != "" {
		err = srv.ServeTLS(ln, cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		err = srv.Serve(ln)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	<-drained
	return nil
}
