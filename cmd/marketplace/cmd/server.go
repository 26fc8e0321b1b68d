package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jmcleod/marketplace/api"
	"github.com/jmcleod/marketplace/auth"
	"github.com/jmcleod/marketplace/internal/config"
	"github.com/jmcleod/marketplace/web"
)

var (
	port    int
	tlsCert string
	tlsKey  string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the marketplace server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := cfg.Log.NewLogger(os.Stderr)

		gate, err := newGate(cfg, logger)
		if err != nil {
			return err
		}

		catalog, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer catalog.Close()

		assets, err := web.Handler()
		if err != nil {
			return err
		}

		a := api.New(catalog,
			api.WithLogger(logger),
			api.WithGate(gate),
			api.WithExclusionMatcher(auth.NewExclusionMatcher(cfg.Auth.ExcludedPrefixes)),
			api.WithSecureCookies(cfg.Production()),
			api.WithAssets(assets),
		)

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           middleware.Logger(a.Router()),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		useTLS := tlsCert != "" && tlsKey != ""
		if useTLS {
			cert, err := tls.LoadX509KeyPair(tlsCert, tlsKey)
			if err != nil {
				return fmt.Errorf("failed to load TLS key pair: %w", err)
			}
			server.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if useTLS {
				err = server.ListenAndServeTLS("", "")
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Starting server on port %d (store: %s, env: %s)...\n", cfg.Port, cfg.Store.Driver, cfg.Env)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

// newGate builds the request gate from the auth config and logs the public
// paths and match mode it will enforce.
func newGate(cfg *config.Config, logger *slog.Logger) (*auth.Gate, error) {
	classifier, err := cfg.Auth.PathClassifier()
	if err != nil {
		return nil, err
	}
	logger.Info("gate configured",
		"match_mode", classifier.Mode().String(),
		"public_paths", classifier.Prefixes(),
		"excluded_prefixes", cfg.Auth.ExcludedPrefixes,
	)
	return auth.NewGate(classifier), nil
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to listen on (overrides PORT)")
	serverCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serverCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
}
