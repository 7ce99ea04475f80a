// catalogctl is a terminal client for the catalog API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/client"
	pkgtls "github.com/cloud-wave-best-zizon/catalog-service/pkg/tls"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type app struct {
	server   string
	timeout  time.Duration
	verbose  bool
	logger   *zap.Logger
	identity *pkgtls.Identity
	client   *client.Client
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Browse and seed the product catalog",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			_ = a.logger.Sync()
			return a.identity.Close()
		},
	}

	defaultServer := os.Getenv("CATALOG_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&a.server, "server", defaultServer, "catalog API base URL")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 15*time.Second, "HTTP client timeout")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newFeedCmd(a),
		newSeedCmd(a),
		newGetCmd(a),
		newCategoriesCmd(a),
	)
	return root
}

func (a *app) init(ctx context.Context) error {
	level := zapcore.WarnLevel
	if a.verbose {
		level = zapcore.DebugLevel
	}
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zapCfg.Build()
	if err != nil {
		return err
	}
	a.logger = logger

	tlsCfg, err := pkgtls.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load TLS config: %w", err)
	}
	identity, err := pkgtls.Load(ctx, tlsCfg, logger)
	if err != nil {
		return err
	}
	a.identity = identity

	httpClient := &http.Client{
		Timeout:   a.timeout,
		Transport: &http.Transport{TLSClientConfig: identity.ClientConfig()},
	}
	a.client = client.New(a.server, httpClient, logger)
	return nil
}
