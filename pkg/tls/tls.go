package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"go.uber.org/zap"
)

type TLSConfig struct {
	Enabled       bool          `envconfig:"TLS_ENABLED" default:"false"`
	SocketPath    string        `envconfig:"SPIRE_SOCKET_PATH" default:"unix:///run/spire/sockets/agent.sock"`
	CheckInterval time.Duration `envconfig:"TLS_CHECK_INTERVAL" default:"30s"`
}

func LoadConfig() (*TLSConfig, error) {
	var cfg TLSConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Identity holds the workload's SPIFFE X509 source. A nil *Identity means
// TLS is disabled and every method is a no-op.
type Identity struct {
	source   *workloadapi.X509Source
	interval time.Duration
	logger   *zap.Logger
}

func Load(ctx context.Context, cfg *TLSConfig, logger *zap.Logger) (*Identity, error) {
	if !cfg.Enabled {
		logger.Info("TLS is disabled")
		return nil, nil
	}

	// SPIRE Workload API를 통해 X509 소스 생성
	source, err := workloadapi.NewX509Source(
		ctx,
		workloadapi.WithClientOptions(
			workloadapi.WithAddr(cfg.SocketPath),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create X509Source: %w", err)
	}

	logger.Info("SPIRE TLS configuration loaded",
		zap.String("socket_path", cfg.SocketPath),
		zap.Bool("mtls_enabled", true))

	return &Identity{source: source, interval: cfg.CheckInterval, logger: logger}, nil
}

// ServerConfig is the mTLS config for the catalog API listener.
func (i *Identity) ServerConfig() *tls.Config {
	if i == nil {
		return nil
	}
	tlsConfig := tlsconfig.MTLSServerConfig(i.source, i.source, tlsconfig.AuthorizeAny())
	tlsConfig.MinVersion = tls.VersionTLS12
	return tlsConfig
}

// ClientConfig is the mTLS config for callers of the catalog API.
func (i *Identity) ClientConfig() *tls.Config {
	if i == nil {
		return nil
	}
	tlsConfig := tlsconfig.MTLSClientConfig(i.source, i.source, tlsconfig.AuthorizeAny())
	tlsConfig.MinVersion = tls.VersionTLS12
	return tlsConfig
}

// Watch logs the SVID status until ctx is done. SPIRE rotates the
// certificate itself.
func (i *Identity) Watch(ctx context.Context) {
	if i == nil || i.interval <= 0 {
		return
	}

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		svid, err := i.source.GetX509SVID()
		if err != nil {
			i.logger.Error("Failed to get X509 SVID", zap.Error(err))
			continue
		}

		i.logger.Info("Certificate status",
			zap.String("spiffe_id", svid.ID.String()),
			zap.Time("expiry", svid.Certificates[0].NotAfter),
			zap.Duration("ttl", time.Until(svid.Certificates[0].NotAfter)))
	}
}

func (i *Identity) Close() error {
	if i == nil {
		return nil
	}
	return i.source.Close()
}
