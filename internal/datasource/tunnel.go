package datasource

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iotnatural/poolwatch-core/internal/infrastructure/config"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/tunnel"
	"github.com/iotnatural/poolwatch-core/internal/metrics"
)

// TunnelConfig configures a TunnelProvider.
type TunnelConfig struct {
	SSH tunnel.Config

	Database string
	User     string
	Password string

	// ConnectTimeout bounds the SSH handshake plus the database ping.
	ConnectTimeout time.Duration
}

// TunnelConfigFrom builds a TunnelConfig from the application configuration.
func TunnelConfigFrom(cfg *config.Config) TunnelConfig {
	return TunnelConfig{
		SSH: tunnel.Config{
			Host:       cfg.SSH.Host,
			Port:       cfg.SSH.Port,
			User:       cfg.SSH.User,
			Password:   cfg.SSH.Password,
			RemoteHost: cfg.SSH.RemoteHost,
			RemotePort: cfg.SSH.RemotePort,
			HostKey:    cfg.SSH.HostKey,
		},
		Database:       cfg.Database.Name,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		ConnectTimeout: cfg.ConnectTimeout(),
	}
}

// tunnelOpener abstracts tunnel.Open for tests.
type tunnelOpener func(ctx context.Context, cfg tunnel.Config) (*tunnel.Tunnel, error)

// TunnelProvider opens a fresh SSH tunnel and MySQL connection for every acquisition.
//
// Nothing is pooled: a Conn owns its tunnel and both are torn down on Close.
type TunnelProvider struct {
	cfg        TunnelConfig
	openTunnel tunnelOpener
	logger     tunnel.Logger
}

// NewTunnelProvider creates a provider for the remote MySQL store.
func NewTunnelProvider(cfg TunnelConfig) *TunnelProvider {
	return &TunnelProvider{
		cfg:        cfg,
		openTunnel: tunnel.Open,
	}
}

// SetLogger sets the logger handed to each tunnel.
func (p *TunnelProvider) SetLogger(logger tunnel.Logger) {
	p.logger = logger
}

// Acquire opens the tunnel, connects to MySQL through it and verifies the connection.
func (p *TunnelProvider) Acquire(ctx context.Context) (conn *Conn, err error) {
	start := time.Now()
	defer func() { metrics.RecordAcquire(config.DriverMySQL, time.Since(start), err) }()

	if p.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ConnectTimeout)
		defer cancel()
	}

	t, err := p.openTunnel(ctx, p.cfg.SSH)
	if err != nil {
		return nil, unavailable("opening tunnel", err)
	}
	if p.logger != nil {
		t.SetLogger(p.logger)
	}

	connector, err := mysql.NewConnector(p.mysqlConfig(t.LocalAddr()))
	if err != nil {
		t.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, unavailable("configuring mysql", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		t.Close()  //nolint:errcheck // Best effort cleanup on error path
		return nil, unavailable("connecting to mysql", err)
	}

	return NewConn(db, func() error {
		// Database first, then the tunnel it travels through.
		return errors.Join(db.Close(), t.Close())
	}), nil
}

// mysqlConfig builds the driver configuration for a tunnel endpoint.
func (p *TunnelProvider) mysqlConfig(addr string) *mysql.Config {
	mcfg := mysql.NewConfig()
	mcfg.User = p.cfg.User
	mcfg.Passwd = p.cfg.Password
	mcfg.Net = "tcp"
	mcfg.Addr = addr
	mcfg.DBName = p.cfg.Database
	mcfg.ParseTime = true
	mcfg.Timeout = p.cfg.ConnectTimeout
	return mcfg
}
