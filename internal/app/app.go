// Package app assembles the brokerage clients, token store and services from
// configuration. Both the HTTP server and the CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"brokerdash/internal/broker"
	"brokerdash/internal/broker/kis"
	"brokerdash/internal/broker/kiwoom"
	"brokerdash/internal/broker/ls"
	"brokerdash/internal/broker/token"
	"brokerdash/internal/config"
	"brokerdash/internal/database"
	"brokerdash/internal/secretstore"
	"brokerdash/internal/services"
)

// Credential set IDs keying the token store.
const (
	CredentialsKIS    = "kis"
	CredentialsKiwoom = "kiwoom"
	CredentialsLS     = "ls"
)

// App holds the assembled dependencies.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Secrets   secretstore.Getter
	Tokens    *token.Store
	Dashboard *services.DashboardService
	Audit     *services.AuditService // nil unless the sqlite backend is used

	KIS    *kis.Client
	Kiwoom *kiwoom.Client
	LS     *ls.Client

	db *database.DB
}

// New builds an App. Brokerages without credentials are left unset and
// their dashboard calls fail with services.ErrNotConfigured.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	secrets, db, err := OpenSecrets(ctx, cfg.Secrets)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Secrets: secrets,
		Tokens:  token.NewStore(logger),
		db:      db,
	}
	if db != nil {
		a.Audit = services.NewAuditService(db, logger)
	}
	httpClient := broker.NewHTTPClient(cfg.HTTPTimeout)

	a.Dashboard = services.NewDashboardService(services.Accounts{
		Stock:   cfg.KIS.StockAccount(),
		Futures: cfg.KIS.FuturesAccount(),
	}, logger)

	if cfg.KIS.Enabled() {
		if cfg.KIS.TokenMode == config.TokenModeOAuth {
			a.Tokens.Register(CredentialsKIS, &token.KISOAuth{
				Client:    httpClient,
				Domain:    cfg.KIS.Domain,
				AppKey:    cfg.KIS.AppKey,
				AppSecret: cfg.KIS.AppSecret,
			})
		} else {
			a.Tokens.Register(CredentialsKIS, token.NewKISSecretSource(secrets, cfg.KIS.SecretID))
		}
		a.KIS = kis.NewClient(cfg.KIS.Domain, broker.Credentials{
			ID:        CredentialsKIS,
			AppKey:    cfg.KIS.AppKey,
			AppSecret: cfg.KIS.AppSecret,
			SecretID:  cfg.KIS.SecretID,
		}, a.Tokens,
			kis.WithHTTPClient(httpClient),
			kis.WithMaxPages(cfg.MaxPages),
			kis.WithLogger(logger),
		)
		a.Dashboard.WithKIS(a.KIS)
	}

	if cfg.Kiwoom.Enabled() {
		if cfg.Kiwoom.TokenMode == config.TokenModeOAuth {
			a.Tokens.Register(CredentialsKiwoom, &token.KiwoomOAuth{
				Client:    httpClient,
				Domain:    cfg.Kiwoom.Domain,
				AppKey:    cfg.Kiwoom.AppKey,
				SecretKey: cfg.Kiwoom.SecretKey,
			})
		} else {
			a.Tokens.Register(CredentialsKiwoom, token.NewKiwoomSecretSource(secrets, cfg.Kiwoom.SecretID))
		}
		a.Kiwoom = kiwoom.NewClient(cfg.Kiwoom.Domain, broker.Credentials{
			ID:        CredentialsKiwoom,
			AppKey:    cfg.Kiwoom.AppKey,
			AppSecret: cfg.Kiwoom.SecretKey,
			SecretID:  cfg.Kiwoom.SecretID,
		}, a.Tokens,
			kiwoom.WithHTTPClient(httpClient),
			kiwoom.WithAccount(cfg.Kiwoom.BrokerAccount()),
			kiwoom.WithLogger(logger),
		)
		a.Dashboard.WithKiwoom(a.Kiwoom)
	}

	if cfg.LS.Enabled() {
		// LS token blobs share the KIS field names.
		a.Tokens.Register(CredentialsLS, token.NewKISSecretSource(secrets, cfg.LS.SecretID))
		a.LS = ls.NewClient(cfg.LS.Domain, broker.Credentials{
			ID:       CredentialsLS,
			SecretID: cfg.LS.SecretID,
		}, a.Tokens,
			ls.WithHTTPClient(httpClient),
			ls.WithMaxPages(cfg.MaxPages),
			ls.WithLogger(logger),
		)
		a.Dashboard.WithLS(a.LS)
	}

	logger.Info("brokerages configured",
		"kis", a.KIS != nil, "kiwoom", a.Kiwoom != nil, "ls", a.LS != nil,
		"secret_backend", cfg.Secrets.Backend)
	return a, nil
}

// Close releases the secret store database, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// OpenSecrets opens the secret store selected by cfg.Backend. The returned
// database is non-nil only for the sqlite backend and must be closed by the
// caller.
func OpenSecrets(ctx context.Context, cfg config.SecretsConfig) (secretstore.Getter, *database.DB, error) {
	switch cfg.Backend {
	case config.SecretBackendAWS:
		s, err := secretstore.NewAWS(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.SecretBackendEnv:
		return secretstore.NewEnv(), nil, nil
	case config.SecretBackendSQLite:
		db, err := database.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		enc, err := broker.NewEncryptor(cfg.EncryptionSecret)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("creating encryptor: %w", err)
		}
		return secretstore.NewSQLite(db, enc), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown secret backend %q", cfg.Backend)
	}
}

// ErrNotWritable is returned by PutSecret when the backend is read-only.
var ErrNotWritable = errors.New("secret backend is read-only")

// PutSecret writes value under id when the store supports it.
func (a *App) PutSecret(ctx context.Context, id, value string) error {
	p, ok := a.Secrets.(secretstore.Putter)
	if !ok {
		return ErrNotWritable
	}
	if err := p.PutSecret(ctx, id, value); err != nil {
		return err
	}
	a.Audit.Log(ctx, services.AuditSecretStored, id, "")
	return nil
}

// IDs lists the registered credential sets.
func (a *App) IDs() []string { return a.Tokens.IDs() }

// Refresh fetches a fresh token for the credential set id and records the
// outcome in the audit log.
func (a *App) Refresh(ctx context.Context, id string) (token.Token, error) {
	tok, err := a.Tokens.Refresh(ctx, id)
	if err != nil {
		a.Audit.Log(ctx, services.AuditTokenFailed, id, err.Error())
		return token.Token{}, err
	}
	a.Audit.Log(ctx, services.AuditTokenRefreshed, id, "expires "+tok.ExpiresAt.UTC().Format(time.RFC3339))
	return tok, nil
}
