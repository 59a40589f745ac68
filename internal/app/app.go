package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"time"

	"talentflow/internal/blob"
	"talentflow/internal/config"
	"talentflow/internal/gateway"
	"talentflow/internal/model"
	"talentflow/internal/store"
	"talentflow/internal/talentflow"
)

const shutdownTimeout = 10 * time.Second

// TalentFlowApp is the application layer between the CLI and the store,
// blob store and gateway. It builds every dependency from config and
// releases them on Close.
type TalentFlowApp struct {
	cfg     *config.Config
	db      *store.Store
	mirror  *store.Store
	blobs   talentflow.BlobStore
	session talentflow.SessionStore
	auth    *talentflow.AuthService
	clock   talentflow.Clock
	logger  talentflow.Logger
	op      *Operation
	logFile *os.File
}

// NewTalentFlowApp creates a fully wired app from cfg. operation names the
// CLI command being run. Log records below level are dropped. The caller
// must call Close when done.
func NewTalentFlowApp(ctx context.Context, cfg *config.Config, operation string, level slog.Level) (*TalentFlowApp, error) {
	db, err := store.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	blobs, err := blob.NewStoreFromConfig(ctx, cfg.Blob, cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	clock := talentflow.RealClock{}
	op := NewOperation(operation, clock.Now())
	l, logFile, err := newLogger(cfg.LogDir, op.ID, level)
	if err != nil {
		closeBlobs(blobs)
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: l}

	session := talentflow.NewBlobSession(blobs)
	return &TalentFlowApp{
		cfg:     cfg,
		db:      db,
		blobs:   blobs,
		session: session,
		auth:    talentflow.NewAuthService(db.Users(), session, clock, logger),
		clock:   clock,
		logger:  logger,
		op:      op,
		logFile: logFile,
	}, nil
}

// Operation returns the operation this app was opened for.
func (a *TalentFlowApp) Operation() *Operation {
	return a.op
}

// Seed fills an empty store with demo data sized by the seed config.
// It reports whether anything was written.
func (a *TalentFlowApp) Seed(ctx context.Context) (bool, error) {
	counts := talentflow.SeedCounts{
		Recruiters:  a.cfg.Seed.Recruiters,
		Applicants:  a.cfg.Seed.Applicants,
		Jobs:        a.cfg.Seed.Jobs,
		Candidates:  a.cfg.Seed.Candidates,
		Assessments: a.cfg.Seed.Assessments,
	}
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	return talentflow.NewSeeder(a.db, counts, a.clock, rng, a.logger).Seed(ctx)
}

// NewGateway builds the API gateway. In snapshot mode it serves a private
// in-memory copy of the store taken now; in live mode it serves the store
// itself. Auth always goes to the store.
func (a *TalentFlowApp) NewGateway(ctx context.Context) (*gateway.Gateway, error) {
	served := a.db
	if a.cfg.Gateway.Mode != config.GatewayModeLive {
		if a.mirror != nil {
			a.mirror.Close()
		}
		mirror, err := gateway.NewMirror(ctx, a.db)
		if err != nil {
			return nil, err
		}
		a.mirror = mirror
		served = mirror
	}

	a.logger.Info("gateway ready", "mode", a.cfg.Gateway.Mode, "fault_rate", a.cfg.Gateway.FaultRate)
	return gateway.New(served, gateway.Options{
		Clock:          a.clock,
		Faults:         talentflow.NewRandomFaults(a.cfg.Gateway.FaultRate, nil),
		Logger:         a.logger,
		Blobs:          a.blobs,
		Session:        a.session,
		Auth:           a.auth,
		RateLimitRPS:   a.cfg.Gateway.RateLimitRPS,
		RateLimitBurst: a.cfg.Gateway.RateLimitBurst,
		AllowOrigins:   a.cfg.Gateway.AllowOrigins,
	}), nil
}

// Serve seeds the store if needed and serves the gateway on the configured
// address until ctx is cancelled.
func (a *TalentFlowApp) Serve(ctx context.Context) error {
	if _, err := a.Seed(ctx); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	gw, err := a.NewGateway(ctx)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", a.cfg.Gateway.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Gateway.Addr, err)
	}
	server := &http.Server{
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("http server listening", "address", listener.Addr().String())
	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	a.logger.Info("http server stopped")
	return nil
}

// Export copies every collection of the store.
func (a *TalentFlowApp) Export(ctx context.Context) (*model.Snapshot, error) {
	return a.db.Export(ctx)
}

// Import writes snap into the store in one transaction.
func (a *TalentFlowApp) Import(ctx context.Context, snap *model.Snapshot) error {
	if err := a.db.Import(ctx, snap); err != nil {
		return err
	}
	a.logger.Info("snapshot imported",
		"users", len(snap.Users),
		"jobs", len(snap.Jobs),
		"candidates", len(snap.Candidates),
		"assessments", len(snap.Assessments),
	)
	return nil
}

// Users lists every account.
func (a *TalentFlowApp) Users(ctx context.Context) ([]*model.User, error) {
	return a.auth.Users(ctx)
}

// Signup creates an account. The new user becomes the session user.
func (a *TalentFlowApp) Signup(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
	return a.auth.Signup(ctx, email, password, name, role)
}

// Submissions lists the keys of the raw assessment submissions.
func (a *TalentFlowApp) Submissions(ctx context.Context) ([]string, error) {
	return a.blobs.List(ctx, gateway.SubmissionPrefix)
}

// ReadSubmission copies one raw submission to w.
func (a *TalentFlowApp) ReadSubmission(ctx context.Context, key string, w io.Writer) error {
	return a.blobs.Get(ctx, key, w)
}

// Backup writes a consistent copy of the store database to destPath.
func (a *TalentFlowApp) Backup(destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("backup destination %s already exists", destPath)
	}
	if err := a.db.BackupTo(destPath); err != nil {
		return err
	}
	a.logger.Info("database backed up", "path", destPath)
	return nil
}

// Close releases the mirror, the store, the blob store and the log file.
func (a *TalentFlowApp) Close() error {
	var firstErr error

	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			firstErr = fmt.Errorf("closing mirror: %w", err)
		}
	}
	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if err := closeBlobs(a.blobs); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing blob store: %w", err)
	}

	a.logger.Debug("operation finished", "operation", a.op.Name, "status", a.op.Status,
		"duration", a.clock.Now().Sub(a.op.StartedAt))
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

func closeBlobs(b talentflow.BlobStore) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
