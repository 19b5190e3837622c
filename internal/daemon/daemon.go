package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taskplanner/planner/internal/api"
	"github.com/taskplanner/planner/internal/app/planner"
	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/health"
	"github.com/taskplanner/planner/internal/infra/cloud"
	"github.com/taskplanner/planner/internal/infra/metrics"
	"github.com/taskplanner/planner/internal/infra/sqlite"
	"github.com/taskplanner/planner/internal/infra/syncer"
	"github.com/taskplanner/planner/internal/timeutil"
)

// ErrSyncDisabled is returned by sync operations when no cloud store is configured.
var ErrSyncDisabled = errors.New("cloud sync is not configured")

// Daemon is the planner runtime. It wires together all services.
type Daemon struct {
	Config   Config
	Location *time.Location
	DB       *sqlite.DB
	Planner  *planner.Planner
	Server   *api.Server
	Health   *health.Checker

	// Cloud sync; nil when disabled or unreachable at startup
	Cloud *cloud.PgStore
	Sync  *syncer.Syncer

	cron    *cron.Cron
	logFile io.Closer
	cancel  context.CancelFunc

	saveMu sync.Mutex // one snapshot save at a time, newest last
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration. The saved
// task pool is loaded before it returns.
func NewWithConfig(cfg Config) (*Daemon, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logFile, err := setupLogging(cfg.Logging)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.Open(plannerHome())
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	p := planner.New(planner.Options{
		Now: func() time.Time { return timeutil.Now().In(loc) },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, ok, err := db.LoadSnapshot(ctx)
	switch {
	case err != nil:
		log.Printf("[daemon] WARNING: saved task pool unreadable, starting empty: %v", err)
	case ok:
		p.Load(snap)
		log.Printf("[daemon] loaded %d task(s), %d anchor(s)", len(snap.Tasks), len(snap.AnchorTimes))
	}

	d := &Daemon{
		Config:   cfg,
		Location: loc,
		DB:       db,
		Planner:  p,
		logFile:  logFile,
	}

	if cfg.SyncEnabled() {
		store, err := cloud.Connect(ctx, cfg.Sync.DSN)
		if err == nil {
			err = store.EnsureTable(ctx)
		}
		if err != nil {
			log.Printf("[daemon] WARNING: cloud unavailable, running offline: %v", err)
			if store != nil {
				store.Close()
			}
		} else {
			d.Cloud = store
			d.Sync = syncer.New(store, cfg.Sync.UserID, p.Snapshot, syncer.Options{
				Delay:      parseDuration(cfg.Sync.Debounce, syncer.DefaultDelay),
				MaxRetries: cfg.Sync.MaxRetries,
				Queue:      db,
				OnSync: func(at time.Time) {
					if err := db.SetLastSync(context.Background(), at); err != nil {
						log.Printf("[sync] record last sync: %v", err)
					}
				},
			})
		}
	}

	p.OnChange(d.onChange)

	var remote health.RemotePinger
	if d.Cloud != nil {
		remote = d.Cloud
	}
	d.Health = health.NewChecker(db, plannerHome(), remote)

	srv := api.NewServer(p)
	srv.SetLocation(loc)
	srv.SetHealth(d.Health)
	srv.SetAllowedOrigins(allowedOrigins(cfg.API.CORSOrigins))
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// onChange persists the store after every mutation and schedules a push.
func (d *Daemon) onChange(c planner.Change) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d.saveSnapshot(ctx)

	if d.Sync == nil {
		return
	}
	if c.Kind == planner.ChangeDeleted {
		if err := d.Sync.QueueDelete(ctx, c.TaskID); err != nil {
			log.Printf("[sync] %v", err)
		}
	}
	d.Sync.Schedule()
}

// saveSnapshot writes the current store. The snapshot is taken under
// saveMu, so concurrent saves can never leave an older state on disk.
func (d *Daemon) saveSnapshot(ctx context.Context) {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	if err := d.DB.SaveSnapshot(ctx, d.Planner.Snapshot()); err != nil {
		metrics.SnapshotSaves.WithLabelValues("error").Inc()
		log.Printf("[daemon] save snapshot: %v", err)
		return
	}
	metrics.SnapshotSaves.WithLabelValues("ok").Inc()
}

// LastSync returns when the cloud last accepted a push; zero if never.
func (d *Daemon) LastSync(ctx context.Context) (time.Time, error) {
	return d.DB.LastSync(ctx)
}

// Pull fetches the remote snapshot and merges it when non-empty.
func (d *Daemon) Pull(ctx context.Context) (bool, error) {
	if d.Sync == nil {
		return false, ErrSyncDisabled
	}
	remote, err := d.Sync.Pull(ctx)
	if err != nil {
		return false, err
	}
	return d.Planner.MergeRemote(remote), nil
}

// SyncNow pulls, merges and pushes immediately.
func (d *Daemon) SyncNow(ctx context.Context) error {
	if _, err := d.Pull(ctx); err != nil {
		return err
	}
	return d.Sync.Flush(ctx)
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.Sync != nil && d.Config.Sync.PullOnStart {
		if merged, err := d.Pull(ctx); err != nil {
			log.Printf("[sync] initial pull failed: %v", err)
		} else if merged {
			log.Printf("[sync] merged remote task pool")
		}
	}

	if err := d.startCron(); err != nil {
		return err
	}

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Planner serving on http://%s\n", addr)
	if d.Sync != nil {
		fmt.Printf("  Sync: enabled (user %s)\n", d.Config.Sync.UserID)
	}
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// startCron schedules the overdue sweep.
func (d *Daemon) startCron() error {
	spec := d.Config.Schedule.Sweep
	if spec == "" {
		spec = "@every 1m"
	}
	c := cron.New(cron.WithLocation(d.Location))
	if _, err := c.AddFunc(spec, func() { d.Planner.Sweep() }); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	c.Start()
	d.cron = c
	d.Planner.Sweep()
	return nil
}

// Close shuts down all daemon resources. A pending push is flushed first.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}
	if d.Sync != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := d.Sync.Stop(ctx); err != nil {
			log.Printf("[sync] final flush failed: %v", err)
		}
		cancel()
	}
	if d.Cloud != nil {
		d.Cloud.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.logFile != nil {
		_ = d.logFile.Close()
	}
}

// allowedOrigins treats "*" as no restriction.
func allowedOrigins(origins []string) []string {
	for _, o := range origins {
		if o == "*" {
			return nil
		}
	}
	return origins
}

var _ domain.SnapshotStore = (*sqlite.DB)(nil)
