package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/taskplanner/planner/internal/domain"
)

func newTestDaemon(t *testing.T, home string) *Daemon {
	t.Helper()
	t.Setenv("PLANNER_HOME", home)
	cfg := DefaultConfig()
	cfg.Schedule.Timezone = "UTC"
	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	return d
}

func TestDaemon_PersistsAcrossRestart(t *testing.T) {
	home := t.TempDir()

	d := newTestDaemon(t, home)
	today := d.Planner.Today()
	task, err := d.Planner.Add(domain.TaskDraft{Date: today, Name: "Write", EstimatedDuration: 30})
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if _, err := d.Planner.SetAnchor(today, d.Planner.Now()); err != nil {
		t.Fatalf("SetAnchor() error: %v", err)
	}
	d.Close()

	d = newTestDaemon(t, home)
	defer d.Close()
	got, err := d.Planner.Task(task.ID)
	if err != nil {
		t.Fatalf("task lost across restart: %v", err)
	}
	if got.Name != "Write" {
		t.Errorf("Name = %q", got.Name)
	}
	if _, ok := d.Planner.Anchor(today); !ok {
		t.Error("anchor lost across restart")
	}
	if d.Planner.Schedule(today) == nil {
		t.Error("anchored date should be planned after load")
	}
}

func TestDaemon_DeletePersists(t *testing.T) {
	home := t.TempDir()

	d := newTestDaemon(t, home)
	task, _ := d.Planner.Add(domain.TaskDraft{Date: d.Planner.Today(), Name: "Tmp", EstimatedDuration: 5})
	d.Planner.Delete(task.ID)
	d.Close()

	d = newTestDaemon(t, home)
	defer d.Close()
	if _, err := d.Planner.Task(task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("deleted task came back: %v", err)
	}
}

func TestDaemon_SyncDisabled(t *testing.T) {
	d := newTestDaemon(t, t.TempDir())
	defer d.Close()

	if d.Sync != nil || d.Cloud != nil {
		t.Error("sync should be off without configuration")
	}
	if err := d.SyncNow(context.Background()); !errors.Is(err, ErrSyncDisabled) {
		t.Errorf("SyncNow() error = %v, want ErrSyncDisabled", err)
	}
}

func TestDaemon_StartCron(t *testing.T) {
	d := newTestDaemon(t, t.TempDir())
	defer d.Close()

	if err := d.startCron(); err != nil {
		t.Fatalf("startCron() error: %v", err)
	}

	d.Config.Schedule.Sweep = "every now and then"
	if err := d.startCron(); err == nil {
		t.Error("startCron() should reject a bad spec")
	}
}

func TestDaemon_ConcurrentSavesKeepNewest(t *testing.T) {
	home := t.TempDir()
	d := newTestDaemon(t, home)
	today := d.Planner.Today()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := d.Planner.Add(domain.TaskDraft{Date: today, Name: fmt.Sprintf("task %d", i), EstimatedDuration: 5}); err != nil {
				t.Errorf("Add() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	snap, ok, err := d.DB.LoadSnapshot(context.Background())
	if err != nil || !ok {
		t.Fatalf("LoadSnapshot() = %v, %v", ok, err)
	}
	if len(snap.Tasks) != n {
		t.Errorf("saved %d task(s), want %d", len(snap.Tasks), n)
	}
	d.Close()
}

func TestDaemon_LastSync(t *testing.T) {
	d := newTestDaemon(t, t.TempDir())
	defer d.Close()
	ctx := context.Background()

	got, err := d.LastSync(ctx)
	if err != nil || !got.IsZero() {
		t.Fatalf("LastSync() before any sync = %v, %v; want zero", got, err)
	}

	at := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	if err := d.DB.SetLastSync(ctx, at); err != nil {
		t.Fatalf("SetLastSync() error: %v", err)
	}
	got, err = d.LastSync(ctx)
	if err != nil || !got.Equal(at) {
		t.Errorf("LastSync() = %v, %v; want %v", got, err, at)
	}
}
