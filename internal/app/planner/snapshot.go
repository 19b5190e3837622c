package planner

import (
	"time"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/timeutil"
)

// Snapshot returns the whole store: tasks grouped by date (ascending) in
// display order, plus every anchor.
func (p *Planner) Snapshot() domain.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Load replaces the store with a snapshot read at startup. Every anchored
// date gets a fresh plan, and an in-progress task resumes as the active
// timer. Listeners are not notified.
func (p *Planner) Load(snap domain.Snapshot) {
	p.mu.Lock()
	p.loadLocked(snap)
	p.mu.Unlock()
}

// MergeRemote applies a snapshot fetched from the cloud. The remote side
// wins at full-set granularity: non-empty remote tasks replace all local
// tasks, non-empty remote anchors replace all local anchors. An empty
// remote snapshot is ignored. Reports whether anything was merged.
func (p *Planner) MergeRemote(remote domain.Snapshot) bool {
	if remote.Empty() {
		return false
	}

	p.mu.Lock()
	local := p.snapshotLocked()
	merged := domain.Snapshot{Tasks: local.Tasks, AnchorTimes: local.AnchorTimes}
	if len(remote.Tasks) > 0 {
		merged.Tasks = remote.Tasks
	}
	if len(remote.AnchorTimes) > 0 || !remote.AnchorTime.IsZero() {
		merged.AnchorTimes = remote.AnchorTimes
		merged.AnchorTime = remote.AnchorTime
	}
	p.loadLocked(merged)
	p.mu.Unlock()

	logf("merged remote snapshot: %d task(s), %d anchor(s)", len(merged.Tasks), len(merged.AnchorTimes))
	p.emit(Change{Kind: ChangeMerged})
	return true
}

func (p *Planner) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Tasks:       make([]domain.Task, 0, len(p.tasks)),
		AnchorTimes: make(map[string]time.Time, len(p.anchors)),
	}
	for _, date := range sortedKeys(p.byDate) {
		snap.Tasks = append(snap.Tasks, p.tasksOf(date)...)
	}
	for d, a := range p.anchors {
		snap.AnchorTimes[d] = a
	}
	return snap
}

func (p *Planner) loadLocked(snap domain.Snapshot) {
	p.tasks = make(map[string]domain.Task, len(snap.Tasks))
	p.byDate = make(map[string][]string)
	p.anchors = make(map[string]time.Time, len(snap.AnchorTimes))
	p.schedules = make(map[string][]domain.ScheduledTask)
	p.active = nil

	skipped := 0
	for _, t := range snap.Tasks {
		t.Normalize()
		if t.Status == "" {
			t.Status = domain.StatusPending
		}
		if _, dup := p.tasks[t.ID]; dup || t.ID == "" || t.Validate() != nil {
			skipped++
			continue
		}
		p.tasks[t.ID] = t
		p.index(t.Date, t.ID)

		if t.Status == domain.StatusInProgress && !t.ActualStartTime.IsZero() {
			if p.active == nil || t.ActualStartTime.After(p.active.StartedAt) {
				p.active = &Active{TaskID: t.ID, StartedAt: t.ActualStartTime}
			}
		}
	}
	if skipped > 0 {
		logf("load: skipped %d invalid or duplicate task(s)", skipped)
	}

	for d, a := range snap.AnchorTimes {
		if !a.IsZero() {
			p.anchors[d] = a
		}
	}
	if !snap.AnchorTime.IsZero() {
		legacy := timeutil.DateOf(snap.AnchorTime.In(p.now().Location()))
		if _, ok := p.anchors[legacy]; !ok {
			p.anchors[legacy] = snap.AnchorTime
		}
	}

	for date := range p.anchors {
		p.rebuild(date, "load")
	}
}
