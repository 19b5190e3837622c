// Package planner owns the task store: every task across all dates, one
// anchor per date, the computed schedule of each anchored date and the
// active-task timer. All user actions enter through its methods.
//
// Scheduling policy:
//   - a date is fully re-planned only when its anchor changes (set or reset)
//   - every other mutation patches the previous plan via schedule.Reconcile
package planner

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskplanner/planner/internal/app/schedule"
	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/infra/metrics"
	"github.com/taskplanner/planner/internal/timeutil"
)

// ChangeKind tells listeners what happened.
type ChangeKind string

const (
	ChangeTask    ChangeKind = "task"    // added, edited, reordered or lifecycle action
	ChangeDeleted ChangeKind = "deleted" // task removed; TaskID is set
	ChangeAnchor  ChangeKind = "anchor"  // anchor set, cleared or reset
	ChangeStatus  ChangeKind = "status"  // sweep moved tasks to overdue
	ChangeMerged  ChangeKind = "merged"  // remote snapshot replaced local state
)

// Change describes one committed store mutation.
type Change struct {
	Kind   ChangeKind
	Date   string
	TaskID string
}

// Active is the task whose timer is running.
type Active struct {
	TaskID    string    `json:"taskId"`
	StartedAt time.Time `json:"startedAt"`
}

// Options configures a Planner. Zero values use the wall clock and uuids.
type Options struct {
	Now   func() time.Time
	NewID func() string
}

// Planner is the single owned store. It is safe for concurrent use: the
// HTTP handlers and the status sweep run on different goroutines.
type Planner struct {
	mu        sync.Mutex
	now       func() time.Time
	newID     func() string
	tasks     map[string]domain.Task
	byDate    map[string][]string // date → task ids in display order
	anchors   map[string]time.Time
	schedules map[string][]domain.ScheduledTask
	active    *Active

	lmu       sync.RWMutex
	listeners []func(Change)
}

// New creates an empty planner.
func New(opts Options) *Planner {
	if opts.Now == nil {
		opts.Now = timeutil.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Planner{
		now:       opts.Now,
		newID:     opts.NewID,
		tasks:     make(map[string]domain.Task),
		byDate:    make(map[string][]string),
		anchors:   make(map[string]time.Time),
		schedules: make(map[string][]domain.ScheduledTask),
	}
}

// OnChange registers fn to run after every committed mutation.
// Listeners run outside the store lock and may read the planner.
func (p *Planner) OnChange(fn func(Change)) {
	p.lmu.Lock()
	defer p.lmu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Planner) emit(changes ...Change) {
	p.lmu.RLock()
	listeners := append([]func(Change){}, p.listeners...)
	p.lmu.RUnlock()
	for _, c := range changes {
		for _, fn := range listeners {
			fn(c)
		}
	}
}

// Today returns the date key of the planner clock.
func (p *Planner) Today() string {
	return timeutil.Today(p.now())
}

// Now returns the planner clock.
func (p *Planner) Now() time.Time {
	return p.now()
}

// ─── Reads ──────────────────────────────────────────────────────────────────

// Task returns one task by id.
func (p *Planner) Task(id string) (domain.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return t, nil
}

// Tasks returns the tasks of a date in display order.
func (p *Planner) Tasks(date string) []domain.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasksOf(date)
}

// Anchor returns the anchor of a date, if set.
func (p *Planner) Anchor(date string) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.anchors[date]
	return a, ok
}

// Schedule returns the computed schedule of a date, or nil when the date
// has no anchor.
func (p *Planner) Schedule(date string) []domain.ScheduledTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneSchedule(p.schedules[date])
}

// DayView is everything the presentation layer needs for one date.
type DayView struct {
	Date      string                 `json:"date"`
	Anchor    time.Time              `json:"anchorTime,omitzero"`
	Scheduled bool                   `json:"scheduled"`
	Tasks     []domain.ScheduledTask `json:"tasks"`
	Active    *Active                `json:"active,omitempty"`
}

// View returns the schedule of an anchored date, or the unscheduled task
// list (fixed tasks at their window) when the date has no anchor.
func (p *Planner) View(date string) DayView {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := DayView{Date: date, Active: p.activeCopy()}
	if anchor, ok := p.anchors[date]; ok {
		v.Anchor = anchor
		v.Scheduled = true
		v.Tasks = cloneSchedule(p.schedules[date])
	} else {
		v.Tasks = schedule.Unscheduled(p.tasksOf(date))
	}
	if v.Tasks == nil {
		v.Tasks = []domain.ScheduledTask{}
	}
	return v
}

// Dates returns the number of tasks per date.
func (p *Planner) Dates() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.byDate))
	for d, ids := range p.byDate {
		out[d] = len(ids)
	}
	return out
}

// Active returns the task whose timer is running, if any.
func (p *Planner) Active() (Active, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return Active{}, false
	}
	return *p.active, true
}

func (p *Planner) activeCopy() *Active {
	if p.active == nil {
		return nil
	}
	a := *p.active
	return &a
}

// ─── Internal helpers (caller holds p.mu) ──────────────────────────────────

func (p *Planner) tasksOf(date string) []domain.Task {
	ids := p.byDate[date]
	if len(ids) == 0 {
		return nil
	}
	out := make([]domain.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.tasks[id])
	}
	return out
}

// reconcile patches the schedule of date after a non-anchor mutation.
func (p *Planner) reconcile(date string) {
	anchor, ok := p.anchors[date]
	if !ok {
		return
	}
	p.schedules[date] = schedule.Reconcile(p.schedules[date], p.tasksOf(date), anchor)
	metrics.Reconciles.Inc()
}

// rebuild runs a full plan for date and writes resolved statuses back.
func (p *Planner) rebuild(date, trigger string) {
	anchor, ok := p.anchors[date]
	if !ok {
		delete(p.schedules, date)
		return
	}
	planned := schedule.Rebuild(p.tasksOf(date), anchor, p.now())
	p.schedules[date] = planned
	p.applyStatuses(planned)
	metrics.Reschedules.WithLabelValues(trigger).Inc()
}

// applyStatuses copies resolved statuses from a schedule into the store
// and reports whether any task changed.
func (p *Planner) applyStatuses(planned []domain.ScheduledTask) bool {
	changed := false
	for _, st := range planned {
		t, ok := p.tasks[st.ID]
		if !ok || t.Status == st.Status {
			continue
		}
		t.Status = st.Status
		p.tasks[st.ID] = t
		changed = true
		if st.Status == domain.StatusOverdue {
			metrics.OverdueTransitions.Inc()
		}
	}
	return changed
}

func (p *Planner) slotOf(id, date string) (domain.ScheduledTask, bool) {
	for _, st := range p.schedules[date] {
		if st.ID == id {
			return st, true
		}
	}
	return domain.ScheduledTask{}, false
}

func (p *Planner) index(date, id string) {
	p.byDate[date] = append(p.byDate[date], id)
}

func (p *Planner) unindex(date, id string) {
	ids := p.byDate[date]
	for i, x := range ids {
		if x == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(p.byDate, date)
		return
	}
	p.byDate[date] = ids
}

// checkFixedOverlap rejects a fixed window that overlaps another fixed
// task of the same date.
func (p *Planner) checkFixedOverlap(t domain.Task) error {
	if !t.HasWindow() {
		return nil
	}
	for _, id := range p.byDate[t.Date] {
		other := p.tasks[id]
		if other.ID == t.ID || !other.HasWindow() {
			continue
		}
		if timeutil.Overlaps(t.StartTime, t.EndTime, other.StartTime, other.EndTime) {
			return &OverlapError{Task: t, Other: other}
		}
	}
	return nil
}

func cloneSchedule(in []domain.ScheduledTask) []domain.ScheduledTask {
	if in == nil {
		return nil
	}
	out := make([]domain.ScheduledTask, len(in))
	copy(out, in)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func logf(format string, args ...any) {
	log.Printf("[planner] "+format, args...)
}
