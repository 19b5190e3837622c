package planner

import (
	"github.com/taskplanner/planner/internal/app/schedule"
	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/infra/metrics"
)

// Sweep re-resolves the status of every scheduled task at the current
// time and stores the ones that became overdue. It returns how many tasks
// changed. The daemon runs it at least once a minute.
func (p *Planner) Sweep() int {
	now := p.now()

	p.mu.Lock()
	var changes []Change
	total := 0
	overdue := 0
	for _, date := range sortedKeys(p.schedules) {
		resolved := schedule.ResolveAll(p.schedules[date], now)
		if n := countChanged(p.schedules[date], resolved); n > 0 {
			p.schedules[date] = resolved
			p.applyStatuses(resolved)
			changes = append(changes, Change{Kind: ChangeStatus, Date: date})
			total += n
		}
		for _, st := range resolved {
			if st.Status == domain.StatusOverdue {
				overdue++
			}
		}
	}
	p.mu.Unlock()

	metrics.OverdueTasks.Set(float64(overdue))
	if total > 0 {
		logf("sweep: %d task(s) now overdue", total)
		p.emit(changes...)
	}
	return total
}

func countChanged(before, after []domain.ScheduledTask) int {
	n := 0
	for i := range before {
		if before[i].Status != after[i].Status {
			n++
		}
	}
	return n
}
