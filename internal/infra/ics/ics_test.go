package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/taskplanner/planner/internal/domain"
)

func slot(id, name string, prio domain.Priority, start time.Time, minutes int) domain.ScheduledTask {
	return domain.ScheduledTask{
		Task: domain.Task{
			ID: id, Date: "2026-10-19", Name: name, EstimatedDuration: minutes,
			Priority: prio, Status: domain.StatusPending,
		},
		CalculatedStartTime: start,
		CalculatedEndTime:   start.Add(time.Duration(minutes) * time.Minute),
	}
}

// ─── Export ─────────────────────────────────────────────────────────────────

func TestExport_ScheduledOnly(t *testing.T) {
	nine := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	tasks := []domain.ScheduledTask{
		slot("a", "Write report", domain.PriorityHigh, nine, 60),
		{Task: domain.Task{ID: "b", Name: "Unplanned"}},
	}
	out := Export("2026-10-19", tasks, nine)

	for _, want := range []string{"BEGIN:VCALENDAR", "SUMMARY:Write report", "UID:a@planner", "PRIORITY:1"} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Unplanned") {
		t.Error("unscheduled task should not be exported")
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("events = %d, want 1", n)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	nine := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	tasks := []domain.ScheduledTask{
		slot("a", "Write report", domain.PriorityHigh, nine, 60),
		slot("b", "Email", domain.PriorityLow, nine.Add(time.Hour), 15),
	}
	res, err := Import(strings.NewReader(Export("2026-10-19", tasks, nine)), time.UTC)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(res.Drafts) != 2 || res.Skipped != 0 {
		t.Fatalf("Import() = %+v", res)
	}
	d := res.Drafts[0]
	if d.Name != "Write report" || !d.IsFixed || d.Priority != domain.PriorityHigh {
		t.Errorf("draft = %+v", d)
	}
	if !d.StartTime.Equal(nine) || !d.EndTime.Equal(nine.Add(time.Hour)) {
		t.Errorf("window = %v - %v", d.StartTime, d.EndTime)
	}
	if res.Drafts[1].Priority != domain.PriorityLow {
		t.Errorf("priority = %q, want low", res.Drafts[1].Priority)
	}
}

// ─── Import ─────────────────────────────────────────────────────────────────

const sample = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:1@test\r\n" +
	"DTSTAMP:20261018T120000Z\r\n" +
	"DTSTART:20261019T133000Z\r\n" +
	"DTEND:20261019T140000Z\r\n" +
	"SUMMARY:Dentist\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:2@test\r\n" +
	"DTSTAMP:20261018T120000Z\r\n" +
	"DTSTART;VALUE=DATE:20261020\r\n" +
	"DTEND;VALUE=DATE:20261021\r\n" +
	"SUMMARY:Holiday\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:3@test\r\n" +
	"DTSTAMP:20261018T120000Z\r\n" +
	"DTSTART:20261019T150000Z\r\n" +
	"DTEND:20261019T150000Z\r\n" +
	"SUMMARY:Zero length\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestImport_SkipsAllDayAndEmpty(t *testing.T) {
	res, err := Import(strings.NewReader(sample), time.UTC)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(res.Drafts) != 1 || res.Skipped != 2 {
		t.Fatalf("Import() = %d drafts, %d skipped", len(res.Drafts), res.Skipped)
	}
	d := res.Drafts[0]
	if d.Name != "Dentist" || d.Date != "2026-10-19" || d.Priority != domain.PriorityMedium {
		t.Errorf("draft = %+v", d)
	}
	if got := d.EndTime.Sub(d.StartTime); got != 30*time.Minute {
		t.Errorf("window = %v, want 30m", got)
	}
}

func TestImport_DateFollowsLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	res, _ := Import(strings.NewReader(sample), tokyo)
	if len(res.Drafts) != 1 || res.Drafts[0].Date != "2026-10-19" {
		t.Fatalf("drafts = %+v", res.Drafts)
	}
	if h := res.Drafts[0].StartTime.Hour(); h != 22 {
		t.Errorf("start hour in JST = %d, want 22", h)
	}
}

func TestPriorityMapping(t *testing.T) {
	for _, p := range []domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow} {
		if got := fromICalPriority(icalPriority(p)); got != p {
			t.Errorf("round trip %q = %q", p, got)
		}
	}
	if fromICalPriority(0) != domain.PriorityMedium {
		t.Error("undefined PRIORITY should be medium")
	}
}
