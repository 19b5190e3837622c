package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/taskplanner/planner/internal/app/planner"
	"github.com/taskplanner/planner/internal/domain"
)

func testPlanner(t *testing.T, ids ...string) *planner.Planner {
	t.Helper()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	n := 0
	return planner.New(planner.Options{
		Now: func() time.Time { return now },
		NewID: func() string {
			id := ids[n]
			n++
			return id
		},
	})
}

// ─── resolveDate ────────────────────────────────────────────────────────────

func TestResolveDate(t *testing.T) {
	p := testPlanner(t)
	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{"", "2026-10-19", false},
		{"today", "2026-10-19", false},
		{"tomorrow", "2026-10-20", false},
		{"2026-12-31", "2026-12-31", false},
		{"31/12/2026", "", true},
	}
	for _, tt := range tests {
		got, err := resolveDate(p, tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveDate(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveDate(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

// ─── resolveID ──────────────────────────────────────────────────────────────

func TestResolveID(t *testing.T) {
	p := testPlanner(t, "abc12345-0001", "abc12345-0002", "def99999")
	for _, name := range []string{"one", "two", "three"} {
		if _, err := p.Add(domain.TaskDraft{Date: "2026-10-19", Name: name, EstimatedDuration: 10}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if id, err := resolveID(p, "abc12345-0002"); err != nil || id != "abc12345-0002" {
		t.Errorf("exact id = %q, %v", id, err)
	}
	if id, err := resolveID(p, "def"); err != nil || id != "def99999" {
		t.Errorf("unique prefix = %q, %v", id, err)
	}
	if _, err := resolveID(p, "abc"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("ambiguous prefix error = %v", err)
	}
	if _, err := resolveID(p, "zzz"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("unknown id error = %v, want ErrTaskNotFound", err)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("t1"); got != "t1" {
		t.Errorf("shortID(short) = %q", got)
	}
}

// ─── printView ──────────────────────────────────────────────────────────────

func TestPrintViewUnanchored(t *testing.T) {
	p := testPlanner(t)
	var buf bytes.Buffer
	if err := printView(&buf, p.View("2026-10-19"), p.Now()); err != nil {
		t.Fatalf("printView: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "no anchor") || !strings.Contains(out, "No tasks") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestPrintViewSchedule(t *testing.T) {
	p := testPlanner(t, "task-aaaa-1", "task-bbbb-2")
	date := "2026-10-19"
	if _, err := p.Add(domain.TaskDraft{Date: date, Name: "Deep work", EstimatedDuration: 60, Priority: domain.PriorityHigh}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Add(domain.TaskDraft{
		Date: date, Name: "Standup", IsFixed: true,
		StartTime: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 10, 19, 9, 45, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}
	v, err := p.SetAnchor(date, p.Now())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Start("task-aaaa-1"); err != nil {
		t.Fatal(err)
	}
	v = p.View(date)

	var buf bytes.Buffer
	if err := printView(&buf, v, p.Now()); err != nil {
		t.Fatalf("printView: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"anchor 08:00",
		"SLOT",
		"08:00 - 09:00",
		"task-aaa",
		"Standup (fixed)",
		"09:30 - 09:45",
		"Running: task-aaa",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
