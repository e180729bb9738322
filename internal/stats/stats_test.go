package stats

import (
	"errors"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestOps(window time.Duration) (*Ops, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	o := NewOps(window)
	o.now = c.now
	return o, c
}

func TestSnapshotPercentiles(t *testing.T) {
	ops, _ := newTestOps(time.Hour)
	for _, us := range []int64{300, 100, 500, 200, 400} {
		ops.Record("delete", time.Duration(us)*time.Microsecond, nil)
	}

	snap, ok := ops.Snapshot()["delete"]
	if !ok {
		t.Fatal("expected delete stats")
	}
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinUs != 100 || snap.MaxUs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinUs, snap.MaxUs)
	}
	if snap.AvgUs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgUs)
	}
	if snap.P50Us != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Us)
	}
	if snap.P95Us != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Us)
	}
	if snap.P99Us != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Us)
	}
}

func TestSnapshotSeparatesKinds(t *testing.T) {
	ops, _ := newTestOps(time.Hour)
	ops.Record("delete", time.Millisecond, nil)
	ops.Record("insert_main", 2*time.Millisecond, errors.New("boom"))
	ops.Record("insert_main", 4*time.Millisecond, nil)

	snap := ops.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 kinds, got %d", len(snap))
	}
	ins := snap["insert_main"]
	if ins.Count != 2 || ins.Errors != 1 {
		t.Fatalf("expected count=2 errors=1, got count=%d errors=%d", ins.Count, ins.Errors)
	}
	if ins.AvgUs != 3000 {
		t.Fatalf("expected avg=3000, got %f", ins.AvgUs)
	}
	if snap["delete"].Errors != 0 {
		t.Fatalf("expected no delete errors, got %d", snap["delete"].Errors)
	}
}

func TestSnapshotPrunesExpiredSamples(t *testing.T) {
	ops, c := newTestOps(10 * time.Second)
	ops.Record("replace_body", 100*time.Microsecond, nil)
	c.t = c.t.Add(25 * time.Second)

	if snap := ops.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected no kinds after prune, got %d", len(snap))
	}

	ops.Record("replace_body", 200*time.Microsecond, nil)
	snap := ops.Snapshot()["replace_body"]
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinUs != 200 || snap.MaxUs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinUs, snap.MaxUs)
	}
}

func TestRecordClampsNegativeDuration(t *testing.T) {
	ops, _ := newTestOps(time.Hour)
	ops.Record("set_status", -10*time.Millisecond, nil)
	snap := ops.Snapshot()["set_status"]
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinUs != 0 || snap.MaxUs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinUs, snap.MaxUs)
	}
}

func TestTimeRecordsOutcome(t *testing.T) {
	ops, c := newTestOps(time.Hour)
	want := errors.New("failed")
	err := ops.Time("delete", func() error {
		c.t = c.t.Add(3 * time.Millisecond)
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected the callback error back, got %v", err)
	}
	snap := ops.Snapshot()["delete"]
	if snap.Count != 1 || snap.Errors != 1 || snap.MaxUs != 3000 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
