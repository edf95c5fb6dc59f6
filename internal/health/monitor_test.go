package health

import (
	"math"
	"testing"
	"time"
)

func fixedClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestScoreMovesWithOutcomes(t *testing.T) {
	m := NewMonitor([]string{"https://a.test"})

	m.ReportFailure("https://a.test")
	snap := m.Snapshot()[0]
	if math.Abs(snap.Score-0.7) > 1e-9 {
		t.Fatalf("score after one failure = %f, want 0.7", snap.Score)
	}
	if snap.State != StateHealthy {
		t.Fatalf("state = %s, one failure should not degrade a full score", snap.State)
	}

	m.ReportSuccess("https://a.test")
	snap = m.Snapshot()[0]
	if math.Abs(snap.Score-0.79) > 1e-9 {
		t.Fatalf("score after recovery = %f, want 0.79", snap.Score)
	}
	if snap.ConsecutiveFailures != 0 {
		t.Fatal("success should reset the failure streak")
	}
}

func TestCircuitOpensAtThreshold(t *testing.T) {
	m := NewMonitor([]string{"https://a.test", "https://b.test"})

	for i := 0; i < 2; i++ {
		m.ReportFailure("https://a.test")
	}
	if got := m.Snapshot()[0].State; got == StateCircuitOpen {
		t.Fatal("circuit opened before the threshold")
	}

	m.ReportFailure("https://a.test")
	snap := m.Snapshot()[0]
	if snap.State != StateCircuitOpen {
		t.Fatalf("state = %s after three consecutive failures", snap.State)
	}
	if snap.RetryAt.IsZero() {
		t.Fatal("open circuit needs a retry deadline")
	}

	ranked := m.Ranked()
	if len(ranked) != 1 || ranked[0] != "https://b.test" {
		t.Fatalf("ranked = %v, open circuit should be excluded", ranked)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	if got := openBackoff(3); got != 8*time.Second {
		t.Errorf("first open backoff = %s, want 2^3 seconds", got)
	}
	if got := openBackoff(4); got != 16*time.Second {
		t.Errorf("second open backoff = %s, want 2^4 seconds", got)
	}
	if got := openBackoff(20); got != 15*time.Minute {
		t.Errorf("backoff not capped: %s", got)
	}
}

func TestOpenCircuitBecomesProbingAfterDeadline(t *testing.T) {
	now, clock := fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := NewMonitor([]string{"https://a.test"})
	m.now = clock

	for i := 0; i < 3; i++ {
		m.ReportFailure("https://a.test")
	}
	if got := m.Ranked(); len(got) != 0 {
		t.Fatalf("ranked = %v during backoff", got)
	}

	// Three failures put the retry deadline 2^3 seconds out.
	*now = now.Add(9 * time.Second)
	ranked := m.Ranked()
	if len(ranked) != 1 {
		t.Fatal("expired backoff should re-admit the instance for probing")
	}
	if got := m.Snapshot()[0].State; got != StateProbing {
		t.Fatalf("state = %s, want probing", got)
	}

	m.ReportSuccess("https://a.test")
	snap := m.Snapshot()[0]
	if snap.State == StateCircuitOpen || snap.State == StateProbing {
		t.Fatalf("state = %s after successful probe", snap.State)
	}
}

func TestRankedOrdersByScoreThenFailuresThenLRU(t *testing.T) {
	now, clock := fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := NewMonitor([]string{"https://low.test", "https://high.test", "https://mid.test"})
	m.now = clock

	// low: two failures, high: untouched, mid: one failure then success.
	m.ReportFailure("https://low.test")
	m.ReportFailure("https://low.test")
	m.ReportFailure("https://mid.test")
	m.ReportSuccess("https://mid.test")

	ranked := m.Ranked()
	want := []string{"https://high.test", "https://mid.test", "https://low.test"}
	for i := range want {
		if ranked[i] != want[i] {
			t.Fatalf("ranked = %v, want %v", ranked, want)
		}
	}

	// Equal scores fall back to least recently used.
	m2 := NewMonitor([]string{"https://a.test", "https://b.test"})
	m2.now = clock
	m2.MarkUsed("https://a.test")
	*now = now.Add(time.Minute)
	m2.MarkUsed("https://b.test")
	if got := m2.Ranked(); got[0] != "https://a.test" {
		t.Fatalf("ranked = %v, want least recently used first", got)
	}
}

func TestHealthierInstanceTriedBeforeShakyOne(t *testing.T) {
	m := NewMonitor([]string{"https://shaky.test", "https://solid.test"})

	// Drive shaky toward 0.4 and solid toward 0.9 with mixed outcomes.
	for i := 0; i < 5; i++ {
		m.ReportFailure("https://shaky.test")
		m.ReportSuccess("https://shaky.test")
		m.ReportSuccess("https://solid.test")
	}

	ranked := m.Ranked()
	if ranked[0] != "https://solid.test" {
		t.Fatalf("ranked = %v, higher score must come first", ranked)
	}
}

func TestRestoreIgnoresUnknownInstances(t *testing.T) {
	m := NewMonitor([]string{"https://a.test"})
	m.Restore([]Instance{
		{URL: "https://a.test", Score: 0.25, ConsecutiveFailures: 2, State: StateDegraded},
		{URL: "https://removed.test", Score: 0.1, State: StateCircuitOpen},
	})

	snaps := m.Snapshot()
	if len(snaps) != 1 {
		t.Fatalf("snapshot = %+v", snaps)
	}
	if snaps[0].Score != 0.25 || snaps[0].State != StateDegraded {
		t.Fatalf("restored instance = %+v", snaps[0])
	}
}

func TestReportsForUnknownURLAreNoOps(t *testing.T) {
	m := NewMonitor([]string{"https://a.test"})
	m.ReportFailure("https://unknown.test")
	m.ReportSuccess("https://unknown.test")
	if len(m.Snapshot()) != 1 {
		t.Fatal("unknown URLs must not create instances")
	}
}
