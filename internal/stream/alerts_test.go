package stream

import "testing"

func TestEmitRecordsHistory(t *testing.T) {
	am := NewAlertManager(10, nil)
	am.Emit(SeverityWarning, "backpressure", "queue elevated")
	am.Emit(SeverityCritical, "circuit-breaker", "breaker tripped")

	recent := am.RecentAlerts(0)
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	// Newest first.
	if recent[0].Kind != "circuit-breaker" {
		t.Fatalf("recent[0].Kind = %s, want circuit-breaker", recent[0].Kind)
	}
	if recent[1].Kind != "backpressure" {
		t.Fatalf("recent[1].Kind = %s, want backpressure", recent[1].Kind)
	}
}

func TestHistoryCapsAtMaxHistory(t *testing.T) {
	am := NewAlertManager(2, nil)
	am.Emit(SeverityInfo, "a", "1")
	am.Emit(SeverityInfo, "b", "2")
	am.Emit(SeverityInfo, "c", "3")

	recent := am.RecentAlerts(0)
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if recent[0].Kind != "c" || recent[1].Kind != "b" {
		t.Fatalf("recent = %+v, want [c, b]", recent)
	}
}

func TestRecentAlertsLimit(t *testing.T) {
	am := NewAlertManager(10, nil)
	for _, kind := range []string{"a", "b", "c"} {
		am.Emit(SeverityInfo, kind, kind)
	}
	recent := am.RecentAlerts(1)
	if len(recent) != 1 {
		t.Fatalf("len(recent) = %d, want 1", len(recent))
	}
	if recent[0].Kind != "c" {
		t.Fatalf("recent[0].Kind = %s, want c", recent[0].Kind)
	}
}

func TestEmitBroadcastsToHub(t *testing.T) {
	hub := NewHub()
	am := NewAlertManager(10, hub)
	am.Emit(SeverityWarning, "backpressure", "queue elevated")

	select {
	case payload := <-hub.broadcast:
		if len(payload) == 0 {
			t.Fatal("expected a non-empty broadcast payload")
		}
	default:
		t.Fatal("expected Emit to queue a broadcast on the hub")
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	if severityRank[SeverityInfo] >= severityRank[SeverityWarning] {
		t.Fatal("info must rank below warning")
	}
	if severityRank[SeverityWarning] >= severityRank[SeverityCritical] {
		t.Fatal("warning must rank below critical")
	}
}
