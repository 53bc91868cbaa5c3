package stream

import "testing"

func TestBackpressureTransitionsAndAutoResumes(t *testing.T) {
	var changes []BackpressureLevel
	bp := NewBackpressure(4, 1, func(l BackpressureLevel) { changes = append(changes, l) })

	for i := 0; i < 4; i++ {
		bp.Enqueue()
	}
	if bp.Level() != LevelElevated {
		t.Fatalf("Level() = %s, want ELEVATED", bp.Level())
	}

	for i := 0; i < 4; i++ {
		bp.Enqueue()
	}
	if bp.Level() != LevelBlocked {
		t.Fatalf("Level() = %s, want BLOCKED", bp.Level())
	}

	for i := 0; i < 7; i++ {
		bp.Dequeue()
	}
	if bp.Level() != LevelNormal {
		t.Fatalf("Level() = %s, want NORMAL after draining below low watermark, pending=%d", bp.Level(), bp.Pending())
	}

	if len(changes) == 0 {
		t.Fatal("expected onChange to fire on level transitions")
	}
	if changes[len(changes)-1] != LevelNormal {
		t.Fatalf("last recorded transition = %s, want NORMAL", changes[len(changes)-1])
	}
}

func TestBackpressureDequeueNeverGoesNegative(t *testing.T) {
	bp := NewBackpressure(4, 1, nil)
	bp.Dequeue()
	if bp.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", bp.Pending())
	}
}

func TestBackpressureLevelStringValues(t *testing.T) {
	cases := map[BackpressureLevel]string{
		LevelNormal:   "NORMAL",
		LevelElevated: "ELEVATED",
		LevelBlocked:  "BLOCKED",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Fatalf("%v.String() = %s, want %s", level, got, want)
		}
	}
}
