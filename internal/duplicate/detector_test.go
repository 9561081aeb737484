package duplicate

import "testing"

func TestObserveNoConflictOnFirstOccurrence(t *testing.T) {
	d := New()
	conflicts := d.Observe(1, "E1", "a@x.co")
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %+v", conflicts)
	}
}

func TestObserveFlagsEarlierRowOnRepeat(t *testing.T) {
	d := New()
	d.Observe(1, "E5", "e@x.co")
	conflicts := d.Observe(5, "E5", "e2@x.co")

	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d: %+v", len(conflicts), conflicts)
	}
	if conflicts[0].PriorRow != 1 || conflicts[0].Key != "employee_number" {
		t.Errorf("unexpected conflict: %+v", conflicts[0])
	}
}

func TestObserveFlagsBothKeysIndependently(t *testing.T) {
	d := New()
	d.Observe(1, "E1", "a@x.co")
	d.Observe(2, "E2", "a@x.co") // email collides only
	conflicts := d.Observe(3, "E1", "b@x.co") // employee_number collides only

	if len(conflicts) != 1 || conflicts[0].Key != "employee_number" || conflicts[0].PriorRow != 1 {
		t.Errorf("unexpected conflicts: %+v", conflicts)
	}
}

func TestObserveLastWinsTracksMostRecentRow(t *testing.T) {
	d := New()
	d.Observe(1, "E1", "a@x.co")
	d.Observe(5, "E1", "a2@x.co")
	conflicts := d.Observe(9, "E1", "a3@x.co")

	if len(conflicts) != 1 || conflicts[0].PriorRow != 5 {
		t.Errorf("expected conflict against row 5 (most recent), got %+v", conflicts)
	}
}

func TestSeedDoesNotOverwriteNewerRow(t *testing.T) {
	d := New()
	d.Seed(10, "E1", "a@x.co")
	d.Seed(3, "E1", "a@x.co")
	conflicts := d.Observe(20, "E1", "z@x.co")

	if len(conflicts) != 1 || conflicts[0].PriorRow != 10 {
		t.Errorf("expected seed to keep the larger row number, got %+v", conflicts)
	}
}
