// Package duplicate implements the in-file, last-wins duplicate resolution
// described in §4.6. A Detector's state spans the whole file -- including
// across chunk boundaries -- and is reset per job.
package duplicate

// Conflict describes one prior row that must now be marked duplicate
// because a later row in the file claims the same key.
type Conflict struct {
	PriorRow int
	Key      string // "employee_number" or "email"
}

// Detector tracks the last row number that claimed each employee_number
// and each email seen so far in one job's file.
type Detector struct {
	byEmployeeNumber map[string]int
	byEmail          map[string]int
}

// New returns a Detector with empty state, as required at the start of
// every job (and after an integrity-check reset, §4.8).
func New() *Detector {
	return &Detector{
		byEmployeeNumber: make(map[string]int),
		byEmail:          make(map[string]int),
	}
}

// Observe records row `k` with keys (employeeNumber, email) and returns
// every prior row that must be retroactively marked duplicate, per the
// last-wins policy in §4.6. employeeNumber/email should already be
// normalized (email lowercased) by the caller.
func (d *Detector) Observe(k int, employeeNumber, email string) []Conflict {
	var conflicts []Conflict

	if employeeNumber != "" {
		if prior, ok := d.byEmployeeNumber[employeeNumber]; ok && prior < k {
			conflicts = append(conflicts, Conflict{PriorRow: prior, Key: "employee_number"})
		}
		d.byEmployeeNumber[employeeNumber] = k
	}

	if email != "" {
		if prior, ok := d.byEmail[email]; ok && prior < k {
			conflicts = append(conflicts, Conflict{PriorRow: prior, Key: "email"})
		}
		d.byEmail[email] = k
	}

	return conflicts
}

// Seed primes the detector's state from ledger entries already committed
// in a previous attempt, so a resumed job's duplicate detection still sees
// rows before the checkpoint (see DESIGN.md Open Question on detector
// state across resumes).
func (d *Detector) Seed(row int, employeeNumber, email string) {
	if employeeNumber != "" {
		if prior, ok := d.byEmployeeNumber[employeeNumber]; !ok || prior < row {
			d.byEmployeeNumber[employeeNumber] = row
		}
	}
	if email != "" {
		if prior, ok := d.byEmail[email]; !ok || prior < row {
			d.byEmail[email] = row
		}
	}
}
