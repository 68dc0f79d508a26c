package lending

// DeletionResult represents the outcome of a guarded deletion.
// A refusal is a regular outcome, not an error, so callers can tell "not found" apart from "blocked by policy".
//
// IMPORTANT: DeletionResult should only be constructed with Deleted(), NotDeleted(reason), or Blocked(reason).
type DeletionResult struct {
	Outcome string // "deleted", "not_found", or "blocked"
	Reason  error  // nil for deleted
}

const (
	// OutcomeDeleted means the record was removed.
	OutcomeDeleted = "deleted"
	// OutcomeNotFound means there was nothing to delete.
	OutcomeNotFound = "not_found"
	// OutcomeBlocked means a deletion guard refused the deletion.
	OutcomeBlocked = "blocked"
)

// Deleted creates a DeletionResult for a successful deletion.
func Deleted() DeletionResult {
	return DeletionResult{Outcome: OutcomeDeleted}
}

// NotDeleted creates a DeletionResult for a record that does not exist.
func NotDeleted(reason error) DeletionResult {
	return DeletionResult{Outcome: OutcomeNotFound, Reason: reason}
}

// Blocked creates a DeletionResult for a deletion refused by a guard.
func Blocked(reason error) DeletionResult {
	return DeletionResult{Outcome: OutcomeBlocked, Reason: reason}
}

// WasDeleted returns true if the record was removed.
func (r DeletionResult) WasDeleted() bool {
	return r.Outcome == OutcomeDeleted
}

// IsBlocked returns true if a deletion guard refused the deletion.
func (r DeletionResult) IsBlocked() bool {
	return r.Outcome == OutcomeBlocked
}

// IsNotFound returns true if there was nothing to delete.
func (r DeletionResult) IsNotFound() bool {
	return r.Outcome == OutcomeNotFound
}

// Err returns the reason as an error, or nil if the record was deleted.
func (r DeletionResult) Err() error {
	if r.WasDeleted() {
		return nil
	}

	return r.Reason
}
