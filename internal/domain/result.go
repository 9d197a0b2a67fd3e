package domain

// ApplyResult reports whether a mutation addressed by id touched a row.
// Mutations against a missing user or alert are successful no-ops; callers
// that care about absence inspect the result instead of an error.
type ApplyResult string

const (
	// ResultApplied means the target row existed and was updated or deleted.
	ResultApplied ApplyResult = "applied"
	// ResultNotFound means no row matched the target id; nothing changed.
	ResultNotFound ApplyResult = "not_found"
)

// Applied reports whether the mutation changed a row.
func (r ApplyResult) Applied() bool {
	return r == ResultApplied
}

// ApplyResultFromRows converts a rows-affected count into an ApplyResult.
func ApplyResultFromRows(n int64) ApplyResult {
	if n > 0 {
		return ResultApplied
	}
	return ResultNotFound
}
