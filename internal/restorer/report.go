package restorer

import "github.com/worldsnap/worldsnap/internal/world"

// Outcome classifies what happened to one chunk during a restore.
type Outcome uint8

const (
	// OutcomeRestored means the chunk was decoded and its blocks were written
	// to the target.
	OutcomeRestored Outcome = iota + 1

	// OutcomeMissing means the snapshot does not contain the chunk.
	OutcomeMissing

	// OutcomeFailed means fetching, decoding or writing the chunk failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRestored:
		return "restored"
	case OutcomeMissing:
		return "missing"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Report summarizes one restore run. Every enumerated chunk coordinate is
// counted in exactly one of the three outcome groups. A report is immutable
// once Restore has returned it.
type Report struct {
	restored int
	missing  []world.ChunkPos
	failed   []world.ChunkPos
	lastErr  error
}

// RestoredCount returns the number of chunks fully written to the target.
func (r *Report) RestoredCount() int {
	return r.restored
}

// MissingCount returns the number of chunks absent from the snapshot.
func (r *Report) MissingCount() int {
	return len(r.missing)
}

// ErrorCount returns the number of chunks that failed to fetch, decode or
// write.
func (r *Report) ErrorCount() int {
	return len(r.failed)
}

// AttemptedCount returns the number of chunks processed.
func (r *Report) AttemptedCount() int {
	return r.restored + len(r.missing) + len(r.failed)
}

// Missing returns the coordinates of chunks absent from the snapshot, in
// enumeration order. The returned slice must not be modified.
func (r *Report) Missing() []world.ChunkPos {
	return r.missing
}

// Failed returns the coordinates of chunks that failed, in enumeration order.
// The returned slice must not be modified.
func (r *Report) Failed() []world.ChunkPos {
	return r.failed
}

// LastError returns the most recent per-chunk failure, or nil.
func (r *Report) LastError() error {
	return r.lastErr
}

// LastErrorMessage returns the message of the most recent per-chunk failure,
// or the empty string.
func (r *Report) LastErrorMessage() string {
	if r.lastErr == nil {
		return ""
	}
	return r.lastErr.Error()
}

// TotalFailure reports whether chunks were attempted but none could be
// restored.
func (r *Report) TotalFailure() bool {
	return r.restored == 0 && r.AttemptedCount() > 0
}

func (r *Report) recordRestored(world.ChunkPos) {
	r.restored++
}

func (r *Report) recordMissing(pos world.ChunkPos) {
	r.missing = append(r.missing, pos)
}

func (r *Report) recordFailed(pos world.ChunkPos, err error) {
	r.failed = append(r.failed, pos)
	r.lastErr = err
}
