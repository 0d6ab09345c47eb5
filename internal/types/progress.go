package types

// ProgressTracker reports progress of a long-running batch.
type ProgressTracker interface {
	Increment(message string)
	SetTotal(total int)
	Complete()
	Fail(err error)
}
