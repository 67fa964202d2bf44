package domain

// JobStatus tracks a job through its lifecycle. Transitions are strictly
// Pending -> Running -> one of the terminal states.
type JobStatus string

const (
	// StatusPending means the job is queued but no worker has picked it up.
	StatusPending JobStatus = "pending"

	// StatusRunning means a worker is processing the job.
	StatusRunning JobStatus = "running"

	// StatusSucceeded means the job produced at least one transcript.
	StatusSucceeded JobStatus = "succeeded"

	// StatusSkipped means every target artifact already existed, so no
	// subtitle download or transcription was performed.
	StatusSkipped JobStatus = "skipped"

	// StatusFailed means the job terminated with a classified failure.
	StatusFailed JobStatus = "failed"
)

// String returns the string representation of the status.
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s JobStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusSkipped || s == StatusFailed
}
