package sheetsyncapp

import (
	"time"

	"github.com/google/uuid"
)

// RunState is the orchestrator's state for one sync run
type RunState string

const (
	RunStateIdle        RunState = "IDLE"
	RunStateLockPending RunState = "LOCK_PENDING"
	RunStateFetching    RunState = "FETCHING"
	RunStateParsing     RunState = "PARSING"
	RunStateWriting     RunState = "WRITING"
	RunStateFinalizing  RunState = "FINALIZING"
	RunStateDone        RunState = "DONE"
	RunStateFailed      RunState = "FAILED"
	RunStateAborted     RunState = "ABORTED"
)

// IsTerminal returns true for the three terminal states
func (s RunState) IsTerminal() bool {
	return s == RunStateDone || s == RunStateFailed || s == RunStateAborted
}

// SyncAccepted is returned when a run was started
type SyncAccepted struct {
	RunID    uuid.UUID `json:"run_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	SourceID uuid.UUID `json:"source_id"`
}

// SyncResult summarizes one completed, failed or aborted run
type SyncResult struct {
	RunID    uuid.UUID `json:"run_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	SourceID uuid.UUID `json:"source_id"`
	State    RunState  `json:"state"`

	TotalRows         int `json:"total_rows"`
	Inserted          int `json:"inserted"`
	Updated           int `json:"updated"`
	SkippedDuplicates int `json:"skipped_duplicates"`

	// Diagnostics: surfaced for operator visibility, never fatal
	UnrecognizedStatusCount int      `json:"unrecognized_status_count"`
	UnrecognizedStatuses    []string `json:"unrecognized_statuses,omitempty"`
	UnmappedColumns         []string `json:"unmapped_columns,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// ErrorCode carries the machine-readable cause on FAILED and ABORTED
	// runs (FETCH_FAILED, SYNC_CANCELLED); Error holds the human text
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ProgressEvent is one milestone on a run's progress stream. Transient:
// broadcast to live subscribers and discarded.
type ProgressEvent struct {
	RunID    uuid.UUID `json:"run_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	SourceID uuid.UUID `json:"source_id"`
	Stage    RunState  `json:"stage"`
	Done     int       `json:"done"`
	Total    int       `json:"total"`
	Message  string    `json:"message"`
	// Completed marks the stream's final event; the topic is torn down
	// right after it is delivered
	Completed bool        `json:"completed"`
	Result    *SyncResult `json:"result,omitempty"`
}
