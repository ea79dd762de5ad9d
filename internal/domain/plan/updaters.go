package plan

import "time"

// StartSubtask transitions st to IN_PROGRESS, stamps started_at, and
// clears any stale completion fields from a prior attempt. The caller is
// responsible for persisting the owning Task afterward.
func StartSubtask(st *Subtask, now time.Time) {
	st.Status = SubtaskInProgress
	st.StartedAt = &now
	st.CompletedAt = nil
	st.ErrorMessage = ""
	st.Result = ""
	st.UpdatedAt = now
}

// CompleteSubtask transitions st to COMPLETED, stamps completed_at, and
// clears any stale error from a prior attempt.
func CompleteSubtask(st *Subtask, result string, now time.Time) {
	st.Status = SubtaskCompleted
	st.Result = result
	st.ErrorMessage = ""
	st.CompletedAt = &now
	st.UpdatedAt = now
}

// FailSubtask transitions st to FAILED, stamps completed_at, and records
// the error message.
func FailSubtask(st *Subtask, errMsg string, now time.Time) {
	st.Status = SubtaskFailed
	st.ErrorMessage = errMsg
	st.CompletedAt = &now
	st.UpdatedAt = now
}

// BlockSubtask marks st BLOCKED without touching started_at/completed_at.
func BlockSubtask(st *Subtask, now time.Time) {
	st.Status = SubtaskBlocked
	st.UpdatedAt = now
}

// ReadyForValidation marks st as awaiting a human validation pass.
func ReadyForValidation(st *Subtask, now time.Time) {
	st.Status = SubtaskReadyForValidation
	st.UpdatedAt = now
}

// CancelSubtask marks st CANCELLED.
func CancelSubtask(st *Subtask, now time.Time) {
	st.Status = SubtaskCancelled
	st.UpdatedAt = now
}
