package model

import "encoding/json"

// ActivityType enumerates audit event kinds emitted by the attempt engine.
type ActivityType string

const (
	ActivityAttemptStarted   ActivityType = "ATTEMPT_STARTED"
	ActivityAttemptResumed   ActivityType = "ATTEMPT_RESUMED"
	ActivityAttemptExpired   ActivityType = "ATTEMPT_EXPIRED"
	ActivityAttemptSubmitted ActivityType = "ATTEMPT_SUBMITTED"
	ActivityAttemptReset     ActivityType = "ATTEMPT_RESET"
	ActivityTimeExtended     ActivityType = "TIME_EXTENDED"
	ActivityStartBlocked     ActivityType = "START_BLOCKED"
)

// ActivityEvent is one fire-and-forget audit record. It is queued to Redis
// and drained to PostgreSQL by a background worker; losing one must never
// block or roll back an attempt operation.
type ActivityEvent struct {
	ExamID    string          `json:"exam_id"`
	StudentID int             `json:"student_id"`
	Type      ActivityType    `json:"type"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Timestamp int64           `json:"timestamp"`
}
