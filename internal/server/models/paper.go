package models

import "time"

// Paper processing statuses. Transitions are monotonic:
// pending -> processing -> completed | failed, driven by the external worker.
const (
	PaperStatusPending    = "pending"
	PaperStatusProcessing = "processing"
	PaperStatusCompleted  = "completed"
	PaperStatusFailed     = "failed"
)

// Paper is an uploaded document and the state of its summarization.
// The PDF itself lives in object storage under FileKey; SummaryKey and
// StructuredKey are set by the worker once artifacts exist.
type Paper struct {
	ID            string
	UserID        string
	Title         string
	FileKey       string
	Status        string
	SummaryKey    string
	StructuredKey string
	ErrorMessage  string
	UploadedAt    time.Time
	UpdatedAt     time.Time
}

// ValidStatusTransition reports whether moving from to next is allowed.
func ValidStatusTransition(from, next string) bool {
	switch from {
	case PaperStatusPending:
		return next == PaperStatusProcessing || next == PaperStatusCompleted || next == PaperStatusFailed
	case PaperStatusProcessing:
		return next == PaperStatusCompleted || next == PaperStatusFailed
	default:
		return false
	}
}
