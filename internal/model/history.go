package model

import "time"

// AttachmentKind distinguishes the two attachment renderings.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment is a reference to supporting material captured at completion
// time. The URL may point anywhere; nothing is fetched or stored locally.
type Attachment struct {
	Name string         `json:"name"`
	URL  string         `json:"url"`
	Kind AttachmentKind `json:"kind"`
}

// HistoryEntry is an immutable record of one completed execution of a task.
// Task fields are denormalized at completion time so the record survives
// later task edits or deletion.
type HistoryEntry struct {
	ID string `json:"id"`

	// TaskID is a back-reference, not an ownership relation: the task may
	// be deleted later without cascading into history.
	TaskID string `json:"task_id"`

	TaskTitle string `json:"task_title"`
	Category  string `json:"category"`
	Location  string `json:"location"`

	CompletedAt     time.Time    `json:"completed_at"`
	ExecutedBy      string       `json:"executed_by"`
	WorkDescription string       `json:"work_description"`
	Attachments     []Attachment `json:"attachments"`

	DocumentationLink string `json:"documentation_link,omitempty"`
}
