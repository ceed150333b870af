package model

type AttachmentKind string

const (
	AttachmentImage = AttachmentKind("image")
	AttachmentVideo = AttachmentKind("video")
	AttachmentText  = AttachmentKind("text")
)

// Attachment is a staged upload, alive between file selection and send.
// Image/video attachments carry MIMEType+Data; text attachments carry
// FileName+Content.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	MIMEType string         `json:"mimeType,omitempty"`
	Data     []byte         `json:"data,omitempty"`
	FileName string         `json:"fileName,omitempty"`
	Content  string         `json:"content,omitempty"`
}
