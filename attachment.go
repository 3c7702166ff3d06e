package counsel

import "context"

// Attachment is a document pending upload alongside a submission.
type Attachment struct {
	Name string
	Data []byte
}

// AttachmentUploader uploads pending attachments before an exchange
// opens. A failed upload aborts the submission entirely; no connection is
// opened and no partial exchange occurs.
type AttachmentUploader interface {
	Upload(ctx context.Context, sessionID string, att Attachment) error
}
