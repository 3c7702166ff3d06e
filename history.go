package counsel

import "context"

// HistoryStore is the conversation persistence boundary. FetchHistory
// returns the authoritative ordered message list including persisted ids;
// it is safe to call repeatedly. The Controller never calls it while an
// exchange is mid-stream, so persisted data cannot clobber in-flight
// streamed content.
type HistoryStore interface {
	FetchHistory(ctx context.Context, sessionID string) (History, error)
	UpdateTitle(ctx context.Context, sessionID, title string) error
	DeleteMessage(ctx context.Context, messageID string) error
	DeleteSession(ctx context.Context, sessionID string) error
}
