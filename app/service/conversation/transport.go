package conversation

import "context"

// Transport delivers bot output to the chat platform.
type Transport interface {
	// Send posts segments in order, one platform message each.
	Send(ctx context.Context, channelID string, segments []string) error
	// StartThread opens a thread on messageID and returns the thread's ID.
	StartThread(ctx context.Context, channelID, messageID, title string) (string, error)
	Typing(ctx context.Context, channelID string) error
}
