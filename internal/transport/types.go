package transport

import "context"

// Message is one inbound chat message. It is read-only for consumers.
type Message struct {
	UpdateID int64
	ChatID   int64
	Text     string
}

// Inbox returns pending messages. Implementations do not confirm what they
// return, so a message may be seen again on a later poll.
type Inbox interface {
	Poll(ctx context.Context) ([]Message, error)
}

// Notifier sends a status line to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}
