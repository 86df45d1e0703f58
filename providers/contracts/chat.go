package contracts

import "context"

// IChatClient is the conversational AI boundary. Implementations own their
// conversation history; SendMessage appends the user turn, obtains the
// assistant reply and returns it. imagePath may be empty.
type IChatClient interface {
	SendMessage(ctx context.Context, text string, imagePath string) (string, error)
	ThreadID() string
	ResetConversation()
}
