package message

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campus-relay/internal/store"
)

var (
	ErrEmptyContent = errors.New("message content is empty")
	ErrTooLong      = errors.New("message content exceeds the maximum length")
	ErrNotMember    = errors.New("sender is not a member of the channel")
)

// Router owns the write and load paths for chat messages. It deliberately
// touches no read-side state: keeping the in-memory timeline current is
// the sync engine's job.
type Router struct {
	messages store.MessageStore
	maxLen   int
}

func NewRouter(messages store.MessageStore, maxLen int) *Router {
	return &Router{messages: messages, maxLen: maxLen}
}

// Send validates, persists and returns the message. For a direct channel
// the sender must be one of the pair; the recipient is the other member.
func (r *Router) Send(ctx context.Context, senderID string, ch Channel, content string) (store.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return store.Message{}, ErrEmptyContent
	}
	if r.maxLen > 0 && len(content) > r.maxLen {
		return store.Message{}, ErrTooLong
	}

	m := store.Message{SenderID: senderID, Content: content}
	if !ch.IsBroadcast() {
		a, b := ch.Members()
		var recipient string
		switch senderID {
		case a:
			recipient = b
		case b:
			recipient = a
		default:
			return store.Message{}, ErrNotMember
		}
		m.RecipientID = &recipient
	}

	if err := r.messages.InsertMessage(ctx, &m); err != nil {
		return store.Message{}, fmt.Errorf("send message: %w", err)
	}
	return m, nil
}

// Load fetches the channel's full timeline, ordered ascending by creation
// time.
func (r *Router) Load(ctx context.Context, ch Channel) ([]store.Message, error) {
	if ch.IsBroadcast() {
		return r.messages.BroadcastMessages(ctx)
	}
	a, b := ch.Members()
	return r.messages.MessagesBetween(ctx, a, b)
}
