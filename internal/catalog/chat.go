package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mymichlin/discovery/internal/events"
	"github.com/mymichlin/discovery/internal/model"
)

// AddChatMessage appends a message and publishes the full ordered history.
func (c *Catalog) AddChatMessage(ctx context.Context, text string, fromUser bool) (*model.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty chat message", model.ErrValidation)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := &model.ChatMessage{ID: uuid.New().String(), Text: text, FromUser: fromUser, SentAt: c.now().UTC()}
	if err := c.st.Chats().Append(ctx, m); err != nil {
		return nil, wrap("append chat", err)
	}
	history, err := c.st.Chats().List(ctx)
	if err != nil {
		return nil, wrap("list chat", err)
	}
	c.publish(events.Event{Kind: model.KindChat, Change: model.ChangeAdd, Chats: history})
	return m, nil
}

// ChatHistory returns every message in send order.
func (c *Catalog) ChatHistory(ctx context.Context) ([]*model.ChatMessage, error) {
	ms, err := c.st.Chats().List(ctx)
	if err != nil {
		return nil, wrap("list chat", err)
	}
	return ms, nil
}

// ClearChatHistory deletes every message and publishes a remove with an empty list.
func (c *Catalog) ClearChatHistory(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.st.Chats().Clear(ctx); err != nil {
		return wrap("clear chat", err)
	}
	c.publish(events.Event{Kind: model.KindChat, Change: model.ChangeRemove, Chats: []*model.ChatMessage{}})
	return nil
}
