package sqlstore

import (
	"context"

	"github.com/mymichlin/discovery/internal/model"
)

type chats struct{ s *sqlStore }

func (c *chats) Append(ctx context.Context, m *model.ChatMessage) error {
	_, err := c.s.db.ExecContext(ctx, c.s.d.rebind(`
        INSERT INTO chat_messages (message_id, text, from_user, sent_at) VALUES (?, ?, ?, ?)
    `), m.ID, m.Text, m.FromUser, toMicros(m.SentAt))
	return err
}

func (c *chats) List(ctx context.Context) ([]*model.ChatMessage, error) {
	rows, err := c.s.db.QueryContext(ctx, `
        SELECT message_id, text, from_user, sent_at FROM chat_messages ORDER BY sent_at ASC, seq ASC
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.ChatMessage
	for rows.Next() {
		var (
			m    model.ChatMessage
			sent int64
		)
		if err := rows.Scan(&m.ID, &m.Text, &m.FromUser, &sent); err != nil {
			return nil, err
		}
		m.SentAt = fromMicros(sent)
		res = append(res, &m)
	}
	return res, rows.Err()
}

func (c *chats) Clear(ctx context.Context) error {
	_, err := c.s.db.ExecContext(ctx, `DELETE FROM chat_messages`)
	return err
}
