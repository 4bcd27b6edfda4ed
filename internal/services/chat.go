package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mymichlin/discovery/internal/catalog"
	"github.com/mymichlin/discovery/internal/genai"
	"github.com/mymichlin/discovery/internal/model"
)

// NoReply is stored when the model returns no text.
const NoReply = "No response from AI."

const assistantPreamble = `You are MyMichlin AI Assistant.
You help users discover and learn about restaurants, cuisines, and dining experiences.
Use the user's preferences to personalize responses.
Be concise and clear: answer in 1-3 sentences maximum.
If the question is unrelated to food or dining, politely redirect them.`

// ChatService runs the assistant conversation.
type ChatService struct {
	cat   *catalog.Catalog
	model genai.Model
	log   zerolog.Logger
}

func NewChatService(cat *catalog.Catalog, m genai.Model, log zerolog.Logger) *ChatService {
	return &ChatService{cat: cat, model: m, log: log}
}

// BuildPrompt personalizes the assistant prompt with the user profile.
func BuildPrompt(u *model.User, text string) string {
	var b strings.Builder
	b.WriteString(assistantPreamble)
	b.WriteString("\n\n")
	if u == nil {
		b.WriteString("User preferences not found.")
	} else {
		name := u.Name
		if name == "" {
			name = "Unknown"
		}
		city := u.City
		if city == "" {
			city = "Unknown"
		}
		cuisines := strings.Join(u.PreferredCuisines, ", ")
		if cuisines == "" {
			cuisines = "Not specified"
		}
		fmt.Fprintf(&b, "User Preferences:\n- Name: %s\n- City: %s, %s\n- Favourite cuisines: %s\n- Price range: %d / 5",
			name, city, u.Country, cuisines, u.PriceTier)
	}
	b.WriteString("\n\nUser: ")
	b.WriteString(text)
	return b.String()
}

// Send stores the user's message, asks the model and stores its reply.
// When the model fails the user's message stays in the history.
func (s *ChatService) Send(ctx context.Context, text string) (*model.ChatMessage, error) {
	if _, err := s.cat.AddChatMessage(ctx, text, true); err != nil {
		return nil, err
	}
	u, err := s.cat.User(ctx)
	if err != nil {
		return nil, err
	}
	reply, err := s.model.GenerateReply(ctx, BuildPrompt(u, text))
	if err != nil {
		s.log.Error().Err(err).Msg("assistant reply failed")
		return nil, fmt.Errorf("assistant: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		reply = NoReply
	}
	return s.cat.AddChatMessage(ctx, reply, false)
}

// History returns the conversation in send order.
func (s *ChatService) History(ctx context.Context) ([]*model.ChatMessage, error) {
	return s.cat.ChatHistory(ctx)
}

// Clear deletes the conversation.
func (s *ChatService) Clear(ctx context.Context) error {
	return s.cat.ClearChatHistory(ctx)
}
