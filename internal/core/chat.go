package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"hospital-portal/internal/llm"
	"hospital-portal/pkg"
)

// ChatService produces the assistant's replies for the website chat.  Each
// reply is generated from the system prompt, a few matching knowledge-base
// notes, the tail of the stored transcript and the new message.
type ChatService struct {
	LLM   llm.Client
	Notes NoteStore
	Log   *logrus.Logger
	// HistoryTurns limits how many stored messages are replayed.
	HistoryTurns int
	// MaxNotes limits how many knowledge-base notes are attached.
	MaxNotes int
}

// NewChatService constructs a ChatService with default limits.
func NewChatService(client llm.Client, notes NoteStore, log *logrus.Logger) *ChatService {
	return &ChatService{LLM: client, Notes: notes, Log: log, HistoryTurns: 10, MaxNotes: 3}
}

// Reply asks the model to answer message.  history is the session
// transcript before message, oldest first.  Model errors are returned as is
// so the caller can decide what the visitor sees.
func (s *ChatService) Reply(ctx context.Context, history []pkg.Message, message string) (string, error) {
	system := SystemPrompt
	if notes := s.relevantNotes(ctx, message); len(notes) > 0 {
		var b strings.Builder
		b.WriteString(SystemPrompt)
		b.WriteString("\n\n")
		b.WriteString(KnowledgeHeader)
		for _, n := range notes {
			fmt.Fprintf(&b, "\n- %s: %s", n.Title, n.Content)
		}
		system = b.String()
	}

	if s.HistoryTurns > 0 && len(history) > s.HistoryTurns {
		history = history[len(history)-s.HistoryTurns:]
	}
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == pkg.RoleBot {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	reply, err := s.LLM.Chat(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("chat reply: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("chat reply: %w", llm.ErrEmptyReply)
	}
	return reply, nil
}

// relevantNotes looks up notes matching the longer words of message.  Lookup
// failures only cost context, so they are logged and skipped.
func (s *ChatService) relevantNotes(ctx context.Context, message string) []pkg.Note {
	if s.Notes == nil || s.MaxNotes <= 0 {
		return nil
	}
	seen := map[string]bool{}
	var out []pkg.Note
	for _, word := range keywords(message) {
		page, err := s.Notes.ListNotes(ctx, pkg.ListQuery{Search: word, Sort: DefaultSort, Page: 1, PerPage: s.MaxNotes})
		if err != nil {
			if s.Log != nil {
				s.Log.WithError(err).WithField("keyword", word).Warn("knowledge lookup failed")
			}
			continue
		}
		for _, n := range page.Items {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			out = append(out, n)
			if len(out) == s.MaxNotes {
				return out
			}
		}
	}
	return out
}

// keywords returns the distinct words of at least four letters.
func keywords(message string) []string {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !(r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r > 127)
	})
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 4 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
