package core

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"hospital-portal/internal/llm"
)

// ExcerptLength is the length of an excerpt cut from the article body.
const ExcerptLength = 200

// Summarizer fills in missing article excerpts.
type Summarizer struct {
	LLM llm.Client
	Log *logrus.Logger
}

// NewSummarizer constructs a summariser.  A nil client makes every excerpt
// a plain cut of the body.
func NewSummarizer(client llm.Client, log *logrus.Logger) *Summarizer {
	return &Summarizer{LLM: client, Log: log}
}

// Excerpt returns a teaser for body.  When the model is unavailable or
// fails, the first ExcerptLength characters of the body are used.
func (s *Summarizer) Excerpt(ctx context.Context, body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if s.LLM != nil {
		resp, err := s.LLM.Summarize(ctx, ExcerptInstruction, body)
		if err == nil && strings.TrimSpace(resp) != "" {
			return Truncate(strings.TrimSpace(resp), 500)
		}
		if err != nil && s.Log != nil {
			s.Log.WithError(err).Warn("excerpt generation failed, cutting body")
		}
	}
	return Truncate(body, ExcerptLength)
}

// Truncate shortens s to at most n runes, ending on a word boundary with an
// ellipsis when something was cut.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)[:n]
	cut := string(r)
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
