package middleware

import (
	"context"
	"regexp"

	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/ports"
)

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks pattern matches in
// conversation content before persisting. Masking is one-way: the
// in-memory session is untouched, the stored copy is redacted.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) SaveSession(ctx context.Context, session domain.Session) error {
	// Clone so the session used by the engine keeps its original text.
	cloned := session.Clone()
	for i := range cloned.Conversation {
		cloned.Conversation[i].Content = mask(cloned.Conversation[i].Content, m.patterns)
	}
	cloned.UserID = mask(cloned.UserID, m.patterns)

	return m.next.SaveSession(ctx, cloned)
}

func (m *piiMiddleware) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return m.next.GetSession(ctx, sessionID)
}

func (m *piiMiddleware) DeleteSession(ctx context.Context, sessionID string) error {
	return m.next.DeleteSession(ctx, sessionID)
}

func (m *piiMiddleware) ListSessions(ctx context.Context) ([]string, error) {
	return m.next.ListSessions(ctx)
}

func mask(s string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		s = p.ReplaceAllString(s, "***")
	}
	return s
}
