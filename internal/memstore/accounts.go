package memstore

import (
	"context"
	"sort"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

// CreateUser implements core.AccountStore.
func (s *Store) CreateUser(ctx context.Context, u *pkg.User) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	existing, err := txn.First(tableUsers, indexEmail, u.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return core.ErrEmailTaken
	}
	cp := *u
	if err := txn.Insert(tableUsers, &cp); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*pkg.User, error) {
	raw, err := s.first(tableUsers, indexEmail, email)
	if err != nil {
		return nil, err
	}
	u := *raw.(*pkg.User)
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*pkg.User, error) {
	raw, err := s.first(tableUsers, indexID, id)
	if err != nil {
		return nil, err
	}
	u := *raw.(*pkg.User)
	return &u, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	users, err := all[pkg.User](s, tableUsers, nil)
	return len(users), err
}

// CreateMessage implements core.ChatStore.
func (s *Store) CreateMessage(ctx context.Context, sessionID string, role pkg.MessageRole, content string) (*pkg.Message, error) {
	m := &pkg.Message{
		ID:        s.nextMessageID(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	cp := *m
	if err := s.insert(tableMessages, &cp); err != nil {
		return nil, err
	}
	return m, nil
}

// GetTranscript returns the session's messages in insertion order.
func (s *Store) GetTranscript(ctx context.Context, sessionID string) ([]pkg.Message, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableMessages, indexSession, sessionID)
	if err != nil {
		return nil, err
	}
	var out []pkg.Message
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*pkg.Message))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountUserMessages(ctx context.Context, sessionID string) (int, error) {
	transcript, err := s.GetTranscript(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range transcript {
		if m.Role == pkg.RoleUser {
			n++
		}
	}
	return n, nil
}
