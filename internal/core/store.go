package core

import (
	"context"
	"errors"

	"hospital-portal/pkg"
)

var (
	// ErrNotFound is returned by stores when the requested record does not
	// exist.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when registering an email that already has
	// an account.
	ErrEmailTaken = errors.New("email is already registered")
)

// ArticleStore persists articles.
type ArticleStore interface {
	ListArticles(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Article], error)
	GetArticle(ctx context.Context, id string) (*pkg.Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*pkg.Article, error)
	CreateArticle(ctx context.Context, a *pkg.Article) error
	UpdateArticle(ctx context.Context, a *pkg.Article) error
	DeleteArticle(ctx context.Context, id string) error
}

// MedicineStore persists the medicine directory.
type MedicineStore interface {
	ListMedicines(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Medicine], error)
	GetMedicine(ctx context.Context, id string) (*pkg.Medicine, error)
	CreateMedicine(ctx context.Context, m *pkg.Medicine) error
	UpdateMedicine(ctx context.Context, m *pkg.Medicine) error
	DeleteMedicine(ctx context.Context, id string) error
}

// ScheduleStore persists doctor schedules.
type ScheduleStore interface {
	ListSchedules(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Schedule], error)
	GetSchedule(ctx context.Context, id string) (*pkg.Schedule, error)
	CreateSchedule(ctx context.Context, s *pkg.Schedule) error
	UpdateSchedule(ctx context.Context, s *pkg.Schedule) error
	DeleteSchedule(ctx context.Context, id string) error
}

// NoteStore persists knowledge-base notes.
type NoteStore interface {
	ListNotes(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Note], error)
	GetNote(ctx context.Context, id string) (*pkg.Note, error)
	CreateNote(ctx context.Context, n *pkg.Note) error
	UpdateNote(ctx context.Context, n *pkg.Note) error
	DeleteNote(ctx context.Context, id string) error
}

// ChatStore persists chat transcripts keyed by the visitor's chat session.
type ChatStore interface {
	CreateMessage(ctx context.Context, sessionID string, role pkg.MessageRole, content string) (*pkg.Message, error)
	GetTranscript(ctx context.Context, sessionID string) ([]pkg.Message, error)
	CountUserMessages(ctx context.Context, sessionID string) (int, error)
}

// Store is the full content store used by the web server.
type Store interface {
	ArticleStore
	MedicineStore
	ScheduleStore
	NoteStore
	ChatStore
	Stats(ctx context.Context) (pkg.DashboardStats, error)
}

// AccountStore persists back-office users.
type AccountStore interface {
	CreateUser(ctx context.Context, u *pkg.User) error
	GetUserByEmail(ctx context.Context, email string) (*pkg.User, error)
	GetUserByID(ctx context.Context, id string) (*pkg.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// ChangeNotifier announces content changes to other processes.
type ChangeNotifier interface {
	Notify(ctx context.Context, entity Entity, id string) error
}

// NopNotifier drops every notification.  It is used when no database
// channel is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Entity, string) error { return nil }
