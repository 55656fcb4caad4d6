package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func seedArticles(t *testing.T, s *Store) {
	t.Helper()
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i, title := range []string{"Flu season", "Blood drive", "New cardiology wing"} {
		a := &pkg.Article{
			ID:        []string{"a1", "a2", "a3"}[i],
			Title:     title,
			Slug:      core.Slugify(title),
			Category:  "news",
			Body:      "body of " + title,
			Published: i != 1,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, s.CreateArticle(context.Background(), a))
	}
}

func titles(items []pkg.Article) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.Title)
	}
	return out
}

func TestListArticlesSortSearchVisible(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedArticles(t, s)

	page, err := s.ListArticles(ctx, pkg.ListQuery{Sort: "newest", Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"New cardiology wing", "Blood drive", "Flu season"}, titles(page.Items))

	page, err = s.ListArticles(ctx, pkg.ListQuery{Sort: "oldest", Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Flu season", "Blood drive", "New cardiology wing"}, titles(page.Items))

	page, err = s.ListArticles(ctx, pkg.ListQuery{Sort: "title", Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Blood drive", "Flu season", "New cardiology wing"}, titles(page.Items))

	page, err = s.ListArticles(ctx, pkg.ListQuery{Search: "CARDIO", Sort: "newest", Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"New cardiology wing"}, titles(page.Items))

	page, err = s.ListArticles(ctx, pkg.ListQuery{Sort: "newest", Page: 1, OnlyVisible: true})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.NotContains(t, titles(page.Items), "Blood drive")
}

func TestListArticlesPagination(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedArticles(t, s)

	page, err := s.ListArticles(ctx, pkg.ListQuery{Sort: "oldest", Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{"New cardiology wing"}, titles(page.Items))
	assert.True(t, page.HasPrev())
	assert.False(t, page.HasNext())

	page, err = s.ListArticles(ctx, pkg.ListQuery{Sort: "oldest", Page: 9, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestArticleCRUD(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedArticles(t, s)

	a, err := s.GetArticleBySlug(ctx, "flu-season")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)

	a.Title = "Flu season 2026"
	require.NoError(t, s.UpdateArticle(ctx, a))
	got, err := s.GetArticle(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Flu season 2026", got.Title)

	got.Title = "mutated copy"
	again, err := s.GetArticle(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Flu season 2026", again.Title, "returned records are copies")

	assert.ErrorIs(t, s.UpdateArticle(ctx, &pkg.Article{ID: "missing", Slug: "x"}), core.ErrNotFound)
	require.NoError(t, s.DeleteArticle(ctx, "a1"))
	_, err = s.GetArticle(ctx, "a1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteArticle(ctx, "a1"), core.ErrNotFound)
}

func TestSchedulesSortByDay(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for i, sc := range []pkg.Schedule{
		{ID: "s1", DoctorName: "Dr. Yu", Day: "friday", StartTime: "09:00"},
		{ID: "s2", DoctorName: "Dr. Abel", Day: "monday", StartTime: "13:00"},
		{ID: "s3", DoctorName: "Dr. Moss", Day: "monday", StartTime: "08:00", Available: true},
	} {
		sc.CreatedAt = time.Unix(int64(i), 0)
		require.NoError(t, s.CreateSchedule(ctx, &sc))
	}

	page, err := s.ListSchedules(ctx, pkg.ListQuery{Sort: "day", Page: 1})
	require.NoError(t, err)
	var ids []string
	for _, sc := range page.Items {
		ids = append(ids, sc.ID)
	}
	assert.Equal(t, []string{"s3", "s2", "s1"}, ids)

	page, err = s.ListSchedules(ctx, pkg.ListQuery{Sort: "doctor", Page: 1, OnlyVisible: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "s3", page.Items[0].ID)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	u := &pkg.User{ID: "u1", Name: "Ann", Email: "ann@example.org", Role: pkg.RoleAdmin}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.ErrorIs(t, s.CreateUser(ctx, &pkg.User{ID: "u2", Email: "ANN@example.org"}), core.ErrEmailTaken)

	got, err := s.GetUserByEmail(ctx, "Ann@Example.org")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	_, err = s.GetUserByID(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTranscript(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, m := range []struct {
		role    pkg.MessageRole
		content string
	}{{pkg.RoleUser, "hi"}, {pkg.RoleBot, "hello"}, {pkg.RoleUser, "hours?"}} {
		_, err := s.CreateMessage(ctx, "sess-1", m.role, m.content)
		require.NoError(t, err)
	}
	_, err := s.CreateMessage(ctx, "sess-2", pkg.RoleUser, "other")
	require.NoError(t, err)

	tr, err := s.GetTranscript(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, tr, 3)
	assert.Equal(t, "hi", tr[0].Content)
	assert.Equal(t, "hours?", tr[2].Content)

	n, err := s.CountUserMessages(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedArticles(t, s)
	require.NoError(t, s.CreateNote(ctx, &pkg.Note{ID: "n1", Title: "Visiting hours"}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, pkg.DashboardStats{Articles: 3, Published: 2, Notes: 1}, st)
}
