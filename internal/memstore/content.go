package memstore

import (
	"context"
	"strings"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

// ListArticles implements core.ArticleStore.
func (s *Store) ListArticles(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Article], error) {
	rows, err := all(s, tableArticles, func(a *pkg.Article) bool {
		if q.OnlyVisible && !a.Published {
			return false
		}
		return core.Matches(q.Search, a.Title, a.Category, a.Excerpt, a.Body)
	})
	if err != nil {
		return pkg.Page[pkg.Article]{}, err
	}
	return paginate(rows, q, func(a, b *pkg.Article) bool {
		if q.Sort == "title" {
			if at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title); at != bt {
				return at < bt
			}
		}
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID, q.Sort == "oldest")
	}), nil
}

func (s *Store) GetArticle(ctx context.Context, id string) (*pkg.Article, error) {
	raw, err := s.first(tableArticles, indexID, id)
	if err != nil {
		return nil, err
	}
	a := *raw.(*pkg.Article)
	return &a, nil
}

func (s *Store) GetArticleBySlug(ctx context.Context, slug string) (*pkg.Article, error) {
	raw, err := s.first(tableArticles, indexSlug, slug)
	if err != nil {
		return nil, err
	}
	a := *raw.(*pkg.Article)
	return &a, nil
}

func (s *Store) CreateArticle(ctx context.Context, a *pkg.Article) error {
	cp := *a
	return s.insert(tableArticles, &cp)
}

func (s *Store) UpdateArticle(ctx context.Context, a *pkg.Article) error {
	cp := *a
	return s.replace(tableArticles, a.ID, &cp)
}

func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	return s.delete(tableArticles, id)
}

// ListMedicines implements core.MedicineStore.
func (s *Store) ListMedicines(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Medicine], error) {
	rows, err := all(s, tableMedicines, func(m *pkg.Medicine) bool {
		if q.OnlyVisible && !m.Available {
			return false
		}
		return core.Matches(q.Search, m.Name, m.Category, m.Description)
	})
	if err != nil {
		return pkg.Page[pkg.Medicine]{}, err
	}
	return paginate(rows, q, func(a, b *pkg.Medicine) bool {
		if q.Sort == "name" {
			if an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name); an != bn {
				return an < bn
			}
		}
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID, q.Sort == "oldest")
	}), nil
}

func (s *Store) GetMedicine(ctx context.Context, id string) (*pkg.Medicine, error) {
	raw, err := s.first(tableMedicines, indexID, id)
	if err != nil {
		return nil, err
	}
	m := *raw.(*pkg.Medicine)
	return &m, nil
}

func (s *Store) CreateMedicine(ctx context.Context, m *pkg.Medicine) error {
	cp := *m
	return s.insert(tableMedicines, &cp)
}

func (s *Store) UpdateMedicine(ctx context.Context, m *pkg.Medicine) error {
	cp := *m
	return s.replace(tableMedicines, m.ID, &cp)
}

func (s *Store) DeleteMedicine(ctx context.Context, id string) error {
	return s.delete(tableMedicines, id)
}

// ListSchedules implements core.ScheduleStore.
func (s *Store) ListSchedules(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Schedule], error) {
	rows, err := all(s, tableSchedules, func(sc *pkg.Schedule) bool {
		if q.OnlyVisible && !sc.Available {
			return false
		}
		return core.Matches(q.Search, sc.DoctorName, sc.Specialty, sc.Day, sc.Room)
	})
	if err != nil {
		return pkg.Page[pkg.Schedule]{}, err
	}
	return paginate(rows, q, func(a, b *pkg.Schedule) bool {
		switch q.Sort {
		case "doctor":
			if an, bn := strings.ToLower(a.DoctorName), strings.ToLower(b.DoctorName); an != bn {
				return an < bn
			}
		case "day":
			if ad, bd := core.DayIndex(a.Day), core.DayIndex(b.Day); ad != bd {
				return ad < bd
			}
			if a.StartTime != b.StartTime {
				return a.StartTime < b.StartTime
			}
		}
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID, q.Sort == "oldest")
	}), nil
}

func (s *Store) GetSchedule(ctx context.Context, id string) (*pkg.Schedule, error) {
	raw, err := s.first(tableSchedules, indexID, id)
	if err != nil {
		return nil, err
	}
	sc := *raw.(*pkg.Schedule)
	return &sc, nil
}

func (s *Store) CreateSchedule(ctx context.Context, sc *pkg.Schedule) error {
	cp := *sc
	return s.insert(tableSchedules, &cp)
}

func (s *Store) UpdateSchedule(ctx context.Context, sc *pkg.Schedule) error {
	cp := *sc
	return s.replace(tableSchedules, sc.ID, &cp)
}

func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	return s.delete(tableSchedules, id)
}

// ListNotes implements core.NoteStore.
func (s *Store) ListNotes(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Note], error) {
	rows, err := all(s, tableNotes, func(n *pkg.Note) bool {
		return core.Matches(q.Search, n.Title, n.Content)
	})
	if err != nil {
		return pkg.Page[pkg.Note]{}, err
	}
	return paginate(rows, q, func(a, b *pkg.Note) bool {
		if q.Sort == "title" {
			if at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title); at != bt {
				return at < bt
			}
		}
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID, q.Sort == "oldest")
	}), nil
}

func (s *Store) GetNote(ctx context.Context, id string) (*pkg.Note, error) {
	raw, err := s.first(tableNotes, indexID, id)
	if err != nil {
		return nil, err
	}
	n := *raw.(*pkg.Note)
	return &n, nil
}

func (s *Store) CreateNote(ctx context.Context, n *pkg.Note) error {
	cp := *n
	return s.insert(tableNotes, &cp)
}

func (s *Store) UpdateNote(ctx context.Context, n *pkg.Note) error {
	cp := *n
	return s.replace(tableNotes, n.ID, &cp)
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	return s.delete(tableNotes, id)
}
