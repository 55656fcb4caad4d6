package db

import (
	"context"
	"database/sql"

	"hospital-portal/pkg"
)

const articleColumns = "id, title, slug, category, excerpt, body, image_path, published, author_id, created_at, updated_at"

var articleList = tableList{
	table:   "articles",
	columns: articleColumns,
	search:  []string{"title", "category", "excerpt", "body"},
	visible: "published",
	orders:  newestOrders(map[string]string{"title": "LOWER(title) ASC, created_at DESC, id"}),
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(s scanner, a *pkg.Article) error {
	return s.Scan(&a.ID, &a.Title, &a.Slug, &a.Category, &a.Excerpt, &a.Body, &a.ImagePath, &a.Published, &a.AuthorID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *Repository) ListArticles(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Article], error) {
	page := pkg.Page[pkg.Article]{Page: max(q.Page, 1), PerPage: q.PerPage, Items: []pkg.Article{}}
	total, err := r.list(ctx, articleList, q, func(rows *sql.Rows) error {
		var a pkg.Article
		if err := scanArticle(rows, &a); err != nil {
			return err
		}
		page.Items = append(page.Items, a)
		return nil
	})
	page.Total = total
	return page, err
}

func (r *Repository) GetArticle(ctx context.Context, id string) (*pkg.Article, error) {
	var a pkg.Article
	err := scanArticle(r.DB.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles WHERE id = $1", id), &a)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *Repository) GetArticleBySlug(ctx context.Context, slug string) (*pkg.Article, error) {
	var a pkg.Article
	err := scanArticle(r.DB.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles WHERE slug = $1", slug), &a)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *Repository) CreateArticle(ctx context.Context, a *pkg.Article) error {
	return r.exec(ctx, "create article",
		`INSERT INTO articles (`+articleColumns+`)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Title, a.Slug, a.Category, a.Excerpt, a.Body, a.ImagePath, a.Published, a.AuthorID, a.CreatedAt, a.UpdatedAt)
}

func (r *Repository) UpdateArticle(ctx context.Context, a *pkg.Article) error {
	return r.exec(ctx, "update article",
		`UPDATE articles
         SET title = $2, slug = $3, category = $4, excerpt = $5, body = $6,
             image_path = $7, published = $8, updated_at = $9
         WHERE id = $1`,
		a.ID, a.Title, a.Slug, a.Category, a.Excerpt, a.Body, a.ImagePath, a.Published, a.UpdatedAt)
}

func (r *Repository) DeleteArticle(ctx context.Context, id string) error {
	return r.exec(ctx, "delete article", "DELETE FROM articles WHERE id = $1", id)
}

const medicineColumns = "id, name, category, dosage, description, image_path, available, created_at, updated_at"

var medicineList = tableList{
	table:   "medicines",
	columns: medicineColumns,
	search:  []string{"name", "category", "description"},
	visible: "available",
	orders:  newestOrders(map[string]string{"name": "LOWER(name) ASC, created_at DESC, id"}),
}

func scanMedicine(s scanner, m *pkg.Medicine) error {
	return s.Scan(&m.ID, &m.Name, &m.Category, &m.Dosage, &m.Description, &m.ImagePath, &m.Available, &m.CreatedAt, &m.UpdatedAt)
}

func (r *Repository) ListMedicines(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Medicine], error) {
	page := pkg.Page[pkg.Medicine]{Page: max(q.Page, 1), PerPage: q.PerPage, Items: []pkg.Medicine{}}
	total, err := r.list(ctx, medicineList, q, func(rows *sql.Rows) error {
		var m pkg.Medicine
		if err := scanMedicine(rows, &m); err != nil {
			return err
		}
		page.Items = append(page.Items, m)
		return nil
	})
	page.Total = total
	return page, err
}

func (r *Repository) GetMedicine(ctx context.Context, id string) (*pkg.Medicine, error) {
	var m pkg.Medicine
	err := scanMedicine(r.DB.QueryRowContext(ctx, "SELECT "+medicineColumns+" FROM medicines WHERE id = $1", id), &m)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *Repository) CreateMedicine(ctx context.Context, m *pkg.Medicine) error {
	return r.exec(ctx, "create medicine",
		`INSERT INTO medicines (`+medicineColumns+`)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.Name, m.Category, m.Dosage, m.Description, m.ImagePath, m.Available, m.CreatedAt, m.UpdatedAt)
}

func (r *Repository) UpdateMedicine(ctx context.Context, m *pkg.Medicine) error {
	return r.exec(ctx, "update medicine",
		`UPDATE medicines
         SET name = $2, category = $3, dosage = $4, description = $5,
             image_path = $6, available = $7, updated_at = $8
         WHERE id = $1`,
		m.ID, m.Name, m.Category, m.Dosage, m.Description, m.ImagePath, m.Available, m.UpdatedAt)
}

func (r *Repository) DeleteMedicine(ctx context.Context, id string) error {
	return r.exec(ctx, "delete medicine", "DELETE FROM medicines WHERE id = $1", id)
}

const scheduleColumns = "id, doctor_name, specialty, day, start_time, end_time, room, available, created_at, updated_at"

var scheduleList = tableList{
	table:   "schedules",
	columns: scheduleColumns,
	search:  []string{"doctor_name", "specialty", "day", "room"},
	visible: "available",
	orders: newestOrders(map[string]string{
		"doctor": "LOWER(doctor_name) ASC, created_at DESC, id",
		"day":    dayOrder() + ", start_time ASC, created_at DESC, id",
	}),
}

func scanSchedule(s scanner, sc *pkg.Schedule) error {
	return s.Scan(&sc.ID, &sc.DoctorName, &sc.Specialty, &sc.Day, &sc.StartTime, &sc.EndTime, &sc.Room, &sc.Available, &sc.CreatedAt, &sc.UpdatedAt)
}

func (r *Repository) ListSchedules(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Schedule], error) {
	page := pkg.Page[pkg.Schedule]{Page: max(q.Page, 1), PerPage: q.PerPage, Items: []pkg.Schedule{}}
	total, err := r.list(ctx, scheduleList, q, func(rows *sql.Rows) error {
		var sc pkg.Schedule
		if err := scanSchedule(rows, &sc); err != nil {
			return err
		}
		page.Items = append(page.Items, sc)
		return nil
	})
	page.Total = total
	return page, err
}

func (r *Repository) GetSchedule(ctx context.Context, id string) (*pkg.Schedule, error) {
	var sc pkg.Schedule
	err := scanSchedule(r.DB.QueryRowContext(ctx, "SELECT "+scheduleColumns+" FROM schedules WHERE id = $1", id), &sc)
	if err != nil {
		return nil, notFound(err)
	}
	return &sc, nil
}

func (r *Repository) CreateSchedule(ctx context.Context, sc *pkg.Schedule) error {
	return r.exec(ctx, "create schedule",
		`INSERT INTO schedules (`+scheduleColumns+`)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sc.ID, sc.DoctorName, sc.Specialty, sc.Day, sc.StartTime, sc.EndTime, sc.Room, sc.Available, sc.CreatedAt, sc.UpdatedAt)
}

func (r *Repository) UpdateSchedule(ctx context.Context, sc *pkg.Schedule) error {
	return r.exec(ctx, "update schedule",
		`UPDATE schedules
         SET doctor_name = $2, specialty = $3, day = $4, start_time = $5,
             end_time = $6, room = $7, available = $8, updated_at = $9
         WHERE id = $1`,
		sc.ID, sc.DoctorName, sc.Specialty, sc.Day, sc.StartTime, sc.EndTime, sc.Room, sc.Available, sc.UpdatedAt)
}

func (r *Repository) DeleteSchedule(ctx context.Context, id string) error {
	return r.exec(ctx, "delete schedule", "DELETE FROM schedules WHERE id = $1", id)
}

const noteColumns = "id, title, content, created_at, updated_at"

var noteList = tableList{
	table:   "notes",
	columns: noteColumns,
	search:  []string{"title", "content"},
	orders:  newestOrders(map[string]string{"title": "LOWER(title) ASC, created_at DESC, id"}),
}

func scanNote(s scanner, n *pkg.Note) error {
	return s.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
}

func (r *Repository) ListNotes(ctx context.Context, q pkg.ListQuery) (pkg.Page[pkg.Note], error) {
	page := pkg.Page[pkg.Note]{Page: max(q.Page, 1), PerPage: q.PerPage, Items: []pkg.Note{}}
	total, err := r.list(ctx, noteList, q, func(rows *sql.Rows) error {
		var n pkg.Note
		if err := scanNote(rows, &n); err != nil {
			return err
		}
		page.Items = append(page.Items, n)
		return nil
	})
	page.Total = total
	return page, err
}

func (r *Repository) GetNote(ctx context.Context, id string) (*pkg.Note, error) {
	var n pkg.Note
	err := scanNote(r.DB.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = $1", id), &n)
	if err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (r *Repository) CreateNote(ctx context.Context, n *pkg.Note) error {
	return r.exec(ctx, "create note",
		`INSERT INTO notes (`+noteColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt)
}

func (r *Repository) UpdateNote(ctx context.Context, n *pkg.Note) error {
	return r.exec(ctx, "update note",
		`UPDATE notes SET title = $2, content = $3, updated_at = $4 WHERE id = $1`,
		n.ID, n.Title, n.Content, n.UpdatedAt)
}

func (r *Repository) DeleteNote(ctx context.Context, id string) error {
	return r.exec(ctx, "delete note", "DELETE FROM notes WHERE id = $1", id)
}
