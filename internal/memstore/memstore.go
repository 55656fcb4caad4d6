// Package memstore is an in-memory implementation of the content and
// account stores backed by go-memdb.  It serves development runs without a
// database and the handler tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-memdb"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

const (
	tableArticles  = "articles"
	tableMedicines = "medicines"
	tableSchedules = "schedules"
	tableNotes     = "notes"
	tableUsers     = "users"
	tableMessages  = "messages"

	indexID      = "id"
	indexSlug    = "slug"
	indexEmail   = "email"
	indexSession = "session"
)

func idIndex() *memdb.IndexSchema {
	return &memdb.IndexSchema{Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}}
}

// Schema is the memdb schema of every table.
func Schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableArticles: {
				Name: tableArticles,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:   idIndex(),
					indexSlug: {Name: indexSlug, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Slug"}},
				},
			},
			tableMedicines: {Name: tableMedicines, Indexes: map[string]*memdb.IndexSchema{indexID: idIndex()}},
			tableSchedules: {Name: tableSchedules, Indexes: map[string]*memdb.IndexSchema{indexID: idIndex()}},
			tableNotes:     {Name: tableNotes, Indexes: map[string]*memdb.IndexSchema{indexID: idIndex()}},
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:    idIndex(),
					indexEmail: {Name: indexEmail, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true}},
				},
			},
			tableMessages: {
				Name: tableMessages,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:      {Name: indexID, Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
					indexSession: {Name: indexSession, Indexer: &memdb.StringFieldIndex{Field: "SessionID"}},
				},
			},
		},
	}
}

// Store implements core.Store and core.AccountStore.  Records are copied on
// the way in and out so callers never share memory with the database.
type Store struct {
	db        *memdb.MemDB
	messageID int64
	now       func() time.Time
}

var (
	_ core.Store        = (*Store)(nil)
	_ core.AccountStore = (*Store)(nil)
)

// New returns an empty store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(Schema())
	if err != nil {
		return nil, fmt.Errorf("memstore: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) first(table, index string, args ...interface{}) (interface{}, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(table, index, args...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, core.ErrNotFound
	}
	return raw, nil
}

func (s *Store) insert(table string, obj interface{}) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(table, obj); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// replace inserts obj only if a record with id already exists.
func (s *Store) replace(table, id string, obj interface{}) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(table, indexID, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return core.ErrNotFound
	}
	if err := txn.Insert(table, obj); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (s *Store) delete(table, id string) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(table, indexID, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return core.ErrNotFound
	}
	if err := txn.Delete(table, raw); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// all returns copies of every row of table accepted by keep.
func all[T any](s *Store, table string, keep func(*T) bool) ([]T, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(table, indexID)
	if err != nil {
		return nil, err
	}
	var out []T
	for raw := it.Next(); raw != nil; raw = it.Next() {
		row := raw.(*T)
		if keep == nil || keep(row) {
			out = append(out, *row)
		}
	}
	return out, nil
}

// paginate sorts rows and cuts the page requested by q.
func paginate[T any](rows []T, q pkg.ListQuery, less func(a, b *T) bool) pkg.Page[T] {
	sort.SliceStable(rows, func(i, j int) bool { return less(&rows[i], &rows[j]) })
	page := pkg.Page[T]{Total: len(rows), Page: q.Page, PerPage: q.PerPage}
	if page.Page < 1 {
		page.Page = 1
	}
	if q.PerPage <= 0 {
		page.Items = rows
		return page
	}
	start := q.Offset()
	if start >= len(rows) {
		page.Items = []T{}
		return page
	}
	end := start + q.PerPage
	if end > len(rows) {
		end = len(rows)
	}
	page.Items = rows[start:end]
	return page
}

// byCreated orders newest first unless oldest is set.  Equal timestamps
// fall back to the id so the order is stable across calls.
func byCreated(a, b time.Time, aID, bID string, oldest bool) bool {
	if !a.Equal(b) {
		if oldest {
			return a.Before(b)
		}
		return a.After(b)
	}
	return aID < bID
}

func (s *Store) nextMessageID() int64 {
	return atomic.AddInt64(&s.messageID, 1)
}

// Stats counts the rows shown on the dashboard.
func (s *Store) Stats(ctx context.Context) (pkg.DashboardStats, error) {
	var st pkg.DashboardStats
	articles, err := all[pkg.Article](s, tableArticles, nil)
	if err != nil {
		return st, err
	}
	st.Articles = len(articles)
	for _, a := range articles {
		if a.Published {
			st.Published++
		}
	}
	medicines, err := all[pkg.Medicine](s, tableMedicines, nil)
	if err != nil {
		return st, err
	}
	st.Medicines = len(medicines)
	schedules, err := all[pkg.Schedule](s, tableSchedules, nil)
	if err != nil {
		return st, err
	}
	st.Schedules = len(schedules)
	notes, err := all[pkg.Note](s, tableNotes, nil)
	if err != nil {
		return st, err
	}
	st.Notes = len(notes)
	return st, nil
}
