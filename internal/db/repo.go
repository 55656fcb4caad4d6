package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

var tracer = otel.Tracer("hospital-portal/db")

// Repository implements core.Store on PostgreSQL with plain SQL.
type Repository struct {
	DB *sql.DB
}

var _ core.Store = (*Repository)(nil)

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("db.system", "postgresql")))
}

// tableList describes how one entity table is listed.
type tableList struct {
	table   string
	columns string
	search  []string
	visible string
	orders  map[string]string
}

// listSQL builds the count and the page queries for q with their shared
// arguments.  Sort keys outside tl.orders fall back to newest first.
func listSQL(tl tableList, q pkg.ListQuery) (countQuery, pageQuery string, args []interface{}) {
	var where []string
	if q.OnlyVisible && tl.visible != "" {
		where = append(where, tl.visible)
	}
	if q.Search != "" && len(tl.search) > 0 {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		conds := make([]string, len(tl.search))
		for i, col := range tl.search {
			conds[i] = col + " ILIKE $1"
		}
		where = append(where, "("+strings.Join(conds, " OR ")+")")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	order, ok := tl.orders[q.Sort]
	if !ok {
		order = tl.orders[core.DefaultSort]
	}
	countQuery = "SELECT COUNT(*) FROM " + tl.table + clause
	pageQuery = "SELECT " + tl.columns + " FROM " + tl.table + clause + " ORDER BY " + order
	if q.PerPage > 0 {
		pageQuery += " LIMIT " + strconv.Itoa(q.PerPage) + " OFFSET " + strconv.Itoa(q.Offset())
	}
	return countQuery, pageQuery, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// list runs the queries of listSQL and hands every row to scan.
func (r *Repository) list(ctx context.Context, tl tableList, q pkg.ListQuery, scan func(*sql.Rows) error) (int, error) {
	ctx, span := startSpan(ctx, "list "+tl.table)
	defer span.End()

	countQuery, pageQuery, args := listSQL(tl, q)
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", tl.table, err)
	}
	rows, err := r.DB.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", tl.table, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return 0, err
		}
	}
	return total, rows.Err()
}

// exec runs a mutation that must hit exactly one row.
func (r *Repository) exec(ctx context.Context, name, query string, args ...interface{}) error {
	ctx, span := startSpan(ctx, name)
	defer span.End()
	res, err := r.DB.ExecContext(ctx, query, args...)
	if isBadID(err) {
		return core.ErrNotFound
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%s: duplicate %s: %w", name, pqErr.Constraint, err)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// notFound maps a missing row, or an id that is not even a UUID, to
// core.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) || isBadID(err) {
		return core.ErrNotFound
	}
	return err
}

// isBadID reports Postgres rejecting a path id that does not parse as a
// UUID (invalid_text_representation).
func isBadID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}

func newestOrders(extra map[string]string) map[string]string {
	orders := map[string]string{
		"newest": "created_at DESC, id",
		"oldest": "created_at ASC, id",
	}
	for k, v := range extra {
		orders[k] = v
	}
	return orders
}

// dayOrder sorts weekday names in calendar order.
func dayOrder() string {
	var b strings.Builder
	b.WriteString("CASE day")
	for i, d := range core.Weekdays {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", d, i)
	}
	b.WriteString(" ELSE 7 END")
	return b.String()
}

// Stats counts the rows shown on the dashboard.
func (r *Repository) Stats(ctx context.Context) (pkg.DashboardStats, error) {
	ctx, span := startSpan(ctx, "stats")
	defer span.End()
	var st pkg.DashboardStats
	err := r.DB.QueryRowContext(ctx, `SELECT
        (SELECT COUNT(*) FROM articles),
        (SELECT COUNT(*) FROM articles WHERE published),
        (SELECT COUNT(*) FROM medicines),
        (SELECT COUNT(*) FROM schedules),
        (SELECT COUNT(*) FROM notes)`,
	).Scan(&st.Articles, &st.Published, &st.Medicines, &st.Schedules, &st.Notes)
	return st, err
}

// CreateMessage appends a message to a chat session transcript.
func (r *Repository) CreateMessage(ctx context.Context, sessionID string, role pkg.MessageRole, content string) (*pkg.Message, error) {
	ctx, span := startSpan(ctx, "create chat message")
	defer span.End()
	m := pkg.Message{SessionID: sessionID}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content)
         VALUES ($1, $2, $3)
         RETURNING id, role, content, created_at`,
		sessionID, role, content,
	).Scan(&m.ID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetTranscript returns a session's messages ordered by creation.
func (r *Repository) GetTranscript(ctx context.Context, sessionID string) ([]pkg.Message, error) {
	ctx, span := startSpan(ctx, "get transcript")
	defer span.End()
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at
         FROM chat_messages
         WHERE session_id = $1
         ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var transcript []pkg.Message
	for rows.Next() {
		var m pkg.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		transcript = append(transcript, m)
	}
	return transcript, rows.Err()
}

// CountUserMessages counts the visitor messages of a session for the
// message cap.
func (r *Repository) CountUserMessages(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE session_id = $1 AND role = $2`,
		sessionID, pkg.RoleUser,
	).Scan(&count)
	return count, err
}
