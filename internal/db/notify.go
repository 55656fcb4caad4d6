package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"hospital-portal/internal/core"
)

// Change is one content change announced on the notification channel.
// Its payload form is "<entity>:<id>".
type Change struct {
	Entity core.Entity
	ID     string
}

func (c Change) String() string { return string(c.Entity) + ":" + c.ID }

// ParseChange decodes a notification payload.
func ParseChange(payload string) (Change, bool) {
	entity, id, ok := strings.Cut(payload, ":")
	if !ok || entity == "" || id == "" {
		return Change{}, false
	}
	return Change{Entity: core.Entity(entity), ID: id}, true
}

// Notifier publishes content changes over PostgreSQL NOTIFY so that other
// processes (cache purgers, static site builders) can follow edits.
type Notifier struct {
	DB      *sql.DB
	Channel string
	Log     *logrus.Logger
}

var _ core.ChangeNotifier = (*Notifier)(nil)

// NewNotifier constructs a new Notifier on channel.
func NewNotifier(db *sql.DB, channel string, log *logrus.Logger) *Notifier {
	return &Notifier{DB: db, Channel: channel, Log: log}
}

// Notify sends "<entity>:<id>" on the channel.
func (n *Notifier) Notify(ctx context.Context, entity core.Entity, id string) error {
	_, err := n.DB.ExecContext(ctx, "SELECT pg_notify($1, $2)", n.Channel, Change{Entity: entity, ID: id}.String())
	return err
}

// Listen opens a dedicated listener connection to dsn and delivers the
// changes received on the channel until ctx is done.  The returned channel
// is closed when listening stops.
func (n *Notifier) Listen(ctx context.Context, dsn string) (<-chan Change, error) {
	listener := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil && n.Log != nil {
			n.Log.WithError(err).WithField("event", ev).Warn("notification listener event")
		}
	})
	if err := listener.Listen(n.Channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", pq.QuoteIdentifier(n.Channel), err)
	}
	ch := make(chan Change)
	go func() {
		defer func() {
			_ = listener.Close()
			close(ch)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case note := <-listener.Notify:
				// nil after a reconnect; changes in between are lost.
				if note == nil {
					continue
				}
				c, ok := ParseChange(note.Extra)
				if !ok {
					continue
				}
				select {
				case ch <- c:
				case <-ctx.Done():
					return
				}
			case <-time.After(90 * time.Second):
				if err := listener.Ping(); err != nil && n.Log != nil {
					n.Log.WithError(err).Warn("notification listener ping failed")
				}
			}
		}
	}()
	return ch, nil
}
