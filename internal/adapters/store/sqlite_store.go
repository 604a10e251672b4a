// Package store contains the durable implementations of the processing
// ledger, escalation queue, activity reporting and summary log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS processed_messages (
	message_id TEXT PRIMARY KEY,
	sender_email TEXT,
	subject TEXT,
	processed_at TIMESTAMP,
	reply_sent BOOLEAN,
	escalated BOOLEAN,
	order_number TEXT,
	intent TEXT
);
CREATE TABLE IF NOT EXISTS escalations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id TEXT,
	order_number TEXT,
	sender_email TEXT,
	reason TEXT,
	priority TEXT,
	created_at TIMESTAMP,
	resolved_at TIMESTAMP,
	resolved_by TEXT,
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'resolved'))
);
CREATE INDEX IF NOT EXISTS idx_escalations_status ON escalations(status);
CREATE TABLE IF NOT EXISTS summary_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sent_at TIMESTAMP
);
`

// Pending items surface in operator triage order: high before medium
// before low, oldest first within a priority. The string values do not
// sort that way lexicographically, so the rank is made explicit.
const priorityRank = `CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END`

// SQLiteStore backs the ledger, the escalation queue, activity stats
// and the summary log with a single SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// NewSQLiteStoreFromDB wraps an already-open database, creating the
// schema if needed. Used by tests with in-memory databases.
func NewSQLiteStoreFromDB(db *sql.DB, logger *zap.Logger) (*SQLiteStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Seen reports whether a ledger row exists for the message id.
func (s *SQLiteStore) Seen(ctx context.Context, messageID string) (bool, error) {
	var exists string
	err := s.db.QueryRowContext(ctx,
		`SELECT message_id FROM processed_messages WHERE message_id = ?`,
		messageID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return true, nil
}

// Record inserts one ledger entry. The primary key on message_id makes
// a duplicate insert fail, which is the intended behavior: a row is
// written exactly once per message.
func (s *SQLiteStore) Record(ctx context.Context, entry *core.LedgerEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_messages
		(message_id, sender_email, subject, processed_at, reply_sent, escalated, order_number, intent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.MessageID, entry.SenderEmail, entry.Subject,
		entry.ProcessedAt.Format(time.RFC3339),
		entry.ReplySent, entry.Escalated, entry.OrderNumber, string(entry.Intent))
	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}

// Enqueue inserts one pending escalation and returns its assigned id.
func (s *SQLiteStore) Enqueue(ctx context.Context, item *core.EscalationItem) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO escalations (message_id, order_number, sender_email, reason, priority, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.MessageID, item.OrderNumber, item.SenderEmail, item.Reason,
		string(item.Priority), item.CreatedAt.Format(time.RFC3339), string(core.StatusPending))
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue escalation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read escalation id: %w", err)
	}
	return id, nil
}

// ListPending returns pending escalations in triage order.
func (s *SQLiteStore) ListPending(ctx context.Context) ([]core.EscalationItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, order_number, sender_email, reason, priority, created_at, resolved_at, resolved_by, status
		FROM escalations
		WHERE status = 'pending'
		ORDER BY `+priorityRank+`, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending escalations: %w", err)
	}
	defer rows.Close()
	return scanEscalations(rows)
}

// Get returns one escalation by id, or nil when it does not exist.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*core.EscalationItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, order_number, sender_email, reason, priority, created_at, resolved_at, resolved_by, status
		FROM escalations WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation: %w", err)
	}
	defer rows.Close()

	items, err := scanEscalations(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Resolve transitions one escalation from pending to resolved. The
// status guard makes repeated calls no-ops: the first resolution's
// timestamp and actor are never overwritten.
func (s *SQLiteStore) Resolve(ctx context.Context, id int64, resolvedBy string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE escalations
		SET status = 'resolved', resolved_at = ?, resolved_by = ?
		WHERE id = ? AND status = 'pending'`,
		time.Now().Format(time.RFC3339), resolvedBy, id)
	if err != nil {
		return fmt.Errorf("failed to resolve escalation: %w", err)
	}
	return nil
}

// Stats aggregates activity since the given time. Pending counts and
// the pending item list are totals rather than windowed.
func (s *SQLiteStore) Stats(ctx context.Context, since time.Time) (*core.ActivityStats, error) {
	stats := &core.ActivityStats{}
	cutoff := since.Format(time.RFC3339)

	counts := []struct {
		query string
		args  []any
		dest  *int
	}{
		{`SELECT COUNT(*) FROM processed_messages WHERE processed_at >= ?`, []any{cutoff}, &stats.TotalProcessed},
		{`SELECT COUNT(*) FROM processed_messages WHERE processed_at >= ? AND reply_sent = 1`, []any{cutoff}, &stats.RepliesSent},
		{`SELECT COUNT(*) FROM processed_messages WHERE processed_at >= ? AND intent = 'spam'`, []any{cutoff}, &stats.SpamFiltered},
		{`SELECT COUNT(*) FROM escalations WHERE created_at >= ?`, []any{cutoff}, &stats.Flagged},
		{`SELECT COUNT(*) FROM escalations WHERE status = 'pending'`, nil, &stats.PendingReviews},
		{`SELECT COUNT(*) FROM escalations WHERE status = 'resolved'`, nil, &stats.ResolvedTotal},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to aggregate stats: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, order_number, sender_email, reason, priority, created_at, resolved_at, resolved_by, status
		FROM escalations
		WHERE status = 'pending'
		ORDER BY `+priorityRank+`, created_at ASC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending items: %w", err)
	}
	defer rows.Close()

	stats.PendingItems, err = scanEscalations(rows)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// LastSummarySent returns when the daily summary was last sent, or the
// zero time when it never was.
func (s *SQLiteStore) LastSummarySent(ctx context.Context) (time.Time, error) {
	var sentAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT sent_at FROM summary_log ORDER BY id DESC LIMIT 1`).Scan(&sentAt)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query summary log: %w", err)
	}
	return parseTimestamp(sentAt)
}

// RecordSummarySent appends one summary-send record.
func (s *SQLiteStore) RecordSummarySent(ctx context.Context, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summary_log (sent_at) VALUES (?)`, sentAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record summary send: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanEscalations(rows *sql.Rows) ([]core.EscalationItem, error) {
	var items []core.EscalationItem
	for rows.Next() {
		var (
			item       core.EscalationItem
			priority   string
			status     string
			createdAt  string
			resolvedAt sql.NullString
			resolvedBy sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.MessageID, &item.OrderNumber, &item.SenderEmail,
			&item.Reason, &priority, &createdAt, &resolvedAt, &resolvedBy, &status); err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		item.Priority = core.Priority(priority)
		item.Status = core.EscalationStatus(status)
		created, err := parseTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		item.CreatedAt = created
		if resolvedAt.Valid && resolvedAt.String != "" {
			resolved, err := parseTimestamp(resolvedAt.String)
			if err != nil {
				return nil, err
			}
			item.ResolvedAt = resolved
		}
		item.ResolvedBy = resolvedBy.String
		items = append(items, item)
	}
	return items, rows.Err()
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t, nil
}

var (
	_ core.Ledger          = (*SQLiteStore)(nil)
	_ core.EscalationQueue = (*SQLiteStore)(nil)
	_ core.Reporter        = (*SQLiteStore)(nil)
	_ core.SummaryLog      = (*SQLiteStore)(nil)
)
