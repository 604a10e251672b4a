package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/core"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS processed_messages (
		message_id VARCHAR(512) PRIMARY KEY,
		sender_email VARCHAR(320),
		subject TEXT,
		processed_at TIMESTAMP NULL,
		reply_sent BOOLEAN,
		escalated BOOLEAN,
		order_number VARCHAR(32),
		intent VARCHAR(32)
	)`,
	`CREATE TABLE IF NOT EXISTS escalations (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		message_id VARCHAR(512),
		order_number VARCHAR(32),
		sender_email VARCHAR(320),
		reason TEXT,
		priority VARCHAR(16),
		created_at TIMESTAMP NULL,
		resolved_at TIMESTAMP NULL,
		resolved_by VARCHAR(128),
		status ENUM('pending', 'resolved') NOT NULL DEFAULT 'pending',
		INDEX idx_escalations_status (status)
	)`,
	`CREATE TABLE IF NOT EXISTS summary_log (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		sent_at TIMESTAMP NULL
	)`,
}

// MySQLStore is the shared-database variant of the store, for
// deployments where several hosts point at one queue.
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore connects to MySQL and creates the schema if needed.
func NewMySQLStore(host string, port int, user, password, database string, logger *zap.Logger) (*MySQLStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", user, password, host, port, database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	for _, stmt := range mysqlSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

func (s *MySQLStore) Seen(ctx context.Context, messageID string) (bool, error) {
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

func (s *MySQLStore) Record(ctx context.Context, entry *core.LedgerEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_messages
		(message_id, sender_email, subject, processed_at, reply_sent, escalated, order_number, intent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.MessageID, entry.SenderEmail, entry.Subject, entry.ProcessedAt,
		entry.ReplySent, entry.Escalated, entry.OrderNumber, string(entry.Intent))
	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}

func (s *MySQLStore) Enqueue(ctx context.Context, item *core.EscalationItem) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO escalations (message_id, order_number, sender_email, reason, priority, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.MessageID, item.OrderNumber, item.SenderEmail, item.Reason,
		string(item.Priority), item.CreatedAt, string(core.StatusPending))
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue escalation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read escalation id: %w", err)
	}
	return id, nil
}

func (s *MySQLStore) ListPending(ctx context.Context) ([]core.EscalationItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, order_number, sender_email, reason, priority, created_at, resolved_at, resolved_by, status
		FROM escalations
		WHERE status = 'pending'
		ORDER BY `+priorityRank+`, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending escalations: %w", err)
	}
	defer rows.Close()
	return scanEscalationsMySQL(rows)
}

func (s *MySQLStore) Get(ctx context.Context, id int64) (*core.EscalationItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, order_number, sender_email, reason, priority, created_at, resolved_at, resolved_by, status
		FROM escalations WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation: %w", err)
	}
	defer rows.Close()

	items, err := scanEscalationsMySQL(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (s *MySQLStore) Resolve(ctx context.Context, id int64, resolvedBy string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE escalations
		SET status = 'resolved', resolved_at = ?, resolved_by = ?
		WHERE id = ? AND status = 'pending'`,
		time.Now(), resolvedBy, id)
	if err != nil {
		return fmt.Errorf("failed to resolve escalation: %w", err)
	}
	return nil
}

func (s *MySQLStore) Stats(ctx context.Context, since time.Time) (*core.ActivityStats, error) {
	stats := &core.ActivityStats{}

	counts := []struct {
		query string
		args  []any
		dest  *int
	}{
		{`SELECT COUNT(*) FROM processed_messages WHERE processed_at >= ?`, []any{since}, &stats.TotalProcessed},
		{`SELECT COUNT(*) FROM processed_messages WHERE processed_at >= ? AND reply_sent = 1`, []any{since}, &stats.RepliesSent},
		{`SELECT COUNT(*) FROM processed_messages WHERE processed_at >= ? AND intent = 'spam'`, []any{since}, &stats.SpamFiltered},
		{`SELECT COUNT(*) FROM escalations WHERE created_at >= ?`, []any{since}, &stats.Flagged},
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

	stats.PendingItems, err = scanEscalationsMySQL(rows)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *MySQLStore) LastSummarySent(ctx context.Context) (time.Time, error) {
	var sentAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT sent_at FROM summary_log ORDER BY id DESC LIMIT 1`).Scan(&sentAt)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query summary log: %w", err)
	}
	return sentAt.Time, nil
}

func (s *MySQLStore) RecordSummarySent(ctx context.Context, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summary_log (sent_at) VALUES (?)`, sentAt)
	if err != nil {
		return fmt.Errorf("failed to record summary send: %w", err)
	}
	return nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// scanEscalationsMySQL differs from the SQLite scanner only in that the
// driver returns time.Time directly when parseTime is set.
func scanEscalationsMySQL(rows *sql.Rows) ([]core.EscalationItem, error) {
	var items []core.EscalationItem
	for rows.Next() {
		var (
			item       core.EscalationItem
			priority   string
			status     string
			resolvedAt sql.NullTime
			resolvedBy sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.MessageID, &item.OrderNumber, &item.SenderEmail,
			&item.Reason, &priority, &item.CreatedAt, &resolvedAt, &resolvedBy, &status); err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		item.Priority = core.Priority(priority)
		item.Status = core.EscalationStatus(status)
		item.ResolvedAt = resolvedAt.Time
		item.ResolvedBy = resolvedBy.String
		items = append(items, item)
	}
	return items, rows.Err()
}

var (
	_ core.Ledger          = (*MySQLStore)(nil)
	_ core.EscalationQueue = (*MySQLStore)(nil)
	_ core.Reporter        = (*MySQLStore)(nil)
	_ core.SummaryLog      = (*MySQLStore)(nil)
)
