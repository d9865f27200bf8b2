package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sipca/backend/internal/storage/models"
	"github.com/sipca/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recipients (
		identity TEXT PRIMARY KEY,
		address TEXT NOT NULL,
		name TEXT,
		subscribed_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		source TEXT NOT NULL,
		potable INTEGER NOT NULL,
		probability REAL NOT NULL,
		confidence REAL NOT NULL,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
	CREATE INDEX IF NOT EXISTS idx_predictions_record ON predictions(record_id);

	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		recipient TEXT NOT NULL,
		delivered INTEGER NOT NULL,
		message TEXT,
		error TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_record ON alerts(record_id);
	CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) UpsertRecipient(row *models.RecipientRow) error {
	query := `
		INSERT INTO recipients (identity, address, name, subscribed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			address = excluded.address,
			name = excluded.name,
			subscribed_at = excluded.subscribed_at
	`

	_, err := c.db.Exec(query, row.Identity, row.Address, row.Name, row.SubscribedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert recipient: %w", err)
	}

	logger.Debug("Recipient stored", zap.String("identity", row.Identity))
	return nil
}

func (c *Client) DeleteRecipient(identity string) error {
	_, err := c.db.Exec(`DELETE FROM recipients WHERE identity = ?`, identity)
	if err != nil {
		return fmt.Errorf("failed to delete recipient: %w", err)
	}
	return nil
}

func (c *Client) ListRecipients() ([]models.RecipientRow, error) {
	rows, err := c.db.Query(`SELECT identity, address, name, subscribed_at FROM recipients ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var out []models.RecipientRow
	for rows.Next() {
		var r models.RecipientRow
		var subscribedAt int64

		err := rows.Scan(&r.Identity, &r.Address, &r.Name, &subscribedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.SubscribedAt = time.Unix(subscribedAt, 0)
		out = append(out, r)
	}

	return out, rows.Err()
}

func (c *Client) InsertPrediction(rec *models.PredictionRecord) error {
	query := `
		INSERT INTO predictions (id, record_id, source, potable, probability, confidence, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	potable := 0
	if rec.Potable {
		potable = 1
	}

	_, err := c.db.Exec(
		query,
		rec.ID,
		rec.RecordID,
		rec.Source,
		potable,
		rec.Probability,
		rec.Confidence,
		rec.LatencyMS,
		rec.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	return nil
}

func (c *Client) RecentPredictions(limit int) ([]models.PredictionRecord, error) {
	query := `
		SELECT id, record_id, source, potable, probability, confidence, latency_ms, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions: %w", err)
	}
	defer rows.Close()

	var out []models.PredictionRecord
	for rows.Next() {
		var r models.PredictionRecord
		var potable int
		var createdAt int64

		err := rows.Scan(&r.ID, &r.RecordID, &r.Source, &potable, &r.Probability, &r.Confidence, &r.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Potable = potable == 1
		r.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, r)
	}

	return out, rows.Err()
}

func (c *Client) InsertAlert(rec *models.AlertRecord) error {
	query := `
		INSERT INTO alerts (id, record_id, recipient, delivered, message, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	delivered := 0
	if rec.Delivered {
		delivered = 1
	}

	_, err := c.db.Exec(
		query,
		rec.ID,
		rec.RecordID,
		rec.Recipient,
		delivered,
		rec.Message,
		rec.Error,
		rec.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}
