package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ScoreRecord is one evaluated score or color bonus request.
type ScoreRecord struct {
	ID        int64
	ChatID    string
	Command   string
	Input     string
	Outcome   string
	Total     int
	Tally     map[string]int
	CreatedAt time.Time
}

// ScoreLogRepository persists score records.
type ScoreLogRepository struct {
	db *DB
}

// NewScoreLogRepository creates a repository backed by db.
func NewScoreLogRepository(db *DB) *ScoreLogRepository {
	return &ScoreLogRepository{db: db}
}

const insertScoreSQL = `
	INSERT INTO score_log (chat_id, command, input, outcome, total, tally)
	VALUES ($1, $2, $3, $4, $5, $6::jsonb)
	RETURNING id, created_at
`

// Record inserts rec and fills in its ID and creation time.
func (r *ScoreLogRepository) Record(ctx context.Context, rec *ScoreRecord) error {
	tally, err := encodeTally(rec.Tally)
	if err != nil {
		return err
	}

	err = r.db.pool.QueryRow(ctx, insertScoreSQL,
		rec.ChatID, rec.Command, rec.Input, rec.Outcome, rec.Total, tally,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert score record: %w", err)
	}
	return nil
}

// RecordBatch inserts recs in a single transaction and returns how many were
// written. Nothing is written if any insert fails.
func (r *ScoreLogRepository) RecordBatch(ctx context.Context, recs []*ScoreRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, rec := range recs {
		tally, err := encodeTally(rec.Tally)
		if err != nil {
			return 0, err
		}
		batch.Queue(insertScoreSQL, rec.ChatID, rec.Command, rec.Input, rec.Outcome, rec.Total, tally)
	}

	results := tx.SendBatch(ctx, batch)
	for i, rec := range recs {
		if err := results.QueryRow().Scan(&rec.ID, &rec.CreatedAt); err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("insert score record %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(recs), nil
}

// Recent returns the newest records of chatID, newest first.
func (r *ScoreLogRepository) Recent(ctx context.Context, chatID string, limit int) ([]ScoreRecord, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, chat_id, command, input, outcome, total, tally, created_at
		FROM score_log
		WHERE chat_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("query score records: %w", err)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var (
			rec   ScoreRecord
			tally []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ChatID, &rec.Command, &rec.Input, &rec.Outcome, &rec.Total, &tally, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score record: %w", err)
		}
		if err := json.Unmarshal(tally, &rec.Tally); err != nil {
			return nil, fmt.Errorf("decode tally of record %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score records: %w", err)
	}
	return out, nil
}

func encodeTally(tally map[string]int) (string, error) {
	if tally == nil {
		return "{}", nil
	}
	encoded, err := json.Marshal(tally)
	if err != nil {
		return "", fmt.Errorf("encode tally: %w", err)
	}
	return string(encoded), nil
}
