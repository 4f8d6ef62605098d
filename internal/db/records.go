package db

import (
	"context"
	"database/sql"
	"fmt"

	"reactionrace/internal/records"
)

var _ records.Store = (*DB)(nil)

const insertRecord = `
	INSERT INTO race_records (id, game_id, player_name, score, reaction_time, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

func (d *DB) Save(ctx context.Context, rec records.Record) error {
	rec = records.Stamp(rec)
	_, err := d.conn.ExecContext(ctx, d.rebind(insertRecord),
		rec.ID, rec.GameID, rec.PlayerName, rec.Score, nullFloat(rec.ReactionTime), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

func (d *DB) SaveBatch(ctx context.Context, recs []records.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, d.rebind(insertRecord))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		rec = records.Stamp(rec)
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.GameID, rec.PlayerName, rec.Score, nullFloat(rec.ReactionTime), rec.CreatedAt); err != nil {
			return fmt.Errorf("saving record in batch: %w", err)
		}
	}

	return tx.Commit()
}

func (d *DB) Leaderboard(ctx context.Context, limit int) ([]records.Record, error) {
	rows, err := d.conn.QueryContext(ctx, d.rebind(`
		SELECT id, game_id, player_name, score, reaction_time, created_at
		FROM race_records
		ORDER BY score DESC, created_at ASC
		LIMIT $1
	`), limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	return scanRecords(rows)
}

func (d *DB) PlayerHistory(ctx context.Context, playerName string, limit int) ([]records.Record, error) {
	rows, err := d.conn.QueryContext(ctx, d.rebind(`
		SELECT id, game_id, player_name, score, reaction_time, created_at
		FROM race_records
		WHERE player_name = $1
		ORDER BY created_at DESC
		LIMIT $2
	`), playerName, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("querying player history: %w", err)
	}
	return scanRecords(rows)
}

func (d *DB) Stats(ctx context.Context) (records.Stats, error) {
	var s records.Stats
	err := d.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT player_name) FROM race_records
	`).Scan(&s.TotalRecords, &s.TotalPlayers)
	if err != nil {
		return records.Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	return s, nil
}

func scanRecords(rows *sql.Rows) ([]records.Record, error) {
	defer rows.Close()
	out := []records.Record{}
	for rows.Next() {
		var (
			rec      records.Record
			reaction sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.GameID, &rec.PlayerName, &rec.Score, &reaction, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if reaction.Valid {
			t := reaction.Float64
			rec.ReactionTime = &t
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// limitOrAll maps a non-positive limit to a bound no archive reaches.
func limitOrAll(limit int) int {
	if limit <= 0 {
		return 1<<31 - 1
	}
	return limit
}
