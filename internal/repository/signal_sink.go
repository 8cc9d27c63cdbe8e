package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"TokenWatch/internal/domain/models"
	domrepo "TokenWatch/internal/domain/repository"
	pkgch "TokenWatch/pkg/clickhouse"
)

const signalsTable = "tw_signals"

var signalsSchema = []string{
	`CREATE TABLE IF NOT EXISTS ` + signalsTable + ` (
        ts DateTime64(3),
        asset String,
        kind String,
        price Float64,
        strength Float64,
        meta String
    ) ENGINE = MergeTree
    ORDER BY (asset, ts)`,
}

// ClickHouseSignalSink implements SignalSink backed by ClickHouse.
type ClickHouseSignalSink struct {
	db *sql.DB
}

func NewClickHouseSignalSink(ch *pkgch.Client) domrepo.SignalSink {
	return &ClickHouseSignalSink{db: ch.DB()}
}

func (s *ClickHouseSignalSink) Init(ctx context.Context) error {
	for _, stmt := range signalsSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("signal sink init: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseSignalSink) Store(ctx context.Context, sig models.Signal) error {
	return s.StoreBatch(ctx, []models.Signal{sig})
}

func (s *ClickHouseSignalSink) StoreBatch(ctx context.Context, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	values := make([]string, 0, len(signals))
	args := make([]interface{}, 0, len(signals)*6)
	for _, sig := range signals {
		if sig.Kind == "" {
			continue
		}
		meta := ""
		if sig.Meta != nil {
			if b, err := json.Marshal(sig.Meta); err == nil {
				meta = string(b)
			}
		}
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args,
			time.UnixMilli(sig.T),
			sig.Asset,
			sig.Kind,
			sig.Price,
			sig.Strength,
			meta,
		)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, asset, kind, price, strength, meta) VALUES %s",
		signalsTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("signal sink insert: %w", err)
	}
	return nil
}

func (s *ClickHouseSignalSink) Query(ctx context.Context, asset string, from, to time.Time, limit int) ([]models.Signal, error) {
	q := fmt.Sprintf(`SELECT ts, asset, kind, price, strength, meta
        FROM %s
        WHERE asset = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?`, signalsTable)
	rows, err := s.db.QueryContext(ctx, q, asset, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("signal sink query: %w", err)
	}
	defer rows.Close()

	var out []models.Signal
	for rows.Next() {
		var (
			sig  models.Signal
			ts   time.Time
			meta string
		)
		if err := rows.Scan(&ts, &sig.Asset, &sig.Kind, &sig.Price, &sig.Strength, &meta); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.T = ts.UnixMilli()
		if meta != "" {
			_ = json.Unmarshal([]byte(meta), &sig.Meta)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *ClickHouseSignalSink) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalSink) Close() error {
	return nil // pool owned by pkg client
}
