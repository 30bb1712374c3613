// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package library

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvfeatures/data"
	"github.com/penny-vault/pvfeatures/pipeline"
	"github.com/rs/zerolog/log"
)

// Library is a Postgres backed store of monthly feature tables
type Library struct {
	DBUrl string

	Pool *pgxpool.Pool
}

// Run describes one pipeline execution saved in the library
type Run struct {
	RunID         uuid.UUID `db:"run_id"`
	Symbol        string    `db:"symbol"`
	CompositeFigi string    `db:"composite_figi"`
	StartTime     time.Time `db:"start_time"`
	EndTime       time.Time `db:"end_time"`
	NumRows       int       `db:"num_rows"`
	Columns       []string  `db:"columns"`
	Skipped       []string  `db:"skipped"`
}

type featureRow struct {
	MonthStart time.Time `db:"month_start"`
	Features   []byte    `db:"features"`
}

// New connects to the database at dbURL
func New(ctx context.Context, dbURL string) (*Library, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	return &Library{
		DBUrl: dbURL,
		Pool:  pool,
	}, nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	myLibrary.Pool.Close()
}

// SaveResult stores the run and every row of its table. Rows already stored
// for the same symbol and month are replaced.
func (myLibrary *Library) SaveResult(ctx context.Context, result *pipeline.Result, compositeFigi string) error {
	if result.Table == nil {
		return data.ErrEmptyTable
	}

	tx, err := myLibrary.Pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Error().Err(err).Msg("error rolling back tx")
		}
	}()

	skipped := make([]string, len(result.Skipped))
	for idx, kind := range result.Skipped {
		skipped[idx] = string(kind)
	}

	_, err = tx.Exec(ctx, `INSERT INTO feature_runs (
		"run_id", "symbol", "composite_figi", "start_time", "end_time", "num_rows", "columns", "skipped"
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		result.RunID, result.Symbol, compositeFigi, result.StartTime, result.EndTime,
		result.Table.Len(), result.Table.Columns, skipped)
	if err != nil {
		log.Error().Err(err).Object("Result", result).Msg("save run to DB failed")
		return err
	}

	for _, row := range result.Table.Rows {
		values := make(map[string]interface{}, len(row.Values))
		for col, val := range row.Values {
			if !val.IsNull() {
				values[col] = val.Interface()
			}
		}

		encoded, err := json.Marshal(values)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `INSERT INTO monthly_features ("symbol", "month_start", "run_id", "features")
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT ON CONSTRAINT monthly_features_pkey DO UPDATE SET
			run_id = EXCLUDED.run_id,
			features = EXCLUDED.features`,
			result.Symbol, row.Date, result.RunID, string(encoded))
		if err != nil {
			log.Error().Err(err).Time("MonthStart", row.Date).Str("Symbol", result.Symbol).Msg("save monthly features to DB failed")
			return err
		}
	}

	return tx.Commit(ctx)
}

// Runs lists saved runs for symbol, newest first
func (myLibrary *Library) Runs(ctx context.Context, symbol string) ([]*Run, error) {
	runs := make([]*Run, 0)
	err := pgxscan.Select(ctx, myLibrary.Pool, &runs,
		`SELECT run_id, symbol, composite_figi, start_time, end_time, num_rows, columns, skipped
		FROM feature_runs WHERE symbol=$1 ORDER BY end_time DESC`, symbol)
	return runs, err
}

// LoadFeatures reads the stored table for symbol. Columns follow the order
// recorded by the most recent run.
func (myLibrary *Library) LoadFeatures(ctx context.Context, symbol string) (*data.Table, error) {
	runs, err := myLibrary.Runs(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if len(runs) == 0 {
		return nil, data.ErrEmptyTable
	}

	rows := make([]*featureRow, 0)
	err = pgxscan.Select(ctx, myLibrary.Pool, &rows,
		`SELECT month_start, features FROM monthly_features WHERE symbol=$1 ORDER BY month_start`, symbol)
	if err != nil {
		return nil, err
	}

	table := data.NewTable("month_start", runs[0].Columns)
	for _, stored := range rows {
		values := make(map[string]interface{})
		if err := json.Unmarshal(stored.Features, &values); err != nil {
			return nil, err
		}

		row := data.NewRow(stored.MonthStart.UTC())
		for col, raw := range values {
			switch val := raw.(type) {
			case float64:
				row.Set(col, data.NumberValue(val))
			case string:
				row.Set(col, data.TextValue(val))
			}
			table.AddColumnName(col)
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// NumMonths returns the number of monthly rows stored for symbol
func (myLibrary *Library) NumMonths(ctx context.Context, symbol string) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, "SELECT count(*) FROM monthly_features WHERE symbol=$1", symbol).Scan(&count)
	return count, err
}
