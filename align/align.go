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
// Package align attaches quarterly fundamentals to a monthly price index
// without look-ahead. A report becomes usable in its "effective month": the
// month it is dated in when the report date falls before the lag threshold
// day, otherwise the month after. Each monthly row then receives the latest
// report whose effective month is not after the row's own month.
package align

import (
	"fmt"
	"sort"
	"time"

	"github.com/penny-vault/pvfeatures/data"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultLagDay is the day-of-month from which a report is deferred to
	// the following month
	DefaultLagDay = 15

	// IndexColumn names the date key of an aligned table
	IndexColumn = "month_start"
)

type Config struct {
	LagDay int
}

func DefaultConfig() Config {
	return Config{LagDay: DefaultLagDay}
}

type Aligner struct {
	lagDay int
}

func NewAligner(cfg Config) *Aligner {
	lagDay := cfg.LagDay
	if lagDay <= 0 {
		lagDay = DefaultLagDay
	}

	return &Aligner{lagDay: lagDay}
}

// MonthStart returns the first day of date's month
func MonthStart(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// EffectiveMonth returns the first day of the month in which a report dated
// reportDate is considered known
func (aligner *Aligner) EffectiveMonth(reportDate time.Time) time.Time {
	start := MonthStart(reportDate)
	if reportDate.Day() >= aligner.lagDay {
		return start.AddDate(0, 1, 0)
	}

	return start
}

type keyedRow struct {
	key time.Time
	row *data.Row
}

// Align builds a monthly table from monthly and quarterly. Rows are indexed by
// the start of their month and carry every price column followed by every
// fundamentals column. Rows before the first effective report get nulls for
// all fundamentals columns.
func (aligner *Aligner) Align(monthly, quarterly *data.Table) (*data.Table, error) {
	if monthly == nil {
		return nil, fmt.Errorf("%w: monthly prices", data.ErrEmptyTable)
	}

	if quarterly == nil {
		quarterly = data.NewTable("", nil)
	}

	months := make([]keyedRow, len(monthly.Rows))
	for idx, row := range monthly.Rows {
		months[idx] = keyedRow{key: MonthStart(row.Date), row: row}
	}

	// reports are ordered by report date first so that ties on the effective
	// month resolve to the later report
	reports := make([]keyedRow, len(quarterly.Rows))
	for idx, row := range quarterly.Rows {
		reports[idx] = keyedRow{row: row}
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].row.Date.Before(reports[j].row.Date)
	})
	for idx := range reports {
		reports[idx].key = aligner.EffectiveMonth(reports[idx].row.Date)
	}

	sortKeyed(months)
	sortKeyed(reports)

	fundamentalCols := make([]string, 0, len(quarterly.Columns))
	for _, col := range quarterly.Columns {
		if monthly.HasColumn(col) {
			log.Debug().Str("Column", col).Msg("price column shadows fundamentals column of the same name")
			continue
		}
		fundamentalCols = append(fundamentalCols, col)
	}

	columns := make([]string, 0, len(monthly.Columns)+len(fundamentalCols))
	columns = append(columns, monthly.Columns...)
	columns = append(columns, fundamentalCols...)

	out := data.NewTable(IndexColumn, columns)
	out.Rows = make([]*data.Row, 0, len(months))

	next := 0
	matched := 0
	for _, month := range months {
		for next < len(reports) && !reports[next].key.After(month.key) {
			next++
		}

		row := data.NewRow(month.key)
		for _, col := range monthly.Columns {
			if val, ok := month.row.Values[col]; ok {
				row.Set(col, val)
			}
		}

		if next > 0 {
			matched++
			report := reports[next-1].row
			for _, col := range fundamentalCols {
				if val, ok := report.Values[col]; ok {
					row.Set(col, val)
				}
			}
		}

		out.Rows = append(out.Rows, row)
	}

	log.Debug().Int("NumMonths", len(months)).Int("NumReports", len(reports)).Int("Matched", matched).Msg("aligned fundamentals onto monthly index")

	return out, nil
}

func sortKeyed(rows []keyedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].key.Before(rows[j].key)
	})
}
