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
package merge

import (
	"slices"

	"github.com/penny-vault/pvfeatures/data"
	"github.com/rs/zerolog/log"
)

// DefaultDateColumn names the key of a merged fundamentals table
const DefaultDateColumn = "fiscalDateEnding"

// Result is the merged quarterly table along with what was lost on the way
type Result struct {
	Table *data.Table

	// Dropped lists, per source table index, the columns discarded because an
	// earlier table already defined them
	Dropped map[int][]string

	// Duplicates counts rows collapsed because a source table repeated a date
	Duplicates int
}

// Fundamentals folds the quarterly tables into one table with a full outer
// join on date. Columns already defined by an earlier table are dropped from
// later tables before joining. An empty input yields an empty table.
func Fundamentals(tables []*data.Table) *Result {
	result := &Result{
		Dropped: make(map[int][]string),
	}

	var merged *data.Table
	index := make(map[int64]*data.Row)

	for tableIdx, tbl := range tables {
		if tbl == nil {
			continue
		}

		incoming, dups := dedupeDates(tbl)
		result.Duplicates += dups

		if merged == nil {
			merged = incoming
			merged.Kind = ""
			for _, row := range merged.Rows {
				index[row.Date.Unix()] = row
			}
			continue
		}

		keep := make([]string, 0, len(incoming.Columns))
		for _, col := range incoming.Columns {
			if col == merged.DateColumn || col == incoming.DateColumn {
				continue
			}

			if merged.HasColumn(col) {
				result.Dropped[tableIdx] = append(result.Dropped[tableIdx], col)
				continue
			}

			keep = append(keep, col)
		}

		if len(result.Dropped[tableIdx]) > 0 {
			log.Debug().Str("Kind", string(incoming.Kind)).Strs("Columns", result.Dropped[tableIdx]).Msg("dropping columns already defined by an earlier table")
		}

		for _, row := range incoming.Rows {
			key := row.Date.Unix()
			target, ok := index[key]
			if !ok {
				target = data.NewRow(row.Date)
				index[key] = target
				merged.Rows = append(merged.Rows, target)
			}

			for _, col := range keep {
				if val, ok := row.Values[col]; ok {
					target.Set(col, val)
				}
			}
		}

		merged.Columns = append(merged.Columns, keep...)
	}

	if merged == nil {
		result.Table = data.NewTable(DefaultDateColumn, nil)
		return result
	}

	merged.SortByDate()
	result.Table = merged

	if result.Duplicates > 0 {
		log.Warn().Int("Duplicates", result.Duplicates).Msg("collapsed repeated report dates, later rows win")
	}

	return result
}

// dedupeDates copies tbl keeping only the last row for each date. The input
// is expected to be stably sorted so the last row is the latest restatement.
func dedupeDates(tbl *data.Table) (*data.Table, int) {
	cp := tbl.Clone()
	cp.SortByDate()

	rows := make([]*data.Row, 0, len(cp.Rows))
	for _, row := range cp.Rows {
		if n := len(rows); n > 0 && rows[n-1].Date.Equal(row.Date) {
			rows[n-1] = row
			continue
		}
		rows = append(rows, row)
	}

	dups := len(cp.Rows) - len(rows)
	cp.Rows = slices.Clip(rows)

	return cp, dups
}
