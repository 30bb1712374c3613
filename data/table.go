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
package data

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Row is one reporting period. The canonical date is held outside of Values
// so that a table never has to guess which column is its key.
type Row struct {
	Date   time.Time
	Values map[string]Value
}

func NewRow(date time.Time) *Row {
	return &Row{
		Date:   date,
		Values: make(map[string]Value),
	}
}

// Get returns the value stored under col or Null when the column is absent
func (row *Row) Get(col string) Value {
	if row == nil {
		return Value{}
	}

	return row.Values[col]
}

func (row *Row) Set(col string, val Value) {
	row.Values[col] = val
}

// Clone makes a deep copy of the row
func (row *Row) Clone() *Row {
	cp := &Row{
		Date:   row.Date,
		Values: make(map[string]Value, len(row.Values)),
	}

	for k, v := range row.Values {
		cp.Values[k] = v
	}

	return cp
}

// Table is an ordered list of rows together with the name of the column that
// acts as its date key. The date column is not listed in Columns; its value
// is each row's Date.
type Table struct {
	Kind       RecordKind
	DateColumn string
	Columns    []string
	Rows       []*Row
}

func NewTable(dateColumn string, columns []string) *Table {
	return &Table{
		DateColumn: dateColumn,
		Columns:    slices.Clone(columns),
		Rows:       make([]*Row, 0),
	}
}

func (table *Table) Len() int {
	return len(table.Rows)
}

func (table *Table) HasColumn(col string) bool {
	return slices.Contains(table.Columns, col)
}

// AddColumnName appends col to the column list if it is not already present
func (table *Table) AddColumnName(col string) {
	if col == table.DateColumn || table.HasColumn(col) {
		return
	}

	table.Columns = append(table.Columns, col)
}

// Column returns every value of col in row order
func (table *Table) Column(col string) []Value {
	vals := make([]Value, len(table.Rows))
	for idx, row := range table.Rows {
		vals[idx] = row.Get(col)
	}

	return vals
}

// Clone returns a deep copy so later stages cannot observe mutations
func (table *Table) Clone() *Table {
	cp := &Table{
		Kind:       table.Kind,
		DateColumn: table.DateColumn,
		Columns:    slices.Clone(table.Columns),
		Rows:       make([]*Row, len(table.Rows)),
	}

	for idx, row := range table.Rows {
		cp.Rows[idx] = row.Clone()
	}

	return cp
}

// WithColumn returns a copy of the table with values stored under name. Rows
// are neither removed nor reordered.
func (table *Table) WithColumn(name string, values []Value) (*Table, error) {
	if len(values) != len(table.Rows) {
		return nil, fmt.Errorf("column %q has %d values but table has %d rows", name, len(values), len(table.Rows))
	}

	cp := table.Clone()
	cp.AddColumnName(name)
	for idx, row := range cp.Rows {
		row.Set(name, values[idx])
	}

	return cp, nil
}

// DropColumns returns a copy without the named columns. Names that are not
// present are ignored.
func (table *Table) DropColumns(cols ...string) *Table {
	cp := table.Clone()
	cp.Columns = slices.DeleteFunc(cp.Columns, func(col string) bool {
		return slices.Contains(cols, col)
	})

	for _, row := range cp.Rows {
		for _, col := range cols {
			delete(row.Values, col)
		}
	}

	return cp
}

// SortByDate orders rows ascending by date; rows sharing a date keep their
// original relative order
func (table *Table) SortByDate() {
	sort.SliceStable(table.Rows, func(i, j int) bool {
		return table.Rows[i].Date.Before(table.Rows[j].Date)
	})
}

// Dates returns the date of each row in order
func (table *Table) Dates() []time.Time {
	dates := make([]time.Time, len(table.Rows))
	for idx, row := range table.Rows {
		dates[idx] = row.Date
	}

	return dates
}

func (table *Table) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Kind", string(table.Kind))
	e.Str("DateColumn", table.DateColumn)
	e.Int("NumRows", len(table.Rows))
	e.Int("NumColumns", len(table.Columns))
	if len(table.Rows) > 0 {
		e.Time("FirstDate", table.Rows[0].Date)
		e.Time("LastDate", table.Rows[len(table.Rows)-1].Date)
	}
}
