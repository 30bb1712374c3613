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
package features

import (
	"fmt"
	"slices"

	"github.com/penny-vault/pvfeatures/data"
	"github.com/rs/zerolog/log"
)

// DefaultWindow is the number of periods in the rolling volatility
const DefaultWindow = 3

// Transform adds exactly one column to a table. Compute receives the table
// only after every column in Requires has been confirmed present.
type Transform struct {
	Column   string
	Requires []string
	Compute  func(table *data.Table) []data.Value
}

// Apply runs transforms in order and returns a new table. The input table is
// not modified. A transform whose dependencies are absent fails the whole
// call with data.ErrMissingDependency.
func Apply(table *data.Table, transforms []Transform) (*data.Table, error) {
	current := table.Clone()
	for _, transform := range transforms {
		for _, dep := range transform.Requires {
			if !current.HasColumn(dep) {
				return nil, fmt.Errorf("%w: %s needs %s", data.ErrMissingDependency, transform.Column, dep)
			}
		}

		next, err := current.WithColumn(transform.Column, transform.Compute(current))
		if err != nil {
			return nil, err
		}

		log.Debug().Str("Column", transform.Column).Msg("computed derived feature")
		current = next
	}

	return current, nil
}

// Columns returns the names produced by transforms in order
func Columns(transforms []Transform) []string {
	cols := make([]string, len(transforms))
	for idx, transform := range transforms {
		cols[idx] = transform.Column
	}
	return cols
}

// Default returns the standard feature set in dependency order
func Default(window int) []Transform {
	return []Transform{
		MonthlyReturn(),
		MonthlyVolatility(window),
		Ratio("price_range_pct", Difference("high", "low"), "close"),
		PctChange("volume_change", "volume"),
		Ratio("profit_margin", Col("netIncome"), "totalRevenue"),
		Ratio("operating_margin", Col("operatingIncome"), "totalRevenue"),
		Ratio("gross_margin", Col("grossProfit"), "totalRevenue"),
		Ratio("current_ratio", Col("totalCurrentAssets"), "totalCurrentLiabilities"),
		Ratio("debt_to_equity", Col("totalLiabilities"), "totalShareholderEquity"),
		FreeCashFlow(),
		Ratio("fcf_margin", Col("free_cash_flow"), "totalRevenue"),
		Ratio("ebitda_margin", Col("ebitda"), "totalRevenue"),
		Ratio("interest_coverage", Col("ebit"), "interestExpense"),
	}
}

// Operand is a per-row numeric expression with the columns it reads
type Operand struct {
	Columns []string
	Eval    func(row *data.Row) data.Value
}

// Col reads a single column
func Col(name string) Operand {
	return Operand{
		Columns: []string{name},
		Eval: func(row *data.Row) data.Value {
			return row.Get(name)
		},
	}
}

// Difference evaluates a - b; null when either side is null
func Difference(a, b string) Operand {
	return Operand{
		Columns: []string{a, b},
		Eval: func(row *data.Row) data.Value {
			return Subtract(row.Get(a), row.Get(b))
		},
	}
}

// Ratio divides numerator by the denominator column using SafeDivide
func Ratio(column string, numerator Operand, denominator string) Transform {
	requires := slices.Clone(numerator.Columns)
	requires = append(requires, denominator)

	return Transform{
		Column:   column,
		Requires: requires,
		Compute: func(table *data.Table) []data.Value {
			vals := make([]data.Value, len(table.Rows))
			for idx, row := range table.Rows {
				vals[idx] = SafeDivide(numerator.Eval(row), row.Get(denominator))
			}
			return vals
		},
	}
}

func MonthlyReturn() Transform {
	return PctChange("monthly_return", "adjusted_close")
}

// PctChange computes the change of source relative to the previous row
func PctChange(column, source string) Transform {
	return Transform{
		Column:   column,
		Requires: []string{source},
		Compute: func(table *data.Table) []data.Value {
			vals := make([]data.Value, len(table.Rows))
			for idx := range table.Rows {
				if idx == 0 {
					vals[idx] = data.NullValue()
					continue
				}

				cur := table.Rows[idx].Get(source)
				prev := table.Rows[idx-1].Get(source)
				vals[idx] = SafeDivide(Subtract(cur, prev), prev)
			}
			return vals
		},
	}
}

// MonthlyVolatility is the rolling sample standard deviation of
// monthly_return over window periods
func MonthlyVolatility(window int) Transform {
	if window <= 0 {
		window = DefaultWindow
	}

	return Transform{
		Column:   "monthly_volatility",
		Requires: []string{"monthly_return"},
		Compute: func(table *data.Table) []data.Value {
			return RollingStd(table.Column("monthly_return"), window)
		},
	}
}

func FreeCashFlow() Transform {
	return Transform{
		Column:   "free_cash_flow",
		Requires: []string{"operatingCashflow", "capitalExpenditures"},
		Compute: func(table *data.Table) []data.Value {
			vals := make([]data.Value, len(table.Rows))
			for idx, row := range table.Rows {
				vals[idx] = Subtract(row.Get("operatingCashflow"), row.Get("capitalExpenditures"))
			}
			return vals
		},
	}
}
