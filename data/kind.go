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
	"strings"
)

// DateSource says where the canonical date of a record lives
type DateSource int

const (
	// DateFromKey means the record is nested under its date string
	DateFromKey DateSource = iota
	// DateFromField means the record carries its date in a named field
	DateFromField
)

// KindSpec describes how a provider payload of one RecordKind is laid out
type KindSpec struct {
	Kind RecordKind

	// Function is the provider function that returns this kind
	Function string

	// PayloadKey is the top-level key holding the records
	PayloadKey string

	DateSource DateSource

	// DateField names the field carrying the date when DateSource is
	// DateFromField. For keyed kinds it is the name given to the date column.
	DateField string

	// StripPrefix removes numbered labels such as "1. open" from field names
	StripPrefix bool
}

// KindRegistry maps every supported kind to its payload layout. A registry is
// handed to the extractor and normalizer explicitly; no package level state is
// consulted while processing payloads.
type KindRegistry map[RecordKind]*KindSpec

// DefaultKinds returns a fresh registry for the Alpha Vantage payload shapes
func DefaultKinds() KindRegistry {
	return KindRegistry{
		MonthlyAdjusted: {
			Kind:        MonthlyAdjusted,
			Function:    "TIME_SERIES_MONTHLY_ADJUSTED",
			PayloadKey:  "Monthly Adjusted Time Series",
			DateSource:  DateFromKey,
			DateField:   "date",
			StripPrefix: true,
		},
		IncomeStatement: {
			Kind:       IncomeStatement,
			Function:   "INCOME_STATEMENT",
			PayloadKey: "quarterlyReports",
			DateSource: DateFromField,
			DateField:  "fiscalDateEnding",
		},
		BalanceSheet: {
			Kind:       BalanceSheet,
			Function:   "BALANCE_SHEET",
			PayloadKey: "quarterlyReports",
			DateSource: DateFromField,
			DateField:  "fiscalDateEnding",
		},
		CashFlow: {
			Kind:       CashFlow,
			Function:   "CASH_FLOW",
			PayloadKey: "quarterlyReports",
			DateSource: DateFromField,
			DateField:  "fiscalDateEnding",
		},
		Earnings: {
			Kind:       Earnings,
			Function:   "EARNINGS",
			PayloadKey: "quarterlyEarnings",
			DateSource: DateFromField,
			DateField:  "fiscalDateEnding",
		},
		SharesOutstanding: {
			Kind:       SharesOutstanding,
			Function:   "SHARES_OUTSTANDING",
			PayloadKey: "data",
			DateSource: DateFromField,
			DateField:  "date",
		},
	}
}

// Lookup returns the spec registered for kind
func (registry KindRegistry) Lookup(kind RecordKind) (*KindSpec, error) {
	spec, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}

	return spec, nil
}

// Parse accepts either a kind name or its provider function name
func (registry KindRegistry) Parse(name string) (RecordKind, error) {
	trimmed := strings.TrimSpace(name)
	for kind, spec := range registry {
		if strings.EqualFold(trimmed, string(kind)) || trimmed == spec.Function {
			return kind, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
}
