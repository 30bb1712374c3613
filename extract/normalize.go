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
package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pvfeatures/data"
	"github.com/rs/zerolog/log"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Normalizer turns extracted records into a Table keyed by a calendar date
type Normalizer struct {
	kinds data.KindRegistry
}

func NewNormalizer(kinds data.KindRegistry) *Normalizer {
	return &Normalizer{kinds: kinds}
}

// Normalize parses the date of every record and builds a table sorted
// ascending by date. Records whose date is missing or unparseable are dropped;
// the number dropped is returned so callers can report it.
func (normalizer *Normalizer) Normalize(records []*Record, kind data.RecordKind) (*data.Table, int, error) {
	spec, err := normalizer.kinds.Lookup(kind)
	if err != nil {
		return nil, 0, err
	}

	table := data.NewTable(spec.DateField, nil)
	table.Kind = kind

	dropped := 0
	for _, record := range records {
		rawDate := record.Key
		if spec.DateSource == data.DateFromField {
			rawDate = record.Fields[spec.DateField]
		}

		date, err := ParseDate(rawDate)
		if err != nil {
			dropped++
			log.Debug().Err(err).Str("Kind", string(kind)).Str("DateStr", rawDate).Msg("dropping record without a usable date")
			continue
		}

		row := data.NewRow(date)
		for _, name := range record.Order {
			if name == spec.DateField {
				continue
			}

			table.AddColumnName(name)
			row.Set(name, data.ParseValue(record.Fields[name]))
		}

		table.Rows = append(table.Rows, row)
	}

	table.SortByDate()

	if dropped > 0 {
		log.Warn().Err(data.ErrMissingDate).Str("Kind", string(kind)).Int("Dropped", dropped).Msg("records dropped during date normalization")
	}

	return table, dropped, nil
}

// ParseDate parses a provider date string into a calendar date at midnight UTC
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "None" {
		return time.Time{}, data.ErrMissingDate
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: cannot parse %q", data.ErrMissingDate, raw)
}
