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
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gosimple/slug"
	"github.com/penny-vault/pvfeatures/data"
	"github.com/rs/zerolog/log"
)

const DateLayout = "2006-01-02"

type Format string

const (
	CSV     Format = "csv"
	Parquet Format = "parquet"
	XLSX    Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case CSV:
		return CSV, nil
	case Parquet:
		return Parquet, nil
	case XLSX, "excel":
		return XLSX, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FileName builds the artifact path for symbol, e.g.
// data/processed/orcl-monthly-features.csv
func FileName(dir, symbol string, format Format) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s", slug.Make(symbol+" monthly features"), format))
}

// Header is the date column followed by every table column in order
func Header(table *data.Table) []string {
	header := make([]string, 0, len(table.Columns)+1)
	header = append(header, table.DateColumn)
	return append(header, table.Columns...)
}

// Records renders the table as strings, header first. Nulls are empty.
func Records(table *data.Table) [][]string {
	records := make([][]string, 0, len(table.Rows)+1)
	records = append(records, Header(table))
	for _, row := range table.Rows {
		rec := make([]string, 0, len(table.Columns)+1)
		rec = append(rec, row.Date.Format(DateLayout))
		for _, col := range table.Columns {
			rec = append(rec, row.Get(col).String())
		}
		records = append(records, rec)
	}

	return records
}

// Write saves table to fn in the given format
func Write(table *data.Table, fn string, format Format) error {
	if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
		return err
	}

	var err error
	switch format {
	case CSV:
		err = WriteCSVFile(table, fn)
	case Parquet:
		err = WriteParquet(table, fn)
	case XLSX:
		err = WriteXLSX(table, fn)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return err
	}

	if info, statErr := os.Stat(fn); statErr == nil {
		log.Info().Str("FileName", fn).Str("Format", string(format)).Str("Size", humanize.Bytes(uint64(info.Size()))).Int("NumRows", table.Len()).Msg("wrote feature table")
	}

	return nil
}
