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
	"fmt"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvfeatures/data"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetSchema struct {
	Tag    string          `json:"Tag"`
	Fields []parquetSchema `json:"Fields,omitempty"`
}

// ParquetSchema builds the JSON schema for table. Columns holding any text
// value are stored as UTF8 strings, all others as optional doubles.
func ParquetSchema(table *data.Table) (string, error) {
	root := parquetSchema{
		Tag: "name=parquet_go_root, repetitiontype=REQUIRED",
		Fields: []parquetSchema{
			{Tag: fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED", table.DateColumn)},
		},
	}

	for _, col := range table.Columns {
		tag := fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", col)
		if hasText(table, col) {
			tag = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", col)
		}
		root.Fields = append(root.Fields, parquetSchema{Tag: tag})
	}

	schema, err := json.Marshal(root)
	if err != nil {
		return "", err
	}

	return string(schema), nil
}

func WriteParquet(table *data.Table, fn string) error {
	schema, err := ParquetSchema(table)
	if err != nil {
		return err
	}

	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	pw, err := writer.NewJSONWriter(schema, fh, 4)
	if err != nil {
		log.Error().Err(err).Msg("parquet writer could not be created")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	textCols := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		textCols[col] = hasText(table, col)
	}

	for _, row := range table.Rows {
		rec := make(map[string]interface{}, len(table.Columns)+1)
		rec[table.DateColumn] = row.Date.Format(DateLayout)
		for _, col := range table.Columns {
			val := row.Get(col)
			switch {
			case val.IsNull():
				continue
			case textCols[col]:
				rec[col] = val.String()
			default:
				rec[col] = val.Interface()
			}
		}

		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		if err := pw.Write(string(line)); err != nil {
			log.Error().Err(err).Time("Date", row.Date).Msg("parquet write failed for row")
			return err
		}
	}

	if err := pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return err
	}

	return nil
}

func hasText(table *data.Table, col string) bool {
	for _, row := range table.Rows {
		if row.Get(col).Kind() == data.Text {
			return true
		}
	}
	return false
}
