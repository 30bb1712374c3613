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
	"encoding/csv"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvfeatures/data"
)

// WriteCSV writes the table as comma separated text with a header row
func WriteCSV(w io.Writer, table *data.Table) error {
	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(w))
	for _, rec := range Records(table) {
		if err := writer.Write(rec); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func WriteCSVFile(table *data.Table, fn string) error {
	fh, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer fh.Close()

	if err := WriteCSV(fh, table); err != nil {
		return err
	}

	return fh.Close()
}
