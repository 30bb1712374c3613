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
	"github.com/penny-vault/pvfeatures/data"
	"github.com/xuri/excelize/v2"
)

// WriteXLSX saves the table as a single sheet workbook. Numbers are stored
// as numeric cells and nulls are left blank.
func WriteXLSX(table *data.Table, fn string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for colIdx, name := range Header(table) {
		cell, err := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}

	for rowIdx, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, row.Date.Format(DateLayout)); err != nil {
			return err
		}

		for colIdx, col := range table.Columns {
			val := row.Get(col)
			if val.IsNull() {
				continue
			}

			cell, err := excelize.CoordinatesToCellName(colIdx+2, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val.Interface()); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(fn)
}
