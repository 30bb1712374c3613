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
package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a markdown description of what is stored for symbol
func (myLibrary *Library) Summary(ctx context.Context, symbol string) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("# %s monthly features\n", symbol))
	builder.WriteString("## Details\n\n")

	numMonths, err := myLibrary.NumMonths(ctx, symbol)
	if err != nil {
		return "", err
	}

	runs, err := myLibrary.Runs(ctx, symbol)
	if err != nil {
		return "", err
	}

	builder.WriteString(p.Sprintf("  * Months Stored: %d\n", numMonths))
	builder.WriteString(p.Sprintf("  * Runs: %d\n\n", len(runs)))

	if len(runs) == 0 {
		builder.WriteString("Last Updated: Never\n\n")
		return builder.String(), nil
	}

	latest := runs[0]
	builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", timeago.English.Format(latest.EndTime), latest.EndTime.Local().Format("01/02/2006")))

	if latest.CompositeFigi != "" {
		builder.WriteString(fmt.Sprintf("Composite FIGI: %s\n\n", latest.CompositeFigi))
	}

	builder.WriteString("## Latest Run\n\n")
	builder.WriteString(p.Sprintf("  * Rows: %d\n", latest.NumRows))
	builder.WriteString(p.Sprintf("  * Columns: %d\n", len(latest.Columns)))
	if len(latest.Skipped) > 0 {
		builder.WriteString(fmt.Sprintf("  * Skipped Sources: %s\n", strings.Join(latest.Skipped, ", ")))
	}

	table, err := myLibrary.LoadFeatures(ctx, symbol)
	if err != nil {
		return "", err
	}

	if table.Len() > 0 {
		first := table.Rows[0].Date.Format("Jan 2006")
		last := table.Rows[table.Len()-1].Date.Format("Jan 2006")
		builder.WriteString(fmt.Sprintf("\n## Stored Months\n\n  * Range: %s to %s\n", first, last))
		builder.WriteString(p.Sprintf("  * Stored Columns: %d\n", len(table.Columns)))
	}

	builder.WriteString("\n## History\n\n")
	builder.WriteString("| Run | Finished | Rows |\n|---|---|---|\n")
	for _, run := range runs {
		builder.WriteString(p.Sprintf("| %s | %s | %d |\n", run.RunID.String()[:8], timeago.English.Format(run.EndTime), run.NumRows))
	}

	return builder.String(), nil
}
