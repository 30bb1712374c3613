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
package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvfeatures/data"
	"github.com/penny-vault/pvfeatures/features"
	"github.com/penny-vault/pvfeatures/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// kindsCmd represents the kinds command
var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the record kinds and derived features pvfeatures understands",
	Run: func(cmd *cobra.Command, args []string) {
		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(100),
		)

		av := provider.NewAlphaVantage(provider.AlphaVantageConfig{})
		kinds := data.DefaultKinds()

		builder := strings.Builder{}
		builder.WriteString(fmt.Sprintf("# %s\n", av.Name()))
		builder.WriteString(av.Description())
		builder.WriteString("\n\n## Record Kinds\n\n")
		builder.WriteString("| Kind | Function | Payload Key | Date |\n|---|---|---|---|\n")
		for _, kind := range append([]data.RecordKind{data.MonthlyAdjusted}, data.FundamentalKinds...) {
			spec := kinds[kind]
			date := spec.DateField
			if spec.DateSource == data.DateFromKey {
				date = "entry key"
			}
			builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", kind, spec.Function, spec.PayloadKey, date))
		}

		builder.WriteString("\n## Derived Features\n\n")
		for _, transform := range features.Default(viper.GetInt("features.window")) {
			builder.WriteString(fmt.Sprintf("- **%s** from %s\n", transform.Column, strings.Join(transform.Requires, ", ")))
		}

		out, err := r.Render(builder.String())
		if err != nil {
			log.Fatal().Err(err).Msg("could not render kinds document")
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
