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
	"time"

	"github.com/hako/durafmt"
	"github.com/penny-vault/pvfeatures/data"
	"github.com/penny-vault/pvfeatures/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [kind...]",
	Short: "Download raw payloads from Alpha Vantage",
	Long: `The fetch sub-command downloads the raw JSON payload for each record kind
and saves it to the raw data directory. Payloads that do not contain the key
expected for their kind (for example when the daily request allowance has
been used up) are reported and not saved. If no kinds are provided then every
kind is downloaded.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := commandContext()

		kinds, err := kindsFromArgs(args)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid record kind")
		}

		startTime := time.Now()
		stored, err := provider.Download(ctx, alphaVantage(), rawDirectory(), kinds)
		runTime := time.Since(startTime)

		if err != nil {
			log.Error().Err(err).Int("Stored", stored).Msg("some payloads could not be downloaded")
		}

		log.Info().Str("RunTime", durafmt.Parse(runTime).LimitFirstN(2).String()).Int("Stored", stored).Int("Requested", len(kinds)).Msg("fetch finished")
	},
}

func kindsFromArgs(args []string) ([]data.RecordKind, error) {
	if len(args) == 0 {
		return append([]data.RecordKind{data.MonthlyAdjusted}, data.FundamentalKinds...), nil
	}

	kinds := make([]data.RecordKind, 0, len(args))
	for _, arg := range args {
		kind, err := data.ParseRecordKind(arg)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}

	return kinds, nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
