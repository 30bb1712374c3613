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
	"time"

	"github.com/hako/durafmt"
	"github.com/penny-vault/pvfeatures/healthcheck"
	"github.com/penny-vault/pvfeatures/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch payloads and build the feature table in one step",
	Long: `The run sub-command executes fetch followed by build. When a healthchecks.io
check id is configured the run is reported as started, succeeded or failed so
scheduled runs can be monitored.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := commandContext()

		monitor := healthcheck.New(viper.GetString("healthchecks.apikey"))
		checkID := viper.GetString("healthchecks.check_id")

		if err := monitor.Start(ctx, checkID); err != nil {
			log.Warn().Err(err).Msg("could not signal start to healthchecks.io")
		}

		fail := func(err error, msg string) {
			if pingErr := monitor.Fail(ctx, checkID, err.Error()); pingErr != nil {
				log.Warn().Err(pingErr).Msg("could not signal failure to healthchecks.io")
			}
			log.Fatal().Err(err).Msg(msg)
		}

		startTime := time.Now()

		kinds, _ := kindsFromArgs(nil)
		stored, err := provider.Download(ctx, alphaVantage(), rawDirectory(), kinds)
		if err != nil {
			// stale payloads from an earlier fetch may still let build succeed
			log.Error().Err(err).Int("Stored", stored).Msg("some payloads could not be downloaded")
		}

		result, files, err := buildAndPublish(ctx)
		if err != nil {
			fail(err, "build failed")
		}

		runTime := time.Since(startTime)
		summary := fmt.Sprintf("%s: %d rows, %d columns in %s", result.Symbol, result.Table.Len(), len(result.Table.Columns), durafmt.Parse(runTime).LimitFirstN(2))
		if err := monitor.Success(ctx, checkID, summary); err != nil {
			log.Warn().Err(err).Msg("could not signal success to healthchecks.io")
		}

		log.Info().Str("RunTime", durafmt.Parse(runTime).LimitFirstN(2).String()).Msg("run finished")
		fmt.Println(renderResult(result, files))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
