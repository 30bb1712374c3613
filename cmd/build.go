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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hako/durafmt"
	"github.com/penny-vault/pvfeatures/backblaze"
	"github.com/penny-vault/pvfeatures/db"
	"github.com/penny-vault/pvfeatures/export"
	"github.com/penny-vault/pvfeatures/figi"
	"github.com/penny-vault/pvfeatures/library"
	"github.com/penny-vault/pvfeatures/pipeline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	labelStyle = lipgloss.NewStyle().Faint(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the monthly feature table from downloaded payloads",
	Long: `The build sub-command reads the raw payloads saved by fetch, merges the
quarterly statements, aligns them onto the monthly price index, computes the
derived features and writes the result in every configured export format.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := commandContext()

		startTime := time.Now()
		result, files, err := buildAndPublish(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("build failed")
		}

		log.Info().Str("RunTime", durafmt.Parse(time.Since(startTime)).LimitFirstN(2).String()).Msg("build finished")
		fmt.Println(renderResult(result, files))
	},
}

// buildAndPublish runs the pipeline over the raw directory, writes every
// export format and stores the result in the optional feature store
func buildAndPublish(ctx context.Context) (*pipeline.Result, []string, error) {
	logger := zerolog.Ctx(ctx)

	formats, err := exportFormats()
	if err != nil {
		return nil, nil, err
	}

	result, err := pipeline.Run(ctx, pipelineConfig(), rawDirectory())
	if err != nil {
		return nil, nil, err
	}

	files := make([]string, 0, len(formats))
	for _, format := range formats {
		fn := export.FileName(viper.GetString("paths.processed"), result.Symbol, format)
		if err := export.Write(result.Table, fn, format); err != nil {
			return nil, nil, err
		}
		files = append(files, fn)

		if format == export.Parquet {
			if b2 := backblazeConfig(); b2.Enabled() {
				if err := backblaze.Upload(b2, fn, strings.ToLower(result.Symbol)); err != nil {
					logger.Error().Err(err).Msg("failed uploading parquet file to Backblaze")
				}
			} else {
				logger.Debug().Msg("skipping upload to backblaze because backblaze credentials are missing")
			}
		}
	}

	if dbURL := viper.GetString("db.url"); dbURL != "" {
		if err := saveToLibrary(ctx, dbURL, result); err != nil {
			return nil, nil, err
		}
	}

	return result, files, nil
}

func saveToLibrary(ctx context.Context, dbURL string, result *pipeline.Result) error {
	logger := zerolog.Ctx(ctx)

	if err := db.Migrate(dbURL); err != nil {
		return err
	}

	compositeFigi := ""
	if apiKey := viper.GetString("openfigi.apikey"); apiKey != "" {
		resolver := figi.NewResolver(apiKey, "")
		var err error
		if compositeFigi, err = resolver.CompositeFigi(ctx, result.Symbol); err != nil {
			logger.Warn().Err(err).Msg("could not resolve composite figi")
		}
	}

	myLibrary, err := library.New(ctx, dbURL)
	if err != nil {
		return err
	}
	defer myLibrary.Close()

	if err := myLibrary.SaveResult(ctx, result, compositeFigi); err != nil {
		return err
	}

	logger.Info().Str("RunID", result.RunID.String()).Msg("saved features to library")
	return nil
}

func renderResult(result *pipeline.Result, files []string) string {
	builder := strings.Builder{}
	builder.WriteString(titleStyle.Render(fmt.Sprintf("%s monthly features", result.Symbol)))
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf("%s %d\n", labelStyle.Render("rows:"), result.Table.Len()))
	builder.WriteString(fmt.Sprintf("%s %d\n", labelStyle.Render("columns:"), len(result.Table.Columns)))

	for kind, dropped := range result.Dropped {
		builder.WriteString(warnStyle.Render(fmt.Sprintf("%s: %d records without a date were dropped", kind, dropped)))
		builder.WriteString("\n")
	}

	for _, kind := range result.Skipped {
		builder.WriteString(warnStyle.Render(fmt.Sprintf("%s: skipped, payload missing its key", kind)))
		builder.WriteString("\n")
	}

	for _, fn := range files {
		builder.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("wrote:"), fn))
	}

	return builder.String()
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringSlice("format", nil, "export formats (csv, parquet, xlsx)")
	if err := viper.BindPFlag("export.formats", buildCmd.Flags().Lookup("format")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for format failed")
	}
}
