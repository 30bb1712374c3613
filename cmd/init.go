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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvfeatures/db"
	"github.com/penny-vault/pvfeatures/healthcheck"
	"github.com/penny-vault/pvfeatures/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type fileConfig struct {
	Symbol       string             `toml:"symbol"`
	AlphaVantage alphaVantageConfig `toml:"alphavantage"`
	Features     featuresConfig     `toml:"features"`
	Paths        pathsConfig        `toml:"paths"`
	Export       exportConfig       `toml:"export"`
	DB           dbConfig           `toml:"db"`
	Healthchecks healthchecksConfig `toml:"healthchecks"`
}

type alphaVantageConfig struct {
	APIKey    string `toml:"apikey,omitempty"`
	RateLimit int    `toml:"rate_limit"`
}

type featuresConfig struct {
	Window      int      `toml:"window"`
	DropColumns []string `toml:"drop_columns"`
}

type pathsConfig struct {
	Raw       string `toml:"raw"`
	Processed string `toml:"processed"`
}

type exportConfig struct {
	Formats []string `toml:"formats"`
}

type dbConfig struct {
	URL string `toml:"url,omitempty"`
}

type healthchecksConfig struct {
	APIKey  string `toml:"apikey,omitempty"`
	CheckID string `toml:"check_id,omitempty"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather configuration and setup the optional feature store",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		conf := fileConfig{
			Symbol: symbol(),
			AlphaVantage: alphaVantageConfig{
				APIKey:    viper.GetString("alphavantage.apikey"),
				RateLimit: viper.GetInt("alphavantage.rate_limit"),
			},
			Features: featuresConfig{
				Window:      viper.GetInt("features.window"),
				DropColumns: viper.GetStringSlice("features.drop_columns"),
			},
			Paths: pathsConfig{
				Raw:       viper.GetString("paths.raw"),
				Processed: viper.GetString("paths.processed"),
			},
			Export: exportConfig{
				Formats: viper.GetStringSlice("export.formats"),
			},
			DB: dbConfig{
				URL: viper.GetString("db.url"),
			},
			Healthchecks: healthchecksConfig{
				APIKey: viper.GetString("healthchecks.apikey"),
			},
		}

		av := provider.NewAlphaVantage(provider.AlphaVantageConfig{})
		rateLimit := strconv.Itoa(conf.AlphaVantage.RateLimit)
		window := strconv.Itoa(conf.Features.Window)
		dropColumns := strings.Join(conf.Features.DropColumns, ",")
		monitored := false

		form := huh.NewForm(
			// what to build
			huh.NewGroup(
				huh.NewInput().
					Title("Which symbol should be processed?").
					Value(&conf.Symbol),
				huh.NewInput().
					Title("How many months should the rolling volatility cover?").
					Value(&window).
					Validate(validateInt),
				huh.NewInput().
					Title("Columns to remove before export (comma separated):").
					Value(&dropColumns),
				huh.NewMultiSelect[string]().
					Title("Which export formats should be written?").
					Options(huh.NewOptions("csv", "parquet", "xlsx")...).
					Value(&conf.Export.Formats),
			),

			// provider access
			huh.NewGroup(
				huh.NewInput().
					Title(av.ConfigDescription()["alphavantage.apikey"]).
					Value(&conf.AlphaVantage.APIKey),
				huh.NewInput().
					Title(av.ConfigDescription()["alphavantage.rate_limit"]).
					Value(&rateLimit).
					Validate(validateInt),
			),

			// optional feature store
			huh.NewGroup(
				huh.NewInput().
					Title("Provide the DSN for the optional PostgreSQL feature store (leave blank to skip)").
					Value(&conf.DB.URL).
					Validate(func(dsn string) error {
						if dsn == "" {
							return nil
						}
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
				huh.NewConfirm().
					Title("Should a healthchecks.io monitor be created for scheduled runs?").
					Value(&monitored),
			),
		)

		if err := form.Run(); err != nil {
			log.Fatal().Err(err).Msg("error gathering settings")
		}

		conf.AlphaVantage.RateLimit, _ = strconv.Atoi(strings.TrimSpace(rateLimit))
		conf.Features.Window, _ = strconv.Atoi(strings.TrimSpace(window))
		conf.Features.DropColumns = splitList(dropColumns)

		if conf.DB.URL != "" {
			log.Info().Msg("creating feature store tables")
			if err := db.Migrate(conf.DB.URL); err != nil {
				log.Fatal().Err(err).Msg("error running database migration")
			}
		}

		if monitored {
			if conf.Healthchecks.APIKey == "" {
				log.Fatal().Msg("healthchecks.apikey must be configured to create a monitor")
			}

			monitor := healthcheck.New(conf.Healthchecks.APIKey)
			name := conf.Symbol + " monthly features"
			checkID, err := monitor.Create(ctx, name, slug.Make(name), []string{"pvfeatures"}, "0 6 * * 1-5")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create healthcheck")
			}
			conf.Healthchecks.CheckID = checkID
		}

		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".pvfeatures.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving configuration to config file")
		configData, err := toml.Marshal(conf)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		if err := os.WriteFile(configFN, configData, 0600); err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("pvfeatures has been initialized")
	},
}

func validateInt(val string) error {
	_, err := strconv.Atoi(strings.TrimSpace(val))
	return err
}

func splitList(val string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func init() {
	rootCmd.AddCommand(initCmd)
}
