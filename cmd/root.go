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
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvfeatures",
	Short: "pvfeatures builds point-in-time monthly feature tables for a single equity",
	Long: `pvfeatures downloads monthly adjusted prices and quarterly fundamentals
for one symbol from Alpha Vantage and joins them into a single monthly table
suitable for research and model training.

Quarterly reports are attached to the monthly price index using a reporting-lag
rule so that no row ever sees a report before the market could have:

	* reports dated before the 15th are usable in their own month
	* reports dated on or after the 15th are usable from the following month

Derived features such as returns, volatility, margins, and leverage ratios are
appended to the table before it is written as CSV, Parquet, or a spreadsheet.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := zerolog.ParseLevel(viper.GetString("log.level"))
		if err != nil {
			log.Warn().Str("Level", viper.GetString("log.level")).Msg("unknown log level, using info")
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvfeatures.toml)")

	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for log-level failed")
	}

	rootCmd.PersistentFlags().StringP("symbol", "s", "", "equity symbol to process (default ORCL)")
	if err := viper.BindPFlag("symbol", rootCmd.PersistentFlags().Lookup("symbol")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for symbol failed")
	}

	setDefaults()
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	// the api key is commonly kept in a .env file next to the data directory
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvfeatures" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvfeatures")
	}

	viper.AutomaticEnv() // read in environment variables that match
	if err := viper.BindEnv("alphavantage.apikey", "ALPHA_VANTAGE_API_KEY"); err != nil {
		log.Panic().Err(err).Msg("BindEnv for alphavantage.apikey failed")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
