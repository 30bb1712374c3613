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
	"strings"

	"github.com/penny-vault/pvfeatures/align"
	"github.com/penny-vault/pvfeatures/backblaze"
	"github.com/penny-vault/pvfeatures/data"
	"github.com/penny-vault/pvfeatures/export"
	"github.com/penny-vault/pvfeatures/features"
	"github.com/penny-vault/pvfeatures/pipeline"
	"github.com/penny-vault/pvfeatures/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func setDefaults() {
	viper.SetDefault("symbol", "ORCL")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("alphavantage.url", provider.DefaultAlphaVantageURL)
	viper.SetDefault("alphavantage.rate_limit", provider.DefaultRateLimit)
	viper.SetDefault("features.window", features.DefaultWindow)
	viper.SetDefault("features.lag_day", align.DefaultLagDay)
	viper.SetDefault("features.drop_columns", []string{})
	viper.SetDefault("features.strict", false)
	viper.SetDefault("paths.raw", "data/raw/prices")
	viper.SetDefault("paths.processed", "data/processed")
	viper.SetDefault("export.formats", []string{string(export.CSV)})
}

// commandContext returns a context carrying the global logger so packages
// that use zerolog.Ctx log through it
func commandContext() context.Context {
	logger := log.With().Str("Symbol", symbol()).Logger()
	return logger.WithContext(context.Background())
}

func symbol() string {
	return strings.ToUpper(strings.TrimSpace(viper.GetString("symbol")))
}

func pipelineConfig() pipeline.Config {
	return pipeline.Config{
		Symbol:      symbol(),
		Window:      viper.GetInt("features.window"),
		LagDay:      viper.GetInt("features.lag_day"),
		DropColumns: viper.GetStringSlice("features.drop_columns"),
		Strict:      viper.GetBool("features.strict"),
		Kinds:       data.DefaultKinds(),
	}
}

func alphaVantage() *provider.AlphaVantage {
	return provider.NewAlphaVantage(provider.AlphaVantageConfig{
		Symbol:    symbol(),
		APIKey:    viper.GetString("alphavantage.apikey"),
		BaseURL:   viper.GetString("alphavantage.url"),
		RateLimit: viper.GetInt("alphavantage.rate_limit"),
	})
}

func rawDirectory() *provider.Directory {
	return provider.NewDirectory(viper.GetString("paths.raw"), symbol(), data.DefaultKinds())
}

func exportFormats() ([]export.Format, error) {
	names := viper.GetStringSlice("export.formats")
	formats := make([]export.Format, 0, len(names))
	for _, name := range names {
		format, err := export.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, format)
	}

	return formats, nil
}

func backblazeConfig() backblaze.Config {
	return backblaze.Config{
		ApplicationID:  viper.GetString("backblaze.application_id"),
		ApplicationKey: viper.GetString("backblaze.application_key"),
		Bucket:         viper.GetString("backblaze.bucket"),
	}
}
