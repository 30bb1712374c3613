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
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvfeatures/data"
	"github.com/penny-vault/pvfeatures/extract"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

	// free tier allowance
	DefaultRateLimit = 5
)

type AlphaVantageConfig struct {
	Symbol string
	APIKey string

	// BaseURL defaults to DefaultAlphaVantageURL
	BaseURL string

	// RateLimit is the maximum number of requests per minute
	RateLimit int

	Kinds data.KindRegistry
}

type AlphaVantage struct {
	symbol  string
	baseURL string
	kinds   data.KindRegistry

	client    *resty.Client
	limiter   *rate.Limiter
	extractor *extract.Extractor
}

func NewAlphaVantage(cfg AlphaVantageConfig) *AlphaVantage {
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}

	kinds := cfg.Kinds
	if kinds == nil {
		kinds = data.DefaultKinds()
	}

	return &AlphaVantage{
		symbol:    cfg.Symbol,
		baseURL:   baseURL,
		kinds:     kinds,
		client:    resty.New().SetQueryParam("apikey", cfg.APIKey).SetTimeout(60 * time.Second),
		limiter:   rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
		extractor: extract.NewExtractor(kinds),
	}
}

func (av *AlphaVantage) Name() string {
	return "Alpha Vantage"
}

func (av *AlphaVantage) Description() string {
	return `Alpha Vantage provides monthly adjusted prices and quarterly income statement, balance sheet, cash flow, earnings, and shares outstanding reports for US equities.`
}

func (av *AlphaVantage) ConfigDescription() map[string]string {
	return map[string]string{
		"alphavantage.apikey":     "Enter your Alpha Vantage API key:",
		"alphavantage.rate_limit": "What is the maximum number of requests per minute?",
	}
}

// Fetch downloads the raw payload for kind. The payload is returned as is;
// no retry is attempted when the request fails.
func (av *AlphaVantage) Fetch(ctx context.Context, kind data.RecordKind) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	spec, err := av.kinds.Lookup(kind)
	if err != nil {
		return nil, err
	}

	if err := av.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := av.client.R().
		SetContext(ctx).
		SetQueryParam("function", spec.Function).
		SetQueryParam("symbol", av.symbol).
		Get(av.baseURL)
	if err != nil {
		logger.Error().Err(err).Str("Function", spec.Function).Msg("alpha vantage request failed")
		return nil, err
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("Function", spec.Function).Msg("alpha vantage returned an invalid HTTP response")
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	logger.Debug().Str("Function", spec.Function).Str("Symbol", av.symbol).Int("Bytes", len(resp.Body())).Msg("fetched payload")

	return resp.Body(), nil
}

// Payload fetches kind and confirms the payload holds the expected key
func (av *AlphaVantage) Payload(ctx context.Context, kind data.RecordKind) ([]byte, error) {
	body, err := av.Fetch(ctx, kind)
	if err != nil {
		return nil, err
	}

	if err := av.extractor.Check(body, kind); err != nil {
		return nil, err
	}

	return body, nil
}
