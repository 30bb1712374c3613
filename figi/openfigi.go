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
package figi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	OPENFIGI_MAPPING_URL string = "https://api.openfigi.com/v3/mapping"
)

var (
	ErrNotFound = errors.New("no figi mapping for symbol")
	ErrStatus   = errors.New("openfigi returned an invalid status code")
)

type MappingResponse struct {
	Data    []*OpenFigiAsset `json:"data"`
	Warning string           `json:"warning"`
}

type OpenFigiAsset struct {
	Figi                string `json:"figi"`
	SecurityType        string `json:"securityType"`
	MarketSector        string `json:"marketSector"`
	Ticker              string `json:"ticker"`
	Name                string `json:"name"`
	ExchangeCode        string `json:"exchCode"`
	ShareClassFIGI      string `json:"shareClassFIGI"`
	CompositeFIGI       string `json:"compositeFIGI"`
	SecurityType2       string `json:"securityType2"`
	SecurityDescription string `json:"securityDescription"`
}

type OpenFigiQuery struct {
	IdType                  string `json:"idType"`
	IdValue                 string `json:"idValue"`
	ExchangeCode            string `json:"exchCode"`
	MarketSectorDescription string `json:"marketSecDes"`
}

// Resolver maps ticker symbols to composite FIGIs and remembers the answers
type Resolver struct {
	url     string
	client  *resty.Client
	limiter *rate.Limiter
	cache   *haxmap.Map[string, *OpenFigiAsset]
}

// NewResolver creates a resolver; url defaults to OPENFIGI_MAPPING_URL
func NewResolver(apiKey, url string) *Resolver {
	if url == "" {
		url = OPENFIGI_MAPPING_URL
	}

	client := resty.New().SetTimeout(30 * time.Second)
	if apiKey != "" {
		client.SetHeader("X-OPENFIGI-APIKEY", apiKey)
	}

	return &Resolver{
		url:     url,
		client:  client,
		limiter: rate.NewLimiter(rate.Every((time.Second*6)/25), 10),
		cache:   haxmap.New[string, *OpenFigiAsset](),
	}
}

// Lookup returns the OpenFIGI record for a US equity ticker
func (resolver *Resolver) Lookup(ctx context.Context, symbol string) (*OpenFigiAsset, error) {
	logger := zerolog.Ctx(ctx)

	ticker := strings.ToUpper(strings.TrimSpace(symbol))
	if asset, ok := resolver.cache.Get(ticker); ok {
		return asset, nil
	}

	if err := resolver.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := []*OpenFigiQuery{
		{
			IdType:                  "TICKER",
			IdValue:                 ticker,
			ExchangeCode:            "US",
			MarketSectorDescription: "Equity",
		},
	}

	mappingResponse := make([]*MappingResponse, 0)
	resp, err := resolver.client.R().
		SetContext(ctx).
		SetBody(query).
		SetResult(&mappingResponse).
		Post(resolver.url)
	if err != nil {
		logger.Error().Err(err).Msg("OpenFigi api call errored out")
		return nil, err
	}

	if resp.StatusCode() >= 400 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("Body", string(resp.Body())).Msg("openfigi api call returned invalid status code")
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	for _, mapping := range mappingResponse {
		for _, asset := range mapping.Data {
			if asset.CompositeFIGI != "" {
				resolver.cache.Set(ticker, asset)
				logger.Debug().Str("Ticker", ticker).Str("CompositeFigi", asset.CompositeFIGI).Msg("mapped ticker to figi")
				return asset, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
}

// CompositeFigi is a convenience wrapper around Lookup
func (resolver *Resolver) CompositeFigi(ctx context.Context, symbol string) (string, error) {
	asset, err := resolver.Lookup(ctx, symbol)
	if err != nil {
		return "", err
	}

	return asset.CompositeFIGI, nil
}
