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
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pvfeatures/align"
	"github.com/penny-vault/pvfeatures/data"
	"github.com/penny-vault/pvfeatures/extract"
	"github.com/penny-vault/pvfeatures/features"
	"github.com/penny-vault/pvfeatures/merge"
	"github.com/rs/zerolog"
)

// Source supplies the raw payload for one record kind
type Source interface {
	Payload(ctx context.Context, kind data.RecordKind) ([]byte, error)
}

type Config struct {
	Symbol      string
	Window      int
	LagDay      int
	DropColumns []string

	// Strict makes a missing payload key fatal for every kind. Otherwise only
	// the monthly series is required and fundamentals sources are skipped.
	Strict bool

	// Kinds defaults to data.DefaultKinds()
	Kinds data.KindRegistry

	// Transforms defaults to features.Default(Window)
	Transforms []features.Transform
}

type Result struct {
	RunID     uuid.UUID
	Symbol    string
	StartTime time.Time
	EndTime   time.Time

	Table *data.Table

	// Dropped counts rows removed per kind because their date was unusable
	Dropped map[data.RecordKind]int

	// Skipped lists sources whose payload lacked the expected key
	Skipped []data.RecordKind

	// Collisions lists fundamentals columns discarded by the merger
	Collisions []string
}

func (result *Result) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RunID", result.RunID.String())
	e.Str("Symbol", result.Symbol)
	if result.Table != nil {
		e.Int("NumRows", result.Table.Len())
		e.Int("NumColumns", len(result.Table.Columns))
	}
	e.Int("NumSkipped", len(result.Skipped))
	e.Int("NumCollisions", len(result.Collisions))
}

// Run pulls every payload from src and builds the feature table
func Run(ctx context.Context, cfg Config, src Source) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	payloads := make(map[data.RecordKind][]byte)
	for _, kind := range kindsInOrder() {
		payload, err := src.Payload(ctx, kind)
		if err != nil {
			if skippable(cfg, kind, err) {
				logger.Warn().Err(err).Str("Kind", string(kind)).Msg("skipping source")
				continue
			}
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}

		payloads[kind] = payload
	}

	return Build(ctx, cfg, payloads)
}

// Build runs extraction, normalization, merging, alignment and derived
// features over payloads that are already in memory
func Build(ctx context.Context, cfg Config, payloads map[data.RecordKind][]byte) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	kinds := cfg.Kinds
	if kinds == nil {
		kinds = data.DefaultKinds()
	}

	transforms := cfg.Transforms
	if transforms == nil {
		transforms = features.Default(cfg.Window)
	}

	result := &Result{
		RunID:     uuid.New(),
		Symbol:    cfg.Symbol,
		StartTime: time.Now(),
		Dropped:   make(map[data.RecordKind]int),
	}

	extractor := extract.NewExtractor(kinds)
	normalizer := extract.NewNormalizer(kinds)

	tableFor := func(kind data.RecordKind) (*data.Table, error) {
		payload, ok := payloads[kind]
		if !ok {
			return nil, fmt.Errorf("%w: no payload for %s", data.ErrMissingKey, kind)
		}

		records, err := extractor.Extract(payload, kind)
		if err != nil {
			return nil, err
		}

		table, dropped, err := normalizer.Normalize(records, kind)
		if err != nil {
			return nil, err
		}

		if dropped > 0 {
			result.Dropped[kind] = dropped
		}

		logger.Debug().Object("Table", table).Msg("normalized source table")
		return table, nil
	}

	monthly, err := tableFor(data.MonthlyAdjusted)
	if err != nil {
		return nil, err
	}

	quarterly := make([]*data.Table, 0, len(data.FundamentalKinds))
	for _, kind := range data.FundamentalKinds {
		table, err := tableFor(kind)
		if err != nil {
			if skippable(cfg, kind, err) {
				logger.Warn().Err(err).Str("Kind", string(kind)).Msg("skipping source")
				result.Skipped = append(result.Skipped, kind)
				continue
			}
			return nil, err
		}

		quarterly = append(quarterly, table)
	}

	merged := merge.Fundamentals(quarterly)
	for idx := range quarterly {
		result.Collisions = append(result.Collisions, merged.Dropped[idx]...)
	}

	aligner := align.NewAligner(align.Config{LagDay: cfg.LagDay})
	aligned, err := aligner.Align(monthly, merged.Table)
	if err != nil {
		return nil, err
	}

	table, err := features.Apply(aligned, transforms)
	if err != nil {
		return nil, err
	}

	if len(cfg.DropColumns) > 0 {
		table = table.DropColumns(cfg.DropColumns...)
	}

	result.Table = table
	result.EndTime = time.Now()

	logger.Info().Object("Result", result).Msg("built monthly feature table")

	return result, nil
}

func kindsInOrder() []data.RecordKind {
	kinds := []data.RecordKind{data.MonthlyAdjusted}
	return append(kinds, data.FundamentalKinds...)
}

func skippable(cfg Config, kind data.RecordKind, err error) bool {
	if cfg.Strict || kind == data.MonthlyAdjusted {
		return false
	}

	return errors.Is(err, data.ErrMissingKey) || errors.Is(err, fs.ErrNotExist)
}
