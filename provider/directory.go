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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvfeatures/data"
	"github.com/penny-vault/pvfeatures/extract"
	"github.com/rs/zerolog"
)

// Directory keeps raw payloads on disk, one file per symbol and function
// (e.g. ORCL_INCOME_STATEMENT.json)
type Directory struct {
	Path   string
	Symbol string
	Kinds  data.KindRegistry
}

func NewDirectory(path, symbol string, kinds data.KindRegistry) *Directory {
	if kinds == nil {
		kinds = data.DefaultKinds()
	}

	return &Directory{
		Path:   path,
		Symbol: symbol,
		Kinds:  kinds,
	}
}

// FileName returns the path a payload for kind is stored at
func (dir *Directory) FileName(kind data.RecordKind) (string, error) {
	spec, err := dir.Kinds.Lookup(kind)
	if err != nil {
		return "", err
	}

	fn := fmt.Sprintf("%s_%s.json", strings.ReplaceAll(dir.Symbol, ":", "_"), spec.Function)
	return filepath.Join(dir.Path, fn), nil
}

// Store writes payload indented to the file for kind
func (dir *Directory) Store(kind data.RecordKind, payload []byte) (string, error) {
	fn, err := dir.FileName(kind)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir.Path, 0755); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "    "); err != nil {
		return "", fmt.Errorf("%w: %s", data.ErrMalformedPayload, err)
	}

	if err := os.WriteFile(fn, buf.Bytes(), 0644); err != nil {
		return "", err
	}

	return fn, nil
}

// Payload reads the stored payload for kind
func (dir *Directory) Payload(ctx context.Context, kind data.RecordKind) ([]byte, error) {
	fn, err := dir.FileName(kind)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("FileName", fn).Msg("reading stored payload")
	return os.ReadFile(fn)
}

// Download fetches every kind from src and stores payloads that contain their
// expected key. A failing kind does not stop the others; all failures are
// returned joined together.
func Download(ctx context.Context, src Provider, dir *Directory, kinds []data.RecordKind) (int, error) {
	logger := zerolog.Ctx(ctx)
	extractor := extract.NewExtractor(dir.Kinds)

	var errs []error
	stored := 0
	for _, kind := range kinds {
		body, err := src.Fetch(ctx, kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", kind, err))
			continue
		}

		if err := extractor.Check(body, kind); err != nil {
			logger.Error().Err(err).Str("Kind", string(kind)).Msg("payload is missing its expected key, not saving")
			errs = append(errs, err)
			continue
		}

		fn, err := dir.Store(kind, body)
		if err != nil {
			errs = append(errs, fmt.Errorf("store %s: %w", kind, err))
			continue
		}

		stored++
		logger.Info().Str("Kind", string(kind)).Str("FileName", fn).Msg("saved payload")
	}

	return stored, errors.Join(errs...)
}
