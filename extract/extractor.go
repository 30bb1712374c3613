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
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/penny-vault/pvfeatures/data"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

var numberedLabel = regexp.MustCompile(`^\d+\.\s*`)

// Record is one flat record pulled out of a payload. Fields keeps the raw
// provider strings; Order lists field names in document order.
type Record struct {
	// Key is the object key the record was nested under. It is only set for
	// kinds whose date is the key (the monthly time series).
	Key    string
	Fields map[string]string
	Order  []string
}

func newRecord(key string) *Record {
	return &Record{
		Key:    key,
		Fields: make(map[string]string),
		Order:  make([]string, 0),
	}
}

func (record *Record) set(name, raw string) {
	if _, ok := record.Fields[name]; !ok {
		record.Order = append(record.Order, name)
	}
	record.Fields[name] = raw
}

// Extractor locates the records of a given kind inside a raw payload
type Extractor struct {
	kinds data.KindRegistry
}

func NewExtractor(kinds data.KindRegistry) *Extractor {
	return &Extractor{kinds: kinds}
}

// Extract returns the flat records stored under the expected key for kind.
// A payload without that key fails with data.ErrMissingKey; it is never
// turned into an empty result.
func (extractor *Extractor) Extract(payload []byte, kind data.RecordKind) ([]*Record, error) {
	spec, err := extractor.kinds.Lookup(kind)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: %s", data.ErrMalformedPayload, kind)
	}

	root := gjson.ParseBytes(payload)
	result := root.Get(escapePath(spec.PayloadKey))
	if !result.Exists() {
		if msg := providerMessage(root); msg != "" {
			return nil, fmt.Errorf("%w: %q for %s (provider said: %s)", data.ErrMissingKey, spec.PayloadKey, kind, msg)
		}
		return nil, fmt.Errorf("%w: %q for %s", data.ErrMissingKey, spec.PayloadKey, kind)
	}

	var records []*Record
	switch spec.DateSource {
	case data.DateFromKey:
		records, err = keyedRecords(result, spec)
	default:
		records, err = listRecords(result, spec)
	}

	if err != nil {
		return nil, err
	}

	log.Debug().Str("Kind", string(kind)).Int("NumRecords", len(records)).Msg("extracted records from payload")

	return records, nil
}

// Check returns an error when payload does not hold the expected key for kind
func (extractor *Extractor) Check(payload []byte, kind data.RecordKind) error {
	_, err := extractor.Extract(payload, kind)
	return err
}

// NormalizeFieldName strips numbered labels ("5. adjusted close") and
// replaces spaces with underscores ("adjusted_close")
func NormalizeFieldName(name string) string {
	name = numberedLabel.ReplaceAllString(strings.TrimSpace(name), "")
	return strings.ReplaceAll(name, " ", "_")
}

func keyedRecords(result gjson.Result, spec *data.KindSpec) ([]*Record, error) {
	if !result.IsObject() {
		return nil, fmt.Errorf("%w: %q for %s is not an object", data.ErrUnexpectedShape, spec.PayloadKey, spec.Kind)
	}

	records := make([]*Record, 0)
	skipped := 0
	result.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			skipped++
			return true
		}

		record := newRecord(key.String())
		fillFields(record, value, spec.StripPrefix)
		records = append(records, record)
		return true
	})

	if skipped > 0 {
		log.Warn().Str("Kind", string(spec.Kind)).Int("Skipped", skipped).Msg("ignored entries that are not objects")
	}

	return records, nil
}

func listRecords(result gjson.Result, spec *data.KindSpec) ([]*Record, error) {
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: %q for %s is not a list", data.ErrUnexpectedShape, spec.PayloadKey, spec.Kind)
	}

	items := result.Array()
	records := make([]*Record, 0, len(items))
	skipped := 0
	for _, item := range items {
		if !item.IsObject() {
			skipped++
			continue
		}

		record := newRecord("")
		fillFields(record, item, spec.StripPrefix)
		records = append(records, record)
	}

	if skipped > 0 {
		log.Warn().Str("Kind", string(spec.Kind)).Int("Skipped", skipped).Msg("ignored entries that are not objects")
	}

	return records, nil
}

func fillFields(record *Record, obj gjson.Result, strip bool) {
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if strip {
			name = NormalizeFieldName(name)
		}

		raw := ""
		if value.Type != gjson.Null {
			raw = value.String()
		}

		record.set(name, raw)
		return true
	})
}

// providerMessage returns the explanation Alpha Vantage sends instead of data
// when a request is throttled or rejected
func providerMessage(root gjson.Result) string {
	for _, key := range []string{"Error Message", "Information", "Note"} {
		if msg := root.Get(escapePath(key)); msg.Exists() {
			return msg.String()
		}
	}

	return ""
}

// escapePath escapes every character that gjson would treat as path syntax
func escapePath(key string) string {
	var builder strings.Builder
	for _, r := range key {
		switch {
		case r >= 0x80, r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '_', r == '-':
		default:
			builder.WriteByte('\\')
		}
		builder.WriteRune(r)
	}

	return builder.String()
}
