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
package data

import (
	"math"
	"strconv"
	"strings"
)

type ValueKind uint8

const (
	Null ValueKind = iota
	Number
	Text
)

// Value is a single cell of a Table. Provider payloads deliver every field as
// a string; numeric strings become Number values, the provider's "None"
// placeholder and empty strings become Null, everything else is Text.
type Value struct {
	kind ValueKind
	num  float64
	str  string
}

func NullValue() Value {
	return Value{}
}

// NumberValue wraps f; NaN and infinities are stored as Null
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}

	return Value{kind: Number, num: f}
}

func TextValue(s string) Value {
	return Value{kind: Text, str: s}
}

// ParseValue converts a raw provider string into a Value
func ParseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "", "None", "null", "-":
		return Value{}
	}

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return NumberValue(f)
	}

	return TextValue(trimmed)
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == Null
}

// Float returns the numeric content of v. Text and Null values report false.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}

	return v.num, true
}

// String formats the value for delimited output; Null is the empty string
func (v Value) String() string {
	switch v.kind {
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Text:
		return v.str
	default:
		return ""
	}
}

// Interface returns nil, float64 or string; used by encoders
func (v Value) Interface() interface{} {
	switch v.kind {
	case Number:
		return v.num
	case Text:
		return v.str
	default:
		return nil
	}
}
