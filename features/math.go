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
package features

import (
	"math"

	"github.com/penny-vault/pvfeatures/data"
)

// SafeDivide returns a / b, or null when either value is missing or b is zero
func SafeDivide(a, b data.Value) data.Value {
	num, ok := a.Float()
	if !ok {
		return data.NullValue()
	}

	den, ok := b.Float()
	if !ok || den == 0 {
		return data.NullValue()
	}

	return data.NumberValue(num / den)
}

// Subtract returns a - b, or null when either value is missing
func Subtract(a, b data.Value) data.Value {
	x, ok := a.Float()
	if !ok {
		return data.NullValue()
	}

	y, ok := b.Float()
	if !ok {
		return data.NullValue()
	}

	return data.NumberValue(x - y)
}

// RollingStd computes the sample standard deviation over a trailing window.
// Entries before the window fills, or whose window holds a null, are null.
func RollingStd(vals []data.Value, window int) []data.Value {
	out := make([]data.Value, len(vals))
	for idx := range vals {
		if idx+1 < window || window < 2 {
			out[idx] = data.NullValue()
			continue
		}

		sample := make([]float64, 0, window)
		for _, val := range vals[idx+1-window : idx+1] {
			f, ok := val.Float()
			if !ok {
				break
			}
			sample = append(sample, f)
		}

		if len(sample) < window {
			out[idx] = data.NullValue()
			continue
		}

		out[idx] = data.NumberValue(sampleStd(sample))
	}

	return out
}

func sampleStd(sample []float64) float64 {
	mean := 0.0
	for _, f := range sample {
		mean += f
	}
	mean /= float64(len(sample))

	sumSq := 0.0
	for _, f := range sample {
		sumSq += (f - mean) * (f - mean)
	}

	return math.Sqrt(sumSq / float64(len(sample)-1))
}
