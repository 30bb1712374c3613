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

import "errors"

var (
	ErrMissingKey        = errors.New("expected key not found in payload")
	ErrMissingDate       = errors.New("record is missing its date field")
	ErrUnsupportedKind   = errors.New("unsupported record kind")
	ErrMissingDependency = errors.New("dependency column missing")
	ErrMalformedPayload  = errors.New("payload is not valid json")
	ErrUnexpectedShape   = errors.New("payload does not have the expected shape")
	ErrEmptyTable        = errors.New("table has no rows")
)
