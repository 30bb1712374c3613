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
	"errors"

	"github.com/penny-vault/pvfeatures/data"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// Provider describes a remote source of raw payloads
type Provider interface {
	Name() string
	Description() string

	// ConfigDescription maps configuration keys to the prompt shown when the
	// user is asked for them
	ConfigDescription() map[string]string

	// Fetch downloads the raw payload for kind
	Fetch(ctx context.Context, kind data.RecordKind) ([]byte, error)
}
