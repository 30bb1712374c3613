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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultAPIURL  = "https://healthchecks.io/api/v3"
	DefaultPingURL = "https://hc-ping.com"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

type createReq struct {
	Name        string `json:"name"`
	Description string `json:"desc,omitempty"`
	Grace       int    `json:"grace"`
	Schedule    string `json:"schedule"`
	Slug        string `json:"slug"`
	Tags        string `json:"tags"`
	Timezone    string `json:"tz"`
}

type createResp struct {
	PingURL string `json:"ping_url"`
}

// Monitor reports batch runs to healthchecks.io
type Monitor struct {
	APIKey  string
	APIURL  string
	PingURL string

	client *resty.Client
}

func New(apiKey string) *Monitor {
	return &Monitor{
		APIKey:  apiKey,
		APIURL:  DefaultAPIURL,
		PingURL: DefaultPingURL,
		client:  resty.New(),
	}
}

// Create a new check on the given cron schedule and return its id
func (monitor *Monitor) Create(ctx context.Context, name string, slug string, tags []string, schedule string) (string, error) {
	command := createReq{
		Name:     name,
		Slug:     slug,
		Tags:     strings.Join(tags, " "),
		Grace:    3600,
		Schedule: schedule,
		Timezone: "America/New_York",
	}

	result := createResp{}

	resp, err := monitor.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Api-Key", monitor.APIKey).
		SetBody(command).
		SetResult(&result).
		Post(monitor.APIURL + "/checks/")

	if err != nil {
		return "", err
	}

	if resp.StatusCode() > 201 {
		return "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	checkID := strings.Split(result.PingURL, "/")
	return checkID[len(checkID)-1], nil
}

// Start signals that a run has begun
func (monitor *Monitor) Start(ctx context.Context, id string) error {
	return monitor.ping(ctx, id, "/start", "")
}

// Success signals that a run finished; body is shown in the check's log
func (monitor *Monitor) Success(ctx context.Context, id, body string) error {
	return monitor.ping(ctx, id, "", body)
}

// Fail signals that a run failed
func (monitor *Monitor) Fail(ctx context.Context, id, body string) error {
	return monitor.ping(ctx, id, "/fail", body)
}

func (monitor *Monitor) ping(ctx context.Context, id, suffix, body string) error {
	if id == "" {
		return nil
	}

	resp, err := monitor.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf("%s/%s%s", monitor.PingURL, id, suffix))

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
