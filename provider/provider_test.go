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
package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfeatures/data"
	"github.com/penny-vault/pvfeatures/provider"
)

const balancePayload = `{"symbol":"IBM","quarterlyReports":[{"fiscalDateEnding":"2023-12-31","totalAssets":"135241000000"}]}`

var _ = Describe("AlphaVantage", func() {
	var (
		server   *httptest.Server
		av       *provider.AlphaVantage
		mu       sync.Mutex
		requests []*http.Request
	)

	BeforeEach(func() {
		requests = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			requests = append(requests, r)
			mu.Unlock()

			switch r.URL.Query().Get("function") {
			case "BALANCE_SHEET":
				w.Write([]byte(balancePayload))
			case "EARNINGS":
				w.WriteHeader(http.StatusInternalServerError)
			default:
				w.Write([]byte(`{"Information": "Thank you for using Alpha Vantage!"}`))
			}
		}))

		av = provider.NewAlphaVantage(provider.AlphaVantageConfig{
			Symbol:    "IBM",
			APIKey:    "demo",
			BaseURL:   server.URL,
			RateLimit: 6000,
		})
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends the function, symbol and api key", func() {
		body, err := av.Fetch(context.Background(), data.BalanceSheet)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(Equal(balancePayload))

		Expect(requests).To(HaveLen(1))
		query := requests[0].URL.Query()
		Expect(query.Get("function")).To(Equal("BALANCE_SHEET"))
		Expect(query.Get("symbol")).To(Equal("IBM"))
		Expect(query.Get("apikey")).To(Equal("demo"))
	})

	It("reports non-success status codes", func() {
		_, err := av.Fetch(context.Background(), data.Earnings)
		Expect(errors.Is(err, provider.ErrStatus)).To(BeTrue())
	})

	It("rejects payloads without their expected key", func() {
		_, err := av.Payload(context.Background(), data.CashFlow)
		Expect(errors.Is(err, data.ErrMissingKey)).To(BeTrue())

		body, err := av.Payload(context.Background(), data.BalanceSheet)
		Expect(err).NotTo(HaveOccurred())
		Expect(body).NotTo(BeEmpty())
	})

	It("describes its configuration", func() {
		Expect(av.ConfigDescription()).To(HaveKey("alphavantage.apikey"))
	})

	Context("downloading into a directory", func() {
		var dir *provider.Directory

		BeforeEach(func() {
			dir = provider.NewDirectory(GinkgoT().TempDir(), "IBM", nil)
		})

		It("stores good payloads and reports the rest", func() {
			stored, err := provider.Download(context.Background(), av, dir,
				[]data.RecordKind{data.BalanceSheet, data.CashFlow, data.Earnings})
			Expect(stored).To(Equal(1))
			Expect(errors.Is(err, data.ErrMissingKey)).To(BeTrue())
			Expect(errors.Is(err, provider.ErrStatus)).To(BeTrue())

			fn, err := dir.FileName(data.BalanceSheet)
			Expect(err).NotTo(HaveOccurred())
			Expect(fn).To(BeAnExistingFile())

			fn, err = dir.FileName(data.CashFlow)
			Expect(err).NotTo(HaveOccurred())
			Expect(fn).NotTo(BeAnExistingFile())
		})
	})
})

var _ = Describe("Directory", func() {
	var dir *provider.Directory

	BeforeEach(func() {
		dir = provider.NewDirectory(filepath.Join(GinkgoT().TempDir(), "raw"), "BRK:B", nil)
	})

	It("names files after the symbol and function", func() {
		fn, err := dir.FileName(data.IncomeStatement)
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Base(fn)).To(Equal("BRK_B_INCOME_STATEMENT.json"))
	})

	It("round trips a stored payload", func() {
		fn, err := dir.Store(data.BalanceSheet, []byte(balancePayload))
		Expect(err).NotTo(HaveOccurred())

		contents, err := os.ReadFile(fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(contents)).To(ContainSubstring("\n    \"quarterlyReports\""))

		payload, err := dir.Payload(context.Background(), data.BalanceSheet)
		Expect(err).NotTo(HaveOccurred())
		Expect(payload).To(MatchJSON(balancePayload))
	})

	It("refuses to store malformed payloads", func() {
		_, err := dir.Store(data.BalanceSheet, []byte(`{"quarterlyReports": [`))
		Expect(errors.Is(err, data.ErrMalformedPayload)).To(BeTrue())
	})

	It("reports a missing payload as not existing", func() {
		_, err := dir.Payload(context.Background(), data.Earnings)
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
	})
})
