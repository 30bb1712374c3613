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
package extract_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfeatures/data"
	"github.com/penny-vault/pvfeatures/extract"
)

const monthlyPayload = `{
  "Meta Data": {"1. Information": "Monthly Adjusted Prices and Volumes", "2. Symbol": "IBM"},
  "Monthly Adjusted Time Series": {
    "2024-02-29": {"1. open": "183.6", "2. high": "188.95", "3. low": "178.75", "4. close": "185.03", "5. adjusted close": "183.4", "6. volume": "84300000", "7. dividend amount": "1.66"},
    "2024-01-31": {"1. open": "162.83", "2. high": "196.9", "3. low": "157.885", "4. close": "183.66", "5. adjusted close": "180.4", "6. volume": "140000000", "7. dividend amount": "0.0000"}
  }
}`

const incomePayload = `{
  "symbol": "IBM",
  "annualReports": [],
  "quarterlyReports": [
    {"fiscalDateEnding": "2023-12-31", "reportedCurrency": "USD", "totalRevenue": "17381000000", "netIncome": "3288000000"},
    {"fiscalDateEnding": "None", "reportedCurrency": "USD", "totalRevenue": "1", "netIncome": "1"},
    {"fiscalDateEnding": "2023-09-30", "reportedCurrency": "USD", "totalRevenue": "14752000000", "netIncome": "None"},
    {"reportedCurrency": "USD", "totalRevenue": "2"},
    "not an object"
  ]
}`

var _ = Describe("Extractor", func() {
	var extractor *extract.Extractor

	BeforeEach(func() {
		extractor = extract.NewExtractor(data.DefaultKinds())
	})

	It("reads keyed records and strips numbered labels", func() {
		records, err := extractor.Extract([]byte(monthlyPayload), data.MonthlyAdjusted)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
		Expect(records[0].Key).To(Equal("2024-02-29"))
		Expect(records[0].Order).To(Equal([]string{"open", "high", "low", "close", "adjusted_close", "volume", "dividend_amount"}))
		Expect(records[0].Fields).To(HaveKeyWithValue("adjusted_close", "183.4"))
	})

	It("reads list records and skips entries that are not objects", func() {
		records, err := extractor.Extract([]byte(incomePayload), data.IncomeStatement)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(4))
		Expect(records[0].Fields).To(HaveKeyWithValue("fiscalDateEnding", "2023-12-31"))
		Expect(records[0].Order[0]).To(Equal("fiscalDateEnding"))
	})

	It("fails when the expected key is missing", func() {
		_, err := extractor.Extract([]byte(`{"symbol": "IBM", "annualReports": []}`), data.CashFlow)
		Expect(errors.Is(err, data.ErrMissingKey)).To(BeTrue())
	})

	It("includes the provider message when one is present", func() {
		payload := `{"Information": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`
		err := extractor.Check([]byte(payload), data.MonthlyAdjusted)
		Expect(errors.Is(err, data.ErrMissingKey)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("standard API rate limit"))
	})

	It("rejects malformed payloads", func() {
		_, err := extractor.Extract([]byte(`{"quarterlyReports": [`), data.IncomeStatement)
		Expect(errors.Is(err, data.ErrMalformedPayload)).To(BeTrue())
	})

	It("rejects valid json with the wrong shape under the expected key", func() {
		_, err := extractor.Extract([]byte(`{"quarterlyReports": {"a": {}}}`), data.IncomeStatement)
		Expect(errors.Is(err, data.ErrUnexpectedShape)).To(BeTrue())
		Expect(errors.Is(err, data.ErrMalformedPayload)).To(BeFalse())

		_, err = extractor.Extract([]byte(`{"quarterlyReports": null}`), data.IncomeStatement)
		Expect(errors.Is(err, data.ErrUnexpectedShape)).To(BeTrue())

		_, err = extractor.Extract([]byte(`{"Monthly Adjusted Time Series": []}`), data.MonthlyAdjusted)
		Expect(errors.Is(err, data.ErrUnexpectedShape)).To(BeTrue())
	})

	It("rejects unsupported kinds", func() {
		_, err := extractor.Extract([]byte(`{}`), data.RecordKind("Dividends"))
		Expect(errors.Is(err, data.ErrUnsupportedKind)).To(BeTrue())
	})

	DescribeTable("normalizing field names",
		func(raw, expected string) {
			Expect(extract.NormalizeFieldName(raw)).To(Equal(expected))
		},
		Entry("numbered label", "5. adjusted close", "adjusted_close"),
		Entry("two digit label", "10. split coefficient", "split_coefficient"),
		Entry("plain", "totalRevenue", "totalRevenue"),
	)
})

var _ = Describe("Normalizer", func() {
	var (
		extractor  *extract.Extractor
		normalizer *extract.Normalizer
	)

	BeforeEach(func() {
		kinds := data.DefaultKinds()
		extractor = extract.NewExtractor(kinds)
		normalizer = extract.NewNormalizer(kinds)
	})

	It("builds an ascending table keyed by the entry date", func() {
		records, err := extractor.Extract([]byte(monthlyPayload), data.MonthlyAdjusted)
		Expect(err).NotTo(HaveOccurred())

		table, dropped, err := normalizer.Normalize(records, data.MonthlyAdjusted)
		Expect(err).NotTo(HaveOccurred())
		Expect(dropped).To(Equal(0))
		Expect(table.Kind).To(Equal(data.MonthlyAdjusted))
		Expect(table.DateColumn).To(Equal("date"))
		Expect(table.Dates()).To(Equal([]time.Time{
			time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		}))

		val, ok := table.Rows[0].Get("adjusted_close").Float()
		Expect(ok).To(BeTrue())
		Expect(val).To(Equal(180.4))
	})

	It("drops records without a usable date and counts them", func() {
		records, err := extractor.Extract([]byte(incomePayload), data.IncomeStatement)
		Expect(err).NotTo(HaveOccurred())

		table, dropped, err := normalizer.Normalize(records, data.IncomeStatement)
		Expect(err).NotTo(HaveOccurred())
		Expect(dropped).To(Equal(2))
		Expect(table.Len()).To(Equal(2))
		Expect(table.DateColumn).To(Equal("fiscalDateEnding"))
		Expect(table.HasColumn("fiscalDateEnding")).To(BeFalse())
		Expect(table.Columns).To(Equal([]string{"reportedCurrency", "totalRevenue", "netIncome"}))

		Expect(table.Rows[0].Date).To(Equal(time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC)))
		Expect(table.Rows[0].Get("netIncome").IsNull()).To(BeTrue())
		Expect(table.Rows[0].Get("reportedCurrency").Kind()).To(Equal(data.Text))
	})

	It("yields an empty table when every date is missing", func() {
		records := []*extract.Record{{Fields: map[string]string{"netIncome": "1"}, Order: []string{"netIncome"}}}
		table, dropped, err := normalizer.Normalize(records, data.IncomeStatement)
		Expect(err).NotTo(HaveOccurred())
		Expect(dropped).To(Equal(1))
		Expect(table.Len()).To(Equal(0))
	})

	DescribeTable("parsing dates",
		func(raw string, expected time.Time) {
			dt, err := extract.ParseDate(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(dt).To(Equal(expected))
		},
		Entry("plain date", "2023-03-31", time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC)),
		Entry("date time", "2023-03-31 16:00:00", time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC)),
		Entry("rfc3339", "2023-03-31T22:15:00-04:00", time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC)),
	)

	It("reports unparseable dates as missing", func() {
		_, err := extract.ParseDate("31/03/2023")
		Expect(errors.Is(err, data.ErrMissingDate)).To(BeTrue())
	})
})
