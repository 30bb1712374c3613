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
package data_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfeatures/data"
)

var _ = Describe("Value", func() {
	DescribeTable("parsing provider strings",
		func(raw string, kind data.ValueKind, str string) {
			val := data.ParseValue(raw)
			Expect(val.Kind()).To(Equal(kind))
			Expect(val.String()).To(Equal(str))
		},
		Entry("integer", "1200", data.Number, "1200"),
		Entry("decimal with whitespace", " 18.51 ", data.Number, "18.51"),
		Entry("negative", "-0.25", data.Number, "-0.25"),
		Entry("None placeholder", "None", data.Null, ""),
		Entry("empty", "", data.Null, ""),
		Entry("dash", "-", data.Null, ""),
		Entry("currency code", "USD", data.Text, "USD"),
	)

	It("stores NaN and infinities as null", func() {
		Expect(data.NumberValue(0.0 / zero()).IsNull()).To(BeTrue())
		Expect(data.NumberValue(1.0 / zero()).IsNull()).To(BeTrue())
	})

	It("only reports a float for numbers", func() {
		f, ok := data.NumberValue(2.5).Float()
		Expect(ok).To(BeTrue())
		Expect(f).To(Equal(2.5))

		_, ok = data.TextValue("2.5").Float()
		Expect(ok).To(BeFalse())

		_, ok = data.NullValue().Float()
		Expect(ok).To(BeFalse())
	})

	It("exposes encoder friendly interfaces", func() {
		Expect(data.NullValue().Interface()).To(BeNil())
		Expect(data.NumberValue(3).Interface()).To(Equal(3.0))
		Expect(data.TextValue("x").Interface()).To(Equal("x"))
	})
})

var _ = Describe("Table", func() {
	var (
		table *data.Table
		jan   time.Time
		feb   time.Time
	)

	BeforeEach(func() {
		jan = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		feb = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

		table = data.NewTable("date", []string{"close", "volume"})
		for _, dt := range []time.Time{feb, jan} {
			row := data.NewRow(dt)
			row.Set("close", data.NumberValue(float64(dt.Month())))
			row.Set("volume", data.NumberValue(100))
			table.Rows = append(table.Rows, row)
		}
	})

	It("sorts rows by date", func() {
		table.SortByDate()
		Expect(table.Dates()).To(Equal([]time.Time{jan, feb}))
	})

	It("keeps the original order of rows that share a date", func() {
		dup := data.NewRow(jan)
		dup.Set("close", data.NumberValue(99))
		table.Rows = append(table.Rows, dup)

		table.SortByDate()
		Expect(table.Column("close")).To(Equal([]data.Value{
			data.NumberValue(1), data.NumberValue(99), data.NumberValue(2),
		}))
	})

	It("does not list the date column as a value column", func() {
		table.AddColumnName("date")
		table.AddColumnName("close")
		Expect(table.Columns).To(Equal([]string{"close", "volume"}))
	})

	It("returns null for missing cells", func() {
		Expect(table.Rows[0].Get("missing").IsNull()).To(BeTrue())
		var row *data.Row
		Expect(row.Get("close").IsNull()).To(BeTrue())
	})

	Context("adding a column", func() {
		It("leaves the source table untouched", func() {
			out, err := table.WithColumn("ratio", []data.Value{data.NumberValue(1), data.NullValue()})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Columns).To(Equal([]string{"close", "volume", "ratio"}))
			Expect(out.Len()).To(Equal(table.Len()))
			Expect(out.Rows[1].Get("ratio").IsNull()).To(BeTrue())

			Expect(table.HasColumn("ratio")).To(BeFalse())
			_, ok := table.Rows[0].Values["ratio"]
			Expect(ok).To(BeFalse())
		})

		It("rejects a column of the wrong length", func() {
			_, err := table.WithColumn("ratio", []data.Value{data.NumberValue(1)})
			Expect(err).To(HaveOccurred())
		})
	})

	It("drops columns and ignores unknown names", func() {
		out := table.DropColumns("volume", "nope")
		Expect(out.Columns).To(Equal([]string{"close"}))
		_, ok := out.Rows[0].Values["volume"]
		Expect(ok).To(BeFalse())
		Expect(table.Columns).To(Equal([]string{"close", "volume"}))
	})
})

var _ = Describe("RecordKind", func() {
	DescribeTable("parsing names",
		func(name string, expected data.RecordKind) {
			kind, err := data.ParseRecordKind(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(kind).To(Equal(expected))
		},
		Entry("kind name", "BalanceSheet", data.BalanceSheet),
		Entry("lower case kind name", "cashflow", data.CashFlow),
		Entry("function name", "TIME_SERIES_MONTHLY_ADJUSTED", data.MonthlyAdjusted),
		Entry("shares", "SHARES_OUTSTANDING", data.SharesOutstanding),
	)

	It("rejects unsupported kinds", func() {
		_, err := data.ParseRecordKind("DIVIDENDS")
		Expect(errors.Is(err, data.ErrUnsupportedKind)).To(BeTrue())
	})

	It("has a layout for every fundamental kind", func() {
		kinds := data.DefaultKinds()
		for _, kind := range data.FundamentalKinds {
			spec, err := kinds.Lookup(kind)
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.DateSource).To(Equal(data.DateFromField))
		}
	})
})

func zero() float64 {
	return 0
}
