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
package features_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfeatures/data"
	"github.com/penny-vault/pvfeatures/features"
)

func numbers(vals ...interface{}) []data.Value {
	out := make([]data.Value, len(vals))
	for idx, val := range vals {
		if f, ok := val.(float64); ok {
			out[idx] = data.NumberValue(f)
		}
	}
	return out
}

func tableOf(cols map[string][]data.Value, numRows int) *data.Table {
	table := data.NewTable("month_start", nil)
	for idx := 0; idx < numRows; idx++ {
		table.Rows = append(table.Rows, data.NewRow(time.Date(2024, time.Month(idx+1), 1, 0, 0, 0, 0, time.UTC)))
	}

	for _, name := range []string{
		"adjusted_close", "high", "low", "close", "volume", "totalRevenue", "netIncome",
		"operatingCashflow", "capitalExpenditures",
	} {
		vals, ok := cols[name]
		if !ok {
			continue
		}
		var err error
		table, err = table.WithColumn(name, vals)
		Expect(err).NotTo(HaveOccurred())
	}

	return table
}

func floats(vals []data.Value) []interface{} {
	out := make([]interface{}, len(vals))
	for idx, val := range vals {
		out[idx] = val.Interface()
	}
	return out
}

var _ = Describe("SafeDivide", func() {
	It("divides two numbers", func() {
		Expect(features.SafeDivide(data.NumberValue(1), data.NumberValue(4)).Interface()).To(Equal(0.25))
	})

	DescribeTable("returning null",
		func(a, b data.Value) {
			out := features.SafeDivide(a, b)
			Expect(out.IsNull()).To(BeTrue())
			Expect(out.Interface()).To(BeNil())
		},
		Entry("zero denominator", data.NumberValue(1), data.NumberValue(0)),
		Entry("null numerator", data.NullValue(), data.NumberValue(4)),
		Entry("null denominator", data.NumberValue(1), data.NullValue()),
		Entry("text denominator", data.NumberValue(1), data.TextValue("USD")),
	)
})

var _ = Describe("RollingStd", func() {
	It("is null until the window fills", func() {
		out := features.RollingStd(numbers(0.1, -0.05, 0.02, 0.08), 3)
		Expect(out[0].IsNull()).To(BeTrue())
		Expect(out[1].IsNull()).To(BeTrue())

		f, ok := out[2].Float()
		Expect(ok).To(BeTrue())
		Expect(f).To(BeNumerically("~", 0.075056, 1e-6))

		f, ok = out[3].Float()
		Expect(ok).To(BeTrue())
		Expect(f).To(BeNumerically("~", 0.065064, 1e-6))
	})

	It("is null when the window holds a null", func() {
		out := features.RollingStd(numbers(nil, 0.1, 0.2, 0.3), 3)
		Expect(out[2].IsNull()).To(BeTrue())
		Expect(out[3].IsNull()).To(BeFalse())
	})
})

var _ = Describe("Apply", func() {
	It("computes returns and volatility from prices", func() {
		table := tableOf(map[string][]data.Value{
			"adjusted_close": numbers(100.0, 110.0, 99.0, nil, 120.0),
		}, 5)

		out, err := features.Apply(table, []features.Transform{features.MonthlyReturn(), features.MonthlyVolatility(2)})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Columns).To(Equal([]string{"adjusted_close", "monthly_return", "monthly_volatility"}))

		ret := out.Column("monthly_return")
		Expect(ret[0].IsNull()).To(BeTrue())
		r1, _ := ret[1].Float()
		Expect(r1).To(BeNumerically("~", 0.1, 1e-12))
		r2, _ := ret[2].Float()
		Expect(r2).To(BeNumerically("~", -0.1, 1e-12))
		Expect(ret[3].IsNull()).To(BeTrue())
		Expect(ret[4].IsNull()).To(BeTrue())

		vol := out.Column("monthly_volatility")
		Expect(vol[1].IsNull()).To(BeTrue())
		Expect(vol[2].IsNull()).To(BeFalse())
		Expect(vol[3].IsNull()).To(BeTrue())
	})

	It("yields null margins when revenue is zero", func() {
		table := tableOf(map[string][]data.Value{
			"totalRevenue": numbers(0.0, 200.0),
			"netIncome":    numbers(10.0, 50.0),
		}, 2)

		out, err := features.Apply(table, []features.Transform{features.Ratio("profit_margin", features.Col("netIncome"), "totalRevenue")})
		Expect(err).NotTo(HaveOccurred())
		Expect(floats(out.Column("profit_margin"))).To(Equal([]interface{}{nil, 0.25}))
	})

	It("computes free cash flow before its margin", func() {
		table := tableOf(map[string][]data.Value{
			"totalRevenue":        numbers(1000.0),
			"operatingCashflow":   numbers(300.0),
			"capitalExpenditures": numbers(100.0),
		}, 1)

		out, err := features.Apply(table, []features.Transform{
			features.FreeCashFlow(),
			features.Ratio("fcf_margin", features.Col("free_cash_flow"), "totalRevenue"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(floats(out.Column("free_cash_flow"))).To(Equal([]interface{}{200.0}))
		Expect(floats(out.Column("fcf_margin"))).To(Equal([]interface{}{0.2}))
	})

	It("fails when a dependency column is absent", func() {
		table := tableOf(map[string][]data.Value{
			"totalRevenue": numbers(1000.0),
		}, 1)

		_, err := features.Apply(table, []features.Transform{
			features.Ratio("fcf_margin", features.Col("free_cash_flow"), "totalRevenue"),
		})
		Expect(errors.Is(err, data.ErrMissingDependency)).To(BeTrue())
	})

	It("computes the price range", func() {
		table := tableOf(map[string][]data.Value{
			"high":  numbers(12.0, 5.0),
			"low":   numbers(8.0, 5.0),
			"close": numbers(10.0, 0.0),
		}, 2)

		out, err := features.Apply(table, []features.Transform{features.Ratio("price_range_pct", features.Difference("high", "low"), "close")})
		Expect(err).NotTo(HaveOccurred())
		Expect(floats(out.Column("price_range_pct"))).To(Equal([]interface{}{0.4, nil}))
	})

	It("does not modify the input table", func() {
		table := tableOf(map[string][]data.Value{"volume": numbers(10.0, 20.0)}, 2)

		out, err := features.Apply(table, []features.Transform{features.PctChange("volume_change", "volume")})
		Expect(err).NotTo(HaveOccurred())
		Expect(floats(out.Column("volume_change"))).To(Equal([]interface{}{nil, 1.0}))
		Expect(table.HasColumn("volume_change")).To(BeFalse())
	})

	It("lists the default feature set in dependency order", func() {
		Expect(features.Columns(features.Default(features.DefaultWindow))).To(Equal([]string{
			"monthly_return", "monthly_volatility", "price_range_pct", "volume_change",
			"profit_margin", "operating_margin", "gross_margin", "current_ratio",
			"debt_to_equity", "free_cash_flow", "fcf_margin", "ebitda_margin", "interest_coverage",
		}))
	})
})
