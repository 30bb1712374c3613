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

type RecordKind string

const (
	MonthlyAdjusted   RecordKind = "MonthlyAdjusted"
	IncomeStatement   RecordKind = "IncomeStatement"
	BalanceSheet      RecordKind = "BalanceSheet"
	CashFlow          RecordKind = "CashFlow"
	Earnings          RecordKind = "Earnings"
	SharesOutstanding RecordKind = "SharesOutstanding"
)

// FundamentalKinds lists the quarterly kinds in the order they are merged. The
// order matters because the first table to define a column keeps it.
var FundamentalKinds = []RecordKind{
	IncomeStatement,
	BalanceSheet,
	CashFlow,
	Earnings,
	SharesOutstanding,
}

// ParseRecordKind converts a caller supplied name into a RecordKind. Both the
// kind name (e.g. BalanceSheet) and the provider function name (e.g.
// BALANCE_SHEET) are accepted; anything else is rejected.
func ParseRecordKind(name string) (RecordKind, error) {
	return DefaultKinds().Parse(name)
}

func (kind RecordKind) String() string {
	return string(kind)
}
