// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vndirect

import (
	"fmt"
	"net/url"
	"strings"
)

// Constants of the provider API.
const (
	MaxPageSize          = 9999 // the largest page the server will return
	DefaultIndustryLevel = 1    // the broadest level of the taxonomy
	SegmentSeparator     = "~"
	ListSeparator        = ","
)

// Keys of the composite "q" parameter, in the order the server expects them.
const (
	keyCodeList        = "codeList"
	keyIndustryCode    = "industryCode"
	keyIndustryLevel   = "industryLevel"
	keyHigherLevelCode = "higherLevelCode"
	keyEnglishName     = "englishName"
	keyVietnameseName  = "vietnameseName"
)

// FilterRequest is the set of optional filters for an industry lookup. The zero
// value is valid and requests the entire classification at level 1.
type FilterRequest struct {
	CodeList         []string `toml:"code_list"`          // tickers
	IndustryCodes    []string `toml:"industry_codes"`     //
	HigherLevelCodes []string `toml:"higher_level_codes"` // parent industry codes
	EnglishName      string   `toml:"english_name"`       // part of the English name
	VietnameseName   string   `toml:"vietnamese_name"`    // part of the Vietnamese name
	IndustryLevel    int      `toml:"industry_level"`     // 1..3; 0 = DefaultIndustryLevel
	PageSize         int      `toml:"page_size"`          // <= 0 means MaxPageSize
}

// Level returns the effective industry level.
func (f *FilterRequest) Level() int {
	if f.IndustryLevel == 0 {
		return DefaultIndustryLevel
	}
	return f.IndustryLevel
}

// Size returns the effective page size, clamped to MaxPageSize.
func (f *FilterRequest) Size() int {
	if f.PageSize <= 0 || f.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return f.PageSize
}

// EncodedQuery is the serialized form of a FilterRequest.
type EncodedQuery struct {
	Q    string // six "key:value" segments joined by SegmentSeparator
	Size int
}

type segment struct {
	Key   string
	Value string
}

// Encode serializes the filters into the provider's composite query. It never
// fails, and does not check the values for validity.
func Encode(f FilterRequest) EncodedQuery {
	segments := []segment{
		{keyCodeList, strings.Join(f.CodeList, ListSeparator)},
		{keyIndustryCode, strings.Join(f.IndustryCodes, ListSeparator)},
		{keyIndustryLevel, fmt.Sprintf("%d", f.Level())},
		{keyHigherLevelCode, strings.Join(f.HigherLevelCodes, ListSeparator)},
		{keyEnglishName, f.EnglishName},
		{keyVietnameseName, f.VietnameseName},
	}
	strs := make([]string, len(segments))
	for i, s := range segments {
		strs[i] = s.Key + ":" + s.Value
	}
	return EncodedQuery{
		Q:    strings.Join(strs, SegmentSeparator),
		Size: f.Size(),
	}
}

// Segments splits Q back into its "key:value" segments. Values are not
// escaped within Q, so a SegmentSeparator inside a name fragment yields more
// than six segments; the server splits the same way.
func (q EncodedQuery) Segments() []string {
	return strings.Split(q.Q, SegmentSeparator)
}

// Escape percent-encodes s as a form value, leaving ':' and ',' intact, as
// the provider's composite "q" parameter requires.
// url.QueryEscape always emits upper case hex, and a literal '%' in s becomes
// "%25", so the replacements cannot hit anything else.
func Escape(s string) string {
	s = url.QueryEscape(s)
	s = strings.ReplaceAll(s, "%3A", ":")
	return strings.ReplaceAll(s, "%2C", ",")
}

// RawQuery is the URL query string for the request: "q=...&size=...".
func (q EncodedQuery) RawQuery() string {
	return "q=" + Escape(q.Q) + "&size=" + Escape(fmt.Sprintf("%d", q.Size))
}

// Values returns the decoded form of the query, e.g. for comparing with what
// the server received.
func (q EncodedQuery) Values() url.Values {
	return url.Values{
		"q":    []string{q.Q},
		"size": []string{fmt.Sprintf("%d", q.Size)},
	}
}
