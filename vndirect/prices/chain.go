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

// Package prices chains an industry lookup into a price history fetch for the
// tickers of the found industries.
package prices

import (
	"context"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/vnindustry/vndirect"
)

// CodeListField is the record field with the comma-separated tickers of an
// industry.
const CodeListField = "codeList"

// Fetcher downloads the daily price history of the tickers. Dates are
// inclusive, and a zero date is an open bound.
type Fetcher interface {
	Fetch(ctx context.Context, tickers []string, start, end Date, minimal bool, source Source) ([]PriceRow, error)
}

func splitCodes(s string) []string {
	var codes []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

// Tickers flattens the code lists of all the records, in order. A ticker
// listed in several industries appears several times. A record without a
// string codeList results in *vndirect.MissingField.
func Tickers(res *vndirect.LookupResult) ([]string, error) {
	for i, r := range res.Records {
		if _, ok := r.String(CodeListField); !ok {
			return nil, &vndirect.MissingField{Field: CodeListField, Record: i}
		}
	}
	return iterator.Reduce[vndirect.Record, []string](
		iterator.FromSlice(res.Records), []string{},
		func(r vndirect.Record, tickers []string) []string {
			s, _ := r.String(CodeListField)
			return append(tickers, splitCodes(s)...)
		}), nil
}

// FetchForIndustries fetches prices for all the tickers in the lookup result
// with a single call to f. The remaining arguments are passed through as is.
// When there are no tickers, f is not called.
func FetchForIndustries(ctx context.Context, res *vndirect.LookupResult, start, end Date, minimal bool, source Source, f Fetcher) ([]PriceRow, error) {
	tickers, err := Tickers(res)
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		logging.Warningf(ctx, "no tickers in %d industry records", len(res.Records))
		return nil, nil
	}
	logging.Infof(ctx, "fetching %s prices for %d tickers, %s..%s",
		source, len(tickers), start, end)
	rows, err := f.Fetch(ctx, tickers, start, end, minimal, source)
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch prices")
	}
	return rows, nil
}
