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

package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/vnindustry/vndirect"
)

// Default price history endpoints.
var (
	VNDURL   = "https://finfo-api.vndirect.com.vn/v4/stock_prices"
	CafeFURL = "https://s.cafef.vn/Ajax/PageNew/DataHistory/PriceHistory.ashx"
)

// MaxRows is the page size requested from the price endpoints.
const MaxRows = 9999

// HTTPFetcher implements Fetcher over the public price history APIs. Every
// request is sent once; a failure is returned without a retry.
type HTTPFetcher struct {
	Getter   vndirect.Getter // nil: vndirect.HTTPGetter with the client from ctx
	VNDURL   string          // default: VNDURL
	CafeFURL string          // default: CafeFURL
}

var _ Fetcher = &HTTPFetcher{}

// Fetch implements Fetcher. Rows without a date or outside of the [start, end]
// range are dropped. A page which the server reports as incomplete is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, tickers []string, start, end Date, minimal bool, source Source) ([]PriceRow, error) {
	var rows []PriceRow
	var err error
	switch source {
	case SourceVND:
		rows, err = f.fetchVND(ctx, tickers, start, end)
	case SourceCafeF:
		rows, err = f.fetchCafeF(ctx, tickers, start, end)
	default:
		return nil, errors.Reason("unsupported price source: %s", source)
	}
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch prices from %s", source)
	}
	res := rows[:0]
	for _, r := range rows {
		if !r.Date.InRange(start, end) {
			continue
		}
		if minimal {
			r = r.Minimal()
		}
		res = append(res, r)
	}
	if len(res) < len(rows) {
		logging.Debugf(ctx, "dropped %d price rows outside of [%s, %s]",
			len(rows)-len(res), start, end)
	}
	return res, nil
}

func (f *HTTPFetcher) getter() vndirect.Getter {
	if f.Getter == nil {
		return &vndirect.HTTPGetter{}
	}
	return f.Getter
}

// getJSON sends a single GET request and decodes the JSON response into v.
func (f *HTTPFetcher) getJSON(ctx context.Context, uri, rawQuery string, v interface{}) error {
	header := make(http.Header)
	header.Set("Accept", vndirect.ContentType)
	logging.Debugf(ctx, "GET %s?%s", uri, rawQuery)
	body, err := vndirect.GetOK(ctx, f.getter(), uri, rawQuery, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &vndirect.MalformedResponse{Err: errors.Annotate(err, "failed to decode JSON from %s", uri)}
	}
	return nil
}

// vndPrice is a row of the VNDirect stock_prices API.
type vndPrice struct {
	Code      string  `json:"code"`
	Date      Date    `json:"date"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	AdClose   float64 `json:"adClose"`
	Change    float64 `json:"change"`
	PctChange float64 `json:"pctChange"`
	NmVolume  float64 `json:"nmVolume"`
	NmValue   float64 `json:"nmValue"`
}

type vndPage struct {
	Data          []vndPrice `json:"data"`
	TotalElements int        `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
}

// vndQuery is the raw query for all the tickers at once. The composite "q"
// keeps its ':' and ',' unescaped.
func vndQuery(tickers []string, start, end Date) string {
	q := []string{"code:" + strings.Join(tickers, vndirect.ListSeparator)}
	if !start.IsZero() {
		q = append(q, "date:gte:"+start.String())
	}
	if !end.IsZero() {
		q = append(q, "date:lte:"+end.String())
	}
	return fmt.Sprintf("q=%s&sort=date&size=%d&page=1",
		vndirect.Escape(strings.Join(q, vndirect.SegmentSeparator)), MaxRows)
}

// truncated reports an incomplete page: the server has more rows than it sent.
func truncated(got, total int) error {
	if total <= got {
		return nil
	}
	return errors.Reason(
		"received %d of %d price rows; narrow down the tickers or the date range",
		got, total)
}

func (f *HTTPFetcher) fetchVND(ctx context.Context, tickers []string, start, end Date) ([]PriceRow, error) {
	uri := f.VNDURL
	if uri == "" {
		uri = VNDURL
	}
	var page vndPage
	if err := f.getJSON(ctx, uri, vndQuery(tickers, start, end), &page); err != nil {
		return nil, err
	}
	if err := truncated(len(page.Data), page.TotalElements); err != nil {
		return nil, err
	}
	if page.TotalPages > 1 {
		return nil, errors.Reason("received 1 of %d pages of price rows", page.TotalPages)
	}
	rows := make([]PriceRow, len(page.Data))
	for i, p := range page.Data {
		rows[i] = PriceRow{
			Ticker:        p.Code,
			Date:          p.Date,
			Open:          p.Open,
			High:          p.High,
			Low:           p.Low,
			Close:         p.Close,
			Volume:        p.NmVolume,
			AdjustedClose: p.AdClose,
			Change:        p.Change,
			PctChange:     p.PctChange,
			Value:         p.NmValue,
		}
	}
	logging.Debugf(ctx, "VNDirect: fetched %d price rows for %d tickers",
		len(rows), len(tickers))
	return rows, nil
}

// cafefPrice is a row of the CafeF price history API.
type cafefPrice struct {
	Date          string  `json:"Ngay"` // dd/mm/yyyy
	AdjustedClose float64 `json:"GiaDieuChinh"`
	Close         float64 `json:"GiaDongCua"`
	Change        string  `json:"ThayDoi"` // e.g. "0.3(1.25 %)"
	Volume        float64 `json:"KhoiLuongKhopLenh"`
	Value         float64 `json:"GiaTriKhopLenh"`
	Open          float64 `json:"GiaMoCua"`
	High          float64 `json:"GiaCaoNhat"`
	Low           float64 `json:"GiaThapNhat"`
}

type cafefPage struct {
	Data struct {
		TotalCount int          `json:"TotalCount"`
		Data       []cafefPrice `json:"Data"`
	} `json:"Data"`
	Success bool `json:"Success"`
}

// parseCafeFChange splits "0.3(1.25 %)" into the absolute and the percentage
// change. An empty string is no change.
func parseCafeFChange(s string) (float64, float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	i := strings.Index(s, "(")
	if i < 0 || !strings.HasSuffix(s, ")") {
		return 0, 0, errors.Reason("unexpected change format: '%s'", s)
	}
	abs, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
	if err != nil {
		return 0, 0, errors.Annotate(err, "failed to parse change: '%s'", s)
	}
	pctStr := strings.TrimSuffix(strings.TrimSpace(s[i+1:len(s)-1]), "%")
	pct, err := strconv.ParseFloat(strings.TrimSpace(pctStr), 64)
	if err != nil {
		return 0, 0, errors.Annotate(err, "failed to parse percent change: '%s'", s)
	}
	return abs, pct, nil
}

func cafefQuery(ticker string, start, end Date) string {
	v := url.Values{
		"Symbol":    []string{ticker},
		"PageIndex": []string{"1"},
		"PageSize":  []string{fmt.Sprintf("%d", MaxRows)},
	}
	if !start.IsZero() {
		v["StartDate"] = []string{start.DMY()}
	}
	if !end.IsZero() {
		v["EndDate"] = []string{end.DMY()}
	}
	return v.Encode()
}

// fetchCafeF downloads one ticker at a time, since the API takes a single
// symbol. Each ticker's rows are sorted by date.
func (f *HTTPFetcher) fetchCafeF(ctx context.Context, tickers []string, start, end Date) ([]PriceRow, error) {
	uri := f.CafeFURL
	if uri == "" {
		uri = CafeFURL
	}
	var rows []PriceRow
	for _, ticker := range tickers {
		var page cafefPage
		if err := f.getJSON(ctx, uri, cafefQuery(ticker, start, end), &page); err != nil {
			return nil, errors.Annotate(err, "failed to fetch prices for %s", ticker)
		}
		if err := truncated(len(page.Data.Data), page.Data.TotalCount); err != nil {
			return nil, errors.Annotate(err, "incomplete prices for %s", ticker)
		}
		tickerRows := make([]PriceRow, len(page.Data.Data))
		for i, p := range page.Data.Data {
			date, err := NewDateFromString(p.Date)
			if err != nil {
				return nil, errors.Annotate(err, "bad date for %s", ticker)
			}
			change, pct, err := parseCafeFChange(p.Change)
			if err != nil {
				return nil, errors.Annotate(err, "bad change for %s on %s", ticker, date)
			}
			tickerRows[i] = PriceRow{
				Ticker:        ticker,
				Date:          date,
				Open:          p.Open,
				High:          p.High,
				Low:           p.Low,
				Close:         p.Close,
				Volume:        p.Volume,
				AdjustedClose: p.AdjustedClose,
				Change:        change,
				PctChange:     pct,
				Value:         p.Value,
			}
		}
		sort.SliceStable(tickerRows, func(i, j int) bool {
			return tickerRows[i].Date.Before(tickerRows[j].Date)
		})
		logging.Debugf(ctx, "CafeF: fetched %d price rows for %s", len(tickerRows), ticker)
		rows = append(rows, tickerRows...)
	}
	return rows, nil
}
