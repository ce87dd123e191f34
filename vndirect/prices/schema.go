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
	"encoding"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/vnindustry/table"
)

// Date is a calendar date, printed as YYYY-MM-DD.
type Date struct {
	YearVal  uint16
	MonthVal uint8
	DayVal   uint8
}

var _ json.Marshaler = Date{}
var _ json.Unmarshaler = &Date{}
var _ encoding.TextUnmarshaler = &Date{}

// Layouts accepted by NewDateFromString. The last one is used by CafeF.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// NewDate is the constructor for Date.
func NewDate(year uint16, month, day uint8) Date {
	return Date{year, month, day}
}

// NewDateFromTime creates a Date from the calendar date of t.
func NewDateFromTime(t time.Time) Date {
	return Date{
		YearVal:  uint16(t.Year()),
		MonthVal: uint8(t.Month()),
		DayVal:   uint8(t.Day()),
	}
}

// NewDateFromString parses a date in one of the supported layouts. An empty
// string is the zero Date.
func NewDateFromString(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDateFromTime(t), nil
		}
	}
	return Date{}, errors.Reason("failed to parse a Date string: '%s'", s)
}

func (d Date) Year() uint16 { return d.YearVal }
func (d Date) Month() uint8 { return d.MonthVal }
func (d Date) Day() uint8   { return d.DayVal }

// String representation of the value.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}

// DMY is the dd/mm/yyyy representation used by CafeF.
func (d Date) DMY() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day(), d.Month(), d.Year())
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Annotate(err, "Date JSON must be a string")
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, e.g. for TOML configs.
func (d *Date) UnmarshalText(text []byte) error {
	date, err := NewDateFromString(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = date
	return nil
}

// Before compares two dates for strict inequality, self < d2.
func (d Date) Before(d2 Date) bool {
	if d.Year() != d2.Year() {
		return d.Year() < d2.Year()
	}
	if d.Month() != d2.Month() {
		return d.Month() < d2.Month()
	}
	return d.Day() < d2.Day()
}

// After compares two dates for strict inequality, self > d2.
func (d Date) After(d2 Date) bool {
	return d2.Before(d)
}

// IsZero checks whether the date has a zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// InRange checks if d is in the inclusive date range. A zero bound is ignored.
func (d Date) InRange(start, end Date) bool {
	if d.IsZero() {
		return false
	}
	if !start.IsZero() && start.After(d) {
		return false
	}
	if !end.IsZero() && end.Before(d) {
		return false
	}
	return true
}

// Source of the price history.
type Source uint8

const (
	SourceVND   Source = iota // VNDirect finfo API
	SourceCafeF               // CafeF price history
)

var _ encoding.TextUnmarshaler = new(Source)

var source2string = map[Source]string{
	SourceVND:   "vnd",
	SourceCafeF: "cafef",
}

func (s Source) String() string {
	if str, ok := source2string[s]; ok {
		return str
	}
	return fmt.Sprintf("Source(%d)", uint8(s))
}

// ParseSource converts a case-insensitive name ("vnd" or "cafef") to Source.
func ParseSource(s string) (Source, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for src, str := range source2string {
		if s == str {
			return src, nil
		}
	}
	return SourceVND, errors.Reason("unknown price source: '%s'", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(text []byte) error {
	src, err := ParseSource(string(text))
	if err != nil {
		return err
	}
	*s = src
	return nil
}

// PriceRow is a daily price point of a ticker. Prices are in thousands of VND.
type PriceRow struct {
	Ticker string
	Date   Date
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64 // matched shares
	// The rest is left zero in minimal rows.
	AdjustedClose float64 // adjusted for splits and dividends
	Change        float64 // close-to-close change
	PctChange     float64 // in percent
	Value         float64 // matched value, VND
}

// Minimal clears the fields which are not part of a minimal row.
func (p PriceRow) Minimal() PriceRow {
	return PriceRow{
		Ticker: p.Ticker,
		Date:   p.Date,
		Open:   p.Open,
		High:   p.High,
		Low:    p.Low,
		Close:  p.Close,
		Volume: p.Volume,
	}
}

// PriceRowHeader is the table header matching PriceRow.Cells.
func PriceRowHeader(minimal bool) []string {
	h := []string{"Ticker", "Date", "Open", "High", "Low", "Close", "Volume"}
	if minimal {
		return h
	}
	return append(h, "Adjusted Close", "Change", "Change %", "Value")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Cells of the row for printing.
func (p PriceRow) Cells(minimal bool) []string {
	c := []string{
		p.Ticker,
		p.Date.String(),
		formatFloat(p.Open),
		formatFloat(p.High),
		formatFloat(p.Low),
		formatFloat(p.Close),
		formatFloat(p.Volume),
	}
	if minimal {
		return c
	}
	return append(c,
		formatFloat(p.AdjustedClose),
		formatFloat(p.Change),
		formatFloat(p.PctChange),
		formatFloat(p.Value))
}

// CSV implements table.Row with all the fields.
func (p PriceRow) CSV() []string { return p.Cells(false) }

// minimalRow prints only the fields of a minimal row.
type minimalRow PriceRow

func (p minimalRow) CSV() []string { return PriceRow(p).Cells(true) }

var _ table.Row = PriceRow{}
var _ table.Row = minimalRow{}

// Table of price rows.
func Table(rows []PriceRow, minimal bool) *table.Table {
	t := table.NewTable(PriceRowHeader(minimal)...)
	for _, r := range rows {
		if minimal {
			t.AddRows(minimalRow(r))
		} else {
			t.AddRows(r)
		}
	}
	return t
}
