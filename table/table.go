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

// Package table prints tabular results, such as industry records and price
// rows, as aligned text or CSV.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/stockparfait/errors"
)

// Row is implemented by the types that can be added to a table as a whole.
type Row interface {
	CSV() []string // an encoding/csv compatible row representation
}

// Table is a list of rows of string cells with an optional header. All rows
// are expected to have the same number of cells as the header, when present.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable creates an empty Table with an optional header.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow appends a single row of cells.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// AddRows appends rows in their CSV representation.
func (t *Table) AddRows(rows ...Row) {
	for _, r := range rows {
		t.Rows = append(t.Rows, r.CSV())
	}
}

// Params for writing a Table.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = all
	NoHeader    bool // skip the header
	MaxColWidth int  // WriteText only; 0 = unlimited, otherwise >= 4
}

// rows to write according to p, including the header.
func (t *Table) rows(p Params) [][]string {
	var res [][]string
	if !p.NoHeader && len(t.Header) > 0 {
		res = append(res, t.Header)
	}
	n := len(t.Rows)
	if p.Rows > 0 && p.Rows < n {
		n = p.Rows
	}
	return append(res, t.Rows[:n]...)
}

// WriteCSV writes the table to w in CSV format.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.rows(p)); err != nil {
		return errors.Annotate(err, "failed to write CSV")
	}
	return nil
}

func truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	return string([]rune(s)[:width-2]) + ".."
}

// WriteText writes the table as left-aligned columns separated by " | ", with
// a dashed line under the header.
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	rows := t.rows(p)
	if len(rows) == 0 {
		return nil
	}
	widths := make([]int, len(rows[0]))
	for i, row := range rows {
		if len(row) != len(widths) {
			return errors.Reason("row %d has %d cells, expected %d", i, len(row), len(widths))
		}
		for j, c := range row {
			c = truncate(c, p.MaxColWidth)
			if n := utf8.RuneCountInString(c); n > widths[j] {
				widths[j] = n
			}
		}
	}
	line := func(row []string) error {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = fmt.Sprintf("%-*s", widths[j], truncate(c, p.MaxColWidth))
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " | "), " "))
		return err
	}
	for i, row := range rows {
		if err := line(row); err != nil {
			return errors.Annotate(err, "failed to write row %d", i)
		}
		if i == 0 && !p.NoHeader && len(t.Header) > 0 {
			dashes := make([]string, len(widths))
			for j, n := range widths {
				dashes[j] = strings.Repeat("-", n)
			}
			if err := line(dashes); err != nil {
				return errors.Annotate(err, "failed to write header separator")
			}
		}
	}
	return nil
}
