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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/vnindustry/table"
	"github.com/stockparfait/vnindustry/vndirect"
	"github.com/stockparfait/vnindustry/vndirect/prices"

	toml "github.com/pelletier/go-toml/v2"
)

type Flags struct {
	Config      string // default: ~/.stockparfait/vnindustry/config.toml
	LogLevel    logging.Level
	All         bool // ignore the filter in the config
	Prices      bool // chain into a price history fetch
	CSV         bool // print CSV; default: text
	MaxColWidth int  // for text output
	Timeout     time.Duration
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("vn-industry", flag.ExitOnError)
	fs.StringVar(&flags.Config, "config",
		filepath.Join(os.Getenv("HOME"), ".stockparfait", "vnindustry", "config.toml"),
		"path to the TOML config file")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.BoolVar(&flags.All, "all", false, "list all industries, ignoring the configured filter")
	fs.BoolVar(&flags.Prices, "prices", false, "fetch prices for the tickers of the found industries")
	fs.BoolVar(&flags.CSV, "csv", false, "print tables in CSV format; default: text")
	fs.IntVar(&flags.MaxColWidth, "max-col-width", 40, "max. column width in text output; 0 = unlimited")
	fs.DurationVar(&flags.Timeout, "timeout", 30*time.Second, "HTTP request timeout")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.Config == "" {
		return nil, errors.Reason("-config must not be empty")
	}
	return &flags, nil
}

type PricesConfig struct {
	Start   prices.Date   `toml:"start"` // "YYYY-MM-DD"; empty = open
	End     prices.Date   `toml:"end"`
	Minimal bool          `toml:"minimal"`
	Source  prices.Source `toml:"source"` // "vnd" or "cafef"
}

type Config struct {
	BaseURL    string                 `toml:"base_url"`    // default: vndirect.URL
	UserAgents []string               `toml:"user_agents"` // default: vndirect.DefaultUserAgents
	Filter     vndirect.FilterRequest `toml:"filter"`
	Prices     PricesConfig           `toml:"prices"`
}

const sampleConfig = `user_agents = ["Mozilla/5.0 (X11; Linux x86_64)"]

[filter]
industry_codes = ["8775", "8777", "8985"]
industry_level = 3

[prices]
start = "2022-01-01"
end = "2022-12-31"
minimal = true
source = "vnd"
`

func parseConfig(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Annotate(err,
				"config file '%s' does not exist.\nPlease create config file, e.g.:\n%s",
				filePath, sampleConfig)
		}
		return nil, errors.Annotate(err,
			"cannot check config file for existence: '%s'", filePath)
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	d.DisallowUnknownFields()
	var c Config
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", filePath)
	}
	return &c, nil
}

func writeTable(w io.Writer, tbl *table.Table, flags *Flags) error {
	if flags.CSV {
		return tbl.WriteCSV(w, table.Params{})
	}
	return tbl.WriteText(w, table.Params{MaxColWidth: flags.MaxColWidth})
}

func run(ctx context.Context, flags *Flags, client *http.Client, w io.Writer) error {
	config, err := parseConfig(flags.Config)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	agents := vndirect.DefaultUserAgents
	if len(config.UserAgents) > 0 {
		agents = config.UserAgents
	}
	c, err := vndirect.NewClient(
		config.BaseURL, &vndirect.HTTPGetter{Client: client}, agents)
	if err != nil {
		return errors.Annotate(err, "failed to create client")
	}
	ctx = vndirect.UseClient(ctx, c)
	ctx = fetch.UseClient(ctx, client)

	var res *vndirect.LookupResult
	if flags.All {
		res, err = vndirect.LookupAll(ctx)
	} else {
		res, err = vndirect.Lookup(ctx, config.Filter)
	}
	if err != nil {
		return errors.Annotate(err, "failed to look up industries")
	}
	if err := writeTable(w, res.Table(), flags); err != nil {
		return errors.Annotate(err, "failed to print industries")
	}
	if !flags.Prices {
		return nil
	}
	p := config.Prices
	rows, err := prices.FetchForIndustries(
		ctx, res, p.Start, p.End, p.Minimal, p.Source, &prices.HTTPFetcher{})
	if err != nil {
		return errors.Annotate(err, "failed to chain prices")
	}
	fmt.Fprintln(w)
	if err := writeTable(w, prices.Table(rows, p.Minimal), flags); err != nil {
		return errors.Annotate(err, "failed to print prices")
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	client := &http.Client{Timeout: flags.Timeout}
	if err := run(ctx, flags, client, os.Stdout); err != nil {
		logging.Errorf(ctx, "%s", err.Error())
		os.Exit(1)
	}
}
