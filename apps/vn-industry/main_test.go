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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stockparfait/logging"
	"github.com/stockparfait/testutil"
	"github.com/stockparfait/vnindustry/vndirect"
	"github.com/stockparfait/vnindustry/vndirect/prices"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	tmpdir, tmpdirErr := os.MkdirTemp("", "test_vn_industry")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		flags, err := parseFlags([]string{
			"-config", "path/to/config.toml", "-log-level", "warning",
			"-all", "-prices", "-csv", "-timeout", "5s"})
		So(err, ShouldBeNil)
		So(flags.Config, ShouldEqual, "path/to/config.toml")
		So(flags.LogLevel, ShouldEqual, logging.Warning)
		So(flags.All, ShouldBeTrue)
		So(flags.Prices, ShouldBeTrue)
		So(flags.CSV, ShouldBeTrue)
		So(flags.Timeout, ShouldEqual, 5*time.Second)
		So(flags.MaxColWidth, ShouldEqual, 40)

		_, err = parseFlags([]string{"-config", ""})
		So(err, ShouldNotBeNil)
	})

	Convey("parseConfig", t, func() {
		Convey("sample config", func() {
			fileName := filepath.Join(tmpdir, "sample.toml")
			So(testutil.WriteFile(fileName, sampleConfig), ShouldBeNil)
			c, err := parseConfig(fileName)
			So(err, ShouldBeNil)
			So(c.UserAgents, ShouldResemble, []string{"Mozilla/5.0 (X11; Linux x86_64)"})
			So(c.Filter, ShouldResemble, vndirect.FilterRequest{
				IndustryCodes: []string{"8775", "8777", "8985"},
				IndustryLevel: 3,
			})
			So(c.Prices, ShouldResemble, PricesConfig{
				Start:   prices.NewDate(2022, 1, 1),
				End:     prices.NewDate(2022, 12, 31),
				Minimal: true,
				Source:  prices.SourceVND,
			})
		})

		Convey("all filter fields", func() {
			fileName := filepath.Join(tmpdir, "filter.toml")
			So(testutil.WriteFile(fileName, `
[filter]
code_list = ["AAA", "ASM"]
higher_level_codes = ["8700"]
english_name = "Finance"
vietnamese_name = "Tài chính"
page_size = 100

[prices]
source = "cafef"
`), ShouldBeNil)
			c, err := parseConfig(fileName)
			So(err, ShouldBeNil)
			So(c.Filter, ShouldResemble, vndirect.FilterRequest{
				CodeList:         []string{"AAA", "ASM"},
				HigherLevelCodes: []string{"8700"},
				EnglishName:      "Finance",
				VietnameseName:   "Tài chính",
				PageSize:         100,
			})
			So(c.Prices.Source, ShouldEqual, prices.SourceCafeF)
		})

		Convey("missing file", func() {
			_, err := parseConfig(filepath.Join(tmpdir, "missing.toml"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "does not exist")
		})

		Convey("unknown fields", func() {
			fileName := filepath.Join(tmpdir, "unknown.toml")
			So(testutil.WriteFile(fileName, `[filter]
industry = "8775"
`), ShouldBeNil)
			_, err := parseConfig(fileName)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("run", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()
		defer func(u string) { prices.VNDURL = u }(prices.VNDURL)
		prices.VNDURL = server.URL() + "/v4/stock_prices"

		fileName := filepath.Join(tmpdir, "run.toml")
		So(testutil.WriteFile(fileName, fmt.Sprintf(`
base_url = "%s/v4/industry_classification"

[filter]
industry_codes = ["8775", "8985"]

[prices]
start = "2020-01-01"
end = "2020-01-31"
minimal = true
`, server.URL())), ShouldBeNil)

		industries := `{"data": [
  {"industryCode": "8775", "codeList": "AAA,ASM"},
  {"industryCode": "8985", "codeList": "HCM"}
], "totalElements": 2}`
		ctx := context.Background()

		Convey("industries only", func() {
			server.ResponseBody = []string{industries}
			flags, err := parseFlags([]string{"-config", fileName, "-csv"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(run(ctx, flags, server.Client(), &buf), ShouldBeNil)
			So(server.RequestPath, ShouldEqual, "/v4/industry_classification")
			So(server.RequestQuery["q"], ShouldResemble, []string{
				"codeList:~industryCode:8775,8985~industryLevel:1~higherLevelCode:~englishName:~vietnameseName:"})
			So("\n"+buf.String(), ShouldEqual, `
industryCode,codeList
8775,"AAA,ASM"
8985,HCM
`)
		})

		Convey("all industries as text", func() {
			server.ResponseBody = []string{industries}
			flags, err := parseFlags([]string{"-config", fileName, "-all"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(run(ctx, flags, server.Client(), &buf), ShouldBeNil)
			So(server.RequestQuery["q"], ShouldResemble, []string{
				"codeList:~industryCode:~industryLevel:1~higherLevelCode:~englishName:~vietnameseName:"})
			So("\n"+buf.String(), ShouldEqual, `
industryCode | codeList
------------ | --------
8775         | AAA,ASM
8985         | HCM
`)
		})

		Convey("chained prices", func() {
			server.ResponseBody = []string{industries, `{"data": [
  {"code": "AAA", "date": "2020-01-02", "open": 10, "high": 11, "low": 9.5,
   "close": 10.5, "adClose": 10.2, "nmVolume": 1000, "nmValue": 10500000}
]}`}
			flags, err := parseFlags([]string{"-config", fileName, "-csv", "-prices"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(run(ctx, flags, server.Client(), &buf), ShouldBeNil)
			So(server.RequestPath, ShouldEqual, "/v4/stock_prices")
			So(server.RequestQuery["q"], ShouldResemble, []string{
				"code:AAA,ASM,HCM~date:gte:2020-01-01~date:lte:2020-01-31"})
			So("\n"+buf.String(), ShouldEqual, `
industryCode,codeList
8775,"AAA,ASM"
8985,HCM

Ticker,Date,Open,High,Low,Close,Volume
AAA,2020-01-02,10,11,9.5,10.5,1000
`)
		})

		Convey("malformed response", func() {
			server.ResponseBody = []string{`{"totalElements": 0}`}
			flags, err := parseFlags([]string{"-config", fileName})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			err = run(ctx, flags, server.Client(), &buf)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "malformed response")
		})
	})
}
