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

// Package vndirect implements the industry classification API of VNDirect's
// finfo service.
//
// The API accepts a single composite query parameter "q" which packs all the
// filters into "key:value" segments joined by "~", e.g.:
//
//   q=codeList:AAA,ASM~industryCode:~industryLevel:1~higherLevelCode:~englishName:~vietnameseName:&size=9999
//
// All six keys are always present, in this exact order, even when a filter is
// empty. The characters ':' and ',' are structural for the server's parser and
// must not be percent-encoded.
//
// The response is a JSON object with the industry rows under "data" and
// arbitrary paging fields (e.g. "total", "currentPage") at the top level. The
// rows are returned as generic Records, and the rest of the object is kept
// verbatim as Metadata.
//
// A Client with a transport and a pool of user agents is injected into the
// context using UseClient(), and Lookup() or LookupAll() execute a single
// request. Failed requests are never retried.
//
// Chaining the found tickers into a price history fetch is implemented in the
// prices subpackage.
package vndirect
