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
	"testing"

	"github.com/stockparfait/errors"

	. "github.com/smartystreets/goconvey/convey"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	Convey("predicates see through annotations", t, func() {
		te := &TransportError{StatusCode: 502, Err: errors.Reason("bad gateway")}
		mr := &MalformedResponse{Err: errors.Reason("not JSON")}
		mf := &MissingField{Field: "codeList", Record: 2}

		So(IsTransportError(errors.Annotate(te, "lookup")), ShouldBeTrue)
		So(IsMalformedResponse(errors.Annotate(errors.Annotate(mr, "a"), "b")), ShouldBeTrue)
		So(IsMissingField(errors.Annotate(mf, "chain")), ShouldBeTrue)

		So(IsTransportError(mr), ShouldBeFalse)
		So(IsMalformedResponse(mf), ShouldBeFalse)
		So(IsMissingField(te), ShouldBeFalse)
		So(IsTransportError(nil), ShouldBeFalse)
		So(IsTransportError(errors.Reason("plain")), ShouldBeFalse)
	})

	Convey("messages", t, func() {
		So((&TransportError{StatusCode: 502, Err: errors.Reason("x")}).Error(),
			ShouldContainSubstring, "status 502")
		So((&TransportError{Err: errors.Reason("refused")}).Error(),
			ShouldContainSubstring, "refused")
		So((&MissingField{Field: "codeList", Record: 2}).Error(), ShouldEqual,
			`record 2: missing field "codeList"`)
	})
}
