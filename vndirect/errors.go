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

	"github.com/stockparfait/errors"
)

// TransportError is returned when the request fails at the network or HTTP
// level, including non-2xx status codes.
type TransportError struct {
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error (status %d): %s", e.StatusCode, e.Err.Error())
	}
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponse is returned when the response body is not JSON, or lacks
// the "data" array of objects.
type MalformedResponse struct {
	Err error
}

func (e *MalformedResponse) Error() string {
	return "malformed response: " + e.Err.Error()
}

func (e *MalformedResponse) Unwrap() error { return e.Err }

// MissingField is returned when a record lacks a field required downstream.
type MissingField struct {
	Field  string
	Record int // index of the offending record
}

func (e *MissingField) Error() string {
	return fmt.Sprintf("record %d: missing field %q", e.Record, e.Field)
}

// IsTransportError checks whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsMalformedResponse checks whether err is or wraps a *MalformedResponse.
func IsMalformedResponse(err error) bool {
	var e *MalformedResponse
	return errors.As(err, &e)
}

// IsMissingField checks whether err is or wraps a *MissingField.
func IsMissingField(err error) bool {
	var e *MissingField
	return errors.As(err, &e)
}
