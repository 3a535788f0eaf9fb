// Copyright 2024 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package value

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// ParseNumber parses the relaxed decimal/timecode grammar the external
// parser is responsible for recognising (spec.md §6): a plain decimal
// literal, or `MM:SS[.ms]` / `HH:MM:SS[.ms]` timecodes that resolve to
// a number of seconds.
//
// Plain decimals go through apd.Decimal, the same way CUE's own
// arbitrary-precision numeric literals do, so that a long literal like
// "0.1" converts to the same float64 bit pattern on every platform
// rather than accumulating strconv/platform drift.
func ParseNumber(src string) (float64, bool) {
	if strings.Contains(src, ":") {
		return parseTimecode(src)
	}
	d, _, err := apd.NewFromString(src)
	if err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(d.Text('f'), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseTimecode(src string) (float64, bool) {
	parts := strings.Split(src, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	var hours float64
	if len(parts) == 3 {
		h, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, false
		}
		hours = h
		parts = parts[1:]
	}
	minutes, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, false
	}
	return hours*3600 + minutes*60 + seconds, true
}
