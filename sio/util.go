/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// ExcerptLimit is the most bytes of a payload that Excerpt shows.
var ExcerptLimit = 70

// Excerpt returns the start of a catalog payload for logging.
//
// A payload that isn't UTF-8 text is shown in hex.  Whitespace runs
// are collapsed so a YAML catalog fits on one log line.
func Excerpt(payload []byte) string {
	truncated := ExcerptLimit < len(payload)
	if truncated {
		cut := ExcerptLimit
		// Don't split a rune.
		for 0 < cut && !utf8.RuneStart(payload[cut]) {
			cut--
		}
		payload = payload[:cut]
	}

	var s string
	if utf8.Valid(payload) {
		s = strings.Join(strings.Fields(string(payload)), " ")
	} else {
		s = "0x" + hex.EncodeToString(payload)
	}
	if truncated {
		s += "..."
	}
	return s
}
