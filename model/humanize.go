/*
Copyright 2026 Searchsync Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"encoding/base32"
	"encoding/binary"
	"strings"
)

// HumanizeID converts a numeric identifier to the public, human-readable form
// used by client applications. The id is base32-encoded with the ambiguous
// characters O and I replaced by 8 and 1, and the padding stripped.
func HumanizeID(id int64) string {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))

	// Strip leading zero bytes so small ids stay short.
	start := 0
	for start < 7 && buf[start] == 0 {
		start++
	}

	encoded := base32.StdEncoding.EncodeToString(buf[start:])
	encoded = strings.ReplaceAll(encoded, "O", "8")
	encoded = strings.ReplaceAll(encoded, "I", "1")
	return strings.TrimRight(encoded, "=")
}
