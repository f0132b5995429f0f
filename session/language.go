// Copyright 2025 Poiesic Systems
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

package session

const (
	// English is reported for queries written mostly in Latin script.
	English = "en"
	// Chinese is reported for queries dominated by CJK ideographs.
	Chinese = "zh"
)

// cjkThreshold is the share of runes that must be CJK ideographs for text to
// be reported as Chinese.
const cjkThreshold = 0.3

// DetectLanguage reports Chinese when CJK unified ideographs make up more than
// 30% of the runes in text, English otherwise.
func DetectLanguage(text string) string {
	total, cjk := 0, 0
	for _, r := range text {
		total++
		if r >= 0x4e00 && r <= 0x9fff {
			cjk++
		}
	}
	if total > 0 && float64(cjk) > float64(total)*cjkThreshold {
		return Chinese
	}
	return English
}
