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

package ingestion

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)

	tracker.Start()
	assert.True(t, tracker.started, "should be started")

	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)
	assert.Equal(t, 100, tracker.Current())

	time.Sleep(time.Millisecond)
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))

	output := buf.String()
	assert.Contains(t, output, "100/100 chunks")
	assert.Contains(t, output, "100.0%")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 1000)

	tracker.Start()
	tracker.Increment(75)
	assert.Empty(t, buf.String(), "below the report interval")

	tracker.Finish()
	output := buf.String()
	assert.Contains(t, output, "100/100")
	assert.Contains(t, output, "\n")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)

	tracker.Increment(5)
	tracker.Finish()
	assert.Empty(t, buf.String())
	assert.Equal(t, time.Duration(0), tracker.Elapsed())
}

func TestProgressTracker_NilWriter(t *testing.T) {
	tracker := NewProgressTracker(nil, 0, 1)
	tracker.Start()
	tracker.Finish()
	assert.Equal(t, 0, tracker.Current())
}
