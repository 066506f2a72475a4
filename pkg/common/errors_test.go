//  Copyright 2019 Marius Ackerman
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisErrorMatchesByCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("analyse x.wav: %w", InvalidInput("onset.Extract", "empty waveform"))

	require.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrInsufficientData))
	assert.False(t, errors.Is(err, ErrDegenerateEstimate))

	var ae *AnalysisError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, CodeInvalidInput, ae.Code)
	assert.Equal(t, "onset.Extract: empty waveform", ae.Error())
}

func TestAnalysisErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("short read")
	err := NewError(CodeInsufficientData, "audio.ReadWav", "no samples", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, "audio.ReadWav: no samples: short read", err.Error())
}

func TestFrameConversions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 250.0, FrameRate)
	assert.InDelta(t, 1.0, FrameToSeconds(250), 1e-12)
	assert.Equal(t, 250, SecondsToFrame(1))
	assert.Equal(t, 4, FrameToMs(1))
	assert.Equal(t, 44100, FrameToSampleOffset(250, 44100))
	assert.Equal(t, []float64{0, 0.08}, FramesToSeconds([]int{0, 20}))
}
