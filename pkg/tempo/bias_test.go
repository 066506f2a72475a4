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

package tempo

import (
	"errors"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goccmack/beatsearch/pkg/common"
)

const biasPath = "/cache/tempo_period_bias.txt"

func TestBiasStoreComputesOnce(t *testing.T) {
	t.Parallel()

	memFs := afero.NewMemMapFs()
	var calls atomic.Int32
	compute := func() (Bias, error) {
		calls.Add(1)
		return BiasFromBPM(117.5), nil
	}

	store := NewBiasStore(memFs, biasPath, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := store.Get(compute)
			assert.NoError(t, err)
			assert.Equal(t, 117.5, b.BPM)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	data, err := afero.ReadFile(memFs, biasPath)
	require.NoError(t, err)
	assert.Equal(t, "117.5\n", string(data))

	// a fresh store reads the file instead of computing
	b, err := NewBiasStore(memFs, biasPath, nil).Get(compute)
	require.NoError(t, err)
	assert.Equal(t, 117.5, b.BPM)
	assert.Equal(t, int32(1), calls.Load())

	entries, err := afero.ReadDir(memFs, "/cache")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestBiasStoreMissingWithoutCompute(t *testing.T) {
	t.Parallel()

	_, err := NewBiasStore(afero.NewMemMapFs(), biasPath, nil).Get(nil)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestBiasStoreRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	memFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFs, biasPath, []byte("fast\n"), 0o644))

	_, err := NewBiasStore(memFs, biasPath, nil).Get(func() (Bias, error) {
		t.Fatal("compute must not run when the file exists")
		return Bias{}, nil
	})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	require.NoError(t, afero.WriteFile(memFs, biasPath, []byte("-3"), 0o644))
	_, err = NewBiasStore(memFs, biasPath, nil).Get(nil)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestBiasStoreComputeFailure(t *testing.T) {
	t.Parallel()

	memFs := afero.NewMemMapFs()
	store := NewBiasStore(memFs, biasPath, nil)

	boom := errors.New("no annotations")
	_, err := store.Get(func() (Bias, error) { return Bias{}, boom })
	assert.ErrorIs(t, err, boom)

	_, err = store.Get(func() (Bias, error) { return BiasFromBPM(0), nil })
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	exists, err := afero.Exists(memFs, biasPath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBiasStoreRecomputesEmptyFile(t *testing.T) {
	t.Parallel()

	memFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFs, biasPath, []byte("\n"), 0o644))

	b, err := NewBiasStore(memFs, biasPath, nil).Get(func() (Bias, error) { return BiasFromBPM(128), nil })
	require.NoError(t, err)
	assert.Equal(t, 128.0, b.BPM)

	data, err := afero.ReadFile(memFs, biasPath)
	require.NoError(t, err)
	assert.Equal(t, "128\n", string(data))
}
