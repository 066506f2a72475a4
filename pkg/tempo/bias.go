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
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/goccmack/beatsearch/pkg/common"
)

// DefaultBiasFile is the conventional name of the persisted bias
const DefaultBiasFile = "tempo_period_bias.txt"

// Bias is the tempo period prior: the mean tempo of a reference corpus
type Bias struct {
	BPM float64
}

// BiasFromBPM returns the bias for a tempo in beats per minute
func BiasFromBPM(bpm float64) Bias {
	return Bias{BPM: bpm}
}

// BiasFromPeriod returns the bias whose period is the given number of
// envelope frames
func BiasFromPeriod(frames float64) Bias {
	return Bias{BPM: 60 * common.FrameRate / frames}
}

// Period returns the bias period τ0 in envelope frames
func (b Bias) Period() float64 {
	return 60 * common.FrameRate / b.BPM
}

// BiasStore persists a single Bias. The value is computed at most once per
// file: concurrent callers wait for the first computation and later calls
// are served from memory. Once written the file is never rewritten by the
// store.
type BiasStore struct {
	fs     afero.Fs
	path   string
	logger logrus.FieldLogger

	mu     sync.Mutex
	cached *Bias
}

// NewBiasStore returns a store backed by path on fsys
func NewBiasStore(fsys afero.Fs, path string, logger logrus.FieldLogger) *BiasStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BiasStore{
		fs:   fsys,
		path: path,
		logger: logger.WithFields(logrus.Fields{
			"component": "bias_store",
			"path":      path,
		}),
	}
}

// Path returns the location of the bias file
func (s *BiasStore) Path() string { return s.path }

// Get returns the stored bias. When the file does not exist or is empty the
// bias is computed with compute and written. A nil compute makes a missing file an
// error matching fs.ErrNotExist.
func (s *BiasStore) Get(compute func() (Bias, error)) (Bias, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return *s.cached, nil
	}

	b, err := s.read()
	if err == nil {
		s.cached = &b
		return b, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return Bias{}, err
	}
	if compute == nil {
		return Bias{}, fmt.Errorf("tempo bias %s: %w", s.path, fs.ErrNotExist)
	}

	s.logger.Info("Tempo bias not found, computing")
	b, err = compute()
	if err != nil {
		return Bias{}, fmt.Errorf("compute tempo bias: %w", err)
	}
	if err := validBias(b); err != nil {
		return Bias{}, err
	}
	if err := s.write(b); err != nil {
		return Bias{}, err
	}
	s.logger.WithField("bpm", b.BPM).Info("Tempo bias written")

	s.cached = &b
	return b, nil
}

func (s *BiasStore) read() (Bias, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return Bias{}, err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return Bias{}, fmt.Errorf("empty tempo bias %s: %w", s.path, fs.ErrNotExist)
	}
	bpm, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Bias{}, common.NewError(common.CodeInvalidInput, "tempo.BiasStore",
			fmt.Sprintf("malformed bias file %s", s.path), err)
	}
	b := BiasFromBPM(bpm)
	if err := validBias(b); err != nil {
		return Bias{}, err
	}
	return b, nil
}

// write stores b through a temporary file so that readers never see a
// partial value
func (s *BiasStore) write(b Bias) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := afero.TempFile(s.fs, dir, ".tempo-bias-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	_, err = f.WriteString(strconv.FormatFloat(b.BPM, 'f', -1, 64) + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("write tempo bias: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("rename tempo bias: %w", err)
	}
	return nil
}

func validBias(b Bias) error {
	if !(b.BPM > 0) || math.IsInf(b.BPM, 0) {
		return common.InvalidInput("tempo.Bias", fmt.Sprintf("bias must be a positive tempo, got %g BPM", b.BPM))
	}
	return nil
}
