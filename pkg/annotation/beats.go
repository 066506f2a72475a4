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

/*
Package annotation reads ground truth beat annotations.

A .beats file has one beat per line: the beat time in seconds followed by
the position of the beat in its bar, 1 marking a downbeat.

	0.35 1
	0.82 2
*/
package annotation

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gonum.org/v1/gonum/stat"

	"github.com/goccmack/beatsearch/pkg/common"
)

// Ext is the file extension of beat annotations
const Ext = ".beats"

// Beat is one annotated beat
type Beat struct {
	Time   float64
	Number int
}

// Annotation is the content of one .beats file
type Annotation struct {
	Beats []Beat
}

// Parse reads an annotation. Blank lines are ignored.
func Parse(r io.Reader) (*Annotation, error) {
	a := &Annotation{}
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, common.InvalidInput("annotation.Parse", fmt.Sprintf("line %d: want time and beat number, got %q", line, sc.Text()))
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || t < 0 || math.IsInf(t, 0) || math.IsNaN(t) {
			return nil, common.InvalidInput("annotation.Parse", fmt.Sprintf("line %d: bad time %q", line, fields[0]))
		}
		num, err := parseNumber(fields[1])
		if err != nil {
			return nil, common.InvalidInput("annotation.Parse", fmt.Sprintf("line %d: bad beat number %q", line, fields[1]))
		}
		a.Beats = append(a.Beats, Beat{Time: t, Number: num})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read annotation: %w", err)
	}
	return a, nil
}

// parseNumber accepts "2" as well as "2.0"
func parseNumber(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

// LoadFile reads the annotation at path
func LoadFile(fsys afero.Fs, path string) (*Annotation, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Times returns the beat times in seconds
func (a *Annotation) Times() []float64 {
	t := make([]float64, len(a.Beats))
	for i, b := range a.Beats {
		t[i] = b.Time
	}
	return t
}

// DownbeatTimes returns the times of the beats numbered 1
func (a *Annotation) DownbeatTimes() []float64 {
	var t []float64
	for _, b := range a.Beats {
		if b.Number == 1 {
			t = append(t, b.Time)
		}
	}
	return t
}

// Tempo returns the mean tempo in BPM: the number of beats per minute up
// to the last beat
func (a *Annotation) Tempo() (float64, error) {
	if len(a.Beats) == 0 {
		return 0, common.InsufficientData("annotation.Tempo", "no beats")
	}
	last := a.Beats[len(a.Beats)-1].Time
	if last <= 0 {
		return 0, common.InsufficientData("annotation.Tempo", "last beat at time zero")
	}
	return 60 * float64(len(a.Beats)) / last, nil
}

// MeanTempo returns the mean of the tempi of all .beats files below root
// and the number of files read
func MeanTempo(fsys afero.Fs, root string) (float64, int, error) {
	var tempi []float64
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != Ext {
			return nil
		}
		a, err := LoadFile(fsys, path)
		if err != nil {
			return err
		}
		bpm, err := a.Tempo()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		tempi = append(tempi, bpm)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	if len(tempi) == 0 {
		return 0, 0, common.InsufficientData("annotation.MeanTempo", fmt.Sprintf("no %s files in %s", Ext, root))
	}
	return stat.Mean(tempi, nil), len(tempi), nil
}

// PathFor returns the annotation path of an audio file: the file's base
// name with extension Ext in dir, or next to the audio file when dir is
// empty
func PathFor(audioPath, dir string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath)) + Ext
	if dir == "" {
		dir = filepath.Dir(audioPath)
	}
	return filepath.Join(dir, base)
}
