//  Copyright (c) 2023 Uber Technologies, Inc.
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

// Package trace implements an optional golden-test recorder for a traversal run: a flat log of
// the statement tokens the engine recorded a Visit for and the Action it observed there. It has no effect on the
// traversal itself; a Recorder only ever receives Visit calls, never influences control flow.
package trace

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/klauspost/compress/s2"

	"github.com/fdte/fdte/action"
)

// Record is one visited-token entry in a trace.
type Record struct {
	Index  int
	Str    string
	Action action.Action
}

// Recorder accumulates Records in visitation order. The zero value is ready to use.
type Recorder struct {
	Records []Record
}

// Visit appends one entry to the trace. A nil Recorder is valid and a no-op, so traversal code can
// call settings.Trace.Visit(...) unconditionally once settings.Trace is non-nil without a second
// nil check at every call site.
func (r *Recorder) Visit(index int, str string, act action.Action) {
	if r == nil {
		return
	}
	r.Records = append(r.Records, Record{Index: index, Str: str, Action: act})
}

// Encode gob-encodes the trace and compresses it with s2, the same pairing
// go.uber.org/nilaway/inference.InferredMap uses for its cross-package fact cache, so that two
// traversal runs over the same (tokenList, analyzer, settings) can be compared for byte-identical
// golden output without carrying an uncompressed fixture around.
func (r *Recorder) Encode() (b []byte, err error) {
	var buf bytes.Buffer
	writer := s2.NewWriter(&buf)
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if err := gob.NewEncoder(writer).Encode(r.Records); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(b []byte) (*Recorder, error) {
	var records []Record
	buf := bytes.NewBuffer(b)
	if err := gob.NewDecoder(s2.NewReader(buf)).Decode(&records); err != nil {
		return nil, err
	}
	return &Recorder{Records: records}, nil
}
