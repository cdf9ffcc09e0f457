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

package trace_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fdte/fdte/action"
	"github.com/fdte/fdte/trace"
)

func TestVisitOnNilRecorderIsNoOp(t *testing.T) {
	t.Parallel()

	var r *trace.Recorder
	require.NotPanics(t, func() { r.Visit(0, "x", action.Read) })
}

func TestVisitAppendsInOrder(t *testing.T) {
	t.Parallel()

	var r trace.Recorder
	r.Visit(0, "if", action.None)
	r.Visit(1, "x", action.Read)
	r.Visit(2, "y", action.Write)

	require.Equal(t, []trace.Record{
		{Index: 0, Str: "if", Action: action.None},
		{Index: 1, Str: "x", Action: action.Read},
		{Index: 2, Str: "y", Action: action.Write},
	}, r.Records)
}

func TestEncodeDecodeRoundTrips(t *testing.T) {
	t.Parallel()

	var r trace.Recorder
	r.Visit(0, "a", action.Read)
	r.Visit(1, "b", action.Write.Or(action.Modified))

	encoded, err := r.Encode()
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := trace.Decode(encoded)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(r.Records, decoded.Records))
}

func TestEncodeIsDeterministic(t *testing.T) {
	t.Parallel()

	var r trace.Recorder
	r.Visit(0, "a", action.Read)
	r.Visit(1, "b", action.Write)
	r.Visit(2, "c", action.Inconclusive)

	first, err := r.Encode()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := r.Encode()
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestEncodeEmptyRecorder(t *testing.T) {
	t.Parallel()

	var r trace.Recorder
	encoded, err := r.Encode()
	require.NoError(t, err)

	decoded, err := trace.Decode(encoded)
	require.NoError(t, err)
	require.Empty(t, decoded.Records)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
