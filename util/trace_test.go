// util/trace_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

type traceRecord struct {
	Tick     int
	Altitude float32
	Mode     string
}

func TestTraceStreaming(t *testing.T) {
	var buf bytes.Buffer
	tw, err := NewTraceWriter[traceRecord](&buf)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 100 {
		if err := tw.Write(traceRecord{Tick: i, Altitude: 35000 - float32(i)*10, Mode: "VPATH"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if tw.Count() != 100 {
		t.Errorf("count %d", tw.Count())
	}

	n := 0
	err = ReadTrace(&buf, func(r traceRecord) error {
		if r.Tick != n {
			t.Errorf("record %d has tick %d", n, r.Tick)
		}
		n++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 100 {
		t.Errorf("read %d records, expected 100", n)
	}
}

func TestTraceCallbackErrorStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.zst")
	tw, err := CreateTrace[traceRecord](path)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 10 {
		_ = tw.Write(traceRecord{Tick: i})
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	stop := errors.New("stop")
	n := 0
	err = ReadTraceFile(path, func(r traceRecord) error {
		n++
		if r.Tick == 4 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("expected stop error, got %v", err)
	}
	if n != 5 {
		t.Errorf("callback ran %d times, expected 5", n)
	}
}
