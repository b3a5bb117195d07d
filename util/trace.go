// util/trace.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// TraceWriter streams msgpack-encoded records of type T through a zstd
// compressor.
type TraceWriter[T any] struct {
	zw    *zstd.Encoder
	enc   *msgpack.Encoder
	f     *os.File // non-nil when we created the file ourselves
	count int
}

func NewTraceWriter[T any](w io.Writer) (*TraceWriter[T], error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	return &TraceWriter[T]{zw: zw, enc: msgpack.NewEncoder(zw)}, nil
}

func CreateTrace[T any](path string) (*TraceWriter[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	tw, err := NewTraceWriter[T](f)
	if err != nil {
		f.Close()
		return nil, err
	}
	tw.f = f
	return tw, nil
}

func (t *TraceWriter[T]) Write(rec T) error {
	t.count++
	return t.enc.Encode(rec)
}

// Count returns the number of records written so far.
func (t *TraceWriter[T]) Count() int {
	return t.count
}

func (t *TraceWriter[T]) Close() error {
	err := t.zw.Close()
	if t.f != nil {
		err = errors.Join(err, t.f.Close())
	}
	return err
}

// ReadTrace decodes the records in r in order, calling fn for each one.
// It stops at the first error returned by fn.
func ReadTrace[T any](r io.Reader, fn func(T) error) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()

	dec := msgpack.NewDecoder(zr)
	for {
		var rec T
		if err := dec.Decode(&rec); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func ReadTraceFile[T any](path string, fn func(T) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReadTrace(f, fn)
}
