// util/json.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Unmarshal the bytes into the given type but go through some efforts to
// return useful error messages when the JSON is invalid...
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	switch jerr := err.(type) {
	case *json.SyntaxError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %v", line, char, jerr)

	case *json.UnmarshalTypeError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, jerr.Value, jerr.Struct, jerr.Field, jerr.Type.String())

	default:
		return err
	}
}

// UnmarshalYAMLBytes decodes YAML into out; unknown fields are errors so
// that typos in configuration files don't silently fall back to defaults.
func UnmarshalYAMLBytes[T any](b []byte, out *T) error {
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// LoadFile reads the given file and decodes it into out, choosing between
// YAML and JSON based on the file's extension.
func LoadFile[T any](path string, out *T) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return UnmarshalBytes(filepath.Ext(path), b, out)
}

// UnmarshalBytes decodes b as YAML if ext is ".yaml" or ".yml" and as JSON
// otherwise.
func UnmarshalBytes[T any](ext string, b []byte, out *T) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return UnmarshalYAMLBytes(b, out)
	default:
		return UnmarshalJSONBytes(b, out)
	}
}
