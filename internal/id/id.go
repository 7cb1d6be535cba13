// Package id generates the prefixed identifiers that tie one pipeline run's
// log lines, history row, and report payload together.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphanumeric only: run IDs end up in log lines, CSV cells, and URLs, so
// the default nanoid alphabet's "-" and "_" are dropped.
const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	length   = 16
)

// RunPrefix marks pipeline run IDs ("run-V1StGXR8Z5jdHi6B").
const RunPrefix = "run"

// Generate creates a prefixed unique ID using NanoID.
//
// Returns an error if the system has insufficient entropy for secure random
// generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails. Run IDs
// are correlation aids, so a machine without working entropy should crash
// loudly rather than label every run the same.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewRunID generates an ID for one pipeline run.
func NewRunID() string {
	return MustGenerate(RunPrefix)
}
