// Package id generates identifiers for images, tags, users, tokens, and stored files.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// fileAlphabet avoids upper case so generated file names survive
// case-insensitive filesystems and object stores.
const (
	fileAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	fileIDLength = 20
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "img-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// FileStem returns a random lower-case stem for a stored file name.
func FileStem() (string, error) {
	stem, err := gonanoid.Generate(fileAlphabet, fileIDLength)
	if err != nil {
		return "", fmt.Errorf("generate file stem: %w", err)
	}
	return stem, nil
}

// TimeOrdered returns a UUIDv7 string. Values sort by creation time.
func TimeOrdered() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return u.String(), nil
}
