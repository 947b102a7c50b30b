package model

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
)

// Schema describes how an entity maps onto its table. Columns lists the
// persisted columns in read order; Ignored names struct fields that never
// reach the database.
type Schema struct {
	Table      string
	PrimaryKey string
	Columns    []string
	Ignored    []string
}

// Writable returns the persisted columns except the primary key.
func (s Schema) Writable() []string {
	out := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		if col == s.PrimaryKey {
			continue
		}
		out = append(out, col)
	}
	return out
}

// SHA1Hex is the hash guarding comment edits.
func SHA1Hex(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// SHA256Hex is the hash guarding article edits.
func SHA256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
