package space

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTask   = "riptide/task/v1"
	DomainEntity = "riptide/entity/v1"
	DomainRecord = "riptide/record/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TaskHash computes a content-addressed identity for a tuning task from
// its template name, argument signature, and target string. Stable
// across sessions given the same inputs.
func TaskHash(template, argSig, target string) (string, error) {
	obj := map[string]any{
		"template": template,
		"arg_sig":  argSig,
		"target":   target,
	}
	data, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("task hash: %w", err)
	}
	return hashWithDomain(DomainTask, data), nil
}

// RecordHash computes a content-addressed identity for a persisted
// trial record from its canonical JSON encoding.
func RecordHash(canonical []byte) string {
	return hashWithDomain(DomainRecord, canonical)
}

// Hash computes a content-addressed identity for the entity from its
// ordered knob-value encoding.
func (e *Entity) Hash() (string, error) {
	data, err := MarshalCanonical(e.Pairs())
	if err != nil {
		return "", fmt.Errorf("entity hash: %w", err)
	}
	return hashWithDomain(DomainEntity, data), nil
}
