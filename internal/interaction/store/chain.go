package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
)

// hashedRecord is the canonical form covered by a record hash. The record
// id is excluded: it is assigned by the database after hashing.
type hashedRecord struct {
	EntityType    models.EntityType    `json:"entity_type"`
	EntityID      uuid.UUID            `json:"entity_id"`
	Kind          models.Kind          `json:"kind"`
	Actor         *models.Actor        `json:"actor"`
	Changes       []models.FieldChange `json:"changes"`
	SchemaVersion int                  `json:"schema_version"`
	CreatedAt     string               `json:"created_at"`
}

// ComputeHash returns BLAKE2b-256(prev || canonical JSON of rec).
func ComputeHash(prev []byte, rec *models.Record) ([]byte, error) {
	payload, err := json.Marshal(hashedRecord{
		EntityType:    rec.EntityType,
		EntityID:      rec.EntityID,
		Kind:          rec.Kind,
		Actor:         rec.Actor,
		Changes:       rec.Changes,
		SchemaVersion: rec.SchemaVersion,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("canonical record: %w", err)
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	h.Write(prev)
	h.Write(payload)
	return h.Sum(nil), nil
}

// seal stamps rec and links it to the entity's previous record. CreatedAt
// is now at microsecond precision, pushed to one microsecond past the
// previous record when the clock has not moved past it, so timestamps are
// strictly increasing per entity in append order.
func seal(rec *models.Record, last *models.Record, now time.Time) error {
	at := now.UTC().Truncate(time.Microsecond)
	var prev []byte
	if last != nil {
		prev = last.Hash
		if floor := last.CreatedAt.Add(time.Microsecond); at.Before(floor) {
			at = floor
		}
	}
	rec.CreatedAt = at
	hash, err := ComputeHash(prev, rec)
	if err != nil {
		return err
	}
	rec.PrevHash = prev
	rec.Hash = hash
	return nil
}

// VerifyChain checks records of one entity, oldest first, against their
// stored links and hashes. It returns the first broken record's id wrapped
// around sentinel.ErrChainBroken.
func VerifyChain(records []models.Record) error {
	var prev []byte
	for i := range records {
		rec := &records[i]
		if !bytes.Equal(rec.PrevHash, prev) {
			return fmt.Errorf("interaction %d: previous hash mismatch: %w", rec.ID, sentinel.ErrChainBroken)
		}
		want, err := ComputeHash(prev, rec)
		if err != nil {
			return fmt.Errorf("interaction %d: %w", rec.ID, err)
		}
		if !bytes.Equal(rec.Hash, want) {
			return fmt.Errorf("interaction %d: hash mismatch: %w", rec.ID, sentinel.ErrChainBroken)
		}
		prev = rec.Hash
	}
	return nil
}
