package consent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"consentledger/pkg/platform/sentinel"
)

const (
	// Redis key layout: one JSON hash entry per consent plus a per-patient
	// index set for the scope/validity scans.
	consentKeyPrefix      = "consent:id:"
	patientIndexKeyPrefix = "consent:patient:"
)

// RedisStore is a Redis-backed consent store for deployments that share
// consent state across instances. Records never expire via TTL; validity is
// evaluated against the query instant, and revocation rewrites the record in
// place so history is preserved.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed consent store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisConsent struct {
	ID         uuid.UUID  `json:"id"`
	PatientRef string     `json:"patient_ref"`
	Scopes     []Scope    `json:"scopes"`
	GrantedAt  time.Time  `json:"granted_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

func (s *RedisStore) Save(ctx context.Context, consent *Consent) error {
	payload, err := json.Marshal(redisConsent(*consent))
	if err != nil {
		return fmt.Errorf("marshal consent: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, consentKeyPrefix+consent.ID.String(), payload, 0)
	pipe.SAdd(ctx, patientIndexKeyPrefix+consent.PatientRef, consent.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, id uuid.UUID) (*Consent, error) {
	raw, err := s.client.Get(ctx, consentKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get consent: %w", err)
	}
	var rc redisConsent
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("unmarshal consent: %w", err)
	}
	c := Consent(rc)
	return &c, nil
}

func (s *RedisStore) ListByPatientRef(ctx context.Context, patientRef string) ([]*Consent, error) {
	consents, err := s.loadPatient(ctx, patientRef)
	if err != nil {
		return nil, err
	}
	sortConsents(consents)
	return consents, nil
}

func (s *RedisStore) FindActiveByPatientRefAndScope(ctx context.Context, patientRef string, scope Scope, asOf time.Time) (*Consent, error) {
	consents, err := s.loadPatient(ctx, patientRef)
	if err != nil {
		return nil, err
	}
	var candidates []*Consent
	for _, c := range consents {
		if c.HasScope(scope) && c.IsValidAt(asOf) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, sentinel.ErrNotFound
	}
	sortConsents(candidates)
	return candidates[0], nil
}

// MarkRevoked rewrites the record with RevokedAt set. The read-modify-write
// runs under WATCH so concurrent revokes of the same ID cannot both succeed;
// the losing racer retries, re-reads the revoked record, and gets
// ErrInvalidState.
func (s *RedisStore) MarkRevoked(ctx context.Context, id uuid.UUID, revokedAt time.Time) error {
	key := consentKeyPrefix + id.String()
	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get consent: %w", err)
		}
		var rc redisConsent
		if err := json.Unmarshal(raw, &rc); err != nil {
			return fmt.Errorf("unmarshal consent: %w", err)
		}
		if rc.RevokedAt != nil {
			return sentinel.ErrInvalidState
		}
		at := revokedAt.UTC()
		rc.RevokedAt = &at
		if at.After(rc.UpdatedAt) {
			rc.UpdatedAt = at
		}
		payload, err := json.Marshal(rc)
		if err != nil {
			return fmt.Errorf("marshal consent: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}
	for range 3 {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) && !errors.Is(err, sentinel.ErrInvalidState) {
			return fmt.Errorf("revoke consent: %w", err)
		}
		return err
	}
	return fmt.Errorf("revoke consent: %w", redis.TxFailedErr)
}

func (s *RedisStore) loadPatient(ctx context.Context, patientRef string) ([]*Consent, error) {
	ids, err := s.client.SMembers(ctx, patientIndexKeyPrefix+patientRef).Result()
	if err != nil {
		return nil, fmt.Errorf("list patient consents: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = consentKeyPrefix + id
	}
	raws, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load patient consents: %w", err)
	}
	var out []*Consent
	for _, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var rc redisConsent
		if err := json.Unmarshal([]byte(str), &rc); err != nil {
			return nil, fmt.Errorf("unmarshal consent: %w", err)
		}
		c := Consent(rc)
		out = append(out, &c)
	}
	return out, nil
}
