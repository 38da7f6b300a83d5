package stores

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingKind is the flow a pending verification belongs to.
type PendingKind string

const (
	PendingSignup PendingKind = "signup"
	PendingSignin PendingKind = "signin"
)

const (
	fieldKind         = "kind"
	fieldEmail        = "email"
	fieldUsername     = "username"
	fieldPasswordHash = "password_hash"
	fieldAccountID    = "account_id"
	fieldOTPHash      = "otp_hash"
	fieldAttempts     = "attempts"
)

var (
	ErrPendingNotFound         = errors.New("pending verification not found")
	ErrPendingRedisUnavailable = errors.New("pending verification redis unavailable")
)

// incrementAttemptsLua bumps the attempt counter without recreating an
// expired record. HINCRBY alone would resurrect the key with no TTL.
// KEYS[1] = record key
//
// Returns the new attempt count, or error "not_found".
var incrementAttemptsLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {err='not_found'}
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// updateOTPHashLua replaces otp_hash on a live record only.
// KEYS[1] = record key
// ARGV[1] = new otp hash
var updateOTPHashLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {err='not_found'}
end
redis.call('HSET', KEYS[1], 'otp_hash', ARGV[1])
return 1
`)

// resetOTPLua installs a new OTP hash, zeroes attempts and re-arms the TTL.
// KEYS[1] = record key
// ARGV[1] = new otp hash
// ARGV[2] = ttl in milliseconds
var resetOTPLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {err='not_found'}
end
redis.call('HSET', KEYS[1], 'otp_hash', ARGV[1], 'attempts', 0)
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// PendingRecord is the ephemeral state of a signup or signin awaiting OTP
// confirmation. Username and PasswordHash are set for signup records only,
// AccountID for signin records only.
type PendingRecord struct {
	Kind         PendingKind
	Email        string
	Username     string
	PasswordHash string
	AccountID    string
	OTPHash      string
	Attempts     int64
}

// PendingStore keeps pending verification records as Redis hashes.
type PendingStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewPendingStore(redisClient redis.UniversalClient, prefix string) *PendingStore {
	if prefix == "" {
		prefix = "pv"
	}
	return &PendingStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *PendingStore) key(verificationID string) string {
	return s.prefix + ":" + verificationID
}

// Save writes record under verificationID. HSET and PEXPIRE run in one
// MULTI so the record never exists without a TTL.
func (s *PendingStore) Save(ctx context.Context, verificationID string, record *PendingRecord, ttl time.Duration) error {
	key := s.key(verificationID)
	fields := map[string]interface{}{
		fieldKind:     string(record.Kind),
		fieldEmail:    record.Email,
		fieldOTPHash:  record.OTPHash,
		fieldAttempts: record.Attempts,
	}
	switch record.Kind {
	case PendingSignup:
		fields[fieldUsername] = record.Username
		fields[fieldPasswordHash] = record.PasswordHash
	case PendingSignin:
		fields[fieldAccountID] = record.AccountID
	default:
		return fmt.Errorf("unknown pending kind %q", record.Kind)
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPendingRedisUnavailable, err)
	}
	return nil
}

// Get loads the record for verificationID.
func (s *PendingStore) Get(ctx context.Context, verificationID string) (*PendingRecord, error) {
	values, err := s.redis.HGetAll(ctx, s.key(verificationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPendingRedisUnavailable, err)
	}
	if len(values) == 0 {
		return nil, ErrPendingNotFound
	}

	record := &PendingRecord{
		Kind:         PendingKind(values[fieldKind]),
		Email:        values[fieldEmail],
		Username:     values[fieldUsername],
		PasswordHash: values[fieldPasswordHash],
		AccountID:    values[fieldAccountID],
		OTPHash:      values[fieldOTPHash],
	}
	if raw := values[fieldAttempts]; raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt attempts field", ErrPendingRedisUnavailable)
		}
		record.Attempts = n
	}
	if record.Kind != PendingSignup && record.Kind != PendingSignin {
		return nil, fmt.Errorf("%w: corrupt kind field", ErrPendingRedisUnavailable)
	}

	return record, nil
}

// IncrementAttempts atomically adds one attempt and returns the new count.
func (s *PendingStore) IncrementAttempts(ctx context.Context, verificationID string) (int64, error) {
	n, err := incrementAttemptsLua.Run(ctx, s.redis, []string{s.key(verificationID)}).Int64()
	if err != nil {
		return 0, mapScriptErr(err)
	}
	return n, nil
}

// UpdateOTPHash replaces the stored OTP hash if the record still exists.
func (s *PendingStore) UpdateOTPHash(ctx context.Context, verificationID, otpHash string) error {
	if err := updateOTPHashLua.Run(ctx, s.redis, []string{s.key(verificationID)}, otpHash).Err(); err != nil {
		return mapScriptErr(err)
	}
	return nil
}

// ResetOTP installs a fresh OTP hash, zeroes attempts and restarts the TTL.
func (s *PendingStore) ResetOTP(ctx context.Context, verificationID, otpHash string, ttl time.Duration) error {
	err := resetOTPLua.Run(ctx, s.redis, []string{s.key(verificationID)}, otpHash, ttl.Milliseconds()).Err()
	if err != nil {
		return mapScriptErr(err)
	}
	return nil
}

// Delete removes the record and reports whether this call removed it.
// Exactly one of several concurrent callers sees true, which makes a
// successful confirmation single-use.
func (s *PendingStore) Delete(ctx context.Context, verificationID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(verificationID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPendingRedisUnavailable, err)
	}
	return n == 1, nil
}

func mapScriptErr(err error) error {
	if err.Error() == "not_found" {
		return ErrPendingNotFound
	}
	return fmt.Errorf("%w: %v", ErrPendingRedisUnavailable, err)
}
