package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	confirmationRecordVersionV1 = 1
)

var (
	ErrConfirmationNotFound         = errors.New("confirmation record not found")
	ErrConfirmationConsumed         = errors.New("confirmation record already consumed")
	ErrConfirmationExpired          = errors.New("confirmation record expired")
	ErrConfirmationRedisUnavailable = errors.New("confirmation redis unavailable")
)

// consumeConfirmationLua atomically performs GET→validate→mark-confirmed on a
// confirmation record. A record that is already confirmed, or past its expiry
// instant, is deleted inside the same script run.
//
// KEYS[1] = record key
// ARGV[1] = current unix timestamp (int string)
//
// Returns:
//
//	record bytes (pre-update) on success
//	error string: "not_found", "consumed", "expired"
var consumeConfirmationLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local nowUnix = tonumber(ARGV[1])

-- Minimal binary decode: version(1) confirmedAt(8 big-endian) createdAt(8 big-endian) expiresAt(8 big-endian) ...
local version = string.byte(data, 1)
if version ~= 1 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local function readInt64(offset)
  local v = 0
  for i = offset, offset + 7 do
    v = v * 256 + string.byte(data, i)
  end
  return v
end

local confirmedAt = readInt64(2)
local expiresAt = readInt64(18)

if confirmedAt ~= 0 then
  redis.call('DEL', KEYS[1])
  return {err='consumed'}
end

if nowUnix > expiresAt then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end

-- Rewrite the confirmedAt bytes, preserving the remaining retention TTL
local c = {}
local v = nowUnix
for i = 8, 1, -1 do
  c[i] = v % 256
  v = math.floor(v / 256)
end
local newData = string.sub(data, 1, 1) ..
  string.char(c[1], c[2], c[3], c[4], c[5], c[6], c[7], c[8]) ..
  string.sub(data, 10)

local ttlMs = redis.call('PTTL', KEYS[1])
if ttlMs <= 0 then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end
redis.call('SET', KEYS[1], newData, 'PX', ttlMs)
return data
`)

type ConfirmationRecord struct {
	AccountID   string
	Email       string
	CreatedAt   int64
	ExpiresAt   int64
	ConfirmedAt int64
}

type ConfirmationStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewConfirmationStore(redisClient redis.UniversalClient, prefix string) *ConfirmationStore {
	if prefix == "" {
		prefix = "cnf"
	}
	return &ConfirmationStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *ConfirmationStore) key(tokenHash string) string {
	return s.prefix + ":" + tokenHash
}

// Save stores the record under the token hash. The ttl should cover the
// record's useful lifetime plus a retention grace so an expired record can
// still be reported as expired rather than unknown.
func (s *ConfirmationStore) Save(
	ctx context.Context,
	tokenHash string,
	record *ConfirmationRecord,
	ttl time.Duration,
) error {
	encoded, err := encodeConfirmationRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(tokenHash), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfirmationRedisUnavailable, err)
	}

	return nil
}

// Consume transitions an issued record to confirmed exactly once. Replayed or
// expired records are deleted and reported with the matching sentinel.
func (s *ConfirmationStore) Consume(ctx context.Context, tokenHash string) (*ConfirmationRecord, error) {
	key := s.key(tokenHash)
	nowUnix := time.Now().Unix()

	result, err := consumeConfirmationLua.Run(ctx, s.redis,
		[]string{key},
		nowUnix,
	).Result()

	if err != nil {
		msg := err.Error()
		switch msg {
		case "not_found":
			return nil, ErrConfirmationNotFound
		case "consumed":
			return nil, ErrConfirmationConsumed
		case "expired":
			return nil, ErrConfirmationExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrConfirmationRedisUnavailable, err)
		}
	}

	data, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected lua result type", ErrConfirmationRedisUnavailable)
	}

	record, decErr := decodeConfirmationRecord([]byte(data))
	if decErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfirmationRedisUnavailable, decErr)
	}

	record.ConfirmedAt = nowUnix
	return record, nil
}

// Lookup reads a record without changing its state.
func (s *ConfirmationStore) Lookup(ctx context.Context, tokenHash string) (*ConfirmationRecord, error) {
	data, err := s.redis.Get(ctx, s.key(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrConfirmationNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrConfirmationRedisUnavailable, err)
	}

	record, decErr := decodeConfirmationRecord(data)
	if decErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfirmationRedisUnavailable, decErr)
	}

	return record, nil
}

func (s *ConfirmationStore) Delete(ctx context.Context, tokenHash string) error {
	if err := s.redis.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfirmationRedisUnavailable, err)
	}
	return nil
}

func encodeConfirmationRecord(record *ConfirmationRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(confirmationRecordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, record.ConfirmedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.AccountID) > 65535 {
		return nil, errors.New("confirmation record account id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.AccountID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.AccountID)

	if len(record.Email) > 65535 {
		return nil, errors.New("confirmation record email too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Email))); err != nil {
		return nil, err
	}
	buf.WriteString(record.Email)

	return buf.Bytes(), nil
}

func decodeConfirmationRecord(data []byte) (*ConfirmationRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != confirmationRecordVersionV1 {
		return nil, errors.New("invalid confirmation record version")
	}

	record := &ConfirmationRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.ConfirmedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var accountIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &accountIDLen); err != nil {
		return nil, err
	}
	accountID := make([]byte, accountIDLen)
	if _, err := io.ReadFull(reader, accountID); err != nil {
		return nil, err
	}
	record.AccountID = string(accountID)

	var emailLen uint16
	if err := binary.Read(reader, binary.BigEndian, &emailLen); err != nil {
		return nil, err
	}
	email := make([]byte, emailLen)
	if _, err := io.ReadFull(reader, email); err != nil {
		return nil, err
	}
	record.Email = string(email)

	return record, nil
}
