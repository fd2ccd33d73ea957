package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

// createAccountScript claims both index keys and writes the account in one
// step. Returns 1 when the username is taken, 2 when the email is taken.
var createAccountScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 1
end
if redis.call("EXISTS", KEYS[3]) == 1 then
	return 2
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("SET", KEYS[2], ARGV[2])
redis.call("SET", KEYS[3], ARGV[2])
return 0
`)

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	keys := []string{
		accountKey(account.ID),
		usernameIndexKey(account.Username),
		emailIndexKey(account.Email),
	}
	result, err := createAccountScript.Run(ctx, s.client, keys, data, string(account.ID)).Int()
	if err != nil {
		return err
	}

	switch result {
	case 1:
		return model.ErrUsernameTaken
	case 2:
		return model.ErrEmailTaken
	}
	return nil
}

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	return s.getAccountByIndex(ctx, usernameIndexKey(username))
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.getAccountByIndex(ctx, emailIndexKey(email))
}

func (s *Storage) getAccountByIndex(ctx context.Context, indexKey string) (*model.Account, error) {
	// Look up account ID from the index
	id, err := s.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	data, err := s.client.Get(ctx, accountKey(model.AccountID(id))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Verification code operations
//
// Each email has one HASH mapping every outstanding code to
// "<used>:<expires_at unix millis>".

func codeValue(used bool, expiresAt time.Time) string {
	flag := "0"
	if used {
		flag = "1"
	}
	return flag + ":" + strconv.FormatInt(expiresAt.UnixMilli(), 10)
}

func (s *Storage) SaveCode(ctx context.Context, code *model.OneTimeCode) error {
	key := codeKey(code.Email)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, code.Code, codeValue(code.Used, code.ExpiresAt))
		// a zero TTL would delete the key outright
		if s.cfg.CodeTTL > 0 {
			pipe.Expire(ctx, key, s.cfg.CodeTTL)
		}
		return nil
	})
	return err
}

var retireCodesScript = redis.NewScript(`
local entries = redis.call("HGETALL", KEYS[1])
for i = 1, #entries, 2 do
	if entries[i] ~= ARGV[1] and string.sub(entries[i + 1], 1, 2) == "0:" then
		redis.call("HDEL", KEYS[1], entries[i])
	end
end
return 0
`)

func (s *Storage) RetireCodes(ctx context.Context, email, keep string) error {
	return retireCodesScript.Run(ctx, s.client, []string{codeKey(email)}, keep).Err()
}

var deleteCodeScript = redis.NewScript(`
local value = redis.call("HGET", KEYS[1], ARGV[1])
if value and string.sub(value, 1, 2) == "0:" then
	redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0
`)

func (s *Storage) DeleteCode(ctx context.Context, email, code string) error {
	return deleteCodeScript.Run(ctx, s.client, []string{codeKey(email)}, code).Err()
}

// consumeCodeScript returns 1 when the code was consumed and 0 otherwise
var consumeCodeScript = redis.NewScript(`
local value = redis.call("HGET", KEYS[1], ARGV[1])
if not value or string.sub(value, 1, 2) ~= "0:" then
	return 0
end
local expires = string.sub(value, 3)
if tonumber(expires) <= tonumber(ARGV[2]) then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], "1:" .. expires)
return 1
`)

func (s *Storage) ConsumeCode(ctx context.Context, email, code string, now time.Time) error {
	consumed, err := consumeCodeScript.Run(ctx, s.client,
		[]string{codeKey(email)}, code, strconv.FormatInt(now.UnixMilli(), 10)).Int()
	if err != nil {
		return err
	}
	if consumed == 0 {
		return model.ErrCodeInvalid
	}
	return nil
}

// Vent operations

func (s *Storage) SaveVent(ctx context.Context, vent *model.Vent) error {
	data, err := json.Marshal(vent)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, ventKey(vent.ID), data, 0).Err()
}

func (s *Storage) GetVent(ctx context.Context, id model.VentID) (*model.Vent, error) {
	data, err := s.client.Get(ctx, ventKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrVentNotFound
		}
		return nil, err
	}

	var vent model.Vent
	if err := json.Unmarshal(data, &vent); err != nil {
		return nil, err
	}
	return &vent, nil
}
