package redis

import (
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/glow/internal/storage"
	"github.com/mcoot/glow/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini *miniredis.Miniredis
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage {
		s.mini = miniredis.RunT(s.T())

		client := redis.NewClient(&redis.Options{
			Addr: s.mini.Addr(),
		})

		cfg := DefaultConfig()
		cfg.CodeTTL = time.Hour
		return NewWithClient(client, cfg)
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TestAccountKeysLayout() {
	s.Require().NoError(s.Storage.CreateAccount(s.Ctx, s.NewAccount("acc-1", "archu123", "apn32@cornell.edu")))

	s.True(s.mini.Exists("glow:account:acc-1"))

	id, err := s.mini.Get("glow:idx:username:archu123")
	s.Require().NoError(err)
	s.Equal("acc-1", id)

	id, err = s.mini.Get("glow:idx:email:apn32@cornell.edu")
	s.Require().NoError(err)
	s.Equal("acc-1", id)
}

func (s *StorageSuite) TestCodeKeyHasTTL() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "123456")))

	s.Equal(time.Hour, s.mini.TTL("glow:code:a@example.com"))
	s.True(strings.HasPrefix(s.mini.HGet("glow:code:a@example.com", "123456"), "0:"))
}

func (s *StorageSuite) TestZeroCodeTTLKeepsKey() {
	store := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), Config{})
	defer func() { _ = store.Close() }()

	s.Require().NoError(store.SaveCode(s.Ctx, s.NewCode("a@example.com", "123456")))

	s.True(s.mini.Exists("glow:code:a@example.com"))
	s.Equal(time.Duration(0), s.mini.TTL("glow:code:a@example.com"))
	s.NoError(store.ConsumeCode(s.Ctx, "a@example.com", "123456", s.Now))
}

func (s *StorageSuite) TestCodeGoneAfterTTL() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "123456")))

	s.mini.FastForward(2 * time.Hour)

	s.False(s.mini.Exists("glow:code:a@example.com"))
}

func (s *StorageSuite) TestConsumeMarksCodeUsed() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "123456")))
	s.Require().NoError(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "123456", s.Now))

	s.True(strings.HasPrefix(s.mini.HGet("glow:code:a@example.com", "123456"), "1:"))
}
