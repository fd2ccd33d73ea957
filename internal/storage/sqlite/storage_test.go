package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/glow/internal/storage"
	"github.com/mcoot/glow/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage {
		cfg := DefaultConfig()
		cfg.Path = filepath.Join(s.T().TempDir(), "glow.db")
		store, err := New(cfg)
		require.NoError(s.T(), err)
		return store
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TestAccountSurvivesReopen() {
	path := filepath.Join(s.T().TempDir(), "reopen.db")
	cfg := DefaultConfig()
	cfg.Path = path

	first, err := New(cfg)
	s.Require().NoError(err)
	s.Require().NoError(first.CreateAccount(s.Ctx, s.NewAccount("acc-1", "archu123", "a@example.com")))
	s.Require().NoError(first.Close())

	second, err := New(cfg)
	s.Require().NoError(err)
	defer func() { _ = second.Close() }()

	acc, err := second.GetAccountByEmail(s.Ctx, "a@example.com")
	s.Require().NoError(err)
	s.Equal("archu123", acc.Username)
	s.True(s.Now.Equal(acc.CreatedAt))
}

func (s *StorageSuite) TestUsedCodeIsKeptOnReissue() {
	store := s.Storage.(*Storage)
	s.Require().NoError(store.SaveCode(s.Ctx, s.NewCode("a@example.com", "111111")))
	s.Require().NoError(store.ConsumeCode(s.Ctx, "a@example.com", "111111", s.Now))
	s.Require().NoError(store.SaveCode(s.Ctx, s.NewCode("a@example.com", "222222")))

	var used, unused int
	err := store.db.QueryRow(
		`SELECT SUM(used), SUM(1 - used) FROM verification_codes WHERE email = ?`, "a@example.com",
	).Scan(&used, &unused)
	s.Require().NoError(err)
	s.Equal(1, used)
	s.Equal(1, unused)
}
