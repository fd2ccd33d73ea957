// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/storage"
)

// Suite runs the common storage contract against a backend.
// Embed it and set NewStorage before calling suite.Run.
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	Now     time.Time
}

func (s *Suite) SetupTest() {
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
	s.Now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

// NewAccount builds a verified account fixture
func (s *Suite) NewAccount(id, username, email string) *model.Account {
	return &model.Account{
		ID:           model.AccountID(id),
		Name:         "Archita",
		Username:     username,
		PasswordHash: "$2a$10$hash",
		Email:        email,
		Verified:     true,
		CreatedAt:    s.Now,
	}
}

// NewCode builds a code fixture expiring 15 minutes after Now
func (s *Suite) NewCode(email, code string) *model.OneTimeCode {
	return &model.OneTimeCode{
		Email:     email,
		Code:      code,
		CreatedAt: s.Now,
		ExpiresAt: s.Now.Add(15 * time.Minute),
	}
}

// Account tests

func (s *Suite) TestCreateAndGetAccount() {
	err := s.Storage.CreateAccount(s.Ctx, s.NewAccount("acc-1", "archu123", "apn32@cornell.edu"))
	s.Require().NoError(err)

	byUsername, err := s.Storage.GetAccountByUsername(s.Ctx, "archu123")
	s.Require().NoError(err)
	s.Equal(model.AccountID("acc-1"), byUsername.ID)
	s.Equal("Archita", byUsername.Name)
	s.Equal("$2a$10$hash", byUsername.PasswordHash)
	s.True(byUsername.Verified)

	byEmail, err := s.Storage.GetAccountByEmail(s.Ctx, "apn32@cornell.edu")
	s.Require().NoError(err)
	s.Equal("archu123", byEmail.Username)
}

func (s *Suite) TestGetAccountNotFound() {
	_, err := s.Storage.GetAccountByUsername(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrAccountNotFound)

	_, err = s.Storage.GetAccountByEmail(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *Suite) TestCreateAccountRejectsDuplicateUsername() {
	s.Require().NoError(s.Storage.CreateAccount(s.Ctx, s.NewAccount("acc-1", "archu123", "a@example.com")))

	err := s.Storage.CreateAccount(s.Ctx, s.NewAccount("acc-2", "archu123", "b@example.com"))
	s.ErrorIs(err, model.ErrUsernameTaken)

	_, err = s.Storage.GetAccountByEmail(s.Ctx, "b@example.com")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *Suite) TestCreateAccountRejectsDuplicateEmail() {
	s.Require().NoError(s.Storage.CreateAccount(s.Ctx, s.NewAccount("acc-1", "archu123", "a@example.com")))

	err := s.Storage.CreateAccount(s.Ctx, s.NewAccount("acc-2", "other", "a@example.com"))
	s.ErrorIs(err, model.ErrEmailTaken)

	_, err = s.Storage.GetAccountByUsername(s.Ctx, "other")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *Suite) TestConcurrentCreateAccountOnlyOneWins() {
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := model.AccountID(string(rune('a' + i)))
			acc := s.NewAccount(string(id), "archu123", string(id)+"@example.com")
			errs <- s.Storage.CreateAccount(s.Ctx, acc)
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrUsernameTaken)
	}
	s.Equal(1, succeeded)
}

// Verification code tests

func (s *Suite) TestConsumeCodeSucceedsOnce() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "123456")))

	s.Require().NoError(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "123456", s.Now))
	s.ErrorIs(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "123456", s.Now), model.ErrCodeInvalid)
}

func (s *Suite) TestConsumeCodeWrongCode() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "123456")))

	s.ErrorIs(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "654321", s.Now), model.ErrCodeInvalid)
	// the real code is still usable
	s.NoError(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "123456", s.Now))
}

func (s *Suite) TestConsumeCodeWrongEmail() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "123456")))

	s.ErrorIs(s.Storage.ConsumeCode(s.Ctx, "b@example.com", "123456", s.Now), model.ErrCodeInvalid)
}

func (s *Suite) TestSaveCodeKeepsEarlierCodes() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "111111")))
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "222222")))

	s.NoError(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "111111", s.Now))
	s.NoError(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "222222", s.Now))
}

func (s *Suite) TestRetireCodesInvalidatesOthers() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "111111")))
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "222222")))
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("b@example.com", "333333")))

	s.Require().NoError(s.Storage.RetireCodes(s.Ctx, "a@example.com", "222222"))

	s.ErrorIs(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "111111", s.Now), model.ErrCodeInvalid)
	s.NoError(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "222222", s.Now))
	s.NoError(s.Storage.ConsumeCode(s.Ctx, "b@example.com", "333333", s.Now))
}

func (s *Suite) TestRetireCodesLeavesUsedCodes() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "111111")))
	s.Require().NoError(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "111111", s.Now))
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "222222")))

	s.Require().NoError(s.Storage.RetireCodes(s.Ctx, "a@example.com", "222222"))

	s.NoError(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "222222", s.Now))
}

func (s *Suite) TestRetireCodesMissingIsNoop() {
	s.NoError(s.Storage.RetireCodes(s.Ctx, "a@example.com", "123456"))
}

func (s *Suite) TestDeleteCodeLeavesEarlierCode() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "111111")))
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "222222")))

	s.Require().NoError(s.Storage.DeleteCode(s.Ctx, "a@example.com", "222222"))

	s.ErrorIs(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "222222", s.Now), model.ErrCodeInvalid)
	s.NoError(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "111111", s.Now))
}

func (s *Suite) TestSaveCodeDoesNotTouchOtherEmails() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "111111")))
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("b@example.com", "222222")))

	s.NoError(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "111111", s.Now))
	s.NoError(s.Storage.ConsumeCode(s.Ctx, "b@example.com", "222222", s.Now))
}

func (s *Suite) TestConsumeExpiredCodeFails() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "123456")))

	later := s.Now.Add(16 * time.Minute)
	s.ErrorIs(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "123456", later), model.ErrCodeInvalid)
}

func (s *Suite) TestDeleteCode() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "123456")))
	s.Require().NoError(s.Storage.DeleteCode(s.Ctx, "a@example.com", "123456"))

	s.ErrorIs(s.Storage.ConsumeCode(s.Ctx, "a@example.com", "123456", s.Now), model.ErrCodeInvalid)
}

func (s *Suite) TestDeleteCodeMissingIsNoop() {
	s.NoError(s.Storage.DeleteCode(s.Ctx, "a@example.com", "123456"))
}

func (s *Suite) TestConcurrentConsumeOnlyOneSucceeds() {
	s.Require().NoError(s.Storage.SaveCode(s.Ctx, s.NewCode("a@example.com", "123456")))

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.Storage.ConsumeCode(s.Ctx, "a@example.com", "123456", s.Now)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrCodeInvalid)
	}
	s.Equal(1, succeeded)
}

// Vent tests

func (s *Suite) TestSaveAndGetVent() {
	vent := &model.Vent{
		ID:        "vent-1",
		Text:      "long day, nobody listens",
		Embedding: []float32{0.25, -1, 0},
		CreatedAt: s.Now,
	}
	s.Require().NoError(s.Storage.SaveVent(s.Ctx, vent))

	got, err := s.Storage.GetVent(s.Ctx, "vent-1")
	s.Require().NoError(err)
	s.Equal(vent.Text, got.Text)
	s.Equal(vent.Embedding, got.Embedding)
	s.True(vent.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetVentNotFound() {
	_, err := s.Storage.GetVent(s.Ctx, "missing")

	s.ErrorIs(err, model.ErrVentNotFound)
}

func (s *Suite) TestSavedVentIsCopied() {
	vent := &model.Vent{ID: "vent-1", Text: "vent", Embedding: []float32{1, 2}, CreatedAt: s.Now}
	s.Require().NoError(s.Storage.SaveVent(s.Ctx, vent))
	vent.Embedding[0] = 9

	got, err := s.Storage.GetVent(s.Ctx, "vent-1")
	s.Require().NoError(err)
	s.Equal([]float32{1, 2}, got.Embedding)
}
