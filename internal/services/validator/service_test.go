package validator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/glow/internal/dependencies/mocks"
	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/services/auth"
	"github.com/mcoot/glow/internal/storage/memory"
	"github.com/mcoot/glow/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage  *memory.Storage
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	notifier *mocks.MockNotifier
	auth     *auth.Service
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.notifier = mocks.NewMockNotifier()
	s.auth = auth.New(s.storage, s.clock, auth.Config{BcryptCost: bcrypt.MinCost})
	s.service = New(s.storage, s.auth, s.notifier, s.random, s.clock, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) saveArchita() {
	outcome, err := s.service.SaveAccount(s.ctx, "archita", "archu123", "mypassword1", "apn32@cornell.edu")
	s.Require().NoError(err)
	s.Require().Equal(Saved, outcome)
}

// Username tests

func (s *ServiceSuite) TestUsernameAvailable() {
	outcome, err := s.service.UsernameAvailable(s.ctx, "archu123")

	s.Require().NoError(err)
	s.Equal(Available, outcome)
}

func (s *ServiceSuite) TestUsernameTaken() {
	s.saveArchita()

	outcome, err := s.service.UsernameAvailable(s.ctx, "archu123")

	s.Require().NoError(err)
	s.Equal(Taken, outcome)
}

func (s *ServiceSuite) TestEmailAvailability() {
	outcome, err := s.service.EmailAvailable(s.ctx, "apn32@cornell.edu")
	s.Require().NoError(err)
	s.Equal(Available, outcome)

	s.saveArchita()

	outcome, err = s.service.EmailAvailable(s.ctx, "apn32@cornell.edu")
	s.Require().NoError(err)
	s.Equal(Taken, outcome)
}

// Format and strength tests

func (s *ServiceSuite) TestEmailFormat() {
	s.Equal(Valid, s.service.EmailFormatValid("apn32@cornell.edu"))
	s.Equal(Valid, s.service.EmailFormatValid("a.b+c@mail.co.uk"))
	s.Equal(Invalid, s.service.EmailFormatValid("apn32@cornell"))
	s.Equal(Invalid, s.service.EmailFormatValid("apn32@cornell.e"))
	s.Equal(Invalid, s.service.EmailFormatValid("apn32@cornell.edu thanks"))
	s.Equal(Invalid, s.service.EmailFormatValid("@cornell.edu"))
	s.Equal(Invalid, s.service.EmailFormatValid("apn32@cornell.3d"))
}

func (s *ServiceSuite) TestPasswordStrength() {
	s.Equal(OK, s.service.PasswordStrength("mypassword1"))
	s.Equal(OK, s.service.PasswordStrength("abcdef"))
	s.Equal(Weak, s.service.PasswordStrength("abcde"))
	s.Equal(Weak, s.service.PasswordStrength(""))
	// runes, not bytes
	s.Equal(Weak, s.service.PasswordStrength("ééééé"))
}

// Code tests

func (s *ServiceSuite) TestIssueCodeDispatchesPaddedCode() {
	s.random.QueueIntn(4211)

	outcome, err := s.service.IssueVerificationCode(s.ctx, "apn32@cornell.edu")

	s.Require().NoError(err)
	s.Equal(Dispatched, outcome)

	sent := s.notifier.Sent()
	s.Require().Len(sent, 1)
	s.Equal("apn32@cornell.edu", sent[0].To)
	s.Contains(sent[0].Body, "004211")

	codes := s.storage.CodesFor("apn32@cornell.edu")
	s.Require().Len(codes, 1)
	s.Equal("004211", codes[0].Code)
	s.Equal(s.clock.Now().Add(15*time.Minute), codes[0].ExpiresAt)
}

func (s *ServiceSuite) TestIssueCodeDeliveryFailureRemovesCode() {
	s.random.QueueIntn(123456)
	s.notifier.SetErr(errors.New("smtp down"))

	outcome, err := s.service.IssueVerificationCode(s.ctx, "apn32@cornell.edu")

	s.Equal(Failed, outcome)
	s.ErrorIs(err, model.ErrDeliveryFailed)
	s.Empty(s.storage.CodesFor("apn32@cornell.edu"))

	verdict, err := s.service.VerifyCode(s.ctx, "apn32@cornell.edu", "123456")
	s.Require().NoError(err)
	s.Equal(Incorrect, verdict)
}

func (s *ServiceSuite) TestReissueInvalidatesEarlierCode() {
	s.random.QueueIntn(111111, 222222)
	_, err := s.service.IssueVerificationCode(s.ctx, "apn32@cornell.edu")
	s.Require().NoError(err)
	_, err = s.service.IssueVerificationCode(s.ctx, "apn32@cornell.edu")
	s.Require().NoError(err)

	outcome, err := s.service.VerifyCode(s.ctx, "apn32@cornell.edu", "111111")
	s.Require().NoError(err)
	s.Equal(Incorrect, outcome)

	outcome, err = s.service.VerifyCode(s.ctx, "apn32@cornell.edu", "222222")
	s.Require().NoError(err)
	s.Equal(Correct, outcome)
}

func (s *ServiceSuite) TestFailedReissueKeepsEarlierCode() {
	s.random.QueueIntn(111111, 222222)
	_, err := s.service.IssueVerificationCode(s.ctx, "apn32@cornell.edu")
	s.Require().NoError(err)

	s.notifier.SetErr(errors.New("smtp down"))
	outcome, err := s.service.IssueVerificationCode(s.ctx, "apn32@cornell.edu")
	s.Equal(Failed, outcome)
	s.ErrorIs(err, model.ErrDeliveryFailed)

	codes := s.storage.CodesFor("apn32@cornell.edu")
	s.Require().Len(codes, 1)
	s.Equal("111111", codes[0].Code)

	verdict, err := s.service.VerifyCode(s.ctx, "apn32@cornell.edu", "111111")
	s.Require().NoError(err)
	s.Equal(Correct, verdict)
}

func (s *ServiceSuite) TestCorrectCodeIsSingleUse() {
	s.random.QueueIntn(123456)
	_, err := s.service.IssueVerificationCode(s.ctx, "apn32@cornell.edu")
	s.Require().NoError(err)

	first, err := s.service.VerifyCode(s.ctx, "apn32@cornell.edu", "123456")
	s.Require().NoError(err)
	second, err := s.service.VerifyCode(s.ctx, "apn32@cornell.edu", "123456")
	s.Require().NoError(err)

	s.Equal(Correct, first)
	s.Equal(Incorrect, second)
}

func (s *ServiceSuite) TestExpiredCodeIsIncorrect() {
	s.random.QueueIntn(123456)
	_, err := s.service.IssueVerificationCode(s.ctx, "apn32@cornell.edu")
	s.Require().NoError(err)

	s.clock.Advance(16 * time.Minute)

	outcome, err := s.service.VerifyCode(s.ctx, "apn32@cornell.edu", "123456")
	s.Require().NoError(err)
	s.Equal(Incorrect, outcome)
}

// SaveAccount tests

func (s *ServiceSuite) TestSaveAccountHashesPassword() {
	s.saveArchita()

	account, err := s.storage.GetAccountByUsername(s.ctx, "archu123")
	s.Require().NoError(err)
	s.True(account.Verified)
	s.NotEqual("mypassword1", account.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("mypassword1")))
}

func (s *ServiceSuite) TestSaveAccountTwiceFails() {
	s.saveArchita()

	_, err := s.service.SaveAccount(s.ctx, "archita", "archu123", "mypassword1", "apn32@cornell.edu")

	s.ErrorIs(err, model.ErrUsernameTaken)
}
