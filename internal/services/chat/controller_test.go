package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/glow/internal/dependencies/mocks"
	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/oracle"
	"github.com/mcoot/glow/internal/services/auth"
	"github.com/mcoot/glow/internal/services/validator"
	"github.com/mcoot/glow/internal/signup"
	"github.com/mcoot/glow/internal/storage/memory"
	"github.com/mcoot/glow/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	notifier   *mocks.MockNotifier
	oracle     *mocks.ScriptedOracle
	validators *validator.Service
	manager    *Manager
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.notifier = mocks.NewMockNotifier()
	s.oracle = mocks.NewScriptedOracle()

	accounts := auth.New(s.storage, s.clock, auth.Config{BcryptCost: bcrypt.MinCost})
	s.validators = validator.New(s.storage, accounts, s.notifier, s.random, s.clock, validator.DefaultConfig(), testutil.NopLogger())
	s.manager = NewManager(s.clock, DefaultConfig(), testutil.NopLogger())
	s.controller = NewController(s.manager, s.validators, s.oracle, s.clock, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

// say sends one message and requires it to succeed
func (s *ControllerSuite) say(sessionID, message string) *TurnResult {
	result, err := s.controller.HandleTurn(s.ctx, sessionID, message)
	s.Require().NoError(err)
	return result
}

func (s *ControllerSuite) session(sessionID string) signup.Session {
	view, err := s.controller.Session(sessionID)
	s.Require().NoError(err)
	return view.Session
}

// walkTo drives a new conversation to step using the guide replies
func (s *ControllerSuite) walkTo(step signup.Step) string {
	messages := []string{"hi", "archita", "archu123", "mypassword1", "apn32@cornell.edu", "123456"}
	if step > signup.StepEmail {
		s.random.QueueIntn(123456)
	}

	result := s.say("", messages[0])
	id := result.SessionID
	for i := 1; result.Step < step; i++ {
		result = s.say(id, messages[i])
	}
	s.Require().Equal(step, result.Step)
	return id
}

func (s *ControllerSuite) createAccount(username, email string) {
	_, err := s.validators.SaveAccount(s.ctx, "someone", username, "password1", email)
	s.Require().NoError(err)
}

// End to end

func (s *ControllerSuite) TestFullSignup() {
	s.random.QueueIntn(123456)

	result := s.say("", "hi")
	id := result.SessionID
	s.NotEmpty(id)
	s.Equal(signup.StepName, result.Step)
	s.Contains(result.Reply, "name")

	result = s.say(id, "archita")
	s.Equal(signup.StepUsername, result.Step)
	s.Equal("archita", s.session(id).Name)

	result = s.say(id, "archu123")
	s.Equal(signup.StepPassword, result.Step)

	result = s.say(id, "mypassword1")
	s.Equal(signup.StepEmail, result.Step)

	result = s.say(id, "my email is apn32@cornell.edu thanks")
	s.Equal(signup.StepVerification, result.Step)
	s.True(s.session(id).VerificationCodeSent)
	s.Equal("apn32@cornell.edu", s.session(id).Email)

	sent := s.notifier.Sent()
	s.Require().Len(sent, 1)
	s.Equal("apn32@cornell.edu", sent[0].To)
	s.Contains(sent[0].Body, "123456")

	result = s.say(id, "123456")
	s.Equal(signup.StepComplete, result.Step)
	s.True(result.Complete)
	s.Contains(result.Reply, "launching the app")

	final := s.session(id)
	s.True(final.Verified)
	s.True(final.AccountSaved)
	s.Empty(final.Password)

	account, err := s.storage.GetAccountByUsername(s.ctx, "archu123")
	s.Require().NoError(err)
	s.Equal("archita", account.Name)
	s.Equal("apn32@cornell.edu", account.Email)
	s.True(account.Verified)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("mypassword1")))
}

func (s *ControllerSuite) TestNameInFirstMessage() {
	result := s.say("", "archita")

	s.Equal(signup.StepUsername, result.Step)
	s.Equal("archita", s.session(result.SessionID).Name)
}

func (s *ControllerSuite) TestGreetingOnlyOpens() {
	result := s.say("", "hello!")

	s.Equal(signup.StepName, result.Step)
	s.Empty(s.session(result.SessionID).Name)
}

func (s *ControllerSuite) TestEmptyMessage() {
	_, err := s.controller.HandleTurn(s.ctx, "", "   ")

	s.ErrorIs(err, model.ErrEmptyMessage)
	s.Equal(0, s.manager.Len())
}

// Validation failures

func (s *ControllerSuite) TestShortPasswordStaysAndCounts() {
	id := s.walkTo(signup.StepPassword)

	result := s.say(id, "abcde")

	s.Equal(signup.StepPassword, result.Step)
	session := s.session(id)
	s.Equal(1, session.Attempts.Password)
	s.Empty(session.Password)
	s.Contains(result.Reply, "6 characters")
}

func (s *ControllerSuite) TestTakenUsernameStaysAndCounts() {
	s.createAccount("archu123", "other@example.com")
	id := s.walkTo(signup.StepUsername)

	result := s.say(id, "archu123")

	s.Equal(signup.StepUsername, result.Step)
	s.Equal(1, s.session(id).Attempts.Username)
	s.Contains(result.Reply, "already taken")

	result = s.say(id, "archu456")
	s.Equal(signup.StepPassword, result.Step)
	s.Equal("archu456", s.session(id).Username)
}

func (s *ControllerSuite) TestRegisteredEmailIsRejected() {
	s.createAccount("someone", "apn32@cornell.edu")
	id := s.walkTo(signup.StepEmail)

	result := s.say(id, "apn32@cornell.edu")

	s.Equal(signup.StepEmail, result.Step)
	s.Equal(1, s.session(id).Attempts.Email)
	s.Empty(s.notifier.Sent())
}

func (s *ControllerSuite) TestExtractionMissChangesNothing() {
	id := s.walkTo(signup.StepUsername)

	result := s.say(id, "what kind of usernames are allowed?")

	s.Equal(signup.StepUsername, result.Step)
	s.Equal(signup.Attempts{}, s.session(id).Attempts)
	s.Contains(result.Reply, "didn't look like a username")
}

func (s *ControllerSuite) TestWrongCodeThenRightCode() {
	id := s.walkTo(signup.StepVerification)

	result := s.say(id, "654321")
	s.Equal(signup.StepVerification, result.Step)
	s.Equal(1, s.session(id).Attempts.Verification)
	s.False(result.Complete)

	result = s.say(id, "123456")
	s.Equal(signup.StepComplete, result.Step)
	s.True(result.Complete)
}

func (s *ControllerSuite) TestResendInvalidatesEarlierCode() {
	id := s.walkTo(signup.StepVerification)
	s.random.QueueIntn(222222)

	result := s.say(id, "i didn't get it, can you resend?")
	s.Equal(signup.StepVerification, result.Step)
	s.Len(s.notifier.Sent(), 2)

	result = s.say(id, "123456")
	s.Equal(signup.StepVerification, result.Step)

	result = s.say(id, "222222")
	s.Equal(signup.StepComplete, result.Step)
}

func (s *ControllerSuite) TestCodeIsSingleUseAcrossSessions() {
	id := s.walkTo(signup.StepComplete)
	s.True(s.session(id).Verified)

	outcome, err := s.validators.VerifyCode(s.ctx, "apn32@cornell.edu", "123456")
	s.Require().NoError(err)
	s.Equal(validator.Incorrect, outcome)
}

// Oracle tool calls

func (s *ControllerSuite) TestOracleRecheckDoesNotDoubleCount() {
	s.createAccount("archu123", "other@example.com")
	id := s.walkTo(signup.StepUsername)
	s.oracle.Queue(mocks.OracleTurn{Calls: []oracle.ToolCall{
		mocks.Call(ToolCheckUsername, "username", "archu123"),
		mocks.Call(ToolCheckUsername, "username", "archu123"),
	}})

	s.say(id, "archu123")

	s.Equal(1, s.session(id).Attempts.Username)
	s.Equal([]string{"taken", "taken"}, s.oracle.Outcomes[len(s.oracle.Outcomes)-1])
}

func (s *ControllerSuite) TestOracleProposalCommitsWhenExtractionMisses() {
	id := s.walkTo(signup.StepUsername)
	s.oracle.Queue(mocks.OracleTurn{
		Calls: []oracle.ToolCall{mocks.Call(ToolCheckUsername, "username", "archu123")},
		Text:  "archu123 is all yours! now pick a password",
	})

	result := s.say(id, "ok so i'd like archu123 please")

	s.Equal(signup.StepPassword, result.Step)
	s.Equal("archu123", s.session(id).Username)
	s.Equal("archu123 is all yours! now pick a password", result.Reply)
}

func (s *ControllerSuite) TestOracleCannotCommitOtherSteps() {
	id := s.walkTo(signup.StepUsername)
	s.oracle.Queue(mocks.OracleTurn{Calls: []oracle.ToolCall{
		mocks.Call(ToolSendCode, "email", "apn32@cornell.edu"),
		mocks.Call(ToolVerifyCode, "email", "apn32@cornell.edu", "entered_code", "123456"),
		mocks.Call(ToolSaveUser),
		mocks.Call(ToolCheckPassword, "password", "mypassword1"),
		mocks.Call("drop_tables"),
	}})

	result := s.say(id, "hmm let me think")

	s.Equal(signup.StepUsername, result.Step)
	s.Equal([]string{"failed", "incorrect", "failed", "ok", "unknown_tool"}, s.oracle.Outcomes[len(s.oracle.Outcomes)-1])
	s.Empty(s.notifier.Sent())
}

func (s *ControllerSuite) TestOracleResendingAfterDispatchIsIdempotent() {
	id := s.walkTo(signup.StepEmail)
	s.random.QueueIntn(123456)
	s.oracle.Queue(mocks.OracleTurn{Calls: []oracle.ToolCall{
		mocks.Call(ToolValidateEmail, "email", "apn32@cornell.edu"),
		mocks.Call(ToolSendCode, "email", "apn32@cornell.edu"),
	}})

	result := s.say(id, "apn32@cornell.edu")

	s.Equal(signup.StepVerification, result.Step)
	s.Equal([]string{"valid", "dispatched"}, s.oracle.Outcomes[len(s.oracle.Outcomes)-1])
	s.Len(s.notifier.Sent(), 1)
}

func (s *ControllerSuite) TestOracleVerifyReusesTurnResult() {
	id := s.walkTo(signup.StepVerification)
	s.oracle.Queue(mocks.OracleTurn{Calls: []oracle.ToolCall{
		mocks.Call(ToolVerifyCode, "email", "apn32@cornell.edu", "entered_code", "123456"),
		mocks.Call(ToolSaveUser),
	}})

	result := s.say(id, "123456")

	s.True(result.Complete)
	s.Equal([]string{"correct", "saved"}, s.oracle.Outcomes[len(s.oracle.Outcomes)-1])
}

func (s *ControllerSuite) TestPasswordIsRedacted() {
	id := s.walkTo(signup.StepPassword)
	s.oracle.Queue(mocks.OracleTurn{Calls: []oracle.ToolCall{
		mocks.Call(ToolCheckPassword, "password", redactedPassword),
	}})

	s.say(id, "mypassword1")

	req := s.oracle.LastRequest()
	s.Equal(redactedPassword, req.Utterance)
	s.NotContains(req.Instructions, "mypassword1")
	s.Equal([]string{"ok"}, s.oracle.Outcomes[len(s.oracle.Outcomes)-1])

	view, err := s.controller.Session(id)
	s.Require().NoError(err)
	for _, msg := range view.History {
		s.NotContains(msg.Content, "mypassword1")
	}
	s.Equal(signup.StepEmail, view.Session.Step)
}

func (s *ControllerSuite) TestPasswordCommittedByOracleIsRedacted() {
	id := s.walkTo(signup.StepPassword)
	s.oracle.Queue(mocks.OracleTurn{Calls: []oracle.ToolCall{
		mocks.Call(ToolCheckPassword, "password", "hunter22"),
	}})

	result := s.say(id, "my password is hunter22")

	s.Equal(signup.StepEmail, result.Step)
	s.Equal("hunter22", s.session(id).Password)

	view, err := s.controller.Session(id)
	s.Require().NoError(err)
	for _, msg := range view.History {
		s.NotContains(msg.Content, "hunter22")
	}
	s.Contains(view.History[len(view.History)-2].Content, "my password is "+redactedPassword)

	s.say(id, "hmm")
	for _, msg := range s.oracle.LastRequest().History {
		s.NotContains(msg.Content, "hunter22")
	}
}

// Reconciliation

func (s *ControllerSuite) TestReplyClaimingDispatchIsHonoured() {
	id := s.walkTo(signup.StepEmail)
	s.random.QueueIntn(123456)
	s.oracle.Queue(mocks.OracleTurn{
		Calls: []oracle.ToolCall{mocks.Call(ToolValidateEmail, "email", "apn32@cornell.edu")},
		Text:  "yay bestie i sent you a code, check your email!",
	})

	result := s.say(id, "it's the cornell one, apn32 at cornell dot edu")

	s.Equal(signup.StepVerification, result.Step)
	s.True(s.session(id).VerificationCodeSent)
	s.Len(s.notifier.Sent(), 1)
	s.Equal("yay bestie i sent you a code, check your email!", result.Reply)
}

func (s *ControllerSuite) TestFalseDispatchClaimIsReplaced() {
	id := s.walkTo(signup.StepEmail)
	s.oracle.Queue(mocks.OracleTurn{Text: "sent you a code bestie!"})

	result := s.say(id, "umm one sec")

	s.Equal(signup.StepEmail, result.Step)
	s.False(s.session(id).VerificationCodeSent)
	s.NotContains(result.Reply, "sent you a code")
	s.Contains(result.Reply, "email")
	s.Empty(s.notifier.Sent())
}

func (s *ControllerSuite) TestFalseCompletionClaimIsReplaced() {
	id := s.walkTo(signup.StepUsername)
	s.oracle.Queue(mocks.OracleTurn{Text: "all done, launching the app!"})

	result := s.say(id, "lol ok wait")

	s.Equal(signup.StepUsername, result.Step)
	s.NotContains(result.Reply, "launching the app")
	s.False(result.Complete)
}

// Failures

func (s *ControllerSuite) TestOracleFailureRollsBack() {
	id := s.walkTo(signup.StepUsername)
	before, err := s.controller.Session(id)
	s.Require().NoError(err)
	s.oracle.Queue(mocks.OracleTurn{Err: errors.New("model overloaded")})

	result := s.say(id, "archu123")

	s.Equal(Apology, result.Reply)
	s.Equal(signup.StepUsername, result.Step)

	after, err := s.controller.Session(id)
	s.Require().NoError(err)
	s.Equal(before.Session, after.Session)
	s.Equal(before.History, after.History)

	// the user simply retries
	result = s.say(id, "archu123")
	s.Equal(signup.StepPassword, result.Step)
}

func (s *ControllerSuite) TestDeliveryFailureStaysAtEmail() {
	id := s.walkTo(signup.StepEmail)
	s.notifier.SetErr(errors.New("smtp down"))

	result := s.say(id, "apn32@cornell.edu")

	s.Equal(Apology, result.Reply)
	s.Equal(signup.StepEmail, result.Step)
	s.False(s.session(id).VerificationCodeSent)
	s.Empty(s.storage.CodesFor("apn32@cornell.edu"))

	s.notifier.SetErr(nil)
	s.random.QueueIntn(777777)
	result = s.say(id, "apn32@cornell.edu")
	s.Equal(signup.StepVerification, result.Step)
}

func (s *ControllerSuite) TestFailedResendKeepsDeliveredCode() {
	id := s.walkTo(signup.StepVerification)
	s.random.QueueIntn(222222)
	s.notifier.SetErr(errors.New("smtp down"))

	result := s.say(id, "i didn't get it, can you resend?")
	s.Equal(Apology, result.Reply)
	s.Equal(signup.StepVerification, result.Step)

	s.notifier.SetErr(nil)
	result = s.say(id, "123456")

	s.Equal(signup.StepComplete, result.Step)
	s.True(result.Complete)
	s.Equal(0, s.session(id).Attempts.Verification)
}

func (s *ControllerSuite) TestConsumedCodeSurvivesOracleFailure() {
	id := s.walkTo(signup.StepVerification)
	s.oracle.Queue(mocks.OracleTurn{Err: errors.New("timeout")})

	result := s.say(id, "123456")

	s.Equal(Apology, result.Reply)
	s.Equal(signup.StepComplete, result.Step)
	s.True(result.Complete)

	_, err := s.storage.GetAccountByUsername(s.ctx, "archu123")
	s.NoError(err)
}

func (s *ControllerSuite) TestSaveFailureKeepsVerification() {
	id := s.walkTo(signup.StepVerification)
	// someone else registers the email between dispatch and save
	s.createAccount("squatter", "apn32@cornell.edu")

	result := s.say(id, "123456")
	s.Equal(Apology, result.Reply)
	s.Equal(signup.StepComplete, result.Step)
	s.False(result.Complete)
	s.False(s.session(id).AccountSaved)
	s.True(s.session(id).Verified)
}

func (s *ControllerSuite) TestOracleTimeoutApplies() {
	cfg := DefaultConfig()
	cfg.OracleTimeout = 10 * time.Millisecond
	slow := blockingOracle{}
	s.controller = NewController(s.manager, s.validators, slow, s.clock, cfg, testutil.NopLogger())

	result := s.say("", "hi")

	s.Equal(Apology, result.Reply)
	s.Equal(signup.StepIntroduction, result.Step)
}

// Concurrency

func (s *ControllerSuite) TestTurnsForOneSessionAreSerialized() {
	s.createAccount("taken123", "other@example.com")
	id := s.walkTo(signup.StepUsername)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.controller.HandleTurn(s.ctx, id, "taken123")
		}()
	}
	wg.Wait()

	s.Equal(10, s.session(id).Attempts.Username)
}

func (s *ControllerSuite) TestDistinctSessionsRunInParallel() {
	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := s.controller.HandleTurn(s.ctx, "", "archita")
			if err == nil {
				ids[i] = result.SessionID
			}
		}(i)
	}
	wg.Wait()

	s.Equal(8, s.manager.Len())
	for _, id := range ids {
		s.Equal(signup.StepUsername, s.session(id).Step)
	}
}

// blockingOracle waits for its context to end
type blockingOracle struct{}

func (blockingOracle) Respond(ctx context.Context, req oracle.Request) (*oracle.Reply, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
