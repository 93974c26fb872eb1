package service

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shoply-dev/shoply/internal/config"
	"github.com/shoply-dev/shoply/internal/domain"
	internal_errors "github.com/shoply-dev/shoply/internal/errors"
)

// --- Mocks ---

type MockAuthStorage struct {
	SaveUserFunc        func(user domain.User, challenge domain.VerificationChallenge) (domain.UserId, error)
	UserByEmailFunc     func(email domain.Email) (domain.User, error)
	SaveChallengeFunc   func(challenge domain.VerificationChallenge) error
	ChallengeFunc       func(email domain.Email) (domain.VerificationChallenge, error)
	MarkVerifiedFunc    func(email domain.Email) error
	DeleteChallengeFunc func(email domain.Email) error
}

func (m *MockAuthStorage) SaveUser(user domain.User, challenge domain.VerificationChallenge) (domain.UserId, error) {
	if m.SaveUserFunc != nil {
		return m.SaveUserFunc(user, challenge)
	}
	return 1, nil
}

func (m *MockAuthStorage) UserByEmail(email domain.Email) (domain.User, error) {
	if m.UserByEmailFunc != nil {
		return m.UserByEmailFunc(email)
	}
	// Default: verified user with password "password"
	passHash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	return domain.User{Id: 1, Email: email, Username: "tester", PassHash: string(passHash), Verified: true}, nil
}

func (m *MockAuthStorage) SaveChallenge(challenge domain.VerificationChallenge) error {
	if m.SaveChallengeFunc != nil {
		return m.SaveChallengeFunc(challenge)
	}
	return nil
}

func (m *MockAuthStorage) Challenge(email domain.Email) (domain.VerificationChallenge, error) {
	if m.ChallengeFunc != nil {
		return m.ChallengeFunc(email)
	}
	return domain.VerificationChallenge{}, internal_errors.NotFound("Verification challenge")
}

func (m *MockAuthStorage) MarkVerified(email domain.Email) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(email)
	}
	return nil
}

func (m *MockAuthStorage) DeleteChallenge(email domain.Email) error {
	if m.DeleteChallengeFunc != nil {
		return m.DeleteChallengeFunc(email)
	}
	return nil
}

type MockEmail struct {
	SendFunc      func(recipientEmail, subject, body string) error
	IsCorrectFunc func(email domain.Email) error
}

func (m *MockEmail) Send(recipientEmail, subject, body string) error {
	if m.SendFunc != nil {
		return m.SendFunc(recipientEmail, subject, body)
	}
	return nil
}

func (m *MockEmail) IsCorrect(email domain.Email) error {
	if m.IsCorrectFunc != nil {
		return m.IsCorrectFunc(email)
	}
	if !strings.Contains(email, "@") {
		return errors.New("invalid email format")
	}
	return nil
}

type MockJwt struct {
	NewTokenFunc func(user domain.User) (string, error)
}

func (m *MockJwt) NewToken(user domain.User) (string, error) {
	if m.NewTokenFunc != nil {
		return m.NewTokenFunc(user)
	}
	return "test_token", nil
}

func testAuthConfig() *config.Config {
	return &config.Config{Public: config.Public{
		VerificationCodeTTLSeconds: 600,
		VerificationCodeLen:        6,
		JwtTTLSeconds:              3600,
	}}
}

func hashOf(t *testing.T, value string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hash)
}

// --- Tests ---

func TestRegister(t *testing.T) {
	storage := &MockAuthStorage{}
	email := &MockEmail{}
	jwt := &MockJwt{}
	service := NewAuth(storage, email, jwt, testAuthConfig())

	t.Run("successful registration", func(t *testing.T) {
		saveCalled := false
		sendCalled := false
		var sentCode string
		storage.SaveUserFunc = func(user domain.User, challenge domain.VerificationChallenge) (domain.UserId, error) {
			saveCalled = true
			assert.Equal(t, "test@example.com", user.Email)
			assert.Equal(t, "tester", user.Username)
			assert.False(t, user.Verified)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte("password")))
			assert.NotEmpty(t, challenge.CodeHash)
			assert.True(t, challenge.Expires.After(time.Now().UTC().Add(9*time.Minute)))
			assert.True(t, challenge.Expires.Before(time.Now().UTC().Add(11*time.Minute)))
			return 7, nil
		}
		email.SendFunc = func(recipientEmail, subject, body string) error {
			sendCalled = true
			assert.Equal(t, "test@example.com", recipientEmail)
			assert.Contains(t, body, "verification code")
			for _, field := range strings.Fields(body) {
				if len(field) == 6 && field != "expire" && field >= "000000" && field <= "999999" {
					sentCode = field
				}
			}
			return nil
		}
		defer func() { storage.SaveUserFunc = nil; email.SendFunc = nil }()

		result, err := service.Register("Test@Example.com ", "tester", "password")

		require.NoError(t, err)
		assert.Equal(t, domain.UserId(7), result.UserId)
		assert.True(t, result.CodeDelivered)
		assert.True(t, saveCalled)
		assert.True(t, sendCalled)
		assert.Len(t, sentCode, 6)
	})

	t.Run("send failure does not fail registration", func(t *testing.T) {
		email.SendFunc = func(recipientEmail, subject, body string) error {
			return errors.New("smtp down")
		}
		defer func() { email.SendFunc = nil }()

		result, err := service.Register("test@example.com", "tester", "password")

		require.NoError(t, err)
		assert.False(t, result.CodeDelivered)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		mockError := errors.New("mock invalid email")
		email.IsCorrectFunc = func(e domain.Email) error { return mockError }
		defer func() { email.IsCorrectFunc = nil }()

		_, err := service.Register("not-an-email", "tester", "password")

		require.Error(t, err)
		assert.True(t, errors.Is(err, mockError))
	})

	t.Run("empty username after sanitization rejected", func(t *testing.T) {
		_, err := service.Register("test@example.com", "<script></script>", "password")

		require.Error(t, err)
		assert.True(t, internal_errors.IsKind(err, internal_errors.KindValidation))
	})

	t.Run("storage error propagates", func(t *testing.T) {
		mockError := errors.New("db down")
		storage.SaveUserFunc = func(user domain.User, challenge domain.VerificationChallenge) (domain.UserId, error) {
			return -1, mockError
		}
		defer func() { storage.SaveUserFunc = nil }()

		_, err := service.Register("test@example.com", "tester", "password")

		require.Error(t, err)
		assert.True(t, errors.Is(err, mockError))
	})
}

func TestVerifyEmail(t *testing.T) {
	storage := &MockAuthStorage{}
	service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testAuthConfig())

	unverifiedUser := func(email domain.Email) (domain.User, error) {
		return domain.User{Id: 1, Email: email, Verified: false}, nil
	}

	t.Run("successful verification", func(t *testing.T) {
		storage.UserByEmailFunc = unverifiedUser
		storage.ChallengeFunc = func(email domain.Email) (domain.VerificationChallenge, error) {
			return domain.VerificationChallenge{
				Email:    email,
				CodeHash: hashOf(t, "123456"),
				Expires:  time.Now().UTC().Add(5 * time.Minute),
			}, nil
		}
		markCalled := false
		storage.MarkVerifiedFunc = func(email domain.Email) error {
			markCalled = true
			assert.Equal(t, "test@example.com", email)
			return nil
		}
		defer func() { storage.UserByEmailFunc = nil; storage.ChallengeFunc = nil; storage.MarkVerifiedFunc = nil }()

		err := service.VerifyEmail("Test@Example.com", "123456")

		require.NoError(t, err)
		assert.True(t, markCalled)
	})

	t.Run("unknown account", func(t *testing.T) {
		storage.UserByEmailFunc = func(email domain.Email) (domain.User, error) {
			return domain.User{}, internal_errors.NotFound("User")
		}
		defer func() { storage.UserByEmailFunc = nil }()

		err := service.VerifyEmail("ghost@example.com", "123456")

		require.Error(t, err)
		assert.True(t, internal_errors.IsNotFound(err))
	})

	t.Run("already verified", func(t *testing.T) {
		err := service.VerifyEmail("test@example.com", "123456")

		require.Error(t, err)
		assert.True(t, internal_errors.IsKind(err, internal_errors.KindAlreadyVerified))
	})

	t.Run("no live challenge", func(t *testing.T) {
		storage.UserByEmailFunc = unverifiedUser
		defer func() { storage.UserByEmailFunc = nil }()

		err := service.VerifyEmail("test@example.com", "123456")

		require.Error(t, err)
		assert.True(t, internal_errors.IsNotFound(err))
	})

	t.Run("wrong code", func(t *testing.T) {
		storage.UserByEmailFunc = unverifiedUser
		storage.ChallengeFunc = func(email domain.Email) (domain.VerificationChallenge, error) {
			return domain.VerificationChallenge{
				Email:    email,
				CodeHash: hashOf(t, "123456"),
				Expires:  time.Now().UTC().Add(5 * time.Minute),
			}, nil
		}
		defer func() { storage.UserByEmailFunc = nil; storage.ChallengeFunc = nil }()

		err := service.VerifyEmail("test@example.com", "654321")

		require.Error(t, err)
		assert.True(t, internal_errors.IsKind(err, internal_errors.KindCodeMismatch))
	})

	t.Run("expired code", func(t *testing.T) {
		storage.UserByEmailFunc = unverifiedUser
		storage.ChallengeFunc = func(email domain.Email) (domain.VerificationChallenge, error) {
			return domain.VerificationChallenge{
				Email:    email,
				CodeHash: hashOf(t, "123456"),
				Expires:  time.Now().UTC().Add(-1 * time.Minute),
			}, nil
		}
		markCalled := false
		storage.MarkVerifiedFunc = func(email domain.Email) error { markCalled = true; return nil }
		defer func() { storage.UserByEmailFunc = nil; storage.ChallengeFunc = nil; storage.MarkVerifiedFunc = nil }()

		err := service.VerifyEmail("test@example.com", "123456")

		require.Error(t, err)
		assert.True(t, internal_errors.IsKind(err, internal_errors.KindCodeExpired))
		assert.False(t, markCalled)
	})
}

func TestResendCode(t *testing.T) {
	storage := &MockAuthStorage{}
	email := &MockEmail{}
	service := NewAuth(storage, email, &MockJwt{}, testAuthConfig())

	t.Run("supersedes previous challenge", func(t *testing.T) {
		storage.UserByEmailFunc = func(e domain.Email) (domain.User, error) {
			return domain.User{Id: 1, Email: e, Verified: false}, nil
		}
		saveCalled := false
		storage.SaveChallengeFunc = func(challenge domain.VerificationChallenge) error {
			saveCalled = true
			assert.NotEmpty(t, challenge.CodeHash)
			return nil
		}
		sendCalled := false
		email.SendFunc = func(recipientEmail, subject, body string) error { sendCalled = true; return nil }
		defer func() { storage.UserByEmailFunc = nil; storage.SaveChallengeFunc = nil; email.SendFunc = nil }()

		err := service.ResendCode("test@example.com")

		require.NoError(t, err)
		assert.True(t, saveCalled)
		assert.True(t, sendCalled)
	})

	t.Run("already verified", func(t *testing.T) {
		err := service.ResendCode("test@example.com")

		require.Error(t, err)
		assert.True(t, internal_errors.IsKind(err, internal_errors.KindAlreadyVerified))
	})

	t.Run("dispatch failure fails the call", func(t *testing.T) {
		storage.UserByEmailFunc = func(e domain.Email) (domain.User, error) {
			return domain.User{Id: 1, Email: e, Verified: false}, nil
		}
		email.SendFunc = func(recipientEmail, subject, body string) error {
			return errors.New("smtp down")
		}
		defer func() { storage.UserByEmailFunc = nil; email.SendFunc = nil }()

		err := service.ResendCode("test@example.com")

		require.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	storage := &MockAuthStorage{}
	jwt := &MockJwt{}
	service := NewAuth(storage, &MockEmail{}, jwt, testAuthConfig())

	t.Run("successful login", func(t *testing.T) {
		token, err := service.Login(domain.Credentials{Email: "Test@Example.com", Password: "password"})

		require.NoError(t, err)
		assert.Equal(t, "test_token", token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login(domain.Credentials{Email: "test@example.com", Password: "wrong"})

		require.Error(t, err)
		assert.True(t, internal_errors.IsKind(err, internal_errors.KindInvalidCredentials))
	})

	t.Run("unknown email reported as invalid credentials", func(t *testing.T) {
		storage.UserByEmailFunc = func(email domain.Email) (domain.User, error) {
			return domain.User{}, internal_errors.NotFound("User")
		}
		defer func() { storage.UserByEmailFunc = nil }()

		_, err := service.Login(domain.Credentials{Email: "ghost@example.com", Password: "password"})

		require.Error(t, err)
		assert.True(t, internal_errors.IsKind(err, internal_errors.KindInvalidCredentials))
		assert.False(t, internal_errors.IsNotFound(err))
	})

	t.Run("unverified account rejected", func(t *testing.T) {
		passHash := hashOf(t, "password")
		storage.UserByEmailFunc = func(email domain.Email) (domain.User, error) {
			return domain.User{Id: 1, Email: email, PassHash: passHash, Verified: false}, nil
		}
		defer func() { storage.UserByEmailFunc = nil }()

		_, err := service.Login(domain.Credentials{Email: "test@example.com", Password: "password"})

		require.Error(t, err)
		assert.True(t, internal_errors.IsKind(err, internal_errors.KindEmailNotVerified))
		var typed *internal_errors.ErrorWithStatusCode
		require.True(t, errors.As(err, &typed))
		assert.Equal(t, http.StatusForbidden, typed.StatusCode)
	})

	t.Run("token creation failure", func(t *testing.T) {
		mockError := errors.New("no key")
		jwt.NewTokenFunc = func(user domain.User) (string, error) { return "", mockError }
		defer func() { jwt.NewTokenFunc = nil }()

		_, err := service.Login(domain.Credentials{Email: "test@example.com", Password: "password"})

		require.Error(t, err)
		assert.True(t, errors.Is(err, mockError))
	})
}
