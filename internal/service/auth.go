package service

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shoply-dev/shoply/internal/config"
	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/errors"
	"github.com/shoply-dev/shoply/internal/logger"
	"github.com/shoply-dev/shoply/internal/utils"
)

type AuthService interface {
	Register(email domain.Email, username, password string) (RegistrationResult, error)
	VerifyEmail(email domain.Email, code string) error
	ResendCode(email domain.Email) error
	Login(creds domain.Credentials) (string, error)
}

// RegistrationResult reports issuance and dispatch separately: the account
// and its challenge are always created together, but the notification email
// is allowed to fail without rolling registration back.
type RegistrationResult struct {
	UserId        domain.UserId
	CodeDelivered bool
}

type AuthStorage interface {
	SaveUser(user domain.User, challenge domain.VerificationChallenge) (domain.UserId, error)
	UserByEmail(email domain.Email) (domain.User, error)
	SaveChallenge(challenge domain.VerificationChallenge) error
	Challenge(email domain.Email) (domain.VerificationChallenge, error)
	MarkVerified(email domain.Email) error
	DeleteChallenge(email domain.Email) error
}

type Email interface {
	Send(recipientEmail, subject, body string) error
	IsCorrect(email domain.Email) error
}

type Jwt interface {
	NewToken(user domain.User) (string, error)
}

type Auth struct {
	storage AuthStorage
	email   Email
	jwt     Jwt
	cfg     *config.Config
}

func NewAuth(storage AuthStorage, email Email, jwt Jwt, cfg *config.Config) *Auth {
	return &Auth{storage: storage, email: email, jwt: jwt, cfg: cfg}
}

// Register creates an unverified account with a live verification challenge
// and emails the code. Email dispatch failure does not fail registration; it
// is reported through RegistrationResult.CodeDelivered.
func (a *Auth) Register(email domain.Email, username, password string) (RegistrationResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := a.email.IsCorrect(email); err != nil {
		return RegistrationResult{}, err
	}
	username = utils.SanitizeUsername(username)
	if username == "" {
		return RegistrationResult{}, errors.Validation("Username must not be empty")
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return RegistrationResult{}, err
	}

	code := utils.GenerateVerificationCode(a.cfg.Public.VerificationCodeLen)
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash verification code", "error", err)
		return RegistrationResult{}, err
	}

	id, err := a.storage.SaveUser(
		domain.User{Email: email, Username: username, PassHash: string(passHash)},
		domain.VerificationChallenge{
			Email:    email,
			CodeHash: string(codeHash),
			Expires:  time.Now().UTC().Add(a.cfg.VerificationCodeTTL()),
		},
	)
	if err != nil {
		return RegistrationResult{}, err
	}

	result := RegistrationResult{UserId: id, CodeDelivered: true}
	if err := a.sendCode(email, code); err != nil {
		logger.Log.Warn("registration succeeded but code dispatch failed", "error", err)
		result.CodeDelivered = false
	}
	return result, nil
}

// VerifyEmail consumes the one-time code and flips the account to verified.
func (a *Auth) VerifyEmail(email domain.Email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := a.storage.UserByEmail(email)
	if err != nil {
		return err
	}
	if user.Verified {
		return errAlreadyVerified
	}

	challenge, err := a.storage.Challenge(email)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)); err != nil {
		return &errors.ErrorWithStatusCode{
			Kind:       errors.KindCodeMismatch,
			Message:    "Invalid verification code",
			StatusCode: http.StatusBadRequest,
		}
	}
	if challenge.ExpiredAt(time.Now().UTC()) {
		return &errors.ErrorWithStatusCode{
			Kind:       errors.KindCodeExpired,
			Message:    "Verification code has expired",
			StatusCode: http.StatusBadRequest,
		}
	}

	return a.storage.MarkVerified(email)
}

// ResendCode supersedes any previous challenge with a fresh code. Unlike
// Register, a dispatch failure here fails the whole call: resending exists
// only to get a code delivered.
func (a *Auth) ResendCode(email domain.Email) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := a.storage.UserByEmail(email)
	if err != nil {
		return err
	}
	if user.Verified {
		return errAlreadyVerified
	}

	code := utils.GenerateVerificationCode(a.cfg.Public.VerificationCodeLen)
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash verification code", "error", err)
		return err
	}
	if err := a.storage.SaveChallenge(domain.VerificationChallenge{
		Email:    email,
		CodeHash: string(codeHash),
		Expires:  time.Now().UTC().Add(a.cfg.VerificationCodeTTL()),
	}); err != nil {
		return err
	}

	return a.sendCode(email, code)
}

// Login authenticates and returns a signed session token. An unverified
// account with valid credentials is rejected: only verified accounts may
// transact.
func (a *Auth) Login(creds domain.Credentials) (string, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	user, err := a.storage.UserByEmail(email)
	if err != nil {
		if errors.IsNotFound(err) {
			// do not leak which emails are registered
			return "", errInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(creds.Password)); err != nil {
		return "", errInvalidCredentials
	}

	if !user.Verified {
		return "", &errors.ErrorWithStatusCode{
			Kind:       errors.KindEmailNotVerified,
			Message:    "Please verify your email to log in",
			StatusCode: http.StatusForbidden,
		}
	}

	token, err := a.jwt.NewToken(user)
	if err != nil {
		logger.Log.Error("failed to create jwt token", "user_id", user.Id, "error", err)
		return "", err
	}
	return token, nil
}

func (a *Auth) sendCode(email domain.Email, code string) error {
	body := fmt.Sprintf(`
		Hello,

		Your verification code is %s

		It will expire in %.0f minutes. If you did not request this, please ignore this email.
	`, code, a.cfg.VerificationCodeTTL().Minutes())
	return a.email.Send(email, "Email verification code", body)
}

var errAlreadyVerified = &errors.ErrorWithStatusCode{
	Kind:       errors.KindAlreadyVerified,
	Message:    "Email is already verified",
	StatusCode: http.StatusBadRequest,
}

var errInvalidCredentials = &errors.ErrorWithStatusCode{
	Kind:       errors.KindInvalidCredentials,
	Message:    "Invalid email or password",
	StatusCode: http.StatusUnauthorized,
}
