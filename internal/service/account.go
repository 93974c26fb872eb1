package service

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/errors"
	"github.com/shoply-dev/shoply/internal/logger"
	"github.com/shoply-dev/shoply/internal/utils"
)

type AccountService interface {
	Get(id domain.UserId) (domain.User, error)
	UpdateProfile(id domain.UserId, update ProfileUpdate) error
	Delete(id domain.UserId) error
}

// ProfileUpdate carries optional field changes; nil means "leave unchanged".
type ProfileUpdate struct {
	Username *string
	Password *string
}

type AccountStorage interface {
	UserById(id domain.UserId) (domain.User, error)
	UpdateUsername(id domain.UserId, username string) error
	UpdatePassword(id domain.UserId, passHash string) error
	DeleteUser(id domain.UserId) error
}

type Account struct {
	storage AccountStorage
}

func NewAccount(storage AccountStorage) *Account {
	return &Account{storage: storage}
}

func (a *Account) Get(id domain.UserId) (domain.User, error) {
	return a.storage.UserById(id)
}

// UpdateProfile applies the requested changes. A username change also updates
// the denormalized copy on the account's orders (handled in storage, same
// transaction).
func (a *Account) UpdateProfile(id domain.UserId, update ProfileUpdate) error {
	if update.Username == nil && update.Password == nil {
		return errors.Validation("Nothing to update")
	}

	if update.Username != nil {
		username := utils.SanitizeUsername(*update.Username)
		if username == "" {
			return errors.Validation("Username must not be empty")
		}
		if err := a.storage.UpdateUsername(id, username); err != nil {
			return err
		}
	}

	if update.Password != nil {
		passHash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Log.Error("failed to hash password", "error", err)
			return err
		}
		if err := a.storage.UpdatePassword(id, string(passHash)); err != nil {
			return err
		}
	}

	return nil
}

// Delete removes the account. Cart reservations flow back to stock in the
// storage transaction; orders are dropped with the account.
func (a *Account) Delete(id domain.UserId) error {
	return a.storage.DeleteUser(id)
}
