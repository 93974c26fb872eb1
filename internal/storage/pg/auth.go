package pg

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shoply-dev/shoply/internal/domain"
	internal_errors "github.com/shoply-dev/shoply/internal/errors"
)

// =========================================================================
// Public methods (satisfy the service.AuthStorage interface)
// =========================================================================

// SaveUser creates an unverified account together with its verification
// challenge. Both rows commit together: an account never exists without a
// live code unless it is already verified.
func (s *Storage) SaveUser(user domain.User, challenge domain.VerificationChallenge) (domain.UserId, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if id, err = s.saveUser(tx, user); err != nil {
			return err
		}
		return s.saveChallenge(tx, challenge)
	})
	return id, err
}

func (s *Storage) UserByEmail(email domain.Email) (domain.User, error) {
	return s.userBy(s.db, "email", email)
}

func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	return s.userBy(s.db, "id", id)
}

// UpdateUsername changes the display name and keeps the denormalized copy on
// existing orders in sync within the same transaction.
func (s *Storage) UpdateUsername(id domain.UserId, username string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE users SET username = $1 WHERE id = $2", username, id)
		if err != nil {
			return fmt.Errorf("failed to update username: %w", err)
		}
		if err := requireRows(result, "User not found"); err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE orders SET username = $1 WHERE user_id = $2", username, id); err != nil {
			return fmt.Errorf("failed to propagate username to orders: %w", err)
		}
		return nil
	})
}

func (s *Storage) UpdatePassword(id domain.UserId, passHash string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE users SET password_hash = $1 WHERE id = $2", passHash, id)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return requireRows(result, "User not found")
	})
}

// DeleteUser removes an account. Cart lines return their reservations to
// stock before the row goes away; challenge and order rows cascade.
func (s *Storage) DeleteUser(id domain.UserId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("SELECT 1 FROM users WHERE id = $1 FOR UPDATE", id); err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if _, err := tx.Exec(`
            UPDATE products p SET available_quantity = p.available_quantity + cl.quantity
            FROM cart_lines cl
            WHERE cl.user_id = $1 AND p.id = cl.product_id`, id); err != nil {
			return fmt.Errorf("failed to release cart reservations: %w", err)
		}
		result, err := tx.Exec("DELETE FROM users WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return requireRows(result, "User not found")
	})
}

// SaveChallenge issues or reissues the one-time code. The upsert supersedes
// any previous code, keeping at most one live challenge per account.
func (s *Storage) SaveChallenge(challenge domain.VerificationChallenge) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveChallenge(tx, challenge)
	})
}

func (s *Storage) Challenge(email domain.Email) (domain.VerificationChallenge, error) {
	var c domain.VerificationChallenge
	err := s.db.QueryRow(`
        SELECT email, code_hash, (expires_at at time zone 'utc')
        FROM verification_challenges WHERE email = $1`, email,
	).Scan(&c.Email, &c.CodeHash, &c.Expires)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return domain.VerificationChallenge{}, internal_errors.NotFound("Verification code not found")
		}
		return domain.VerificationChallenge{}, fmt.Errorf("failed to query challenge: %w", err)
	}
	return c, nil
}

// MarkVerified flips the account to verified and consumes the challenge.
// Both writes commit together; a verified account with a live code (or the
// inverse partial state) cannot be observed.
func (s *Storage) MarkVerified(email domain.Email) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE users SET is_verified = TRUE WHERE email = $1", email)
		if err != nil {
			return fmt.Errorf("failed to mark user verified: %w", err)
		}
		if err := requireRows(result, "User not found"); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM verification_challenges WHERE email = $1", email); err != nil {
			return fmt.Errorf("failed to consume challenge: %w", err)
		}
		return nil
	})
}

func (s *Storage) DeleteChallenge(email domain.Email) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM verification_challenges WHERE email = $1", email)
		if err != nil {
			return fmt.Errorf("failed to delete challenge: %w", err)
		}
		return nil
	})
}

// =========================================================================
// Internal methods (core database logic, transaction-agnostic)
// =========================================================================

func (s *Storage) saveUser(q Querier, user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRow(`
        INSERT INTO users(email, username, password_hash, is_admin, is_verified)
        VALUES($1, $2, $3, $4, $5) RETURNING id`,
		user.Email, user.Username, user.PassHash, user.Admin, user.Verified,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return -1, &internal_errors.ErrorWithStatusCode{
				Kind:       internal_errors.KindConflict,
				Message:    "User already exists",
				StatusCode: http.StatusBadRequest,
			}
		}
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *Storage) userBy(q Querier, column string, value interface{}) (domain.User, error) {
	var user domain.User
	query := fmt.Sprintf(`
        SELECT id, email, username, password_hash, is_admin, is_verified
        FROM users WHERE %s = $1`, column)
	err := q.QueryRow(query, value).Scan(
		&user.Id, &user.Email, &user.Username, &user.PassHash, &user.Admin, &user.Verified)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (s *Storage) saveChallenge(q Querier, challenge domain.VerificationChallenge) error {
	_, err := q.Exec(`
        INSERT INTO verification_challenges(email, code_hash, expires_at)
        VALUES($1, $2, $3)
        ON CONFLICT (email) DO UPDATE SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at`,
		challenge.Email, challenge.CodeHash, challenge.Expires,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert challenge: %w", err)
	}
	return nil
}

func requireRows(result sql.Result, notFoundMsg string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return internal_errors.NotFound(notFoundMsg)
	}
	return nil
}
