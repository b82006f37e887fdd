package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, first_name, middle_name, last_name, email, password, role,
	reset_token, reset_expires, created_at, updated_at`

func scanUser(s scanner) (*model.User, error) {
	var (
		u            model.User
		resetToken   sql.NullString
		resetExpires sql.NullTime
	)
	err := s.Scan(
		&u.ID, &u.FirstName, &u.MiddleName, &u.LastName, &u.Email, &u.Password, &u.Role,
		&resetToken, &resetExpires, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.ResetToken = resetToken.String
	if resetExpires.Valid {
		t := resetExpires.Time
		u.ResetExpires = &t
	}
	return &u, nil
}

// CreateUser inserts a new user and fills in ID and timestamps.
// Emails are stored lower-cased.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.Email = normalizeEmail(user.Email)
	now := db.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, first_name, middle_name, last_name, email, password, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.FirstName, user.MiddleName, user.LastName, user.Email,
		user.Password, user.Role, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyTaken("email", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}
	return nil
}

// GetUserByID fetches a user of any role.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, notFoundIfNoRows(err, "user", id))
	}
	return u, nil
}

// GetUserByEmail fetches a user by (case-insensitive) email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by email: %w", notFoundIfNoRows(err, "user", email))
	}
	return u, nil
}

// UpdateUser saves the profile fields (names, email, role).
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.Email = normalizeEmail(user.Email)
	user.UpdatedAt = db.now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET first_name = ?, middle_name = ?, last_name = ?, email = ?, role = ?, updated_at = ?
		 WHERE id = ?`,
		user.FirstName, user.MiddleName, user.LastName, user.Email, user.Role, user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyTaken("email", user.Email)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	return expectOneRow(res, "user", user.ID)
}

// DeleteUser removes the user. Their recipes and reviews are left in place.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return expectOneRow(res, "user", id)
}

// SetPassword stores a new digest and clears the reset-token fields.
func (db *DB) SetPassword(ctx context.Context, id, digest string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password = ?, reset_token = NULL, reset_expires = NULL, updated_at = ?
		 WHERE id = ?`,
		digest, db.now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting password of user %s: %w", id, err)
	}
	return expectOneRow(res, "user", id)
}

// SetResetToken stores the digest of a pending reset token and its expiry.
func (db *DB) SetResetToken(ctx context.Context, id, digest string, expires time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET reset_token = ?, reset_expires = ?, updated_at = ? WHERE id = ?`,
		digest, expires.UTC(), db.now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting reset token of user %s: %w", id, err)
	}
	return expectOneRow(res, "user", id)
}

// GetMemberByID fetches a role-0 user. Admin accounts are reported as not found.
func (db *DB) GetMemberByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND role = ?`, id, model.RoleUser)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting member %s: %w", id, notFoundIfNoRows(err, "user", id))
	}
	return u, nil
}

// ListMembers returns a window of role-0 users, newest first.
func (db *DB) ListMembers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		model.RoleUser, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing members: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning member: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating members: %w", err)
	}
	return users, nil
}

// CountMembers counts role-0 users.
func (db *DB) CountMembers(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, model.RoleUser).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting members: %w", err)
	}
	return n, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
