package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/model"
	"github.com/sakif/postagram/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, subject, email, username, name, bio, location, website, image, created_at, updated_at`

// CreateUser inserts a new user, generating its ID and timestamps.
// A duplicate subject or username surfaces as apperror.ErrConflict so the
// provisioning flow can pick another username.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Subject,
		user.Email,
		user.Username,
		nullable(user.Name),
		nullable(user.Bio),
		nullable(user.Location),
		nullable(user.Website),
		nullable(user.Image),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user (subject=%s): %w", user.Subject, err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUserWhere(ctx, "id", id)
}

// GetUserBySubject looks a user up by the identity provider's subject.
func (db *DB) GetUserBySubject(ctx context.Context, subject string) (*model.User, error) {
	return db.getUserWhere(ctx, "subject", subject)
}

// GetUserByUsername looks a user up by their public username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUserWhere(ctx, "username", username)
}

// getUserWhere is shared by the three lookups. column is always one of our
// own constants, never user input.
func (db *DB) getUserWhere(ctx context.Context, column, value string) (*model.User, error) {
	row := db.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundOr(err, "user", value)
	}
	return u, nil
}

// UpdateProfile overwrites the editable profile fields. Empty strings are
// stored as NULL.
func (db *DB) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	res, err := db.q.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, bio = ?, location = ?, website = ?, updated_at = ?
		 WHERE id = ?`,
		emptyToNull(update.Name),
		emptyToNull(update.Bio),
		emptyToNull(update.Location),
		emptyToNull(update.Website),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating profile %s: %w", id, err)
	}

	n, err := rowsChanged(res)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return db.GetUserByID(ctx, id)
}

// CountProfile computes follower, following and post counts from the
// relation tables.
func (db *DB) CountProfile(ctx context.Context, userID string) (model.ProfileCounts, error) {
	var c model.ProfileCounts
	err := db.q.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM follows WHERE following_id = ?),
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?),
			(SELECT COUNT(*) FROM posts WHERE author_id = ?)`,
		userID, userID, userID,
	).Scan(&c.Followers, &c.Following, &c.Posts)
	if err != nil {
		return model.ProfileCounts{}, fmt.Errorf("sqlite: counting profile %s: %w", userID, err)
	}
	return c, nil
}

// SuggestUsers picks random users the caller does not follow yet.
func (db *DB) SuggestUsers(ctx context.Context, userID string, limit int) ([]model.UserSummary, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, username, name, image
		 FROM users
		 WHERE id <> ?
		   AND id NOT IN (SELECT following_id FROM follows WHERE follower_id = ?)
		 ORDER BY RANDOM()
		 LIMIT ?`,
		userID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: suggesting users for %s: %w", userID, err)
	}
	defer rows.Close()

	users := make([]model.UserSummary, 0, limit)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning suggested user: %w", err)
		}
		users = append(users, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating suggested users: %w", err)
	}
	return users, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u                                   model.User
		name, bio, location, website, image sql.NullString
	)
	err := s.Scan(
		&u.ID, &u.Subject, &u.Email, &u.Username,
		&name, &bio, &location, &website, &image,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Name = nullString(name)
	u.Bio = nullString(bio)
	u.Location = nullString(location)
	u.Website = nullString(website)
	u.Image = nullString(image)
	return &u, nil
}

func scanSummary(s scanner) (model.UserSummary, error) {
	var (
		u           model.UserSummary
		name, image sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Username, &name, &image); err != nil {
		return model.UserSummary{}, err
	}
	u.Name = nullString(name)
	u.Image = nullString(image)
	return u, nil
}

func emptyToNull(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}
