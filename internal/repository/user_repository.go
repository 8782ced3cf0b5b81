package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/ledger-service/shared/models"
)

// UserWriteRepository handles state-mutating operations for users and their
// profiles. Profiles have no lifecycle of their own, so they live here too.
type UserWriteRepository struct {
	db DBTX
}

func NewUserWriteRepository(db DBTX) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

func (r *UserWriteRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, user.Name, user.Email, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserWriteRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (bio, user_id)
		VALUES ($1, $2)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, profile.Bio, profile.UserID).Scan(&profile.ID)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return models.ErrUserNotFound
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetUser fetches a user together with its profile, if one exists.
func (r *UserWriteRepository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.created_at, p.id, p.bio
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1
	`
	var user models.User
	var profileID sql.NullInt64
	var bio sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.CreatedAt, &profileID, &bio,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if profileID.Valid {
		user.Profile = &models.Profile{ID: profileID.Int64, Bio: bio.String, UserID: user.ID}
	}
	return &user, nil
}

func (r *UserWriteRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

func (r *UserWriteRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkRowsAffected(result, models.ErrUserNotFound)
}

func (r *UserWriteRepository) UpdateProfileBio(ctx context.Context, userID int64, bio string) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET bio = $2
		WHERE user_id = $1
		RETURNING id, bio, user_id
	`
	var profile models.Profile
	err := r.db.QueryRowContext(ctx, query, userID, bio).Scan(&profile.ID, &profile.Bio, &profile.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &profile, nil
}

func (r *UserWriteRepository) DeleteProfileByUserID(ctx context.Context, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return checkRowsAffected(result, models.ErrProfileNotFound)
}

// DeleteUser removes the user row and returns it. The profile must already be
// gone; bank accounts still referencing the user make the delete fail.
func (r *UserWriteRepository) DeleteUser(ctx context.Context, id int64) (*models.User, error) {
	query := `
		DELETE FROM users
		WHERE id = $1
		RETURNING id, name, email, created_at
	`
	var user models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return nil, models.ErrUserHasAccounts
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return &user, nil
}
