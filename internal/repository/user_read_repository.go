package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/ledger-service/shared/models"
	sharedredis "github.com/eaglebank/ledger-service/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const userViewKeyPrefix = "user:view:"

// UserReadRepository handles all read operations for users.
// It uses Redis as the primary read store, falling back to PostgreSQL on a miss.
// Cached users expire after ttl.
type UserReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.User]
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *UserReadRepository {
	return &UserReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.User](redisClient, userViewKeyPrefix, ttl),
	}
}

// GetByID returns a user with its profile from Redis first, then PostgreSQL.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if view, ok := r.cache.Get(ctx, id); ok {
		return view, nil
	}

	user, err := NewUserWriteRepository(r.db).GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// Warm the cache
	r.cache.Set(ctx, id, user)
	return user, nil
}

// Refresh reloads the user from PostgreSQL, bypassing and then overwriting the
// cached entry. A deleted user has its entry dropped.
func (r *UserReadRepository) Refresh(ctx context.Context, id int64) (*models.User, error) {
	user, err := NewUserWriteRepository(r.db).GetUser(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		r.cache.Delete(ctx, id)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, id, user)
	return user, nil
}

// List returns every user with its profile, straight from PostgreSQL.
func (r *UserReadRepository) List(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.created_at, p.id, p.bio
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		ORDER BY u.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		var profileID sql.NullInt64
		var bio sql.NullString
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &profileID, &bio); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if profileID.Valid {
			user.Profile = &models.Profile{ID: profileID.Int64, Bio: bio.String, UserID: user.ID}
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// InvalidateUserView removes the Redis read model entry for a user.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, userID int64) {
	r.cache.Delete(ctx, userID)
}
