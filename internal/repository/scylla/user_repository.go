package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"signals-api/internal/bucketing"
	"signals-api/internal/model"
	"signals-api/internal/util"
)

type userRepository struct {
	client       *ScyllaClient
	bucketingMgr *bucketing.BucketingManager
}

func NewUserRepository(client *ScyllaClient, bucketingMgr *bucketing.BucketingManager, logger *zap.Logger) UserRepository {
	return &userRepository{
		client:       client,
		bucketingMgr: bucketingMgr,
	}
}

// Create inserts the user together with its email and number lookup rows.
// The lookup inserts are lightweight transactions, so two concurrent
// registrations for the same email (or number) resolve to exactly one
// winner; the loser's partial lookup row is rolled back.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.Bucket = r.bucketingMgr.UserBucket(user.ID)

	applied, err := r.client.Query(r.client.Stmts.CreateEmailLookup,
		user.Email, user.Bucket, user.ID).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("failed to reserve email: %w", err)
	}
	if !applied {
		return ErrEmailTaken
	}

	applied, err = r.client.Query(r.client.Stmts.CreateNumberLookup,
		user.Number, user.Bucket, user.ID).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		r.releaseEmail(ctx, user.Email)
		return fmt.Errorf("failed to reserve number: %w", err)
	}
	if !applied {
		r.releaseEmail(ctx, user.Email)
		return ErrNumberTaken
	}

	query := r.client.Query(r.client.Stmts.CreateUser,
		user.Bucket, user.ID, user.Name, user.Email, user.Number,
		user.Role, user.Membership, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		r.releaseEmail(ctx, user.Email)
		r.releaseNumber(ctx, user.Number)
		util.Error("Failed to create user",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	util.Info("User created",
		zap.String("user_id", user.ID),
		zap.Int("user_bucket", user.Bucket))

	return nil
}

func (r *userRepository) releaseEmail(ctx context.Context, email string) {
	if err := r.client.Query(r.client.Stmts.DeleteEmailLookup, email).
		WithContext(ctx).Exec(); err != nil {
		util.Warn("Failed to roll back email lookup", zap.Error(err))
	}
}

func (r *userRepository) releaseNumber(ctx context.Context, number string) {
	if err := r.client.Query(r.client.Stmts.DeleteNumberLookup, number).
		WithContext(ctx).Exec(); err != nil {
		util.Warn("Failed to roll back number lookup", zap.Error(err))
	}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findByLookup(ctx, r.client.Stmts.GetEmailLookup, email)
}

func (r *userRepository) FindByNumber(ctx context.Context, number string) (*model.User, error) {
	return r.findByLookup(ctx, r.client.Stmts.GetNumberLookup, number)
}

func (r *userRepository) findByLookup(ctx context.Context, stmt, key string) (*model.User, error) {
	var bucket int
	var userID string

	err := r.client.Query(stmt, key).WithContext(ctx).Scan(&bucket, &userID)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve user lookup: %w", err)
	}

	return r.fetch(ctx, bucket, userID)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.fetch(ctx, r.bucketingMgr.UserBucket(id), id)
}

func (r *userRepository) fetch(ctx context.Context, bucket int, id string) (*model.User, error) {
	user := &model.User{}

	err := r.client.Query(r.client.Stmts.GetUserByID, bucket, id).
		WithContext(ctx).
		Scan(&user.Bucket, &user.ID, &user.Name, &user.Email, &user.Number,
			&user.Role, &user.Membership, &user.PasswordHash,
			&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrNotFound
		}
		util.Error("Failed to fetch user",
			zap.String("user_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return user, nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	now := time.Now().UTC()
	query := r.client.Query(r.client.Stmts.UpdatePasswordHash,
		hash, now, r.bucketingMgr.UserBucket(id), id).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to update password hash",
			zap.String("user_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	util.Info("Password hash updated", zap.String("user_id", id))
	return nil
}

func (r *userRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck()
}
