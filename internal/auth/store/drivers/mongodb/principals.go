package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Optional timestamps are always written, as null when unset, so the
// pipeline updates never meet a missing field.
type principalDoc struct {
	ID            string `bson:"_id"`
	Username      string `bson:"username"`
	Email         string `bson:"email"`
	PasswordHash  string `bson:"password_hash"`
	FirstName     string `bson:"first_name"`
	LastName      string `bson:"last_name"`
	IsActive      bool   `bson:"is_active"`
	IsDeleted     bool   `bson:"is_deleted"`
	DeletedAt     *int64 `bson:"deleted_at"`
	LastLoginAt   *int64 `bson:"last_login_at"`
	LoginAttempts int    `bson:"login_attempts"`
	LockUntil     *int64 `bson:"lock_until"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
}

func (d principalDoc) toDomain() domain.Principal {
	return domain.Principal{
		ID:            d.ID,
		Username:      d.Username,
		Email:         d.Email,
		PasswordHash:  d.PasswordHash,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		IsActive:      d.IsActive,
		IsDeleted:     d.IsDeleted,
		DeletedAt:     fromMillisPtr(d.DeletedAt),
		LastLoginAt:   fromMillisPtr(d.LastLoginAt),
		LoginAttempts: d.LoginAttempts,
		LockUntil:     fromMillisPtr(d.LockUntil),
		CreatedAt:     time.UnixMilli(d.CreatedAt).UTC(),
		UpdatedAt:     time.UnixMilli(d.UpdatedAt).UTC(),
	}
}

func fromMillisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

type principalsRepo struct {
	c *mongo.Collection
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (r *principalsRepo) findOne(ctx context.Context, filter bson.D) (domain.Principal, error) {
	var doc principalDoc
	if err := r.c.FindOne(ctx, filter).Decode(&doc); err != nil {
		return domain.Principal{}, mapErr(err)
	}
	return doc.toDomain(), nil
}

func (r *principalsRepo) updateOne(ctx context.Context, filter bson.D, update any) (domain.Principal, error) {
	var doc principalDoc
	if err := r.c.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&doc); err != nil {
		return domain.Principal{}, mapErr(err)
	}
	return doc.toDomain(), nil
}

func activeByID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "is_deleted", Value: false}}
}

func (r *principalsRepo) CreatePrincipal(ctx context.Context, p domain.Principal) error {
	_, err := r.c.InsertOne(ctx, principalDoc{
		ID:           p.ID,
		Username:     p.Username,
		Email:        domain.NormalizeEmail(p.Email),
		PasswordHash: p.PasswordHash,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt.UnixMilli(),
		UpdatedAt:    p.UpdatedAt.UnixMilli(),
	})
	return mapErr(err)
}

func (r *principalsRepo) GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *principalsRepo) FindActivePrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	return r.findOne(ctx, activeByID(id))
}

func (r *principalsRepo) FindActivePrincipalByLogin(ctx context.Context, login string) (domain.Principal, error) {
	p, err := r.findOne(ctx, bson.D{{Key: "username", Value: login}, {Key: "is_deleted", Value: false}})
	if !errors.Is(err, store.ErrNotFound) {
		return p, err
	}
	return r.findOne(ctx, bson.D{
		{Key: "email", Value: domain.NormalizeEmail(login)},
		{Key: "is_deleted", Value: false},
	})
}

func (r *principalsRepo) IdentityTaken(
	ctx context.Context,
	username, email, excludeID string,
) (bool, bool, error) {
	taken := func(field, value string) (bool, error) {
		if value == "" {
			return false, nil
		}
		n, err := r.c.CountDocuments(ctx, bson.D{
			{Key: field, Value: value},
			{Key: "is_deleted", Value: false},
			{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}},
		}, options.Count().SetLimit(1))
		return n > 0, err
	}

	u, err := taken("username", username)
	if err != nil {
		return false, false, err
	}
	e, err := taken("email", domain.NormalizeEmail(email))
	if err != nil {
		return false, false, err
	}
	return u, e, nil
}

func (r *principalsRepo) UpdateProfile(
	ctx context.Context,
	id string,
	upd domain.ProfileUpdate,
	now time.Time,
) (domain.Principal, error) {
	set := bson.D{{Key: "updated_at", Value: now.UnixMilli()}}
	if upd.FirstName != nil {
		set = append(set, bson.E{Key: "first_name", Value: *upd.FirstName})
	}
	if upd.LastName != nil {
		set = append(set, bson.E{Key: "last_name", Value: *upd.LastName})
	}
	if upd.Email != nil {
		set = append(set, bson.E{Key: "email", Value: domain.NormalizeEmail(*upd.Email)})
	}
	return r.updateOne(ctx, activeByID(id), bson.D{{Key: "$set", Value: set}})
}

func (r *principalsRepo) UpdatePasswordHash(ctx context.Context, id, hash string, now time.Time) error {
	res, err := r.c.UpdateOne(ctx, activeByID(id), bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: hash},
		{Key: "updated_at", Value: now.UnixMilli()},
	}}})
	return requireMatch(res, err)
}

func (r *principalsRepo) RecordFailedLogin(
	ctx context.Context,
	id string,
	policy domain.LockoutPolicy,
	now time.Time,
) (domain.Principal, error) {
	stage := lockoutStage("login_attempts", "lock_until",
		policy.MaxAttempts, now.UnixMilli(), now.Add(policy.Duration).UnixMilli())
	return r.updateOne(ctx, activeByID(id), mongo.Pipeline{stage})
}

func (r *principalsRepo) RecordSuccessfulLogin(ctx context.Context, id string, now time.Time) (domain.Principal, error) {
	ms := now.UnixMilli()
	return r.updateOne(ctx, activeByID(id), bson.D{{Key: "$set", Value: bson.D{
		{Key: "login_attempts", Value: 0},
		{Key: "lock_until", Value: nil},
		{Key: "last_login_at", Value: ms},
		{Key: "updated_at", Value: ms},
	}}})
}

func (r *principalsRepo) SoftDeletePrincipal(ctx context.Context, id string, now time.Time) error {
	ms := now.UnixMilli()
	res, err := r.c.UpdateOne(ctx, activeByID(id), bson.D{{Key: "$set", Value: bson.D{
		{Key: "is_deleted", Value: true},
		{Key: "is_active", Value: false},
		{Key: "deleted_at", Value: ms},
		{Key: "updated_at", Value: ms},
	}}})
	return requireMatch(res, err)
}

func (r *principalsRepo) RestorePrincipal(ctx context.Context, id string, now time.Time) error {
	filter := bson.D{{Key: "_id", Value: id}, {Key: "is_deleted", Value: true}}
	res, err := r.c.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "is_deleted", Value: false},
		{Key: "is_active", Value: true},
		{Key: "deleted_at", Value: nil},
		{Key: "updated_at", Value: now.UnixMilli()},
	}}})
	return requireMatch(res, err)
}

func (r *principalsRepo) ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	ms := now.UnixMilli()
	res, err := r.c.UpdateMany(ctx,
		bson.D{{Key: "lock_until", Value: bson.D{{Key: "$lte", Value: ms}}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "login_attempts", Value: 0},
			{Key: "lock_until", Value: nil},
			{Key: "updated_at", Value: ms},
		}}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func requireMatch(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Principals = (*principalsRepo)(nil)
