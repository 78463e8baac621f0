package mongodb

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Backup codes live inside the factor document, which makes replacing the
// whole set and consuming one code single-document updates.
type secondFactorDoc struct {
	PrincipalID    string          `bson:"_id"`
	Secret         []byte          `bson:"secret"`
	IsEnabled      bool            `bson:"is_enabled"`
	IsVerified     bool            `bson:"is_verified"`
	LastUsedAt     *int64          `bson:"last_used_at"`
	FailedAttempts int             `bson:"failed_attempts"`
	LockedUntil    *int64          `bson:"locked_until"`
	BackupCodes    []backupCodeDoc `bson:"backup_codes"`
	CreatedAt      int64           `bson:"created_at"`
	UpdatedAt      int64           `bson:"updated_at"`
}

type backupCodeDoc struct {
	CodeHash string `bson:"code_hash"`
	Used     bool   `bson:"used"`
	UsedAt   *int64 `bson:"used_at"`
}

func (d secondFactorDoc) toDomain() domain.SecondFactor {
	codes := make([]domain.BackupCode, len(d.BackupCodes))
	for i, c := range d.BackupCodes {
		codes[i] = domain.BackupCode{CodeHash: c.CodeHash, Used: c.Used, UsedAt: fromMillisPtr(c.UsedAt)}
	}
	return domain.SecondFactor{
		PrincipalID:    d.PrincipalID,
		SealedSecret:   d.Secret,
		IsEnabled:      d.IsEnabled,
		IsVerified:     d.IsVerified,
		BackupCodes:    codes,
		LastUsedAt:     fromMillisPtr(d.LastUsedAt),
		FailedAttempts: d.FailedAttempts,
		LockedUntil:    fromMillisPtr(d.LockedUntil),
		CreatedAt:      time.UnixMilli(d.CreatedAt).UTC(),
		UpdatedAt:      time.UnixMilli(d.UpdatedAt).UTC(),
	}
}

func toCodeDocs(codes []domain.BackupCode) []backupCodeDoc {
	out := make([]backupCodeDoc, len(codes))
	for i, c := range codes {
		out[i] = backupCodeDoc{CodeHash: c.CodeHash, Used: c.Used}
		if c.UsedAt != nil {
			ms := c.UsedAt.UnixMilli()
			out[i].UsedAt = &ms
		}
	}
	return out
}

type secondFactorsRepo struct {
	c *mongo.Collection
}

func byPrincipal(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func (r *secondFactorsRepo) updateOne(ctx context.Context, id string, update any) (domain.SecondFactor, error) {
	var doc secondFactorDoc
	if err := r.c.FindOneAndUpdate(ctx, byPrincipal(id), update, returnAfter).Decode(&doc); err != nil {
		return domain.SecondFactor{}, mapErr(err)
	}
	return doc.toDomain(), nil
}

func (r *secondFactorsRepo) GetSecondFactor(ctx context.Context, principalID string) (domain.SecondFactor, error) {
	var doc secondFactorDoc
	if err := r.c.FindOne(ctx, byPrincipal(principalID)).Decode(&doc); err != nil {
		return domain.SecondFactor{}, mapErr(err)
	}
	return doc.toDomain(), nil
}

// SaveProvisionedFactor upserts the pending factor. The failure counters
// are only written on insert, so a lock survives re-provisioning.
func (r *secondFactorsRepo) SaveProvisionedFactor(ctx context.Context, f domain.SecondFactor) error {
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "secret", Value: f.SealedSecret},
			{Key: "is_enabled", Value: false},
			{Key: "is_verified", Value: false},
			{Key: "backup_codes", Value: toCodeDocs(f.BackupCodes)},
			{Key: "updated_at", Value: f.UpdatedAt.UnixMilli()},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "last_used_at", Value: nil},
			{Key: "failed_attempts", Value: 0},
			{Key: "locked_until", Value: nil},
			{Key: "created_at", Value: f.CreatedAt.UnixMilli()},
		}},
	}
	_, err := r.c.UpdateOne(ctx, byPrincipal(f.PrincipalID), update, options.Update().SetUpsert(true))
	return mapErr(err)
}

func (r *secondFactorsRepo) EnableSecondFactor(
	ctx context.Context,
	principalID string,
	now time.Time,
) (domain.SecondFactor, error) {
	ms := now.UnixMilli()
	return r.updateOne(ctx, principalID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "is_enabled", Value: true},
		{Key: "is_verified", Value: true},
		{Key: "failed_attempts", Value: 0},
		{Key: "locked_until", Value: nil},
		{Key: "last_used_at", Value: ms},
		{Key: "updated_at", Value: ms},
	}}})
}

func (r *secondFactorsRepo) RecordFactorSuccess(ctx context.Context, principalID string, now time.Time) error {
	ms := now.UnixMilli()
	res, err := r.c.UpdateOne(ctx, byPrincipal(principalID), bson.D{{Key: "$set", Value: bson.D{
		{Key: "failed_attempts", Value: 0},
		{Key: "locked_until", Value: nil},
		{Key: "last_used_at", Value: ms},
		{Key: "updated_at", Value: ms},
	}}})
	return requireMatch(res, err)
}

func (r *secondFactorsRepo) RecordFactorFailure(
	ctx context.Context,
	principalID string,
	policy domain.LockoutPolicy,
	now time.Time,
) (domain.SecondFactor, error) {
	stage := lockoutStage("failed_attempts", "locked_until",
		policy.MaxAttempts, now.UnixMilli(), now.Add(policy.Duration).UnixMilli())
	return r.updateOne(ctx, principalID, mongo.Pipeline{stage})
}

func (r *secondFactorsRepo) DeleteSecondFactor(ctx context.Context, principalID string) error {
	res, err := r.c.DeleteOne(ctx, byPrincipal(principalID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *secondFactorsRepo) ReplaceBackupCodes(
	ctx context.Context,
	principalID string,
	codes []domain.BackupCode,
	now time.Time,
) error {
	res, err := r.c.UpdateOne(ctx, byPrincipal(principalID), bson.D{{Key: "$set", Value: bson.D{
		{Key: "backup_codes", Value: toCodeDocs(codes)},
		{Key: "updated_at", Value: now.UnixMilli()},
	}}})
	return requireMatch(res, err)
}

// ConsumeBackupCode flips the first matching unused code through the
// positional operator. The filter only matches while the code is unused,
// so concurrent consumers cannot both succeed.
func (r *secondFactorsRepo) ConsumeBackupCode(
	ctx context.Context,
	principalID, codeHash string,
	now time.Time,
) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: principalID},
		{Key: "backup_codes", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "code_hash", Value: codeHash},
			{Key: "used", Value: false},
		}}}},
	}
	res, err := r.c.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "backup_codes.$.used", Value: true},
		{Key: "backup_codes.$.used_at", Value: now.UnixMilli()},
	}}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *secondFactorsRepo) DeleteStaleProvisioned(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.c.DeleteMany(ctx, bson.D{
		{Key: "is_enabled", Value: false},
		{Key: "updated_at", Value: bson.D{{Key: "$lt", Value: olderThan.UnixMilli()}}},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

var _ store.SecondFactors = (*secondFactorsRepo)(nil)
