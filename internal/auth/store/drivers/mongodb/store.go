// Package mongodb implements the store on MongoDB. Each principal and each
// second factor is a single document, and every multi-field transition is a
// single-document update, so the store needs no multi-document transactions.
package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	principalsCollection    = "principals"
	secondFactorsCollection = "second_factors"
)

type Store struct {
	client        *mongo.Client
	principals    *mongo.Collection
	secondFactors *mongo.Collection
}

// NewStore connects to uri and verifies the connection.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return New(client, database), nil
}

// New wraps an already connected client. Close disconnects it.
func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:        client,
		principals:    db.Collection(principalsCollection),
		secondFactors: db.Collection(secondFactorsCollection),
	}
}

// ApplyMigrations creates the indexes. Soft-deleted principals are left out
// of the unique indexes so their username and email can be reused.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	active := bson.D{{Key: "is_deleted", Value: false}}

	_, err := s.principals.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName("principals_username_active").
				SetUnique(true).
				SetPartialFilterExpression(active),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("principals_email_active").
				SetUnique(true).
				SetPartialFilterExpression(active),
		},
		{
			Keys:    bson.D{{Key: "lock_until", Value: 1}},
			Options: options.Index().SetName("principals_lock_until"),
		},
	})
	if err != nil {
		return err
	}

	_, err = s.secondFactors.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "is_enabled", Value: 1}, {Key: "updated_at", Value: 1}},
		Options: options.Index().SetName("second_factors_pending"),
	})
	return err
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Tx returns a store whose Commit and Rollback do nothing. Writes made
// through it are applied immediately.
func (s *Store) Tx(context.Context) (store.Tx, error) {
	return &txStore{Store: s}, nil
}

// WithTx runs fn against the pass-through Tx.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Principals() store.Principals {
	return &principalsRepo{c: s.principals}
}

func (s *Store) SecondFactors() store.SecondFactors {
	return &secondFactorsRepo{c: s.secondFactors}
}

type txStore struct {
	*Store
}

func (t *txStore) Commit() error   { return nil }
func (t *txStore) Rollback() error { return nil }

func (t *txStore) Close() error { return nil }

func (t *txStore) ApplyMigrations(context.Context) error { return store.ErrNestedTx }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, store.ErrNestedTx }

func (t *txStore) WithTx(context.Context, func(store.Tx) error) error { return store.ErrNestedTx }

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrAlreadyExists
	}
	return err
}

// lockoutStage builds the pipeline $set that mirrors
// domain.LockoutPolicy.FailureOutcome for a counter/lock field pair. Both
// expressions read the document as it was before the update.
func lockoutStage(counter, lock string, maxAttempts int, now, lockUntil int64) bson.D {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$" + lock, int64(0)}}}
	expired := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$gt", Value: bson.A{current, int64(0)}}},
		bson.D{{Key: "$lte", Value: bson.A{current, now}}},
	}}}
	next := bson.D{{Key: "$add", Value: bson.A{"$" + counter, 1}}}
	reachesMax := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{current, int64(0)}}},
		bson.D{{Key: "$gte", Value: bson.A{next, maxAttempts}}},
	}}}

	return bson.D{{Key: "$set", Value: bson.D{
		{Key: counter, Value: bson.D{{Key: "$cond", Value: bson.A{expired, 1, next}}}},
		{Key: lock, Value: bson.D{{Key: "$switch", Value: bson.D{
			{Key: "branches", Value: bson.A{
				bson.D{{Key: "case", Value: expired}, {Key: "then", Value: nil}},
				bson.D{{Key: "case", Value: reachesMax}, {Key: "then", Value: lockUntil}},
			}},
			{Key: "default", Value: "$" + lock},
		}}}},
		{Key: "updated_at", Value: now},
	}}}
}

var _ store.Store = (*Store)(nil)
