package account

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore is a [Store] backed by one MongoDB collection.
//
// MongoStore is safe for concurrent use. Every call honours ctx through the driver.
type MongoStore[U any] struct {
	coll       *mongo.Collection
	fields     Fields
	projection Projection
}

// NewMongoStore validates the mapping and returns a store over coll.
func NewMongoStore[U any](coll *mongo.Collection, fields Fields, projection Projection) (*MongoStore[U], error) {
	if coll == nil {
		return nil, errors.New("mongo collection required")
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if err := projection.Validate(); err != nil {
		return nil, err
	}
	return &MongoStore[U]{
		coll:       coll,
		fields:     fields,
		projection: projection.Clone(),
	}, nil
}

// EnsureIndexes creates the unique email index. Create relies on it to turn
// concurrent registrations of one email into ErrDuplicate.
func (s *MongoStore[U]) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: s.fields.Email, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("mongoauth_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (s *MongoStore[U]) FindOne(ctx context.Context, filter Filter) (*State, error) {
	query, err := s.fields.filterDocument(filter)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	if err := s.coll.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	return s.fields.stateFromDocument(doc)
}

func (s *MongoStore[U]) FindByID(ctx context.Context, id string) (*U, error) {
	oid, err := idValue(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOne()
	if proj := s.projection.document(); proj != nil {
		opts.SetProjection(proj)
	}

	var out U
	if err := s.coll.FindOne(ctx, bson.D{{Key: IDField, Value: oid}}, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &out, nil
}

func (s *MongoStore[U]) Create(ctx context.Context, state State, extra *U) (string, error) {
	var base any
	if extra != nil {
		base = extra
	}

	doc, err := s.fields.newDocument(state, base)
	if err != nil {
		return "", err
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("insert account: %w", err)
	}
	return idString(res.InsertedID), nil
}

func (s *MongoStore[U]) FindOneAndUpdate(ctx context.Context, filter Filter, patch Patch, opts UpdateOptions) (*U, error) {
	query, err := s.fields.filterDocument(filter)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, query, filter.guarded(), patch, opts)
}

func (s *MongoStore[U]) FindByIDAndUpdate(ctx context.Context, id string, patch Patch, opts UpdateOptions) (*U, error) {
	query, err := s.fields.filterDocument(Filter{ID: id})
	if err != nil {
		return nil, err
	}
	return s.update(ctx, query, false, patch, opts)
}

// Unblock clears the block flag and the attempt counter of the account with email.
func (s *MongoStore[U]) Unblock(ctx context.Context, email string) error {
	blocked := false
	attempts := 0
	_, err := s.FindOneAndUpdate(ctx, Filter{Email: email}, Patch{Blocked: &blocked, Attempts: &attempts}, UpdateOptions{})
	return err
}

func (s *MongoStore[U]) update(ctx context.Context, query bson.D, guarded bool, patch Patch, opts UpdateOptions) (*U, error) {
	miss := ErrNotFound
	if guarded {
		miss = ErrConflict
	}

	if patch.IsEmpty() {
		findOpts := options.FindOne()
		if proj := s.projection.document(); proj != nil {
			findOpts.SetProjection(proj)
		}
		var out U
		if err := s.coll.FindOne(ctx, query, findOpts).Decode(&out); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, miss
			}
			return nil, fmt.Errorf("find account: %w", err)
		}
		if !opts.ReturnDocument {
			return nil, nil
		}
		return &out, nil
	}

	update := s.fields.updateDocument(patch)

	if !opts.ReturnDocument {
		res, err := s.coll.UpdateOne(ctx, query, update)
		if err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, miss
		}
		return nil, nil
	}

	fauOpts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if proj := s.projection.document(); proj != nil {
		fauOpts.SetProjection(proj)
	}

	var out U
	if err := s.coll.FindOneAndUpdate(ctx, query, update, fauOpts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, miss
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return &out, nil
}
