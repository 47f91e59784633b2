package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCodeUnauthorized = 13

// MongoStore implements Store on top of a MongoDB database. Collection names
// are passed by callers; the adapter holds no schema knowledge.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (bson.M, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, mapMongoError("get", err)
	}
	return doc, nil
}

func (s *MongoStore) Put(ctx context.Context, collection, id string, doc interface{}) error {
	replacement, err := toDocument(id, doc)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(collection).ReplaceOne(
		ctx,
		bson.M{"_id": id},
		replacement,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return mapMongoError("put", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoError("delete", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Each(ctx context.Context, collection string, fn func(doc bson.M) error) error {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return mapMongoError("each", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return mapMongoError("each", err)
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return mapMongoError("each", err)
	}
	return nil
}

func (s *MongoStore) Count(ctx context.Context, collection string) (int64, error) {
	n, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, mapMongoError("count", err)
	}
	return n, nil
}

// toDocument normalizes the replacement document to a bson.M carrying the
// caller's id, so Put always writes the whole document under that key.
func toDocument(id string, doc interface{}) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["_id"] = id
	return m, nil
}

func mapMongoError(op string, err error) error {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == mongoCodeUnauthorized {
		return &PermissionError{Op: op, Err: err}
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return &ConnectionError{Op: op, Err: err}
	}
	return err
}
