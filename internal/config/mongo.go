package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(client, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, cfg *Config) error {
	db := client.Database(cfg.DBName)

	// News collection: lookups by source and date for dashboard listings
	newsCollection := db.Collection(cfg.Collections.News)
	newsIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "source_type", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "date", Value: -1}},
		},
	}
	_, err := newsCollection.Indexes().CreateMany(context.Background(), newsIndexes)
	if err != nil {
		return err
	}

	// Summaries and tips: cross-referenced by article_id during audits
	for _, name := range []string{cfg.Collections.Summaries, cfg.Collections.Tips} {
		col := db.Collection(name)
		indexes := []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "article_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		}
		_, err = col.Indexes().CreateMany(context.Background(), indexes)
		if err != nil {
			return err
		}
	}

	return nil
}
