package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeviceTokenRepository defines the interface for push registration storage
type DeviceTokenRepository interface {
	Upsert(ctx context.Context, token *models.DeviceToken) error
	Delete(ctx context.Context, userID uint, token string) error
	ListByUser(ctx context.Context, userID uint) ([]models.DeviceToken, error)
	DeleteTokens(ctx context.Context, tokens []string) error
}

// MongoDeviceTokenRepository implements DeviceTokenRepository for MongoDB
type MongoDeviceTokenRepository struct {
	collection *mongo.Collection
}

// NewMongoDeviceTokenRepository creates a new MongoDeviceTokenRepository
func NewMongoDeviceTokenRepository(db *mongo.Database) *MongoDeviceTokenRepository {
	return &MongoDeviceTokenRepository{collection: db.Collection("device_tokens")}
}

// EnsureIndexes creates the unique token index and the per-user lookup index
func (r *MongoDeviceTokenRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	return err
}

// Upsert registers token for its user. A token that moves to another
// account is reassigned rather than duplicated.
func (r *MongoDeviceTokenRepository) Upsert(ctx context.Context, token *models.DeviceToken) error {
	now := time.Now().UTC()
	token.UpdatedAt = now
	update := bson.M{
		"$set": bson.M{
			"user_id":    token.UserID,
			"platform":   token.Platform,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"token": token.Token}, update, options.Update().SetUpsert(true))
	return err
}

// Delete removes one token of a user, ErrNotFound when the user does not own it
func (r *MongoDeviceTokenRepository) Delete(ctx context.Context, userID uint, token string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "token": token})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns every registered token of a user, newest first
func (r *MongoDeviceTokenRepository) ListByUser(ctx context.Context, userID uint) ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken
	findOptions := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteTokens drops tokens the push provider reported as unregistered
func (r *MongoDeviceTokenRepository) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"token": bson.M{"$in": tokens}})
	return err
}
