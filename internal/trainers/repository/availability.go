package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	trainererrors "fitbook/internal/trainers/errors"
	"fitbook/pkg/config"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AvailabilityCollectionName = "Availabilities"

// AvailabilityRepository is the read-only registry of trainer windows. A
// window applies to a date either through an exact date match or through its
// recurring weekday.
type AvailabilityRepository interface {
	FindByID(ctx context.Context, id string) (*model.Availability, error)
	FindForDate(ctx context.Context, trainerID string, date time.Time, weekday string) ([]*model.Availability, error)
}

type mongoAvailabilityRepository struct {
	collection *mongo.Collection
}

func NewMongoAvailabilityRepository(cfg *config.Config) AvailabilityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAvailabilityRepository{
		collection: db.Collection(AvailabilityCollectionName),
	}
}

func (r *mongoAvailabilityRepository) FindByID(ctx context.Context, id string) (*model.Availability, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", trainererrors.ErrInvalidID, id)
	}

	var availability model.Availability
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&availability)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, trainererrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find availability: %w", err)
	}

	return &availability, nil
}

func (r *mongoAvailabilityRepository) FindForDate(ctx context.Context, trainerID string, date time.Time, weekday string) ([]*model.Availability, error) {
	filter := bson.M{
		"trainer_id": trainerID,
		"active":     true,
		"$or": []bson.M{
			{"date": date},
			{"date": bson.M{"$exists": false}, "weekday": weekday},
			{"date": nil, "weekday": weekday},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availabilities: %w", err)
	}
	defer cursor.Close(ctx)

	var availabilities []*model.Availability
	if err = cursor.All(ctx, &availabilities); err != nil {
		return nil, fmt.Errorf("failed to decode availabilities: %w", err)
	}

	return availabilities, nil
}
