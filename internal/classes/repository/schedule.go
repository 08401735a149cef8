package repository

import (
	"context"
	"errors"
	"fmt"

	classerrors "fitbook/internal/classes/errors"
	"fitbook/pkg/config"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const ScheduleCollectionName = "Class_schedules"

// ScheduleRepository is the read-only registry of class schedules. The
// booking workflow re-fetches through it inside the transaction so capacity
// decisions never rest on a pre-lock read.
type ScheduleRepository interface {
	FindByID(ctx context.Context, id string) (*model.ClassSchedule, error)
	FindActive(ctx context.Context, weekday string) ([]*model.ClassSchedule, error)
}

type mongoScheduleRepository struct {
	collection *mongo.Collection
}

func NewMongoScheduleRepository(cfg *config.Config) ScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleRepository{
		collection: db.Collection(ScheduleCollectionName),
	}
}

func (r *mongoScheduleRepository) FindByID(ctx context.Context, id string) (*model.ClassSchedule, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", classerrors.ErrInvalidID, id)
	}

	var schedule model.ClassSchedule
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, classerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find class schedule: %w", err)
	}

	return &schedule, nil
}

func (r *mongoScheduleRepository) FindActive(ctx context.Context, weekday string) ([]*model.ClassSchedule, error) {
	filter := bson.M{"active": true}
	if weekday != "" {
		filter["weekday"] = weekday
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find class schedules: %w", err)
	}
	defer cursor.Close(ctx)

	var schedules []*model.ClassSchedule
	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("failed to decode class schedules: %w", err)
	}

	return schedules, nil
}
