package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	classerrors "fitbook/internal/classes/errors"
	"fitbook/pkg/config"
	mongodb "fitbook/pkg/db/mongo"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const RegistrationCollectionName = "Registrations"

// RegistrationRepository owns the class side of the reservation ledger.
// Mutating callers run inside ExecuteTransaction while holding the schedule's
// slot lock.
type RegistrationRepository interface {
	Create(ctx context.Context, registration *model.Registration) error
	FindByID(ctx context.Context, id string) (*model.Registration, error)
	FindActiveByMemberAndSchedule(ctx context.Context, memberID, scheduleID string, onDate time.Time) (*model.Registration, error)
	CountActive(ctx context.Context, scheduleID string, onDate time.Time) (int64, error)
	UpdateStatus(ctx context.Context, id, status string, endDate *time.Time) error
	FindByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Registration, int64, error)
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

type mongoRegistrationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongodb.TransactionManager
}

func NewMongoRegistrationRepository(cfg *config.Config) RegistrationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRegistrationRepository{
		cfg:        cfg,
		collection: db.Collection(RegistrationCollectionName),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoRegistrationRepository) Create(ctx context.Context, registration *model.Registration) error {
	registration.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, registration)
	if err != nil {
		return fmt.Errorf("failed to create registration: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		registration.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRegistrationRepository) FindByID(ctx context.Context, id string) (*model.Registration, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", classerrors.ErrInvalidID, id)
	}

	var registration model.Registration
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&registration)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, classerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}

	return &registration, nil
}

// coveringFilter matches registrations whose span covers onDate and whose
// status still counts toward capacity.
func coveringFilter(onDate time.Time) bson.M {
	return bson.M{
		"status":     model.RegistrationActive,
		"start_date": bson.M{"$lte": onDate},
		"$or": []bson.M{
			{"end_date": bson.M{"$exists": false}},
			{"end_date": nil},
			{"end_date": bson.M{"$gte": onDate}},
		},
	}
}

func (r *mongoRegistrationRepository) FindActiveByMemberAndSchedule(ctx context.Context, memberID, scheduleID string, onDate time.Time) (*model.Registration, error) {
	filter := coveringFilter(onDate)
	filter["member_id"] = memberID
	filter["schedule_id"] = scheduleID

	var registration model.Registration
	err := r.collection.FindOne(ctx, filter).Decode(&registration)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, classerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active registration: %w", err)
	}

	return &registration, nil
}

func (r *mongoRegistrationRepository) CountActive(ctx context.Context, scheduleID string, onDate time.Time) (int64, error) {
	filter := coveringFilter(onDate)
	filter["schedule_id"] = scheduleID

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count active registrations: %w", err)
	}
	return count, nil
}

func (r *mongoRegistrationRepository) UpdateStatus(ctx context.Context, id, status string, endDate *time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", classerrors.ErrInvalidID, id)
	}

	update := bson.M{"status": status}
	if endDate != nil {
		update["end_date"] = *endDate
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("failed to update registration: %w", err)
	}
	if result.MatchedCount == 0 {
		return classerrors.ErrNotFound
	}

	return nil
}

func (r *mongoRegistrationRepository) FindByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Registration, int64, error) {
	filter := bson.M{"member_id": memberID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_date", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find registrations: %w", err)
	}
	defer cursor.Close(ctx)

	var registrations []*model.Registration
	if err = cursor.All(ctx, &registrations); err != nil {
		return nil, 0, fmt.Errorf("failed to decode registrations: %w", err)
	}

	return registrations, total, nil
}

func (r *mongoRegistrationRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
