package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	trainererrors "fitbook/internal/trainers/errors"
	"fitbook/pkg/config"
	mongodb "fitbook/pkg/db/mongo"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SessionCollectionName = "Sessions"

// SessionRepository owns the trainer side of the reservation ledger. Both
// pending and confirmed sessions count toward the trainer's concurrent load;
// only a rejection frees the slot.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByID(ctx context.Context, id string) (*model.Session, error)
	CountOverlapping(ctx context.Context, trainerID string, start, end time.Time) (int64, error)
	CountMemberOverlapping(ctx context.Context, memberID string, start, end time.Time) (int64, error)
	UpdateStatus(ctx context.Context, id, status, rejectReason string) error
	FindByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Session, int64, error)
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

type mongoSessionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongodb.TransactionManager
}

func NewMongoSessionRepository(cfg *config.Config) SessionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSessionRepository{
		cfg:        cfg,
		collection: db.Collection(SessionCollectionName),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoSessionRepository) Create(ctx context.Context, session *model.Session) error {
	session.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", trainererrors.ErrInvalidID, id)
	}

	var session model.Session
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, trainererrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return &session, nil
}

// overlapFilter matches capacity-holding sessions intersecting [start, end).
// Intervals are half-open so back-to-back sessions never collide.
func overlapFilter(start, end time.Time) bson.M {
	return bson.M{
		"status":     bson.M{"$in": []string{model.SessionPending, model.SessionConfirmed}},
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}
}

func (r *mongoSessionRepository) CountOverlapping(ctx context.Context, trainerID string, start, end time.Time) (int64, error) {
	filter := overlapFilter(start, end)
	filter["trainer_id"] = trainerID

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping sessions: %w", err)
	}
	return count, nil
}

func (r *mongoSessionRepository) CountMemberOverlapping(ctx context.Context, memberID string, start, end time.Time) (int64, error) {
	filter := overlapFilter(start, end)
	filter["member_id"] = memberID

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count member sessions: %w", err)
	}
	return count, nil
}

func (r *mongoSessionRepository) UpdateStatus(ctx context.Context, id, status, rejectReason string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", trainererrors.ErrInvalidID, id)
	}

	update := bson.M{"status": status}
	if rejectReason != "" {
		update["reject_reason"] = rejectReason
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.MatchedCount == 0 {
		return trainererrors.ErrNotFound
	}

	return nil
}

func (r *mongoSessionRepository) FindByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Session, int64, error) {
	filter := bson.M{"member_id": memberID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, 0, fmt.Errorf("failed to decode sessions: %w", err)
	}

	return sessions, total, nil
}

func (r *mongoSessionRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
