package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mediavault/portal/internal/core/domain"
)

const activityCollection = "activity_log"

// ActivityRepository implements ports.ActivityRepository using MongoDB.
type ActivityRepository struct {
	coll *mongo.Collection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{coll: db.Collection(activityCollection)}
}

// EnsureIndexes creates the lookup index by visitor and time.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "visitor_id", Value: 1}, {Key: "at", Value: -1}},
		Options: options.Index().SetName("visitor_at"),
	})
	if err != nil {
		return fmt.Errorf("activity indexes: %w", err)
	}
	return nil
}

// Insert persists an activity entry to the audit collection.
func (r *ActivityRepository) Insert(ctx context.Context, a *domain.Activity) error {
	doc := bson.M{
		"visitor_id":  a.VisitorID,
		"action":      a.Action,
		"outcome":     a.Outcome,
		"at":          a.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if a.UserID != "" {
		doc["user_id"] = a.UserID
	}
	if a.Message != "" {
		doc["message"] = a.Message
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}

// Recent returns the latest entries for a visitor, newest first.
func (r *ActivityRepository) Recent(ctx context.Context, visitorID string, limit int64) ([]domain.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{"visitor_id": visitorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find activity: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.Activity{}
	for cur.Next(ctx) {
		var doc struct {
			VisitorID string    `bson:"visitor_id"`
			UserID    string    `bson:"user_id"`
			Action    string    `bson:"action"`
			Outcome   string    `bson:"outcome"`
			Message   string    `bson:"message"`
			At        time.Time `bson:"at"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode activity: %w", err)
		}
		out = append(out, domain.Activity{
			VisitorID: doc.VisitorID,
			UserID:    doc.UserID,
			Action:    doc.Action,
			Outcome:   doc.Outcome,
			Message:   doc.Message,
			At:        doc.At,
		})
	}
	return out, cur.Err()
}
