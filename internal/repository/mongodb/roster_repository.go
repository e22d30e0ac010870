package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inst346/attendance/internal/domain/models"
)

// RosterReader is the read-only roster surface consumed by the services.
type RosterReader interface {
	FindByUID(ctx context.Context, uid string) (*models.Student, error)
	ListAll(ctx context.Context) ([]models.Student, error)
}

// UpsertResult summarizes a roster bulk upsert for the import tooling.
type UpsertResult struct {
	Matched  int64
	Upserted int64
	Modified int64
}

// RosterRepository implements roster access on the students collection.
type RosterRepository struct {
	coll *mongo.Collection
}

// FindByUID returns the student with the given uid, or ErrStudentNotFound.
func (r *RosterRepository) FindByUID(ctx context.Context, uid string) (*models.Student, error) {
	var student models.Student
	err := r.coll.FindOne(ctx, bson.M{"uid": uid}).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find student %s: %w", uid, err)
	}
	return &student, nil
}

// ListAll returns the full roster in insertion order.
func (r *RosterRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer cursor.Close(ctx)

	var students []models.Student
	if err := cursor.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}
	return students, nil
}

// BulkUpsert writes the provided students keyed by uid. Re-runnable: existing
// rows are updated in place, new rows inserted.
func (r *RosterRepository) BulkUpsert(ctx context.Context, students []models.Student) (UpsertResult, error) {
	if len(students) == 0 {
		return UpsertResult{}, nil
	}

	ops := make([]mongo.WriteModel, 0, len(students))
	for _, s := range students {
		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"uid": s.UID}).
			SetUpdate(bson.M{"$set": bson.M{
				"name":    s.Name,
				"section": s.Section,
				"email":   s.Email,
			}}).
			SetUpsert(true))
	}

	res, err := r.coll.BulkWrite(ctx, ops)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("bulk upsert roster: %w", err)
	}

	return UpsertResult{
		Matched:  res.MatchedCount,
		Upserted: res.UpsertedCount,
		Modified: res.ModifiedCount,
	}, nil
}

func (r *RosterRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uid", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create roster uid index: %w", err)
	}
	return nil
}
