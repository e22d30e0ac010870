package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inst346/attendance/internal/domain/models"
)

// AttendanceWriter is the write surface consumed by the submission validator.
type AttendanceWriter interface {
	Insert(ctx context.Context, record models.AttendanceRecord) error
}

// AttendanceReader is the read surface consumed by the stats aggregator.
type AttendanceReader interface {
	ListAll(ctx context.Context) ([]models.AttendanceRecord, error)
}

// AttendanceRepository implements attendance access on the attendance
// collection.
type AttendanceRepository struct {
	coll *mongo.Collection
}

// Insert writes one record. The unique (uid, date) index makes concurrent
// duplicate submissions race-free: exactly one insert wins and the others
// observe ErrDuplicateRecord.
func (r *AttendanceRepository) Insert(ctx context.Context, record models.AttendanceRecord) error {
	_, err := r.coll.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateRecord
	}
	if err != nil {
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

// ListAll returns every attendance record.
func (r *AttendanceRepository) ListAll(ctx context.Context) ([]models.AttendanceRecord, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.AttendanceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode attendance: %w", err)
	}
	return records, nil
}

// DeleteAll removes every attendance record. Only the test-data tooling
// calls this.
func (r *AttendanceRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete attendance: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *AttendanceRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "uid", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "date", Value: 1}, {Key: "section", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create attendance indexes: %w", err)
	}
	return nil
}
