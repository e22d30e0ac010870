package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	studentsCollection   = "students"
	attendanceCollection = "attendance"
)

// ErrStudentNotFound is returned by roster lookups for unknown UIDs.
var ErrStudentNotFound = errors.New("student not found in roster")

// ErrDuplicateRecord is returned when an insert violates the (uid, date)
// uniqueness constraint on the attendance collection.
var ErrDuplicateRecord = errors.New("attendance record already exists")

// Store owns the shared MongoDB client. The driver pools connections
// internally, so a single Store is safe to share across concurrent requests.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB and verifies the connection with a ping.
func NewStore(ctx context.Context, uri string, dbName string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Roster returns the roster repository bound to this store.
func (s *Store) Roster() *RosterRepository {
	return &RosterRepository{coll: s.db.Collection(studentsCollection)}
}

// Attendance returns the attendance repository bound to this store.
func (s *Store) Attendance() *AttendanceRepository {
	return &AttendanceRepository{coll: s.db.Collection(attendanceCollection)}
}

// EnsureIndexes creates the indexes both repositories rely on: the unique
// roster uid index, the unique (uid, date) attendance index, and the
// (date, section) query index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := s.Roster().ensureIndexes(ctx); err != nil {
		return err
	}
	return s.Attendance().ensureIndexes(ctx)
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
