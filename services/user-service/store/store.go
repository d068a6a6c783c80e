package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foodshare-connect/pkg/apperror"
	"foodshare-connect/services/user-service/models"
)

// ErrNotFound is returned when a lookup matches no user.
var ErrNotFound = errors.New("user not found")

// UserStore is the persistence boundary of the user service. The Mongo
// implementation backs production; tests substitute a fake.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	Leaderboard(ctx context.Context) ([]models.User, error)
	Ping(ctx context.Context) error
}

const usersCollection = "users"

type MongoStore struct {
	db    *mongo.Database
	users *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db, users: db.Collection(usersCollection)}
}

// FindByEmail returns the full record, password hash included, for the
// login credential check.
func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns the client-facing projection, password hash excluded.
// A malformed id surfaces as a cast error for the normalization layer.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, &apperror.CastError{Field: "_id", Value: id}
	}

	projection := bson.D{
		{Key: "name", Value: 1},
		{Key: "role", Value: 1},
		{Key: "badge", Value: 1},
		{Key: "point", Value: 1},
		{Key: "email", Value: 1},
		{Key: "mobile", Value: 1},
		{Key: "city", Value: 1},
		{Key: "age", Value: 1},
	}

	var user models.User
	err = s.users.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(projection)).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Insert persists a new user. Duplicate email or mobile comes back as
// the driver's duplicate-key error, untouched, so the normalization
// layer can name the conflicting field.
func (s *MongoStore) Insert(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := s.users.InsertOne(ctx, user)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

// Leaderboard lists volunteers sorted by completed drives.
func (s *MongoStore) Leaderboard(ctx context.Context) ([]models.User, error) {
	projection := bson.D{
		{Key: "name", Value: 1},
		{Key: "city", Value: 1},
		{Key: "badge", Value: 1},
		{Key: "ndrive", Value: 1},
	}
	opts := options.Find().
		SetProjection(projection).
		SetSort(bson.D{{Key: "ndrive", Value: -1}})

	cursor, err := s.users.Find(ctx, bson.M{"role": models.RoleVolunteer}, opts)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode volunteers: %w", err)
	}
	return users, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}
