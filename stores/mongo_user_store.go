// Package stores implements the primary user storage collaborator over
// MongoDB.
package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/princinho/sahoaccounts/models"
	"github.com/princinho/sahoaccounts/services"
	"github.com/princinho/sahoaccounts/utils"
)

type MongoUserStore struct {
	col *mongo.Collection
}

var _ services.UserStore = (*MongoUserStore)(nil)

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection("users")}
}

// EnsureIndexes creates the unique email index. The index is what turns
// a concurrent-activation race into a clean duplicate error instead of
// two accounts.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, services.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, services.ErrUserNotFound
	}
	var user models.User
	err = s.col.FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, services.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create persists a new user. The raw password is hashed here; social
// sign-ins pass an empty password and get no credential hash at all.
func (s *MongoUserStore) Create(ctx context.Context, params services.CreateUserParams) (*models.User, error) {
	now := time.Now().UTC()
	user := models.User{
		ID:        bson.NewObjectID(),
		Name:      params.Name,
		Email:     params.Email,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if params.Password != "" {
		hash, err := utils.HashPassword(params.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if params.AvatarURL != "" {
		user.Avatar = &models.Avatar{URL: params.AvatarURL}
	}

	if _, err := s.col.InsertOne(ctx, user); err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, services.ErrDuplicateEmail
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) ComparePassword(user *models.User, password string) bool {
	if user.PasswordHash == "" {
		return false
	}
	return utils.CheckPassword(user.PasswordHash, password) == nil
}

func (s *MongoUserStore) UpdateInfo(ctx context.Context, id string, params services.UpdateUserParams) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if params.Name != nil {
		set["name"] = *params.Name
	}
	if params.Email != nil {
		set["email"] = *params.Email
	}
	if err := s.updateByID(ctx, id, bson.M{"$set": set}); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *MongoUserStore) UpdatePassword(ctx context.Context, id string, newPassword string) error {
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{
		"passwordHash": hash,
		"updatedAt":    time.Now().UTC(),
	}})
}

func (s *MongoUserStore) UpdateAvatar(ctx context.Context, id string, avatar *models.Avatar) (*models.User, error) {
	err := s.updateByID(ctx, id, bson.M{"$set": bson.M{
		"avatar":    avatar,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

// List returns all users, newest first.
func (s *MongoUserStore) List(ctx context.Context) ([]*models.User, error) {
	cursor, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoUserStore) updateByID(ctx context.Context, id string, update bson.M) error {
	objID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return services.ErrUserNotFound
	}
	res, err := s.col.UpdateByID(ctx, objID, update)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return services.ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrUserNotFound
	}
	return nil
}
