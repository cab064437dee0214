package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type adminDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d *adminDocument) toDomain() *domain.Admin {
	return &domain.Admin{
		ID:           domain.AdminID(d.ID.Hex()),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

type mongoAdminRepository struct {
	collection *mongo.Collection
}

func NewMongoAdminRepository(db *mongo.Database) AdminRepository {
	return &mongoAdminRepository{
		collection: db.Collection("admins"),
	}
}

func (m *mongoAdminRepository) findOne(ctx context.Context, filter bson.M) (*domain.Admin, error) {
	var doc adminDocument
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *mongoAdminRepository) FindByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	return m.findOne(ctx, bson.M{"username": username})
}

func (m *mongoAdminRepository) FindByID(ctx context.Context, id domain.AdminID) (*domain.Admin, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return nil, ErrAdminNotFound
	}
	return m.findOne(ctx, bson.M{"_id": oid})
}

func (m *mongoAdminRepository) CreateAdmin(ctx context.Context, admin *domain.Admin) error {
	doc := adminDocument{
		ID:           primitive.NewObjectID(),
		Username:     admin.Username,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert admin: %w", err)
	}

	admin.ID = domain.AdminID(doc.ID.Hex())
	admin.CreatedAt = doc.CreatedAt
	return nil
}

func (m *mongoAdminRepository) UpdatePassword(ctx context.Context, id domain.AdminID, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return ErrAdminNotFound
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"password_hash": passwordHash}})
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrAdminNotFound
	}
	return nil
}
