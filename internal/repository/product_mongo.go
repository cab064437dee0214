package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	Name                 string             `bson:"name"`
	LocalizedName        string             `bson:"localized_name"`
	Description          string             `bson:"description"`
	LocalizedDescription string             `bson:"localized_description"`
	Price                float64            `bson:"price"`
	Stock                int                `bson:"stock"`
	Image                string             `bson:"image,omitempty"`
	Category             string             `bson:"category"`
	CreatedAt            time.Time          `bson:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at"`
}

func (d *productDocument) toDomain() *domain.Product {
	return &domain.Product{
		ID:                   domain.ProductID(d.ID.Hex()),
		Name:                 d.Name,
		LocalizedName:        d.LocalizedName,
		Description:          d.Description,
		LocalizedDescription: d.LocalizedDescription,
		Price:                d.Price,
		Stock:                d.Stock,
		Image:                d.Image,
		Category:             d.Category,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection("products"),
	}
}

// productObjectID converts a product id to an ObjectID. Malformed ids cannot
// name a stored product, so they report ErrProductNotFound.
func productObjectID(id domain.ProductID) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return primitive.NilObjectID, ErrProductNotFound
	}
	return oid, nil
}

func (m *mongoProductRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]*domain.Product, 0)
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration error: %w", err)
	}

	return products, nil
}

func (m *mongoProductRepository) GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	oid, err := productObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc productDocument
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return doc.toDomain(), nil
}

func (m *mongoProductRepository) GetProducts(ctx context.Context, ids []domain.ProductID) (map[domain.ProductID]*domain.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := productObjectID(id); err == nil {
			oids = append(oids, oid)
		}
	}

	result := make(map[domain.ProductID]*domain.Product, len(oids))
	if len(oids) == 0 {
		return result, nil
	}

	cursor, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		p := doc.toDomain()
		result[p.ID] = p
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration error: %w", err)
	}

	return result, nil
}

func (m *mongoProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	doc := productDocument{
		ID:                   primitive.NewObjectID(),
		Name:                 product.Name,
		LocalizedName:        product.LocalizedName,
		Description:          product.Description,
		LocalizedDescription: product.LocalizedDescription,
		Price:                product.Price,
		Stock:                product.Stock,
		Image:                product.Image,
		Category:             product.Category,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	product.ID = domain.ProductID(doc.ID.Hex())
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

func productPatchSet(patch domain.ProductPatch) bson.M {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.LocalizedName != nil {
		set["localized_name"] = *patch.LocalizedName
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.LocalizedDescription != nil {
		set["localized_description"] = *patch.LocalizedDescription
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	return set
}

func (m *mongoProductRepository) UpdateProduct(ctx context.Context, id domain.ProductID, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.IsEmpty() {
		return m.GetProduct(ctx, id)
	}

	oid, err := productObjectID(id)
	if err != nil {
		return nil, err
	}

	set := productPatchSet(patch)
	set["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return doc.toDomain(), nil
}

func (m *mongoProductRepository) DeleteProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	oid, err := productObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc productDocument
	err = m.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	return doc.toDomain(), nil
}

func (m *mongoProductRepository) SetStock(ctx context.Context, id domain.ProductID, stock int) error {
	if stock < 0 {
		return ErrInvalidQuantity
	}
	oid, err := productObjectID(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"stock": stock, "updated_at": time.Now().UTC()}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (m *mongoProductRepository) DecrementStock(ctx context.Context, id domain.ProductID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	oid, err := productObjectID(id)
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":   oid,
		"stock": bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// The guard did not match: either the product is gone or its stock is short.
	count, err := m.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}

func (m *mongoProductRepository) IncrementStock(ctx context.Context, id domain.ProductID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	oid, err := productObjectID(id)
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":   oid,
		"stock": bson.M{"$lte": math.MaxInt64 - int64(quantity)},
	}
	update := bson.M{
		"$inc": bson.M{"stock": quantity},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := m.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return ErrProductNotFound
	}
	return ErrInvalidQuantity
}
