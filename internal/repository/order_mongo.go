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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type lineItemDocument struct {
	ProductID primitive.ObjectID `bson:"product_id"`
	Quantity  int                `bson:"quantity"`
}

type orderDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	CustomerName string             `bson:"customer_name"`
	Phone        string             `bson:"phone"`
	Address      string             `bson:"address"`
	Items        []lineItemDocument `bson:"products"`
	TotalAmount  float64            `bson:"total_amount"`
	Status       string             `bson:"status"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d *orderDocument) toDomain() *domain.Order {
	items := make([]domain.LineItem, len(d.Items))
	for i, item := range d.Items {
		items[i] = domain.LineItem{
			ProductID: domain.ProductID(item.ProductID.Hex()),
			Quantity:  item.Quantity,
		}
	}
	return &domain.Order{
		ID:           domain.OrderID(d.ID.Hex()),
		CustomerName: d.CustomerName,
		Phone:        d.Phone,
		Address:      d.Address,
		Items:        items,
		TotalAmount:  d.TotalAmount,
		Status:       domain.OrderStatus(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

func orderObjectID(id domain.OrderID) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return primitive.NilObjectID, ErrOrderNotFound
	}
	return oid, nil
}

func (m *mongoOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	items := make([]lineItemDocument, len(order.Items))
	for i, item := range order.Items {
		pid, err := productObjectID(item.ProductID)
		if err != nil {
			return fmt.Errorf("line item %d: %w", i, err)
		}
		items[i] = lineItemDocument{ProductID: pid, Quantity: item.Quantity}
	}

	now := time.Now().UTC()
	doc := orderDocument{
		ID:           primitive.NewObjectID(),
		CustomerName: order.CustomerName,
		Phone:        order.Phone,
		Address:      order.Address,
		Items:        items,
		TotalAmount:  order.TotalAmount,
		Status:       string(order.Status),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	order.ID = domain.OrderID(doc.ID.Hex())
	order.CreatedAt = now
	order.UpdatedAt = now
	return nil
}

func (m *mongoOrderRepository) GetOrder(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	oid, err := orderObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc orderDocument
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *mongoOrderRepository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration error: %w", err)
	}
	return orders, nil
}

func (m *mongoOrderRepository) UpdateOrder(ctx context.Context, id domain.OrderID, patch domain.OrderPatch) (*domain.Order, error) {
	if patch.IsEmpty() {
		return m.GetOrder(ctx, id)
	}

	oid, err := orderObjectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.CustomerName != nil {
		set["customer_name"] = *patch.CustomerName
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Address != nil {
		set["address"] = *patch.Address
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc orderDocument
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return doc.toDomain(), nil
}
