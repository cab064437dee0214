package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultMaxPoolSize = 100
	defaultMinPoolSize = 10
	appName            = "go-shop"
)

// MongoOptions describes how the shop connects to MongoDB. Zero pool sizes
// fall back to the defaults.
type MongoOptions struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
}

func (o MongoOptions) withDefaults() MongoOptions {
	if o.MaxPoolSize == 0 {
		o.MaxPoolSize = defaultMaxPoolSize
	}
	if o.MinPoolSize == 0 {
		o.MinPoolSize = min(defaultMinPoolSize, o.MaxPoolSize)
	}
	return o
}

func clientOptions(o MongoOptions) (*options.ClientOptions, error) {
	o = o.withDefaults()
	if o.URI == "" {
		return nil, errors.New("mongo URI is empty")
	}
	if o.Database == "" {
		return nil, errors.New("mongo database name is empty")
	}
	if o.MinPoolSize > o.MaxPoolSize {
		return nil, fmt.Errorf("mongo min pool size %d exceeds max pool size %d", o.MinPoolSize, o.MaxPoolSize)
	}
	return options.Client().
		ApplyURI(o.URI).
		SetAppName(appName).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(o.MaxPoolSize).
		SetMinPoolSize(o.MinPoolSize), nil
}

// ConnectMongoDB connects, pings the primary and returns the shop database.
// The client is disconnected again if the ping fails.
func ConnectMongoDB(ctx context.Context, o MongoOptions) (*mongo.Database, error) {
	clientOpts, err := clientOptions(o)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client.Database(o.Database), nil
}
