package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name    string
		in      MongoOptions
		wantMax uint64
		wantMin uint64
		wantErr bool
	}{
		{name: "defaults", in: MongoOptions{URI: "mongodb://localhost:27017", Database: "shop"}, wantMax: 100, wantMin: 10},
		{name: "custom", in: MongoOptions{URI: "mongodb://localhost:27017", Database: "shop", MaxPoolSize: 20, MinPoolSize: 2}, wantMax: 20, wantMin: 2},
		{name: "small max clamps default min", in: MongoOptions{URI: "mongodb://localhost:27017", Database: "shop", MaxPoolSize: 4}, wantMax: 4, wantMin: 4},
		{name: "min above max", in: MongoOptions{URI: "mongodb://localhost:27017", Database: "shop", MaxPoolSize: 4, MinPoolSize: 8}, wantErr: true},
		{name: "missing uri", in: MongoOptions{Database: "shop"}, wantErr: true},
		{name: "missing database", in: MongoOptions{URI: "mongodb://localhost:27017"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := clientOptions(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, opts.MaxPoolSize)
			require.NotNil(t, opts.MinPoolSize)
			require.NotNil(t, opts.AppName)
			assert.Equal(t, tt.wantMax, *opts.MaxPoolSize)
			assert.Equal(t, tt.wantMin, *opts.MinPoolSize)
			assert.Equal(t, "go-shop", *opts.AppName)
		})
	}
}
