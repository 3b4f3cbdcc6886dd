package database

import (
	"github.com/redis/go-redis/v9"
)

// NewRedis creates the pub/sub client used for ingest event signaling.
func NewRedis(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
