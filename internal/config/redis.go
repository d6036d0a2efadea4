package config

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// InitRedis connects to the redis cache with a few retries. The cache
// is optional: if redis stays unreachable the service runs without it.
func InitRedis(logger *logrus.Logger) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	const maxRetries = 5
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	for i := 0; i < maxRetries; i++ {
		if _, err := client.Ping(context.Background()).Result(); err == nil {
			return client
		} else {
			logger.WithFields(logrus.Fields{
				"Attempt": i + 1,
				"Error":   err,
			}).Warn("Failed to connect to redis")
		}
		time.Sleep(2 * time.Second)
	}
	client.Close()
	logger.Warn("Running without redis cache")
	return nil
}
