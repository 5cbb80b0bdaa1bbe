package config

import (
	"Skirmish/services/redis"
	"log"
	"os"
)

// ConnectRedis connects to the Redis instance configured via REDIS_URL
func ConnectRedis() (*redis.RedisClient, error) {
	redisURL := os.Getenv("REDIS_URL")
	redisClient, err := redis.InitRedis(redisURL, 0)
	if err != nil {
		log.Printf("Error connecting to Redis: %v", err)
		return nil, err
	}
	log.Println("Redis connection established")
	return redisClient, nil
}
