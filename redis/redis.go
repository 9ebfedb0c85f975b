package redis

import (
	"collaborative-notes/internal/config"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var Ctx = context.Background()
var RedisClient *redis.Client

var ErrSessionNotFound = errors.New("refresh session not found")

func InitRedis() {
	RedisClient = redis.NewClient(&redis.Options{
		Addr: config.AppConfig.RedisAddress,
	})
	_, err := RedisClient.Ping(Ctx).Result()
	if err != nil {
		log.Println("Redis not available. Running without Redis.")
		RedisClient = nil
		return
	}

	log.Println("Redis connected successfully.")
}

func refreshKey(userID uint64) string {
	return fmt.Sprintf("refresh:%d", userID)
}

// StoreRefreshToken keeps the latest refresh token per user, so issuing a
// new one (or logging out) invalidates the previous session.
func StoreRefreshToken(userID uint64, token string, ttl time.Duration) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Set(Ctx, refreshKey(userID), token, ttl).Err()
}

// ValidateRefreshToken checks the presented token against the stored one.
// Without Redis the signature check on the JWT is the only gate.
func ValidateRefreshToken(userID uint64, token string) error {
	if RedisClient == nil {
		return nil
	}
	stored, err := RedisClient.Get(Ctx, refreshKey(userID)).Result()
	if err == redis.Nil {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	if stored != token {
		return ErrSessionNotFound
	}
	return nil
}

func RevokeRefreshToken(userID uint64) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Del(Ctx, refreshKey(userID)).Err()
}
