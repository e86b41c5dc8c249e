package config

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
// Unlike a hosted backend the desktop shell must come up without Redis, so
// this gives up after maxAttempts and returns the last error.
func ConnectRedisWithRetry(ctx context.Context, redisAddr string, maxAttempts int) error {
	logger := GetLogger()
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: "",
			DB:       0, // use default DB
			PoolSize: 10,
		})
		if err := client.Ping(ctx).Err(); err == nil {
			rdb = client
			locker = redislock.New(rdb)
			logger.WithFields(logrus.Fields{"attempt": attempt, "addr": redisAddr}).Info("connected to redis")
			return nil
		} else {
			lastErr = err
			_ = client.Close()
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 4))
		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"addr":    redisAddr,
			"retry":   sleep.String(),
		}).Warn("failed to connect redis: " + lastErr.Error())
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
	return lastErr
}

func CloseRedis() error {
	if rdb == nil {
		return nil
	}
	err := rdb.Close()
	rdb = nil
	locker = nil
	return err
}
