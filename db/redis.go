package db

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	rdb   *redis.Client
	rOnce sync.Once

	Ctx = context.Background()
)

// ConnectRedis opens the shared redis client used for OTP codes and the
// refresh-token blacklist.
func ConnectRedis(addr, password string) (*redis.Client, error) {
	var err error

	rOnce.Do(func() {
		rdb = redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		})

		err = rdb.Ping(Ctx).Err()
	})

	if err != nil {
		return nil, err
	}

	return rdb, nil
}

// Redis returns the shared client. Tests may replace it via SetRedis.
func Redis() *redis.Client {
	return rdb
}

func SetRedis(client *redis.Client) {
	rdb = client
}
