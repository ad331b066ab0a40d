package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gomodule/redigo/redis"
	rejson "github.com/nitishm/go-rejson/v4"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "cowin:response:"

type RedisConnection struct {
	Connection *goredis.Client
}

func CreateConnection(hostname, password string, port int) (*RedisConnection, error) {
	conn := goredis.NewClient(&goredis.Options{
		Addr:     hostname + ":" + strconv.Itoa(port),
		Password: password,
		DB:       0,
	})

	if err := conn.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s:%d: %w", hostname, port, err)
	}
	return &RedisConnection{Connection: conn}, nil
}

func (c *RedisConnection) Close() error {
	return c.Connection.Close()
}

// Redis stores responses as RedisJSON documents with a key expiry, so
// separate invocations share the freshness window.
type Redis struct {
	conn    *RedisConnection
	handler *rejson.Handler
}

func NewRedis(conn *RedisConnection) *Redis {
	start := time.Now()
	handler := rejson.NewReJSONHandler()
	handler.SetGoRedisClient(conn.Connection)
	log.Debug().Dur("elapsed", time.Since(start)).Msg("redis json handler created")
	return &Redis{conn: conn, handler: handler}
}

// Get reads the document with a plain JSON.GET. The rejson handler converts
// replies rune by rune into single bytes, which mangles non-ASCII names.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := redis.Bytes(r.conn.Connection.Do(ctx, "JSON.GET", keyPrefix+key, ".").Result())
	if errors.Is(err, goredis.Nil) || errors.Is(err, redis.ErrNil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("json get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	result, err := r.handler.JSONSet(keyPrefix+key, ".", json.RawMessage(value))
	if err != nil {
		return fmt.Errorf("json set %s: %w", key, err)
	}
	if status, ok := result.(string); !ok || status != "OK" {
		return fmt.Errorf("json set %s: unexpected reply %v", key, result)
	}

	if err := r.conn.Connection.Expire(ctx, keyPrefix+key, ttl).Err(); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	return nil
}
