package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmpty means the blocking pop timed out with nothing queued.
var ErrEmpty = errors.New("queue empty")

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  -1, // BRPOP manages its own deadline
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// this ping function checks redis connectivity

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

// this closes the client

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Enqueue pushes a payload onto the named list queue.
func (c *Client) Enqueue(ctx context.Context, queue string, payload []byte) error {
	return c.redisdb.LPush(ctx, queue, payload).Err()
}

// Dequeue blocks up to timeout for the next payload. Returns ErrEmpty
// on timeout so callers can just loop.
func (c *Client) Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	res, err := c.redisdb.BRPop(ctx, timeout, queue).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}

		return nil, err
	}

	// BRPOP returns [key, value]
	if len(res) != 2 {
		return nil, ErrEmpty
	}

	return []byte(res[1]), nil
}
