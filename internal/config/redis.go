package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server behind caching and rate limiting.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,default=true"`
	Addr     string `env:"REDIS_ADDR,default=localhost:6379"`
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
	TLS      bool   `env:"REDIS_TLS,default=false"`
}

// address prefers REDIS_HOST/REDIS_PORT over REDIS_ADDR.
func (c RedisConfig) address() string {
	if c.Host != "" && c.Port != "" {
		return c.Host + ":" + c.Port
	}
	return c.Addr
}

// NewRedisClient connects to Redis. It returns nil when Redis is disabled or
// unreachable; callers then run without caching and rate limiting.
func NewRedisClient(c RedisConfig) *redis.Client {
	if !c.Enabled {
		return nil
	}
	var tlsConf *tls.Config
	if c.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      c.address(),
		Password:  c.Password,
		DB:        c.DB,
		TLSConfig: tlsConf,
	})
	// Ping the server with a short timeout.  Return nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
