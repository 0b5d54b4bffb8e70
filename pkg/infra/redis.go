package infra

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fystack/appprefs/pkg/common/config"
	"github.com/fystack/appprefs/pkg/common/logger"
	"github.com/fystack/appprefs/pkg/common/stringutils"
	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// ErrRedisNil is returned by Get/HGet when the key or field does not exist.
var ErrRedisNil = redis.Nil

// RedisClient is a custom interface that abstracts the Redis client methods.
type RedisClient interface {
	GetClient() *redis.Client
	Get(key string) (string, error)
	Set(key string, value any, expiration time.Duration) error
	Del(keys ...string) error
	HGet(key, field string) (string, error)
	HSet(key, field string, value any) error
	Close() error
}

// RedisWrapper is a struct that implements the RedisClient interface using a Redis client pointer.
type RedisWrapper struct {
	client *redis.Client
}

func getTlsConfig(caCertPath string, clientCertPath string, clientKeyPath string) (*tls.Config, error) {
	// Load the CA cert
	caCert, err := os.ReadFile(stringutils.ExpandTildePath(caCertPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to append CA cert to pool")
	}

	cert, err := tls.LoadX509KeyPair(
		stringutils.ExpandTildePath(clientCertPath),
		stringutils.ExpandTildePath(clientKeyPath),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caCertPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// NewRedisClient connects to redis and verifies the connection with a PING.
func NewRedisClient(cfg config.RedisConfig) (RedisClient, error) {
	opts := &redis.Options{
		Addr:            cfg.URL,
		Password:        cfg.Password,
		DB:              0,
		PoolSize:        4,
		ConnMaxIdleTime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     redisOpTimeout,
		WriteTimeout:    redisOpTimeout,
	}

	if cfg.MTLS {
		tlsCfg, err := getTlsConfig(cfg.TLS.CACert, cfg.TLS.ClientCert, cfg.TLS.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config for redis client: %w", err)
		}
		opts.TLSConfig = tlsCfg
	}

	client := redis.NewClient(opts)

	// verify connectivity right away
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Debug("Connected to Redis", "addr", cfg.URL, "pong", pong)

	return &RedisWrapper{client: client}, nil
}

func (rw *RedisWrapper) GetClient() *redis.Client {
	return rw.client
}

func (rw *RedisWrapper) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return rw.client.Get(ctx, key).Result()
}

func (rw *RedisWrapper) Set(key string, value any, expiration time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return rw.client.Set(ctx, key, value, expiration).Err()
}

func (rw *RedisWrapper) Del(keys ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return rw.client.Del(ctx, keys...).Err()
}

func (rw *RedisWrapper) HGet(key, field string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return rw.client.HGet(ctx, key, field).Result()
}

func (rw *RedisWrapper) HSet(key, field string, value any) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return rw.client.HSet(ctx, key, field, value).Err()
}

func (rw *RedisWrapper) Close() error {
	return rw.client.Close()
}
