//go:build integration

// Package containers starts throwaway backing services for integration tests.
package containers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisOptions tunes the Redis test container.
type RedisOptions struct {
	// ImageTag specifies the Redis version (default: "7-alpine")
	ImageTag string
	// StartupTimeout for container initialization (default: 60 seconds)
	StartupTimeout time.Duration
}

func (o *RedisOptions) withDefaults() RedisOptions {
	out := RedisOptions{ImageTag: "7-alpine", StartupTimeout: 60 * time.Second}
	if o == nil {
		return out
	}
	if o.ImageTag != "" {
		out.ImageTag = o.ImageTag
	}
	if o.StartupTimeout > 0 {
		out.StartupTimeout = o.StartupTimeout
	}
	return out
}

// Redis is a running Redis container reachable at Host:Port.
type Redis struct {
	container *redis.RedisContainer
	Host      string
	Port      int
}

// StartRedis starts a Redis container and registers its termination with
// t.Cleanup. The test is skipped when no Docker daemon is reachable.
func StartRedis(ctx context.Context, t *testing.T, opts *RedisOptions) *Redis {
	t.Helper()

	skipWithoutDocker(ctx, t)

	o := opts.withDefaults()
	c, err := redis.Run(ctx,
		fmt.Sprintf("redis:%s", o.ImageTag),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(o.StartupTimeout),
		),
	)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := c.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}

	t.Logf("redis container listening at %s:%d", host, port.Int())
	return &Redis{container: c, Host: host, Port: port.Int()}
}

func skipWithoutDocker(ctx context.Context, t *testing.T) {
	t.Helper()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		t.Skipf("docker provider unavailable: %v", err)
	}
	defer provider.Close()

	if _, err := provider.DaemonHost(ctx); err != nil {
		t.Skipf("docker daemon unreachable: %v", err)
	}
}
