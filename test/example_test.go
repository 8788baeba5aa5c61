package test

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/credential/memory"
)

// ExampleNew builds an engine over Redis and the in-memory store.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	cfg := credauth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("a-32-byte-or-longer-hs256-secret")

	engine, err := credauth.New().
		WithConfig(cfg).
		WithStore(memory.New()).
		WithRedis(rdb).
		Build()
	if err != nil {
		return
	}
	defer engine.Close()
}

// ExampleEngine_Login shows the client IP travelling on the context and
// branching on the error taxonomy.
func ExampleEngine_Login() {
	var engine *credauth.Engine
	ctx := credauth.WithClientIP(context.Background(), "203.0.113.7")

	_, err := engine.Login(ctx, credauth.LoginRequest{Identifier: "alice@example.com", Password: "secret"})
	switch {
	case errors.Is(err, credauth.ErrRateLimitExceeded):
		fmt.Println("slow down")
	case errors.Is(err, credauth.ErrEngineNotReady):
		fmt.Println("not built")
	}
	// Output: not built
}

func ExampleEngine_MetricsSnapshot() {
	var engine *credauth.Engine
	snap := engine.MetricsSnapshot()
	fmt.Println(snap.Counters[credauth.MetricLoginSuccess])
	// Output: 0
}
