package authcore_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/authcore/authcore"
	"github.com/authcore/authcore/credential"
	"github.com/authcore/authcore/session"
	"github.com/redis/go-redis/v9"
)

// ExampleNew builds an engine over Redis with a directory the caller seeds.
func ExampleNew() {
	cfg := authcore.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("replace-with-32-bytes-of-secret!")

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(credential.NewMemoryDirectory()).
		Build()
	if err != nil {
		return
	}
	defer engine.Close()
}

// ExampleEngine_Login shows the usual branching on failure kinds.
func ExampleEngine_Login() {
	cfg := authcore.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("replace-with-32-bytes-of-secret!")

	engine, err := authcore.New().
		WithConfig(cfg).
		WithSessionBackend(session.NewMemoryBackend()).
		WithDirectory(credential.NewMemoryDirectory()).
		Build()
	if err != nil {
		return
	}
	defer engine.Close()

	_, err = engine.Login(context.Background(), "cooluser1", "4821")
	switch authcore.KindOf(err) {
	case authcore.KindNone:
		fmt.Println("logged in")
	case authcore.KindStoreUnavailable:
		fmt.Println("retry later")
	default:
		fmt.Println("rejected:", errors.Is(err, authcore.ErrInvalidCredentials))
	}
	// Output: rejected: true
}

// ExampleEngine_MetricsSnapshot reads the in-process counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *authcore.Engine
	snapshot := engine.MetricsSnapshot()
	fmt.Println(snapshot.Counters[authcore.MetricLoginSuccess])
	// Output: 0
}
