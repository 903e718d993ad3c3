package userstate

import (
	"context"
	"strconv"
	"time"

	"gameops-controlplane/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Provider supplies the player-state snapshot eligibility rules are
// evaluated against. The platform only requires the shape of State; where
// the numbers come from is the provider's business.
type Provider interface {
	GetUserState(ctx context.Context, userID string) (State, error)
}

var Module = fx.Module("userstate",
	fx.Provide(NewProvider),
)

type ProviderParams struct {
	fx.In
	Config *config.Config
	Redis  *redis.Client `optional:"true"`
}

func NewProvider(p ProviderParams) Provider {
	if p.Config.UserState.Provider == "redis" && p.Redis != nil {
		prefix := p.Config.UserState.KeyPrefix
		if prefix == "" {
			prefix = "userstate:"
		}
		timeout := p.Config.UserState.Timeout
		if timeout <= 0 {
			timeout = 500 * time.Millisecond
		}
		return &RedisProvider{
			rdb:      p.Redis,
			prefix:   prefix,
			timeout:  timeout,
			fallback: NewStaticProvider(),
		}
	}
	return NewStaticProvider()
}

// StaticProvider returns the same snapshot for every player. It stands in
// for the live game-state service in development and tests.
type StaticProvider struct {
	state State
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		state: State{
			KeyLevel:       15,
			KeyLoginStreak: 10,
		},
	}
}

func (p *StaticProvider) GetUserState(ctx context.Context, userID string) (State, error) {
	snapshot := make(State, len(p.state))
	for k, v := range p.state {
		snapshot[k] = v
	}
	return snapshot, nil
}

// RedisProvider reads the snapshot from the hash the game-state pipeline
// maintains at <prefix><userID>. A missing key falls back to the static
// snapshot rather than failing the claim.
type RedisProvider struct {
	rdb      *redis.Client
	prefix   string
	timeout  time.Duration
	fallback Provider
}

func (p *RedisProvider) GetUserState(ctx context.Context, userID string) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	fields, err := p.rdb.HGetAll(ctx, p.prefix+userID).Result()
	if err != nil {
		zap.L().Warn("userstate redis lookup failed, using fallback",
			zap.String("user_id", userID), zap.Error(err))
		return p.fallback.GetUserState(ctx, userID)
	}

	if len(fields) == 0 {
		return p.fallback.GetUserState(ctx, userID)
	}

	state := make(State, len(fields))
	for key, raw := range fields {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			state[key] = n
			continue
		}
		state[key] = raw
	}
	return state, nil
}
