package events

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/batchcorp/mirror/options"
)

type Redis struct {
	channel string
	client  *redis.Client
}

func NewRedis(address, password string, database int, channel string) (*Redis, error) {
	if channel == "" {
		return nil, errors.New("channel cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "unable to reach redis at '%s'", address)
	}

	return &Redis{
		channel: channel,
		client:  client,
	}, nil
}

func (r *Redis) Name() string {
	return options.EventsBackendRedis
}

func (r *Redis) Publish(ctx context.Context, _ string, data []byte) error {
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return errors.Wrapf(err, "failed to publish message to channel '%s'", r.channel)
	}

	return nil
}

func (r *Redis) Close(_ context.Context) error {
	return r.client.Close()
}
