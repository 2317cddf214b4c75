package relay

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/photon-storage/idea-market/database/orm"
)

// Publisher delivers one committed event downstream.
type Publisher interface {
	Publish(ctx context.Context, ev *orm.Event) error
}

// RedisPublisher appends events to a redis stream.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisPublisher connects to the redis server at url, for example
// redis://localhost:6379/0.
func NewRedisPublisher(url, stream string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}

	return &RedisPublisher{
		client: redis.NewClient(opts),
		stream: stream,
	}, nil
}

// Publish adds ev to the stream. Consumers dedupe on the id field.
func (p *RedisPublisher) Publish(ctx context.Context, ev *orm.Event) error {
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"id":      ev.UUID,
			"seq":     ev.ID,
			"kind":    string(ev.Kind),
			"payload": ev.Payload,
			"at":      ev.CreatedAt.Unix(),
		},
	}).Err(); err != nil {
		return errors.Wrapf(err, "xadd event %d", ev.ID)
	}

	return nil
}

// Ping checks the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
