package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TypeAttendanceMarked carries a JSON AttendanceRecord that was just accepted.
const TypeAttendanceMarked = "attendance.marked"

// DefaultKey is the redis list used when none is configured.
const DefaultKey = "attendance:events"

var (
	// ErrFull is returned by InMemory.Publish when no consumer keeps up.
	ErrFull = errors.New("queue full")
	// ErrBody means a message body is not a JSON document.
	ErrBody = errors.New("message body must be JSON")
)

// Message is one event. Body holds a JSON document.
type Message struct {
	Type string
	Body []byte
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory hands events to an in-process consumer through a buffered channel.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a queue holding up to size pending events.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues without blocking; a full buffer returns ErrFull.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrFull
	}
}

// Consume streams events until ctx is done.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue shares events between the API and the worker through a redis
// list: LPUSH on publish, BRPOP on consume.
type RedisQueue struct {
	client  *redis.Client
	key     string
	block   time.Duration
	backoff time.Duration
}

// NewRedisQueue builds a queue on key, or DefaultKey when key is empty.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultKey
	}
	return &RedisQueue{client: client, key: key, block: 5 * time.Second, backoff: time.Second}
}

// Publish pushes the event envelope onto the list.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	data, err := encode(msg)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

// Consume pops events until ctx is done. Entries that are not valid
// envelopes are skipped.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, q.block, q.key).Result()
			switch {
			case ctx.Err() != nil:
				return
			case errors.Is(err, redis.Nil):
				continue
			case err != nil:
				select {
				case <-time.After(q.backoff):
				case <-ctx.Done():
					return
				}
				continue
			case len(res) != 2:
				continue
			}
			msg, err := decode([]byte(res[1]))
			if err != nil {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Discard drops every message. Used when no queue backend is configured.
type Discard struct{}

// Publish drops msg.
func (Discard) Publish(ctx context.Context, msg Message) error { return nil }

// Consume returns a channel that closes when ctx is done.
func (Discard) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

type envelope struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

func encode(msg Message) ([]byte, error) {
	if !json.Valid(msg.Body) {
		return nil, fmt.Errorf("%s: %w", msg.Type, ErrBody)
	}
	return json.Marshal(envelope{Type: msg.Type, Body: msg.Body})
}

func decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, err
	}
	if env.Type == "" {
		return Message{}, errors.New("event without type")
	}
	return Message{Type: env.Type, Body: env.Body}, nil
}
