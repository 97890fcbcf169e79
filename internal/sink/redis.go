package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tinytelemetry/httpmon/internal/model"
)

const (
	// DefaultRedisChannel is the pub/sub channel events are published on.
	DefaultRedisChannel = "httpmon:events"

	// DefaultRedisRecent bounds the recent-alerts list.
	DefaultRedisRecent = 1000

	// DefaultRedisQueueSize is the number of events that can wait for the
	// publish worker before new ones are dropped.
	DefaultRedisQueueSize = 1024

	redisTimeout = 2 * time.Second
)

// redisClient is the subset of *redis.Client the sink needs.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Close() error
}

// RedisConfig holds tunable parameters for the redis sink.
type RedisConfig struct {
	Channel   string
	Recent    int64
	QueueSize int
}

type redisMessage struct {
	kind     string
	data     []byte
	remember bool
}

// Redis publishes every event on a pub/sub channel and keeps a bounded list
// of recent alert transitions under "<channel>:alerts". Events are handed to
// a single worker goroutine; the sink methods never wait on the network.
type Redis struct {
	client  redisClient
	channel string
	listKey string
	recent  int64

	mu     sync.RWMutex
	closed bool
	queue  chan redisMessage
	wg     sync.WaitGroup

	closeOnce sync.Once
	closeErr  error

	dropped     atomic.Uint64
	lastDropLog atomic.Int64 // unix timestamp of last drop log
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(addr string, conf ...RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return newRedisWithClient(client, conf...), nil
}

func newRedisWithClient(client redisClient, conf ...RedisConfig) *Redis {
	r := &Redis{client: client, channel: DefaultRedisChannel, recent: DefaultRedisRecent}
	queueSize := DefaultRedisQueueSize
	if len(conf) > 0 {
		if conf[0].Channel != "" {
			r.channel = conf[0].Channel
		}
		if conf[0].Recent > 0 {
			r.recent = conf[0].Recent
		}
		if conf[0].QueueSize > 0 {
			queueSize = conf[0].QueueSize
		}
	}
	r.listKey = r.channel + ":alerts"
	r.queue = make(chan redisMessage, queueSize)

	r.wg.Add(1)
	go r.worker()
	return r
}

func (r *Redis) AlertRaised(e model.AlertRaised) {
	r.publish(model.Event{Type: model.EventAlertRaised, Payload: e}, true)
}

func (r *Redis) AlertCleared(e model.AlertCleared) {
	r.publish(model.Event{Type: model.EventAlertCleared, Payload: e}, true)
}

func (r *Redis) MetricsSnapshot(e model.MetricsSnapshot) {
	r.publish(model.Event{Type: model.EventMetricsSnapshot, Payload: e}, false)
}

// publish queues ev for the worker, dropping it when the queue is full.
func (r *Redis) publish(ev model.Event, remember bool) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("sink: redis marshal %s: %v", ev.Type, err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- redisMessage{kind: ev.Type, data: data, remember: remember}:
	default:
		r.logDrop()
	}
}

// logDrop counts a dropped event and warns at most once per 10 seconds.
func (r *Redis) logDrop() {
	count := r.dropped.Add(1)
	now := time.Now().Unix()
	last := r.lastDropLog.Load()
	if now-last >= 10 && r.lastDropLog.CompareAndSwap(last, now) {
		log.Printf("sink: redis queue full, %d events dropped", count)
	}
}

// Dropped returns the number of events dropped because the queue was full.
func (r *Redis) Dropped() uint64 { return r.dropped.Load() }

func (r *Redis) worker() {
	defer r.wg.Done()
	for msg := range r.queue {
		r.send(msg)
	}
}

func (r *Redis) send(msg redisMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := r.client.Publish(ctx, r.channel, msg.data).Err(); err != nil {
		log.Printf("sink: redis publish %s: %v", msg.kind, err)
	}
	if !msg.remember {
		return
	}
	if err := r.client.LPush(ctx, r.listKey, msg.data).Err(); err != nil {
		log.Printf("sink: redis push %s: %v", msg.kind, err)
		return
	}
	if err := r.client.LTrim(ctx, r.listKey, 0, r.recent-1).Err(); err != nil {
		log.Printf("sink: redis trim %s: %v", r.listKey, err)
	}
}

// Close stops accepting events, waits for queued ones to be sent and
// releases the redis connection pool. It is safe to call more than once.
func (r *Redis) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()

		r.wg.Wait()
		r.closeErr = r.client.Close()
	})
	return r.closeErr
}
