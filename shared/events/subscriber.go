package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Handler func(ctx context.Context, event Event) error

type Subscriber struct {
	client        *redis.Client
	group         string
	consumer      string
	streams       []string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	claimMinIdle  time.Duration
	claimCursors  map[string]string
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Streams       []string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration

	// ClaimMinIdle is how long a delivered message may stay un-ACKed before
	// this consumer claims it and runs the handler again.
	ClaimMinIdle time.Duration
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.ClaimMinIdle == 0 {
		config.ClaimMinIdle = 30 * time.Second
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		streams:       config.Streams,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		claimMinIdle:  config.ClaimMinIdle,
		claimCursors:  make(map[string]string),
	}
}

// Start creates the consumer group on every stream and consumes until ctx is
// cancelled. Messages whose handler fails stay in the pending list and are
// claimed again once they have been idle for ClaimMinIdle.
func (s *Subscriber) Start(ctx context.Context) error {
	for _, stream := range s.streams {
		err := s.client.XGroupCreateMkStream(ctx, stream, s.group, "$").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("failed to create consumer group on %s: %w", stream, err)
		}
	}

	log.Printf("Subscriber started: streams=%v, group=%s, consumer=%s", s.streams, s.group, s.consumer)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Subscriber stopping: %v", s.streams)
			return ctx.Err()
		default:
			if err := s.claimPending(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Error claiming pending messages: %v", err)
			}
			if err := s.readMessages(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Error reading messages: %v", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (s *Subscriber) readMessages(ctx context.Context) error {
	streamArgs := make([]string, 0, len(s.streams)*2)
	streamArgs = append(streamArgs, s.streams...)
	for range s.streams {
		streamArgs = append(streamArgs, ">")
	}

	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  streamArgs,
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil // No messages
	}
	if err != nil {
		return fmt.Errorf("failed to read from streams: %w", err)
	}

	for _, stream := range streams {
		s.handleMessages(ctx, stream.Stream, stream.Messages)
	}

	return nil
}

// claimPending takes over messages left un-ACKed for at least claimMinIdle,
// by this consumer or a dead one, and retries them. Each call resumes from
// where the previous scan of that stream stopped.
func (s *Subscriber) claimPending(ctx context.Context) error {
	for _, stream := range s.streams {
		start, ok := s.claimCursors[stream]
		if !ok {
			start = "0-0"
		}
		messages, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   stream,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.claimMinIdle,
			Start:    start,
			Count:    s.batchSize,
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to claim pending messages on %s: %w", stream, err)
		}
		s.claimCursors[stream] = next
		s.handleMessages(ctx, stream, messages)
	}
	return nil
}

func (s *Subscriber) handleMessages(ctx context.Context, stream string, messages []redis.XMessage) {
	for _, message := range messages {
		if err := s.processMessage(ctx, message); err != nil {
			log.Printf("Failed to process message %s on %s: %v", message.ID, stream, err)
			continue
		}

		if err := s.client.XAck(ctx, stream, s.group, message.ID).Err(); err != nil {
			log.Printf("Failed to ACK message %s: %v", message.ID, err)
		}
	}
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("invalid message format")
	}

	var event Event
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return s.handler(ctx, event)
}
