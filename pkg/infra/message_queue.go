package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fystack/appprefs/pkg/common/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var (
	ErrPermament   = errors.New("permanent messaging error")
	ErrNoConsumer  = errors.New("message queue has no consumer")
	MaxMsgSize     = 10 * 1024 // 10KB
	StreamMaxAge   = 2 * 24 * time.Hour
	publishTimeout = 5 * time.Second
)

type MessageQueue interface {
	Enqueue(topic string, message []byte, options *EnqueueOptions) error
	// handler shouldn't be a blocking call as it would trigger redivery of the message
	// if certain period of time has passed without ack.
	Dequeue(handler func(subject string, message []byte) error) error
	Close()
}

type EnqueueOptions struct {
	IdempotententKey string
}

type msgQueue struct {
	consumerName    string
	js              jetstream.JetStream
	consumer        jetstream.Consumer
	consumerContext jetstream.ConsumeContext
}

type NATsMessageQueueManager struct {
	streamName string
	js         jetstream.JetStream
}

// NewNATsMessageQueueManager creates or updates streamName so that it captures subjects.
func NewNATsMessageQueueManager(streamName string, subjects []string, nc *nats.Conn) (*NATsMessageQueueManager, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	stream, err := js.Stream(ctx, streamName)
	if err != nil {
		logger.Warn("Stream not found, creating new stream", "stream", streamName)
	}
	if stream != nil {
		if info, err := stream.Info(ctx); err == nil {
			logger.Info("Stream found", "name", info.Config.Name, "subjects", info.Config.Subjects, "state", info.State.Msgs)
		}
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        streamName,
		Description: "Stream for " + streamName,
		Subjects:    subjects,
		MaxMsgSize:  int32(MaxMsgSize),
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamMaxAge,
	})
	if err != nil {
		return nil, fmt.Errorf("create jetstream stream %s: %w", streamName, err)
	}
	logger.Info("Created NATS JetStream stream", "stream", streamName, "subjects", subjects)

	return &NATsMessageQueueManager{
		streamName: streamName,
		js:         js,
	}, nil
}

// NewPublisher returns a queue that can only Enqueue.
func (m *NATsMessageQueueManager) NewPublisher() MessageQueue {
	return &msgQueue{js: m.js}
}

// NewMessageQueue returns a queue backed by a durable consumer filtered on filterSubject.
func (m *NATsMessageQueueManager) NewMessageQueue(consumerName, filterSubject string) (MessageQueue, error) {
	cfg := jetstream.ConsumerConfig{
		Name:           consumerName,
		Durable:        consumerName,
		MaxAckPending:  4,
		FilterSubjects: []string{filterSubject},
		MaxDeliver:     3,
	}
	logger.Info("Creating consumer for subject", "name", cfg.Name, "durable", cfg.Durable, "filterSubjects", cfg.FilterSubjects)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	consumer, err := m.js.CreateOrUpdateConsumer(ctx, m.streamName, cfg)
	if err != nil {
		return nil, fmt.Errorf("create jetstream consumer %s: %w", consumerName, err)
	}

	return &msgQueue{
		consumerName: consumerName,
		js:           m.js,
		consumer:     consumer,
	}, nil
}

func (mq *msgQueue) Enqueue(topic string, message []byte, options *EnqueueOptions) error {
	logger.Debug("Enqueueing message", "topic", topic, "message size", len(message))
	header := nats.Header{}
	if options != nil && options.IdempotententKey != "" {
		header.Add(nats.MsgIdHdr, options.IdempotententKey)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_, err := mq.js.PublishMsg(ctx, &nats.Msg{
		Subject: topic,
		Data:    message,
		Header:  header,
	})
	if err != nil {
		return fmt.Errorf("error enqueueing message: %w", err)
	}
	return nil
}

func (mq *msgQueue) Dequeue(handler func(subject string, message []byte) error) error {
	if mq.consumer == nil {
		return ErrNoConsumer
	}
	logger.Info("Dequeuing messages", "consumer", mq.consumerName)
	c, err := mq.consumer.Consume(func(msg jetstream.Msg) {
		meta, _ := msg.Metadata()
		err := handler(msg.Subject(), msg.Data())
		if err != nil {
			if errors.Is(err, ErrPermament) {
				logger.Info("Permanent error on message", "meta", meta)
				_ = msg.Term()
				return
			}

			logger.Error("Error handling message", "err", err)
			_ = msg.Nak()
			return
		}

		if err := msg.Ack(); err != nil {
			logger.Error("Error acknowledging message", "err", err)
		}
	})
	mq.consumerContext = c
	return err
}

func (mq *msgQueue) Close() {
	if mq.consumerContext != nil {
		mq.consumerContext.Stop()
	}
}
