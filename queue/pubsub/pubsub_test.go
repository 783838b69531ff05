// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/z5labs/relay/queue"

	pubsubpb "cloud.google.com/go/pubsub/apiv1/pubsubpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
)

type stubClient struct {
	pull func(context.Context, *pubsubpb.PullRequest, ...gax.CallOption) (*pubsubpb.PullResponse, error)
	ack  func(context.Context, *pubsubpb.AcknowledgeRequest, ...gax.CallOption) error
}

func (c stubClient) Pull(ctx context.Context, req *pubsubpb.PullRequest, opts ...gax.CallOption) (*pubsubpb.PullResponse, error) {
	return c.pull(ctx, req, opts...)
}

func (c stubClient) Acknowledge(ctx context.Context, req *pubsubpb.AcknowledgeRequest, opts ...gax.CallOption) error {
	return c.ack(ctx, req, opts...)
}

func withClient(c pubsubClient) CommonOption {
	return commonOptionFunc(func(co *commonOptions) {
		co.pubsub = c
	})
}

func TestConsumer_Consume(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if pubsub fails to pull messages", func(t *testing.T) {
			pullErr := errors.New("failed to pull")
			client := stubClient{
				pull: func(ctx context.Context, req *pubsubpb.PullRequest, opts ...gax.CallOption) (*pubsubpb.PullResponse, error) {
					return nil, pullErr
				},
			}

			c := NewConsumer(
				Subscription("example"),
				MaxNumOfMessages(1),
				withClient(client),
			)

			msgs, err := c.Consume(context.Background())
			if !assert.ErrorIs(t, err, pullErr) {
				return
			}
			assert.Len(t, msgs, 0)
		})

		t.Run("if pubsub returns zero messages", func(t *testing.T) {
			client := stubClient{
				pull: func(ctx context.Context, req *pubsubpb.PullRequest, opts ...gax.CallOption) (*pubsubpb.PullResponse, error) {
					return &pubsubpb.PullResponse{}, nil
				},
			}

			c := NewConsumer(
				Subscription("example"),
				withClient(client),
			)

			msgs, err := c.Consume(context.Background())
			if !assert.ErrorIs(t, err, queue.ErrNoItem) {
				return
			}
			assert.Len(t, msgs, 0)
		})
	})

	t.Run("will return messages", func(t *testing.T) {
		t.Run("if pubsub receives any", func(t *testing.T) {
			client := stubClient{
				pull: func(ctx context.Context, req *pubsubpb.PullRequest, opts ...gax.CallOption) (*pubsubpb.PullResponse, error) {
					return &pubsubpb.PullResponse{
						ReceivedMessages: []*pubsubpb.ReceivedMessage{
							{AckId: "1"},
							{AckId: "2"},
						},
					}, nil
				},
			}

			c := NewConsumer(
				Subscription("example"),
				withClient(client),
			)

			msgs, err := c.Consume(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			assert.Len(t, msgs, 2)
		})
	})
}

func TestBatchAcknowledgeProcessor_Process(t *testing.T) {
	t.Run("will acknowledge messages", func(t *testing.T) {
		t.Run("if the inner processor succeeds", func(t *testing.T) {
			var mu sync.Mutex
			var acked []string
			client := stubClient{
				ack: func(ctx context.Context, req *pubsubpb.AcknowledgeRequest, opts ...gax.CallOption) error {
					mu.Lock()
					defer mu.Unlock()
					acked = append(acked, req.AckIds...)
					return nil
				},
			}

			p := NewBatchAcknowledgeProcessor(
				Subscription("example"),
				withClient(client),
				Processor(processorFunc[*pubsubpb.ReceivedMessage](func(ctx context.Context, msg *pubsubpb.ReceivedMessage) error {
					return nil
				})),
			)

			err := p.Process(context.Background(), []*pubsubpb.ReceivedMessage{
				{AckId: "1"},
				{AckId: "2"},
			})
			if !assert.Nil(t, err) {
				return
			}
			assert.ElementsMatch(t, []string{"1", "2"}, acked)
		})
	})

	t.Run("will not acknowledge messages", func(t *testing.T) {
		t.Run("if the inner processor fails", func(t *testing.T) {
			ackCalled := false
			client := stubClient{
				ack: func(ctx context.Context, req *pubsubpb.AcknowledgeRequest, opts ...gax.CallOption) error {
					ackCalled = true
					return nil
				},
			}

			p := NewBatchAcknowledgeProcessor(
				Subscription("example"),
				withClient(client),
				Processor(processorFunc[*pubsubpb.ReceivedMessage](func(ctx context.Context, msg *pubsubpb.ReceivedMessage) error {
					return errors.New("failed to process")
				})),
			)

			err := p.Process(context.Background(), []*pubsubpb.ReceivedMessage{
				{AckId: "1"},
			})
			if !assert.Nil(t, err) {
				return
			}
			assert.False(t, ackCalled)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if pubsub fails to acknowledge", func(t *testing.T) {
			ackErr := errors.New("failed to acknowledge")
			client := stubClient{
				ack: func(ctx context.Context, req *pubsubpb.AcknowledgeRequest, opts ...gax.CallOption) error {
					return ackErr
				},
			}

			p := NewBatchAcknowledgeProcessor(
				Subscription("example"),
				withClient(client),
				Processor(processorFunc[*pubsubpb.ReceivedMessage](func(ctx context.Context, msg *pubsubpb.ReceivedMessage) error {
					return nil
				})),
			)

			err := p.Process(context.Background(), []*pubsubpb.ReceivedMessage{
				{AckId: "1"},
			})
			assert.ErrorIs(t, err, ackErr)
		})
	})
}

type processorFunc[T any] func(context.Context, T) error

func (f processorFunc[T]) Process(ctx context.Context, value T) error {
	return f(ctx, value)
}

func TestEnvelopeDecoder(t *testing.T) {
	t.Run("will return an envelope", func(t *testing.T) {
		t.Run("if the message carries a topic attribute", func(t *testing.T) {
			dec := EnvelopeDecoder()

			e, err := dec.Decode(&pubsubpb.ReceivedMessage{
				AckId: "a-1",
				Message: &pubsubpb.PubsubMessage{
					MessageId:  "m-1",
					Data:       []byte(`{"order_id":"abc"}`),
					Attributes: map[string]string{TopicAttribute: "orders.placed"},
				},
			})
			if !assert.Nil(t, err) {
				return
			}
			assert.Equal(t, "orders.placed", e.Topic)
			assert.JSONEq(t, `{"order_id":"abc"}`, string(e.Payload))
			assert.Equal(t, "m-1", e.Fields[MessageIdField])
			assert.Equal(t, "a-1", e.Fields[AckIdField])
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the received message has no message", func(t *testing.T) {
			dec := EnvelopeDecoder()

			_, err := dec.Decode(&pubsubpb.ReceivedMessage{AckId: "a-1"})
			assert.ErrorIs(t, err, ErrNoMessage)
		})

		t.Run("if the message has no topic attribute", func(t *testing.T) {
			dec := EnvelopeDecoder()

			_, err := dec.Decode(&pubsubpb.ReceivedMessage{
				AckId:   "a-1",
				Message: &pubsubpb.PubsubMessage{MessageId: "m-1"},
			})
			assert.ErrorIs(t, err, ErrNoTopic)
		})
	})
}
