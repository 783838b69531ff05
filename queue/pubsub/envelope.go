// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pubsub

import (
	"errors"

	"github.com/z5labs/relay/procedure"
	"github.com/z5labs/relay/queue"

	pubsubpb "cloud.google.com/go/pubsub/apiv1/pubsubpb"
)

// TopicAttribute is the PubSub message attribute which routes a
// message to its procedure.
const TopicAttribute = "topic"

// Context field names seeded by [EnvelopeDecoder] for middleware
// and handlers to log or act on.
const (
	MessageIdField = "pubsub_message_id"
	AckIdField     = "pubsub_ack_id"
)

var (
	ErrNoMessage = errors.New("pubsub: received message has no message")
	ErrNoTopic   = errors.New("pubsub: message has no topic attribute")
)

// EnvelopeDecoder routes a received message by its topic attribute
// and passes the raw message data through as the payload.
func EnvelopeDecoder() queue.Decoder[*pubsubpb.ReceivedMessage] {
	return queue.DecoderFunc[*pubsubpb.ReceivedMessage](func(msg *pubsubpb.ReceivedMessage) (queue.Envelope, error) {
		if msg == nil || msg.Message == nil {
			return queue.Envelope{}, ErrNoMessage
		}

		topic := msg.Message.Attributes[TopicAttribute]
		if topic == "" {
			return queue.Envelope{}, ErrNoTopic
		}

		return queue.Envelope{
			Topic:   topic,
			Payload: msg.Message.Data,
			Fields: procedure.Fields{
				MessageIdField: msg.Message.MessageId,
				AckIdField:     msg.AckId,
			},
		}, nil
	})
}
