// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sqs

import (
	"errors"

	"github.com/z5labs/relay/procedure"
	"github.com/z5labs/relay/queue"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/tidwall/gjson"
)

// Context field names seeded by [EnvelopeDecoder] for middleware
// and handlers to log or act on.
const (
	MessageIdField     = "sqs_message_id"
	ReceiptHandleField = "sqs_receipt_handle"
)

var (
	ErrInvalidBody = errors.New("sqs: message body is not a valid json envelope")
	ErrNoTopic     = errors.New("sqs: message body is missing the topic key")
)

// EnvelopeDecoder decodes an SQS message body of the form:
//
//	{"topic": "orders.placed", "payload": {...}}
//
// The topic routes the message to its procedure and the raw payload
// becomes the message input slot.
func EnvelopeDecoder() queue.Decoder[types.Message] {
	return queue.DecoderFunc[types.Message](func(msg types.Message) (queue.Envelope, error) {
		var body string
		if msg.Body != nil {
			body = *msg.Body
		}
		if !gjson.Valid(body) {
			return queue.Envelope{}, ErrInvalidBody
		}

		topic := gjson.Get(body, "topic")
		if !topic.Exists() || topic.Str == "" {
			return queue.Envelope{}, ErrNoTopic
		}

		var payload []byte
		if result := gjson.Get(body, "payload"); result.Exists() {
			payload = []byte(result.Raw)
		}

		fields := make(procedure.Fields, 2)
		if msg.MessageId != nil {
			fields[MessageIdField] = *msg.MessageId
		}
		if msg.ReceiptHandle != nil {
			fields[ReceiptHandleField] = *msg.ReceiptHandle
		}

		return queue.Envelope{
			Topic:   topic.Str,
			Payload: payload,
			Fields:  fields,
		}, nil
	})
}
