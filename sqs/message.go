package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Message is a message returned by [Client.Receive].
type Message struct {
	ID                string
	ReceiptHandle     string
	Body              string
	MD5OfBody         string
	Attributes        map[string]string
	MessageAttributes map[string]string
	ReceiveTimestamp  time.Time

	ackFunc        func(ctx context.Context) error
	processingLock sync.Mutex
}

func newMessage(m sqstypes.Message, received time.Time, ackFunc func(ctx context.Context) error) *Message {
	msg := &Message{
		ID:                aws.ToString(m.MessageId),
		ReceiptHandle:     aws.ToString(m.ReceiptHandle),
		Body:              aws.ToString(m.Body),
		MD5OfBody:         aws.ToString(m.MD5OfBody),
		Attributes:        m.Attributes,
		MessageAttributes: make(map[string]string, len(m.MessageAttributes)),
		ReceiveTimestamp:  received,
		ackFunc:           ackFunc,
	}

	if msg.Attributes == nil {
		msg.Attributes = map[string]string{}
	}

	for k, v := range m.MessageAttributes {
		msg.MessageAttributes[k] = aws.ToString(v.StringValue)
	}

	return msg
}

// Decode unmarshals the JSON body into v.
func (m *Message) Decode(v any) error {
	if err := json.Unmarshal([]byte(m.Body), v); err != nil {
		return fmt.Errorf("failed to decode SQS message %s: %w", m.ID, err)
	}

	return nil
}

// Ack acknowledges successful processing of the message by deleting it from
// the queue. Once a delete has succeeded further calls are no-ops; a failed
// delete may be retried.
func (m *Message) Ack(ctx context.Context) error {
	m.processingLock.Lock()
	defer m.processingLock.Unlock()

	if m.ackFunc == nil {
		return nil
	}

	if err := m.ackFunc(ctx); err != nil {
		return err
	}

	// Clear the ack function to prevent it from being called again.
	m.ackFunc = nil

	return nil
}

// IsAcked returns true if the message has been deleted through [Message.Ack].
func (m *Message) IsAcked() bool {
	m.processingLock.Lock()
	defer m.processingLock.Unlock()

	return m.ackFunc == nil
}
