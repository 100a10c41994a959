package sqs

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

var awsStringDataType = aws.String("String") //nolint: gochecknoglobals // aws constant

// SendOption customises a single [Client.Send] call.
type SendOption func(*sqs.SendMessageInput)

// WithDelaySeconds delays delivery of the message. Zero or negative values
// leave the queue's default delay in place.
func WithDelaySeconds(seconds int32) SendOption {
	return func(in *sqs.SendMessageInput) {
		if seconds > 0 {
			in.DelaySeconds = seconds
		}
	}
}

// WithMessageGroupID sets the message group of a FIFO queue message.
func WithMessageGroupID(groupID string) SendOption {
	return func(in *sqs.SendMessageInput) {
		in.MessageGroupId = aws.String(groupID)
	}
}

// WithDeduplicationID sets the deduplication ID of a FIFO queue message.
func WithDeduplicationID(dedupID string) SendOption {
	return func(in *sqs.SendMessageInput) {
		in.MessageDeduplicationId = aws.String(dedupID)
	}
}

// WithMessageAttribute attaches a string message attribute.
func WithMessageAttribute(name, value string) SendOption {
	return func(in *sqs.SendMessageInput) {
		if in.MessageAttributes == nil {
			in.MessageAttributes = make(map[string]sqstypes.MessageAttributeValue)
		}

		in.MessageAttributes[name] = sqstypes.MessageAttributeValue{
			DataType:    awsStringDataType,
			StringValue: aws.String(value),
		}
	}
}

// SendResult describes a message accepted by SQS.
type SendResult struct {
	MessageID      string
	MD5OfBody      string
	SequenceNumber string
}
