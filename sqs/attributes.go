package sqs

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// QueueAttributeNames lists the queue attributes requested by [Client.Attributes].
var QueueAttributeNames = []sqstypes.QueueAttributeName{ //nolint: gochecknoglobals // fixed attribute set
	sqstypes.QueueAttributeNameMessageRetentionPeriod,
	sqstypes.QueueAttributeNameApproximateNumberOfMessages,
	sqstypes.QueueAttributeNameApproximateNumberOfMessagesNotVisible,
	sqstypes.QueueAttributeNameQueueArn,
	sqstypes.QueueAttributeNameApproximateNumberOfMessagesDelayed,
	sqstypes.QueueAttributeNameDelaySeconds,
	sqstypes.QueueAttributeNameReceiveMessageWaitTimeSeconds,
}

// Attributes fetches the queue metadata listed in [QueueAttributeNames] and
// returns the attribute map exactly as reported by SQS.
//
// A queue URL resolution failure is returned unchanged ([ErrResolution]); any
// other failure is reported as [ErrDescribe].
func (c *Client) Attributes(ctx context.Context) (_ map[string]string, err error) {
	defer c.observe("get_attributes", time.Now(), &err)

	if !c.initialized {
		return nil, ErrNotInitialized
	}

	queueURL, err := c.QueueURL(ctx)
	if err != nil {
		return nil, err
	}

	input := &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(queueURL),
		AttributeNames: QueueAttributeNames,
	}

	output, err := c.client.GetQueueAttributes(ctx, input)
	if err != nil {
		c.logger.Errorf("Failed to get SQS queue attributes: %v", err)
		return nil, newError(ErrDescribe, c.queueName, err)
	}

	attributes := map[string]string{}

	if output != nil && output.Attributes != nil {
		attributes = output.Attributes
	}

	c.logger.WithField("count", len(attributes)).Debug("Got SQS queue attributes")

	return attributes, nil
}
