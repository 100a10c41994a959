package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/slackmgr/types"
)

// API defines the AWS SQS methods used by [Client]. It is satisfied by
// *sqs.Client and can be replaced with [WithAPI] for testing.
type API interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

var _ API = (*sqs.Client)(nil)

// Client sends, receives and deletes messages on a single SQS queue identified
// by name. The queue URL is resolved lazily on first use and cached for the
// lifetime of the Client; concurrent operations share one GetQueueUrl lookup.
//
// Create a Client with [New], then call [Client.Init] once before any other
// method. Init is not thread-safe; all other methods are safe for concurrent
// use after Init returns.
type Client struct {
	client      API
	queueName   string
	opts        *Options
	resolver    *queueURLResolver
	metrics     *Metrics
	logger      types.Logger
	initialized bool
}

// New creates a Client for the named SQS queue.
//
// Functional options may be passed to override defaults (see With* functions).
// The logger is automatically enriched with "plugin" and "queue_name" fields.
//
// New does not connect to AWS. Call [Client.Init] to validate the options and
// build the SQS client.
func New(queueName string, logger types.Logger, opts ...Option) *Client {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	if logger != nil {
		logger = logger.
			WithField("plugin", "sqs").
			WithField("queue_name", queueName)
	}

	return &Client{
		queueName: queueName,
		opts:      options,
		logger:    logger,
	}
}

// Init validates the options and constructs the underlying SQS client. It
// returns the receiver so that initialization can be chained with [New]:
//
//	client, err := sqs.New("orders", logger).Init(ctx)
//
// Validation failures are reported as [ErrConfig]. An out-of-range max
// messages value is not an error: it is reset to [DefaultMaxMessages] and a
// warning is logged. Init makes no network calls; the queue URL is resolved by
// the first operation that needs it.
//
// Init is idempotent. It is not thread-safe and must be called once during
// application startup before any concurrent access.
func (c *Client) Init(ctx context.Context) (*Client, error) {
	if c.initialized {
		return c, nil
	}

	if c.queueName == "" {
		return nil, newError(ErrConfig, "", errors.New("queue name cannot be empty"))
	}

	if c.logger == nil {
		return nil, newError(ErrConfig, c.queueName, errors.New("logger cannot be nil"))
	}

	if err := c.opts.validate(); err != nil {
		return nil, newError(ErrConfig, c.queueName, err)
	}

	if c.opts.clampMaxMessages() {
		c.logger.Warnf("SQS max messages is out of range, using default value %d", DefaultMaxMessages)
	}

	client, err := c.newAPI(ctx)
	if err != nil {
		return nil, newError(ErrConfig, c.queueName, err)
	}

	c.client = client
	c.metrics = c.opts.metrics

	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}

	c.resolver = newQueueURLResolver(c.lookupQueueURL)
	c.initialized = true

	c.logger.
		WithField("region", c.opts.region).
		WithField("iam_role", c.opts.useIAMRole).
		Debug("SQS client initialized")

	return c, nil
}

// newAPI returns the injected API, or builds an SQS client from the AWS
// config and the retry options.
func (c *Client) newAPI(ctx context.Context) (API, error) {
	if c.opts.api != nil {
		return c.opts.api, nil
	}

	awsCfg, err := c.loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		o.Retryer = retry.AddWithMaxBackoffDelay(o.Retryer, c.opts.sqsAPIMaxRetryBackoffDelay)
		o.Retryer = retry.AddWithMaxAttempts(o.Retryer, c.opts.sqsAPIMaxRetryAttempts)

		if c.opts.endpoint != "" {
			o.BaseEndpoint = aws.String(c.opts.endpoint)
		}
	}), nil
}

func (c *Client) loadAWSConfig(ctx context.Context) (aws.Config, error) {
	if c.opts.awsCfg != nil {
		awsCfg := c.opts.awsCfg.Copy()

		if awsCfg.Region == "" {
			awsCfg.Region = c.opts.region
		}

		if !c.opts.useIAMRole {
			awsCfg.Credentials = aws.NewCredentialsCache(c.staticCredentials())
		}

		return awsCfg, nil
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(c.opts.region),
	}

	if !c.opts.useIAMRole {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(c.staticCredentials()))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awsCfg, nil
}

func (c *Client) staticCredentials() credentials.StaticCredentialsProvider {
	return credentials.NewStaticCredentialsProvider(c.opts.accessKeyID, c.opts.secretAccessKey, "")
}

// Name returns the SQS queue name supplied to [New].
func (c *Client) Name() string {
	return c.queueName
}

// QueueURL returns the URL of the queue, resolving it with GetQueueUrl if it
// is not known yet. Concurrent callers share a single lookup. A failed lookup
// is returned to every caller waiting on it as [ErrResolution] and is retried
// by the next call.
//
// ctx bounds only this caller's wait: if it ends first, QueueURL returns
// ctx.Err() while the lookup completes for the other callers.
func (c *Client) QueueURL(ctx context.Context) (string, error) {
	if !c.initialized {
		return "", ErrNotInitialized
	}

	return c.resolver.resolve(ctx)
}

func (c *Client) lookupQueueURL(ctx context.Context) (string, error) {
	c.logger.Debug("Resolving SQS queue URL")

	resp, err := c.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(c.queueName)})
	if err == nil && (resp == nil || aws.ToString(resp.QueueUrl) == "") {
		err = errors.New("GetQueueUrl returned an empty queue URL")
	}

	c.metrics.observeLookup(c.queueName, err)

	if err != nil {
		c.logger.Errorf("Failed to resolve SQS queue URL. Code: %s. Message: %s", APIErrorCode(err), apiErrorMessage(err))
		return "", newError(ErrResolution, c.queueName, err)
	}

	queueURL := aws.ToString(resp.QueueUrl)

	c.logger.WithField("queue_url", queueURL).Debug("SQS queue URL resolved")

	return queueURL, nil
}

// Send JSON-encodes payload and sends it to the queue. Use [WithDelaySeconds]
// to delay delivery and [WithMessageGroupID] / [WithDeduplicationID] for FIFO
// queues.
//
// A queue URL resolution failure is returned unchanged ([ErrResolution]); any
// other failure is reported as [ErrSend] wrapping the underlying error.
func (c *Client) Send(ctx context.Context, payload any, opts ...SendOption) (_ *SendResult, err error) {
	defer c.observe("send", time.Now(), &err)

	if !c.initialized {
		return nil, ErrNotInitialized
	}

	queueURL, err := c.QueueURL(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newError(ErrSend, c.queueName, fmt.Errorf("failed to marshal message body: %w", err))
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	}

	for _, o := range opts {
		o(input)
	}

	resp, err := c.client.SendMessage(ctx, input)
	if err != nil {
		c.logger.Errorf("Failed to send SQS message: %v", err)
		return nil, newError(ErrSend, c.queueName, err)
	}

	result := &SendResult{}

	if resp != nil {
		result.MessageID = aws.ToString(resp.MessageId)
		result.MD5OfBody = aws.ToString(resp.MD5OfMessageBody)
		result.SequenceNumber = aws.ToString(resp.SequenceNumber)
	}

	c.logger.WithField("message_id", result.MessageID).Debug("SQS message sent")

	return result, nil
}

// Receive long-polls the queue once, waiting up to the configured poll wait for
// at least one message and returning at most the configured max messages.
// An empty queue is not an error: Receive then returns an empty slice.
//
// A queue URL resolution failure is returned unchanged ([ErrResolution]); a
// receive failure is reported as [ErrReceive].
func (c *Client) Receive(ctx context.Context) (_ []*Message, err error) {
	defer c.observe("receive", time.Now(), &err)

	if !c.initialized {
		return nil, ErrNotInitialized
	}

	queueURL, err := c.QueueURL(ctx)
	if err != nil {
		return nil, err
	}

	input := &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(queueURL),
		MaxNumberOfMessages:         int32(c.opts.maxMessages),     //nolint:gosec // clamped to 1-10 by Init
		WaitTimeSeconds:             int32(c.opts.pollWaitSeconds), //nolint:gosec // validated to 0-20 by Init
		MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeName("All")},
		MessageAttributeNames:       []string{"All"},
	}

	c.logger.WithField("wait_time", c.opts.pollWaitSeconds).Debug("Reading SQS queue")

	output, err := c.client.ReceiveMessage(ctx, input)
	if err != nil {
		c.logger.Errorf("Failed to receive SQS messages: %v", err)
		return nil, newError(ErrReceive, c.queueName, err)
	}

	messages := []*Message{}

	if output == nil {
		return messages, nil
	}

	now := time.Now()

	for _, m := range output.Messages {
		receiptHandle := aws.ToString(m.ReceiptHandle)

		ack := func(ctx context.Context) error {
			return c.Delete(ctx, receiptHandle)
		}

		messages = append(messages, newMessage(m, now, ack))
	}

	c.metrics.addReceived(c.queueName, len(messages))
	c.logger.Debugf("Got %d SQS message(s)", len(messages))

	return messages, nil
}

// Delete removes the message identified by receiptHandle from the queue.
// A rejected delete, for example because the receipt handle has expired, is
// reported as [ErrDelete] wrapping the AWS error.
func (c *Client) Delete(ctx context.Context, receiptHandle string) (err error) {
	defer c.observe("delete", time.Now(), &err)

	if !c.initialized {
		return ErrNotInitialized
	}

	if receiptHandle == "" {
		return newError(ErrDelete, c.queueName, errors.New("receipt handle cannot be empty"))
	}

	queueURL, err := c.QueueURL(ctx)
	if err != nil {
		return err
	}

	input := &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	}

	if _, err := c.client.DeleteMessage(ctx, input); err != nil {
		c.logger.Errorf("Failed to delete SQS message: %v", err)
		return newError(ErrDelete, c.queueName, err)
	}

	c.logger.Debug("SQS message deleted")

	return nil
}

// Remove is an alias of [Client.Delete].
func (c *Client) Remove(ctx context.Context, receiptHandle string) error {
	return c.Delete(ctx, receiptHandle)
}

func (c *Client) observe(operation string, started time.Time, err *error) {
	if c.metrics == nil {
		return
	}

	c.metrics.observeRequest(c.queueName, operation, started, *err)
}
