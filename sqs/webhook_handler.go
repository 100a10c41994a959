package sqs

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/slackmgr/types"
)

// WebhookTargetPrefix is the scheme of webhook targets handled by
// [WebhookHandler]. A target is the prefix followed by a queue name, e.g.
// "sqs://alerts" or "sqs://alerts.fifo".
const WebhookTargetPrefix = "sqs://"

// WebhookHandler converts incoming HTTP webhook callbacks into SQS messages.
// Each target names a queue; the handler keeps one [Client] per queue so that
// the queue URL is resolved once and shared by concurrent callbacks.
//
// For FIFO queues the handler sets the message group ID to the Slack channel
// ID and derives a deduplication ID from a SHA-256 hash of the callback
// fields, preventing duplicate messages caused by webhook retries.
//
// Create a WebhookHandler with [NewWebhookHandler] and call
// [WebhookHandler.Init] once before handling any requests. Init is not
// thread-safe; all other methods are safe for concurrent use after Init
// returns.
type WebhookHandler struct {
	logger      types.Logger
	opts        []Option
	newClient   func(ctx context.Context, queueName string) (*Client, error)
	mu          sync.Mutex
	clients     map[string]*Client
	initialized bool
}

// NewWebhookHandler creates a WebhookHandler. opts are applied to every
// per-queue [Client] it creates. All clients record into one [Metrics] set:
// the one given with [WithMetrics], or an unregistered set created here.
//
// NewWebhookHandler does not connect to AWS. Call [WebhookHandler.Init] before
// handling any requests.
func NewWebhookHandler(logger types.Logger, opts ...Option) *WebhookHandler {
	resolved := newOptions()
	for _, o := range opts {
		o(resolved)
	}

	if resolved.metrics == nil {
		opts = append(slices.Clone(opts), WithMetrics(NewMetrics(nil)))
	}

	h := &WebhookHandler{
		logger:  logger,
		opts:    opts,
		clients: make(map[string]*Client),
	}

	h.newClient = func(ctx context.Context, queueName string) (*Client, error) {
		return New(queueName, h.logger, h.opts...).Init(ctx)
	}

	return h
}

// Init validates the handler configuration. It returns the receiver so that
// initialization can be chained:
//
//	handler, err := sqs.NewWebhookHandler(logger).Init(ctx)
//
// Init is idempotent. Subsequent calls on an already-initialized handler are
// no-ops.
func (c *WebhookHandler) Init(_ context.Context) (*WebhookHandler, error) {
	if c.initialized {
		return c, nil
	}

	if c.logger == nil {
		return nil, newError(ErrConfig, "", errors.New("logger cannot be nil"))
	}

	c.initialized = true

	return c, nil
}

// ShouldHandleWebhook reports whether the handler should process a webhook
// with the given target. It returns true when target begins with
// [WebhookTargetPrefix] and names a queue.
func (c *WebhookHandler) ShouldHandleWebhook(_ context.Context, target string) bool {
	return strings.HasPrefix(target, WebhookTargetPrefix) && len(target) > len(WebhookTargetPrefix)
}

// HandleWebhook sends data as JSON to the queue named by target. The queue
// type is detected from the name suffix:
//   - FIFO queues (name ends with ".fifo"): the message group ID is set to
//     data.ChannelID and a deduplication ID is derived from a SHA-256 hash
//     of the channel ID, message ID, callback ID, and nanosecond timestamp.
//   - Standard queues: the message is sent without a group or dedup ID.
//
// HandleWebhook requires [WebhookHandler.Init] to have been called
// successfully.
func (c *WebhookHandler) HandleWebhook(ctx context.Context, target string, data *types.WebhookCallback, logger types.Logger) error {
	if !c.initialized {
		return errors.New("SQS webhook handler not initialized")
	}

	if !c.ShouldHandleWebhook(ctx, target) {
		return fmt.Errorf("unsupported webhook target %q", target)
	}

	if data == nil {
		return errors.New("webhook callback data cannot be nil")
	}

	client, err := c.clientFor(ctx, strings.TrimPrefix(target, WebhookTargetPrefix))
	if err != nil {
		return err
	}

	if logger == nil {
		logger = c.logger
	}

	var opts []SendOption

	if strings.HasSuffix(client.Name(), ".fifo") {
		groupID := data.ChannelID
		dedupID := hash(data.ChannelID, data.MessageID, data.ID, data.Timestamp.UTC().Format(time.RFC3339Nano))

		opts = append(opts, WithMessageGroupID(groupID), WithDeduplicationID(dedupID))

		logger = logger.WithField("group_id", groupID).WithField("dedup_id", dedupID)
	}

	result, err := client.Send(ctx, data, opts...)
	if err != nil {
		return err
	}

	logger.Debugf("Webhook body sent to SQS queue %s as message %s", client.Name(), result.MessageID)

	return nil
}

// clientFor returns the initialized client for queueName, creating it on
// first use. Init may load the AWS config, so it runs outside the lock; if two
// callers race to create the same client, the first one stored wins.
func (c *WebhookHandler) clientFor(ctx context.Context, queueName string) (*Client, error) {
	c.mu.Lock()
	client, ok := c.clients[queueName]
	c.mu.Unlock()

	if ok {
		return client, nil
	}

	client, err := c.newClient(ctx, queueName)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.clients[queueName]; ok {
		return existing, nil
	}

	c.clients[queueName] = client

	return client, nil
}

func hash(input ...string) string {
	h := sha256.New()

	for _, s := range input {
		h.Write([]byte(s))
		h.Write([]byte{0}) // null byte delimiter to prevent hash collisions
	}

	bs := h.Sum(nil)

	return base64.URLEncoding.EncodeToString(bs)
}
