// Package sqs provides a small client for a single AWS SQS queue addressed by
// name. It resolves the queue URL on demand, sends JSON-encoded messages,
// long-polls for messages, deletes them by receipt handle and reads queue
// attributes.
//
// # Client
//
// Create a client with [New] and initialise it with [Client.Init]:
//
//	client, err := sqs.New("orders", logger,
//	    sqs.WithRegion("eu-west-1"),
//	    sqs.WithMaxMessages(5),
//	).Init(ctx)
//
// Then use it from any number of goroutines:
//
//	if _, err := client.Send(ctx, order, sqs.WithDelaySeconds(30)); err != nil {
//	    return err
//	}
//
//	msgs, err := client.Receive(ctx)
//	for _, msg := range msgs {
//	    process(msg)
//	    _ = msg.Ack(ctx)
//	}
//
// # Queue URL resolution
//
// SQS operations address a queue by URL, while a [Client] is configured with a
// queue name. The URL is looked up with GetQueueUrl the first time an operation
// needs it and then cached for the lifetime of the client. While a lookup is in
// flight, every other caller waits for it instead of issuing its own, and all
// waiters receive the same URL or the same [ErrResolution] failure. Failures are
// not cached: the next call starts a new lookup.
//
// # Errors
//
// Operations return [*Error] values whose kind is one of [ErrConfig],
// [ErrResolution], [ErrSend], [ErrReceive], [ErrDelete] or [ErrDescribe]. The
// underlying AWS error is preserved and can be inspected with [errors.As] or
// [APIErrorCode]. Nothing is retried by this package beyond the AWS SDK
// retryer configured with [WithSqsAPIMaxRetryAttempts] and
// [WithSqsAPIMaxRetryBackoffDelay].
//
// # Credentials
//
// By default the client uses the ambient AWS credential chain (environment,
// shared config, IAM role). [WithStaticCredentials] selects an explicit key
// pair instead.
//
// # WebhookHandler
//
// [WebhookHandler] converts incoming HTTP webhook callbacks into SQS messages
// for targets of the form "sqs://<queue-name>". It keeps one [Client] per queue
// and supports both FIFO and standard queues.
package sqs
