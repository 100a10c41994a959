package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/kr/pretty"
	"github.com/slackmgr/simplequeue/logging"
	"github.com/slackmgr/simplequeue/sqs"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const ackConcurrency = 4

type app struct {
	extra  []sqs.Option
	conf   *Conf
	logger *logging.Logger
}

type receivedMessage struct {
	ID            string            `json:"id"`
	ReceiptHandle string            `json:"receipt_handle"`
	Body          string            `json:"body"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return newApp(stdin, stdout, stderr).RunContext(ctx, args)
}

// newApp builds the CLI. extra options are applied after the configured ones.
func newApp(stdin io.Reader, stdout, stderr io.Writer, extra ...sqs.Option) *cli.App {
	a := &app{extra: extra}

	return &cli.App{
		Name:      "simplequeue",
		Usage:     "Send, receive and delete SQS messages by queue name",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "conf",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{"SIMPLEQUEUE_CONF"},
			},
			&cli.StringFlag{
				Name:    "queue",
				Aliases: []string{"q"},
				Usage:   "queue name",
				EnvVars: []string{"SIMPLEQUEUE_QUEUE"},
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "AWS region",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "SQS endpoint override, e.g. http://localhost:4566",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			{
				Name:      "send",
				Usage:     "Send a message. The body is read from stdin when not given",
				ArgsUsage: "[body]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "delay", Usage: "delivery delay in seconds"},
					&cli.StringFlag{Name: "group-id", Usage: "FIFO message group ID"},
					&cli.StringFlag{Name: "dedup-id", Usage: "FIFO deduplication ID"},
					&cli.StringSliceFlag{Name: "attr", Usage: "message attribute as name=value"},
				},
				Action: a.send,
			},
			{
				Name:  "receive",
				Usage: "Receive one batch of messages and print them as JSON lines",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ack", Usage: "delete the messages after printing them"},
				},
				Action: a.receive,
			},
			{
				Name:      "delete",
				Usage:     "Delete messages by receipt handle",
				ArgsUsage: "<receipt-handle>...",
				Action:    a.delete,
			},
			{
				Name:   "attributes",
				Usage:  "Print queue attributes",
				Action: a.attributes,
			},
			{
				Name:  "config",
				Usage: "Print the effective configuration",
				Action: func(c *cli.Context) error {
					_, err := pretty.Fprintf(c.App.Writer, "%# v\n", a.conf.redacted())
					return err
				},
			},
		},
	}
}

func (a *app) before(c *cli.Context) error {
	conf, err := loadConf(c.Path("conf"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("queue") {
		conf.Queue = c.String("queue")
	}

	if c.IsSet("region") {
		conf.Region = c.String("region")
	}

	if c.IsSet("endpoint") {
		conf.Endpoint = c.String("endpoint")
	}

	if c.IsSet("log-level") {
		conf.Log.Level = c.String("log-level")
	}

	logger, err := logging.NewConsole(c.App.ErrWriter, conf.Log.Level, conf.Log.Pretty)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	a.conf = conf
	a.logger = logger

	return nil
}

func (a *app) client(ctx context.Context) (*sqs.Client, error) {
	opts := append(a.conf.options(), a.extra...)

	return sqs.New(a.conf.Queue, a.logger, opts...).Init(ctx)
}

func (a *app) send(c *cli.Context) error {
	body := c.Args().First()

	if c.NArg() == 0 {
		b, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return err
		}

		body = strings.TrimRight(string(b), "\r\n")
	}

	var opts []sqs.SendOption

	if d := c.Int("delay"); d > 0 {
		opts = append(opts, sqs.WithDelaySeconds(int32(d))) //nolint:gosec // SQS validates the range
	}

	if id := c.String("group-id"); id != "" {
		opts = append(opts, sqs.WithMessageGroupID(id))
	}

	if id := c.String("dedup-id"); id != "" {
		opts = append(opts, sqs.WithDeduplicationID(id))
	}

	for _, attr := range c.StringSlice("attr") {
		name, value, ok := strings.Cut(attr, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid attribute %q, expected name=value", attr)
		}

		opts = append(opts, sqs.WithMessageAttribute(name, value))
	}

	client, err := a.client(c.Context)
	if err != nil {
		return err
	}

	result, err := client.Send(c.Context, payload(body), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, result.MessageID)

	return err
}

// payload sends JSON bodies as-is and anything else as a JSON string.
func payload(body string) any {
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}

	return body
}

// receive prints one batch of messages. With --ack the messages are deleted
// only after all of them have been written; every ack is attempted and the
// failures are returned together.
func (a *app) receive(c *cli.Context) error {
	client, err := a.client(c.Context)
	if err != nil {
		return err
	}

	msgs, err := client.Receive(c.Context)
	if err != nil {
		return err
	}

	a.logger.Debugf("Received %d messages from %s", len(msgs), client.Name())

	enc := json.NewEncoder(c.App.Writer)

	for _, msg := range msgs {
		out := receivedMessage{
			ID:            msg.ID,
			ReceiptHandle: msg.ReceiptHandle,
			Body:          msg.Body,
			Attributes:    msg.MessageAttributes,
		}

		if len(out.Attributes) == 0 {
			out.Attributes = nil
		}

		if err := enc.Encode(out); err != nil {
			return err
		}
	}

	if !c.Bool("ack") {
		return nil
	}

	ackErrs := make([]error, len(msgs))

	var g errgroup.Group
	g.SetLimit(ackConcurrency)

	for i, msg := range msgs {
		g.Go(func() error {
			if err := msg.Ack(c.Context); err != nil {
				a.logger.WithField("message_id", msg.ID).Errorf("Failed to ack message: %v", err)
				ackErrs[i] = err
			}
			return nil
		})
	}

	_ = g.Wait()

	return errors.Join(ackErrs...)
}

// delete removes every given receipt handle, attempting all of them even when
// some fail.
func (a *app) delete(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one receipt handle is required")
	}

	client, err := a.client(c.Context)
	if err != nil {
		return err
	}

	ctx := c.Context
	wg := sync.WaitGroup{}
	sem := semaphore.NewWeighted(ackConcurrency)

	var mu sync.Mutex
	var errs []error

	for _, handle := range c.Args().Slice() {
		wg.Go(func() {
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			if err := client.Delete(ctx, handle); err != nil {
				a.logger.WithField("receipt_handle", handle).Errorf("Failed to delete message: %v", err)

				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
	}

	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	return errors.Join(errs...)
}

func (a *app) attributes(c *cli.Context) error {
	client, err := a.client(c.Context)
	if err != nil {
		return err
	}

	attrs, err := client.Attributes(c.Context)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(c.App.Writer, "%s=%s\n", k, attrs[k]); err != nil {
			return err
		}
	}

	return nil
}
