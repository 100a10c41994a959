package sqs

import (
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

const (
	// DefaultRegion is the AWS region used when none is configured.
	DefaultRegion = "us-east-1"

	// APIVersion is the SQS API version spoken by the AWS SDK. It is the only
	// value accepted by [WithAPIVersion].
	APIVersion = "2012-11-05"

	// DefaultMaxMessages is the default, and largest, number of messages
	// requested by a single receive call.
	DefaultMaxMessages = 10

	// DefaultPollWaitSeconds is the default long-poll wait of a receive call.
	DefaultPollWaitSeconds = 10
)

// Option is a functional option for configuring a [Client].
// Options are passed to [New] and applied before [Client.Init] is called.
type Option func(*Options)

// Options holds the resolved configuration for a [Client].
// All fields are set to sensible defaults by [New]; use With* functions to
// override individual values.
type Options struct {
	region                     string
	apiVersion                 string
	useIAMRole                 bool
	accessKeyID                string
	secretAccessKey            string
	endpoint                   string
	maxMessages                int
	pollWaitSeconds            int
	sqsAPIMaxRetryAttempts     int
	sqsAPIMaxRetryBackoffDelay time.Duration
	awsCfg                     *aws.Config
	metrics                    *Metrics
	api                        API // Optional: injected SQS client for testing
}

func newOptions() *Options {
	return &Options{
		region:                     DefaultRegion,
		apiVersion:                 APIVersion,
		useIAMRole:                 true,
		maxMessages:                DefaultMaxMessages,
		pollWaitSeconds:            DefaultPollWaitSeconds,
		sqsAPIMaxRetryAttempts:     5,
		sqsAPIMaxRetryBackoffDelay: 10 * time.Second,
	}
}

func (o *Options) validate() error {
	if !o.useIAMRole {
		if o.accessKeyID == "" {
			return errors.New("access key ID is required when not using an IAM role")
		}

		if o.secretAccessKey == "" {
			return errors.New("secret access key is required when not using an IAM role")
		}
	}

	if o.region == "" {
		return errors.New("region cannot be empty")
	}

	if o.apiVersion != APIVersion {
		return fmt.Errorf("unsupported SQS API version %q (supported: %s)", o.apiVersion, APIVersion)
	}

	if o.pollWaitSeconds < 0 || o.pollWaitSeconds > 20 {
		return errors.New("SQS receive poll wait must be between 0 and 20 seconds")
	}

	// The SDK treats 0 max attempts as unlimited retries.
	if o.sqsAPIMaxRetryAttempts < 1 || o.sqsAPIMaxRetryAttempts > 10 {
		return errors.New("max SQS API attempts must be between 1 and 10")
	}

	if o.sqsAPIMaxRetryBackoffDelay < 1*time.Second || o.sqsAPIMaxRetryBackoffDelay > 30*time.Second {
		return errors.New("max SQS API retry backoff delay must be between 1 and 30 seconds")
	}

	return nil
}

// clampMaxMessages resets an out-of-range max messages value to
// [DefaultMaxMessages]. It reports whether the value was changed.
func (o *Options) clampMaxMessages() bool {
	if o.maxMessages >= 1 && o.maxMessages <= DefaultMaxMessages {
		return false
	}

	o.maxMessages = DefaultMaxMessages

	return true
}

// MaxMessages returns the number of messages requested by each receive call.
func (o *Options) MaxMessages() int {
	return o.maxMessages
}

// PollWaitSeconds returns the long-poll wait of each receive call.
func (o *Options) PollWaitSeconds() int {
	return o.pollWaitSeconds
}

// Region returns the configured AWS region.
func (o *Options) Region() string {
	return o.region
}

// WithRegion sets the AWS region of the queue. Default: us-east-1.
// Ignored when an AWS config with a region is supplied through [WithAWSConfig].
func WithRegion(region string) Option {
	return func(o *Options) {
		o.region = region
	}
}

// WithAPIVersion pins the SQS API version. Only [APIVersion] is supported;
// anything else makes [Client.Init] fail.
func WithAPIVersion(version string) Option {
	return func(o *Options) {
		o.apiVersion = version
	}
}

// WithIAMRole selects ambient credentials: the default AWS credential chain
// (environment, shared config, IAM role). This is the default.
func WithIAMRole() Option {
	return func(o *Options) {
		o.useIAMRole = true
		o.accessKeyID = ""
		o.secretAccessKey = ""
	}
}

// WithStaticCredentials selects an explicit key pair instead of ambient
// credentials. Both values are required.
func WithStaticCredentials(accessKeyID, secretAccessKey string) Option {
	return func(o *Options) {
		o.useIAMRole = false
		o.accessKeyID = accessKeyID
		o.secretAccessKey = secretAccessKey
	}
}

// WithEndpoint overrides the SQS service endpoint, e.g. to target LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.endpoint = endpoint
	}
}

// WithMaxMessages sets the maximum number of messages returned by a single
// receive call. Values outside 1-10 are reset to 10 by [Client.Init] with a
// warning. Default: 10.
func WithMaxMessages(n int) Option {
	return func(o *Options) {
		o.maxMessages = n
	}
}

// WithPollWaitSeconds sets the long-poll wait duration for each receive call.
// Must be between 0 and 20 seconds. Default: 10.
func WithPollWaitSeconds(seconds int) Option {
	return func(o *Options) {
		o.pollWaitSeconds = seconds
	}
}

// WithSqsAPIMaxRetryAttempts sets the maximum number of attempts for a single
// SQS API call, including the first one. 1 disables retries. Must be between 1
// and 10. Default: 5.
func WithSqsAPIMaxRetryAttempts(n int) Option {
	return func(o *Options) {
		o.sqsAPIMaxRetryAttempts = n
	}
}

// WithSqsAPIMaxRetryBackoffDelay sets the maximum backoff delay between
// consecutive SQS API retry attempts. Must be between 1 second and 30 seconds.
// Default: 10 seconds.
func WithSqsAPIMaxRetryBackoffDelay(d time.Duration) Option {
	return func(o *Options) {
		o.sqsAPIMaxRetryBackoffDelay = d
	}
}

// WithAWSConfig uses awsCfg as the base AWS configuration instead of loading
// the default one. Static credentials still apply on top of it, and its region
// takes precedence over [WithRegion] when set.
func WithAWSConfig(awsCfg *aws.Config) Option {
	return func(o *Options) {
		o.awsCfg = awsCfg
	}
}

// WithMetrics records client metrics in m. Share one [Metrics] value between
// clients registered with the same registry.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.metrics = m
	}
}

// WithAPI replaces the default AWS SQS client with a custom implementation of
// [API]. This is useful for injecting mocks in tests.
func WithAPI(api API) Option {
	return func(o *Options) {
		o.api = api
	}
}
