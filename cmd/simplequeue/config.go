package main

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/slackmgr/simplequeue/sqs"
	"gopkg.in/yaml.v2"
)

type Conf struct {
	Queue           string       `yaml:"queue"`
	Region          string       `yaml:"region"`
	APIVersion      string       `yaml:"api_version"`
	Endpoint        string       `yaml:"endpoint"`
	MaxMessages     *int         `yaml:"max_messages"`
	PollWaitSeconds *int         `yaml:"poll_wait_seconds"`
	Credentials     *Credentials `yaml:"credentials"`
	Retry           *Retry       `yaml:"retry"`
	Log             Log          `yaml:"log"`
}

// Credentials selects a static key pair. Without it the default AWS
// credential chain is used.
type Credentials struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type Retry struct {
	MaxAttempts     *int           `yaml:"max_attempts"`
	MaxBackoffDelay *time.Duration `yaml:"max_backoff_delay"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// loadConf reads a YAML config file. An empty path yields an empty config.
func loadConf(path string) (*Conf, error) {
	conf := &Conf{}

	if path == "" {
		return conf, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return conf, nil
}

func (c *Conf) options() []sqs.Option {
	var opts []sqs.Option

	if c.Region != "" {
		opts = append(opts, sqs.WithRegion(c.Region))
	}

	if c.APIVersion != "" {
		opts = append(opts, sqs.WithAPIVersion(c.APIVersion))
	}

	if c.Endpoint != "" {
		opts = append(opts, sqs.WithEndpoint(c.Endpoint))
	}

	if c.MaxMessages != nil {
		opts = append(opts, sqs.WithMaxMessages(*c.MaxMessages))
	}

	if c.PollWaitSeconds != nil {
		opts = append(opts, sqs.WithPollWaitSeconds(*c.PollWaitSeconds))
	}

	if c.Credentials != nil {
		opts = append(opts, sqs.WithStaticCredentials(c.Credentials.AccessKeyID, c.Credentials.SecretAccessKey))
	}

	if c.Retry != nil {
		if c.Retry.MaxAttempts != nil {
			opts = append(opts, sqs.WithSqsAPIMaxRetryAttempts(*c.Retry.MaxAttempts))
		}

		if c.Retry.MaxBackoffDelay != nil {
			opts = append(opts, sqs.WithSqsAPIMaxRetryBackoffDelay(*c.Retry.MaxBackoffDelay))
		}
	}

	return opts
}

// redacted returns a copy of c that is safe to print.
func (c *Conf) redacted() Conf {
	out := *c

	if c.Credentials != nil {
		creds := *c.Credentials
		if creds.SecretAccessKey != "" {
			creds.SecretAccessKey = "********"
		}
		out.Credentials = &creds
	}

	return out
}
