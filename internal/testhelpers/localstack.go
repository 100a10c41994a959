package testhelpers

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
)

const (
	LocalStackRegion    = "eu-west-1"
	LocalStackAccessKey = "test"
	LocalStackSecretKey = "test"
)

type LocalStackContainer struct {
	Config   aws.Config
	Endpoint string

	*localstack.LocalStackContainer
}

func CreateLocalStackContainer(ctx context.Context) (*LocalStackContainer, error) {
	lsContainer, err := localstack.Run(ctx, "localstack/localstack:3.0.2",
		testcontainers.WithEnv(map[string]string{"SERVICES": "sqs"}),
	)
	if err != nil {
		return nil, err
	}

	endpoint, err := lsContainer.PortEndpoint(ctx, "4566/tcp", "http")
	if err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(LocalStackRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(LocalStackAccessKey, LocalStackSecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	return &LocalStackContainer{
		Config:              awsCfg,
		Endpoint:            endpoint,
		LocalStackContainer: lsContainer,
	}, nil
}

// SQSClient returns a raw SDK client for setting up fixtures.
func (c *LocalStackContainer) SQSClient() *sqs.Client {
	return sqs.NewFromConfig(c.Config, func(o *sqs.Options) {
		o.BaseEndpoint = aws.String(c.Endpoint)
	})
}

// CreateQueue creates a queue and returns its URL. Names ending in ".fifo"
// create FIFO queues.
func (c *LocalStackContainer) CreateQueue(ctx context.Context, name string) (string, error) {
	input := &sqs.CreateQueueInput{QueueName: aws.String(name)}

	if strings.HasSuffix(name, ".fifo") {
		input.Attributes = map[string]string{"FifoQueue": "true"}
	}

	out, err := c.SQSClient().CreateQueue(ctx, input)
	if err != nil {
		return "", err
	}

	return aws.ToString(out.QueueUrl), nil
}
