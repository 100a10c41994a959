package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
)

// fakeQueue is an in-memory single queue implementing sqs.API.
type fakeQueue struct {
	mu       sync.Mutex
	name     string
	lookups  int
	nextID   int
	pending  []sqstypes.Message
	inflight map[string]sqstypes.Message
	deleted  []string

	// rejectDelete lists receipt handles whose delete fails.
	rejectDelete map[string]bool
}

func newFakeQueue(name string) *fakeQueue {
	return &fakeQueue{name: name, inflight: map[string]sqstypes.Message{}}
}

func (f *fakeQueue) url() string {
	return "https://sqs.us-east-1.amazonaws.com/123456789012/" + f.name
}

func (f *fakeQueue) GetQueueUrl(_ context.Context, params *awssqs.GetQueueUrlInput, _ ...func(*awssqs.Options)) (*awssqs.GetQueueUrlOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups++

	if aws.ToString(params.QueueName) != f.name {
		return nil, &smithy.GenericAPIError{Code: "AWS.SimpleQueueService.NonExistentQueue", Message: "The specified queue does not exist."}
	}

	return &awssqs.GetQueueUrlOutput{QueueUrl: aws.String(f.url())}, nil
}

func (f *fakeQueue) SendMessage(_ context.Context, params *awssqs.SendMessageInput, _ ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)

	f.pending = append(f.pending, sqstypes.Message{
		MessageId:         aws.String(id),
		ReceiptHandle:     aws.String(fmt.Sprintf("rh-%d", f.nextID)),
		Body:              params.MessageBody,
		MessageAttributes: params.MessageAttributes,
	})

	return &awssqs.SendMessageOutput{MessageId: aws.String(id)}, nil
}

func (f *fakeQueue) ReceiveMessage(_ context.Context, params *awssqs.ReceiveMessageInput, _ ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := min(int(params.MaxNumberOfMessages), len(f.pending))

	out := f.pending[:n]
	f.pending = f.pending[n:]

	for _, m := range out {
		f.inflight[aws.ToString(m.ReceiptHandle)] = m
	}

	return &awssqs.ReceiveMessageOutput{Messages: out}, nil
}

func (f *fakeQueue) DeleteMessage(_ context.Context, params *awssqs.DeleteMessageInput, _ ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	handle := aws.ToString(params.ReceiptHandle)

	if _, ok := f.inflight[handle]; !ok || f.rejectDelete[handle] {
		return nil, &smithy.GenericAPIError{Code: "ReceiptHandleIsInvalid", Message: "The input receipt handle is invalid."}
	}

	delete(f.inflight, handle)
	f.deleted = append(f.deleted, handle)

	return &awssqs.DeleteMessageOutput{}, nil
}

func (f *fakeQueue) GetQueueAttributes(_ context.Context, _ *awssqs.GetQueueAttributesInput, _ ...func(*awssqs.Options)) (*awssqs.GetQueueAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return &awssqs.GetQueueAttributesOutput{Attributes: map[string]string{
		"QueueArn":                              "arn:aws:sqs:us-east-1:123456789012:" + f.name,
		"ApproximateNumberOfMessages":           fmt.Sprint(len(f.pending)),
		"ApproximateNumberOfMessagesNotVisible": fmt.Sprint(len(f.inflight)),
	}}, nil
}
