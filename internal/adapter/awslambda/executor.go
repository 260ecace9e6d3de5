// Package awslambda dispatches notification payloads through an AWS Lambda
// function invoked asynchronously.
package awslambda

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// invokeAPI is the slice of the Lambda client the executor uses; tests swap
// in a fake.
type invokeAPI interface {
	Invoke(ctx context.Context, params *lambdasvc.InvokeInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.InvokeOutput, error)
}

// Executor implements domain.NotificationExecutor with Lambda "Event"
// invocations: the call returns as soon as the request is accepted, delivery
// happens out of band.
type Executor struct {
	client       invokeAPI
	functionName string
	logger       *slog.Logger
}

// NewExecutor loads AWS configuration for the given region and builds the
// Lambda-backed executor.
func NewExecutor(ctx context.Context, functionName, region string, logger *slog.Logger) (*Executor, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Executor{
		client:       lambdasvc.NewFromConfig(cfg),
		functionName: functionName,
		logger:       logger,
	}, nil
}

// InvokeAsync submits the payload with invocation type Event. A nil error
// means Lambda accepted the request, not that the notification was delivered.
func (e *Executor) InvokeAsync(ctx context.Context, payload []byte) error {
	out, err := e.client.Invoke(ctx, &lambdasvc.InvokeInput{
		FunctionName:   aws.String(e.functionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("invoke %s: %w", e.functionName, err)
	}

	// Event invocations are accepted with 202.
	if out.StatusCode < 200 || out.StatusCode > 299 {
		return fmt.Errorf("invoke %s: unexpected status %d", e.functionName, out.StatusCode)
	}

	e.logger.Debug("notification invocation accepted", "function", e.functionName)
	return nil
}
