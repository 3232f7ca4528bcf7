// Package stack reads deployment stack outputs from AWS CloudFormation.
package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"assethost.local/internal/app/assets"
	"assethost.local/internal/platform/metrics"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "assethost.local/internal/app/assets/stack"

// validationErrorCode is what CloudFormation answers for an unknown stack.
const validationErrorCode = "ValidationError"

type api interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// CloudFormation implements assets.StackDescriber.
type CloudFormation struct {
	client api
}

// New builds a describer from the default credential chain.
func New(ctx context.Context, region string) (*CloudFormation, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	slog.Debug("created cloudformation client", "region", region)
	return NewWithClient(cloudformation.NewFromConfig(cfg)), nil
}

func NewWithClient(client api) *CloudFormation {
	return &CloudFormation{client: client}
}

// DescribeStackOutputs returns the outputs of stackName keyed by OutputKey.
// An unknown stack yields assets.ErrStackNotFound.
func (c *CloudFormation) DescribeStackOutputs(ctx context.Context, stackName string) (map[string]string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "cloudformation.DescribeStacks",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("stack.name", stackName)))
	defer span.End()

	resp, err := c.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		if isNotFound(err) {
			err = fmt.Errorf("%w: %s", assets.ErrStackNotFound, stackName)
			metrics.StackLookups.WithLabelValues("not_found").Inc()
		} else {
			err = fmt.Errorf("describe stack %s: %w", stackName, err)
			metrics.StackLookups.WithLabelValues("error").Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp == nil || len(resp.Stacks) == 0 {
		metrics.StackLookups.WithLabelValues("not_found").Inc()
		err := fmt.Errorf("%w: %s", assets.ErrStackNotFound, stackName)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	outputs := make(map[string]string, len(resp.Stacks[0].Outputs))
	for _, o := range resp.Stacks[0].Outputs {
		outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	span.SetAttributes(attribute.Int("stack.outputs", len(outputs)))
	metrics.StackLookups.WithLabelValues("ok").Inc()
	return outputs, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == validationErrorCode &&
		strings.Contains(apiErr.ErrorMessage(), "does not exist")
}
