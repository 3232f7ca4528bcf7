package stack

import (
	"context"
	"errors"
	"testing"

	"assethost.local/internal/app/assets"
	"assethost.local/internal/platform/metrics"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fakeAPI struct {
	out   *cloudformation.DescribeStacksOutput
	err   error
	names []string
}

func (f *fakeAPI) DescribeStacks(_ context.Context, in *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	f.names = append(f.names, aws.ToString(in.StackName))
	return f.out, f.err
}

func stackWith(outputs map[string]string) *cloudformation.DescribeStacksOutput {
	s := types.Stack{StackName: aws.String("demo-dev")}
	for k, v := range outputs {
		s.Outputs = append(s.Outputs, types.Output{
			OutputKey:   aws.String(k),
			OutputValue: aws.String(v),
		})
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []types.Stack{s}}
}

func TestDescribeStackOutputs(t *testing.T) {
	api := &fakeAPI{out: stackWith(map[string]string{
		"S3Bucket":          "demo-dev-s3bucket-1jg5o076egkk4",
		"ApiGatewayRestApi": "abc123",
	})}
	before := testutil.ToFloat64(metrics.StackLookups.WithLabelValues("ok"))

	got, err := NewWithClient(api).DescribeStackOutputs(context.Background(), "demo-dev")
	if err != nil {
		t.Fatalf("DescribeStackOutputs: %v", err)
	}
	if got["S3Bucket"] != "demo-dev-s3bucket-1jg5o076egkk4" || got["ApiGatewayRestApi"] != "abc123" {
		t.Errorf("outputs = %v", got)
	}
	if len(api.names) != 1 || api.names[0] != "demo-dev" {
		t.Errorf("described %v, want [demo-dev]", api.names)
	}
	if after := testutil.ToFloat64(metrics.StackLookups.WithLabelValues("ok")); after-before != 1 {
		t.Errorf("ok lookups delta = %v, want 1", after-before)
	}
}

func TestDescribeStackOutputsFeedsResolver(t *testing.T) {
	api := &fakeAPI{out: stackWith(map[string]string{"S3Bucket": "mybucket"})}
	r := assets.NewResolver(NewWithClient(api), assets.ResolverOptions{StackName: "demo-dev", Region: "us-west-2"})

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := "https://us-west-2-s3.aws.amazon.com/mybucket/public"; got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestDescribeStackOutputsNotFound(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
	}{
		{
			name: "validation error",
			api: &fakeAPI{err: &smithy.GenericAPIError{
				Code:    "ValidationError",
				Message: "Stack with id demo-dev does not exist",
			}},
		},
		{
			name: "empty stack list",
			api:  &fakeAPI{out: &cloudformation.DescribeStacksOutput{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithClient(tt.api).DescribeStackOutputs(context.Background(), "demo-dev")
			if !errors.Is(err, assets.ErrStackNotFound) {
				t.Fatalf("expected ErrStackNotFound, got %v", err)
			}
		})
	}
}

func TestDescribeStackOutputsOtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"throttling", &smithy.GenericAPIError{Code: "Throttling", Message: "Rate exceeded"}},
		{"validation without not found", &smithy.GenericAPIError{Code: "ValidationError", Message: "1 validation error detected"}},
		{"transport", errors.New("dial tcp: i/o timeout")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithClient(&fakeAPI{err: tt.err}).DescribeStackOutputs(context.Background(), "demo-dev")
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, assets.ErrStackNotFound) {
				t.Fatalf("%v must not be reported as not found", err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("error %v does not wrap %v", err, tt.err)
			}
		})
	}
}

func TestDescribeStackOutputsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	c := NewWithClient(&fakeAPI{err: errors.New("boom")})
	if _, err := c.DescribeStackOutputs(context.Background(), "demo-dev"); err == nil {
		t.Fatal("expected error")
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "cloudformation.DescribeStacks" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", s.Status().Code)
	}
	var found bool
	for _, kv := range s.Attributes() {
		if string(kv.Key) == "stack.name" && kv.Value.AsString() == "demo-dev" {
			found = true
		}
	}
	if !found {
		t.Errorf("stack.name attribute missing: %v", s.Attributes())
	}
}
