package lambdautils

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Metadata describes the function instance serving the current invocation.
type Metadata struct {
	FunctionName    string
	FunctionVersion string
	Alias           string
	LogGroupName    string
	LogStreamName   string
	MemoryLimitInMB int

	RequestID          string
	InvokedFunctionArn string
}

// FromContext collects the function metadata published by the runtime along
// with the per invocation values carried by ctx. Outside of Lambda every field
// is empty.
func FromContext(ctx context.Context) Metadata {
	m := Metadata{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
		LogGroupName:    lambdacontext.LogGroupName,
		LogStreamName:   lambdacontext.LogStreamName,
		MemoryLimitInMB: lambdacontext.MemoryLimitInMB,
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok {
		m.RequestID = lc.AwsRequestID
		m.InvokedFunctionArn = lc.InvokedFunctionArn
		m.Alias = functionAlias(lc.InvokedFunctionArn)
	}

	return m
}

// Fields returns the metadata as log fields.
func (m Metadata) Fields() logrus.Fields {
	return logrus.Fields{
		"functionName":    m.FunctionName,
		"functionVersion": m.FunctionVersion,
		"requestId":       m.RequestID,
	}
}

// functionAlias returns the qualifier of an invoked function ARN such as
// arn:aws:lambda:us-east-1:123456789012:function:name:PRODUCTION.
func functionAlias(invoked string) string {
	parsed, err := arn.Parse(invoked)
	if err != nil {
		return ""
	}

	parts := strings.Split(parsed.Resource, ":")
	if len(parts) != 3 {
		return ""
	}

	return parts[2]
}

// LogReference ties an error response to the log entry describing its cause.
// It is the only information about an internal failure sent to the client.
type LogReference struct {
	ID           string `json:"id"`
	RequestID    string `json:"requestId"`
	FunctionName string `json:"functionName"`
	LogGroup     string `json:"logGroup"`
	LogStream    string `json:"logStream"`
}

// Reference returns a LogReference with a fresh id for the invocation in ctx.
func Reference(ctx context.Context) LogReference {
	m := FromContext(ctx)

	return LogReference{
		ID:           uuid.NewString(),
		RequestID:    m.RequestID,
		FunctionName: m.FunctionName,
		LogGroup:     m.LogGroupName,
		LogStream:    m.LogStreamName,
	}
}
