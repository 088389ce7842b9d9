// Package arn works with the Amazon Resource Names of queues a handler hands
// work off to.
package arn

import (
	"fmt"
	"strings"

	awsarn "github.com/aws/aws-sdk-go/aws/arn"
	"github.com/pkg/errors"
)

// ErrInvalidSubcomponent is returned when an ARN lacks a part needed to
// address the resource.
var ErrInvalidSubcomponent = errors.New("invalid ARN subcomponent")

// SQSQueue is the ARN of an SQS queue, e.g.
// arn:aws:sqs:us-east-1:123456789012:my-queue.
type SQSQueue struct {
	awsarn.ARN
}

// ParseSQSQueue parses s and checks it names an SQS resource.
func ParseSQSQueue(s string) (SQSQueue, error) {
	parsed, err := awsarn.Parse(strings.TrimSpace(s))
	if err != nil {
		return SQSQueue{}, errors.Wrapf(err, "unable to parse queue ARN %q", s)
	}

	if parsed.Service != "sqs" {
		return SQSQueue{}, errors.Errorf("ARN %q is not an sqs resource", s)
	}

	return SQSQueue{parsed}, nil
}

// URL returns the queue URL expected by the SQS API.
func (q SQSQueue) URL() (string, error) {
	region := strings.TrimSpace(q.Region)
	resource := strings.TrimSpace(q.Resource)

	if q.Service != "sqs" || region == "" || resource == "" {
		return "", ErrInvalidSubcomponent
	}

	return fmt.Sprintf("https://sqs.%s.amazonaws.com/%s/%s", region, q.AccountID, resource), nil
}
