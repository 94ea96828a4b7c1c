package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/smithy-go"

	"github.com/resolvr-io/resolvr/internal/resolve"
)

// StackOutputs returns the published outputs of one stack. A missing
// stack is reported as resolve.ErrStackNotFound so the pipeline can
// treat it as a soft condition; every other API failure (auth,
// throttling, malformed response) passes through untouched and the
// pipeline escalates it.
func (p *Provider) StackOutputs(ctx context.Context, region, stackName string) (map[string]string, error) {
	resp, err := p.cfn(region).DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		if isStackNotFound(err) {
			return nil, fmt.Errorf("stack %s in %s: %w", stackName, region, resolve.ErrStackNotFound)
		}
		return nil, fmt.Errorf("failed to describe stack %s in %s: %w", stackName, region, err)
	}
	if len(resp.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s in %s: %w", stackName, region, resolve.ErrStackNotFound)
	}

	outputs := make(map[string]string)
	for _, output := range resp.Stacks[0].Outputs {
		if key := aws.ToString(output.OutputKey); key != "" {
			outputs[key] = aws.ToString(output.OutputValue)
		}
	}
	return outputs, nil
}

// CloudFormation reports a missing stack as a ValidationError whose
// message ends in "does not exist"; there is no dedicated error type
// for DescribeStacks.
func isStackNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "does not exist")
}
