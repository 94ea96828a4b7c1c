package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// CallerAccount returns the account id the active credentials resolve
// to, used by the pipeline as a preflight sanity check against the
// requested account.
func (p *Provider) CallerAccount(ctx context.Context) (string, error) {
	resp, err := p.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %w", err)
	}
	return aws.ToString(resp.Account), nil
}
