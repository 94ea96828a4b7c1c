package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/resolvr-io/resolvr/internal/resolve"
)

// ListSubnets returns the subnets of one network with the value of
// their Name tag, empty when untagged.
func (p *Provider) ListSubnets(ctx context.Context, networkID string) ([]resolve.Subnet, error) {
	input := &ec2.DescribeSubnetsInput{
		Filters: []types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{networkID}},
		},
	}

	var subnets []resolve.Subnet
	paginator := ec2.NewDescribeSubnetsPaginator(p.ec2Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe subnets of %s: %w", networkID, err)
		}
		for _, subnet := range page.Subnets {
			subnets = append(subnets, resolve.Subnet{
				ID:   aws.ToString(subnet.SubnetId),
				Name: nameTag(subnet.Tags),
			})
		}
	}
	return subnets, nil
}

func nameTag(tags []types.Tag) string {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == "Name" {
			return aws.ToString(tag.Value)
		}
	}
	return ""
}
