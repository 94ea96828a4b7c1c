package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/resolvr-io/resolvr/internal/resolve"
)

// ListNetworks returns the region's VPCs in the order the API lists
// them. The CIDR reported per VPC is the first associated block from
// the association set, falling back to the top-level block.
func (p *Provider) ListNetworks(ctx context.Context) ([]resolve.Network, error) {
	var networks []resolve.Network
	paginator := ec2.NewDescribeVpcsPaginator(p.ec2Client, &ec2.DescribeVpcsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe VPCs: %w", err)
		}
		for _, vpc := range page.Vpcs {
			networks = append(networks, resolve.Network{
				ID:   aws.ToString(vpc.VpcId),
				CIDR: vpcCidr(vpc),
			})
		}
	}
	return networks, nil
}

func vpcCidr(vpc types.Vpc) string {
	for _, assoc := range vpc.CidrBlockAssociationSet {
		if assoc.CidrBlockState != nil && assoc.CidrBlockState.State == types.VpcCidrBlockStateCodeAssociated {
			return aws.ToString(assoc.CidrBlock)
		}
	}
	return aws.ToString(vpc.CidrBlock)
}
