// Package aws implements the resolution lookups against live AWS
// infrastructure: EC2 for networks and subnets, Route53 for hosted
// zones, CloudFormation for stack outputs, STS for the caller
// identity. All operations are read-only.
package aws

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type Provider struct {
	cfg aws.Config

	ec2Client     *ec2.Client
	route53Client *route53.Client
	stsClient     *sts.Client

	// Stack lookups are region-parameterized (the core stack is
	// pinned to us-east-1, parents may name their own region), so
	// CloudFormation clients are created per region on demand.
	mu         sync.Mutex
	cfnClients map[string]*cloudformation.Client
}

// New loads the default credential chain pinned to the target region
// and builds clients from it. Credentials and region are carried in
// the returned Provider rather than read from ambient process state.
func New(ctx context.Context, region string) (*Provider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &Provider{
		cfg:           cfg,
		ec2Client:     ec2.NewFromConfig(cfg),
		route53Client: route53.NewFromConfig(cfg),
		stsClient:     sts.NewFromConfig(cfg),
		cfnClients:    make(map[string]*cloudformation.Client),
	}, nil
}

func (p *Provider) cfn(region string) *cloudformation.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.cfnClients[region]; ok {
		return c
	}
	c := cloudformation.NewFromConfig(p.cfg, func(o *cloudformation.Options) {
		o.Region = region
	})
	p.cfnClients[region] = c
	return c
}
