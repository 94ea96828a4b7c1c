package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"

	"github.com/resolvr-io/resolvr/internal/resolve"
)

// ListZones returns every hosted zone the account can see. Zone ids
// and names are passed through as Route53 reports them (the id keeps
// its /hostedzone/ prefix, the name its trailing dot); normalization
// is the pipeline's concern.
func (p *Provider) ListZones(ctx context.Context) ([]resolve.Zone, error) {
	var zones []resolve.Zone
	paginator := route53.NewListHostedZonesPaginator(p.route53Client, &route53.ListHostedZonesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list hosted zones: %w", err)
		}
		for _, zone := range page.HostedZones {
			private := zone.Config != nil && zone.Config.PrivateZone
			zones = append(zones, resolve.Zone{
				ID:      aws.ToString(zone.Id),
				Name:    aws.ToString(zone.Name),
				Private: private,
			})
		}
	}
	return zones, nil
}
