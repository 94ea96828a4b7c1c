package resolve

import "context"

// Network is one candidate VPC returned by a NetworkLookup, in the
// underlying API's order. CIDR is the provider's preferred block for
// the VPC (the first associated block when the API distinguishes).
type Network struct {
	ID   string
	CIDR string
}

// Zone is one hosted zone. Name keeps whatever trailing dot the
// name service reports; the pipeline normalizes it.
type Zone struct {
	ID      string
	Name    string
	Private bool
}

// Subnet is one subnet of a network. Name is the value of the
// subnet's Name tag, empty when the subnet has none.
type Subnet struct {
	ID   string
	Name string
}

// The pipeline consumes live infrastructure exclusively through these
// capability interfaces so tests can substitute deterministic fakes.
// Implementations own transport concerns (credentials, pagination,
// per-call timeouts); the pipeline owns selection and merge semantics.

type NetworkLookup interface {
	// ListNetworks returns all candidate networks in the target
	// region, preserving the API's returned order.
	ListNetworks(ctx context.Context) ([]Network, error)
}

type ZoneLookup interface {
	// ListZones returns every hosted zone visible to the account.
	ListZones(ctx context.Context) ([]Zone, error)
}

type SubnetLookup interface {
	// ListSubnets returns the subnets belonging to networkID.
	ListSubnets(ctx context.Context, networkID string) ([]Subnet, error)
}

type StackOutputLookup interface {
	// StackOutputs returns the published outputs of the named stack in
	// the given region. A missing stack is reported as an error
	// wrapping ErrStackNotFound; any other error is a hard failure.
	StackOutputs(ctx context.Context, region, stackName string) (map[string]string, error)
}

type IdentityLookup interface {
	// CallerAccount returns the account id the active credentials
	// belong to.
	CallerAccount(ctx context.Context) (string, error)
}

type BuildIDSource interface {
	// BuildID derives a short build identifier from local
	// version-control state.
	BuildID(ctx context.Context) (string, error)
}

// Lookups bundles the capabilities a Pipeline resolves against.
// Identity and BuildID may be nil; the corresponding contribution is
// then skipped with a diagnostic where one is warranted.
type Lookups struct {
	Networks NetworkLookup
	Zones    ZoneLookup
	Subnets  SubnetLookup
	Stacks   StackOutputLookup
	Identity IdentityLookup
	BuildID  BuildIDSource
}
