package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resolvr-io/resolvr/internal/params"
)

// fakeInfra implements every lookup capability with canned data.
type fakeInfra struct {
	networks    []Network
	networksErr error

	zones    []Zone
	zonesErr error

	subnets    map[string][]Subnet
	subnetsErr error

	// stacks is keyed by region + "/" + stack name; a stack absent
	// from the map reports ErrStackNotFound.
	stacks    map[string]map[string]string
	stacksErr error

	account    string
	accountErr error

	buildID    string
	buildIDErr error
}

func (f *fakeInfra) ListNetworks(context.Context) ([]Network, error) {
	return f.networks, f.networksErr
}

func (f *fakeInfra) ListZones(context.Context) ([]Zone, error) {
	return f.zones, f.zonesErr
}

func (f *fakeInfra) ListSubnets(_ context.Context, networkID string) ([]Subnet, error) {
	if f.subnetsErr != nil {
		return nil, f.subnetsErr
	}
	return f.subnets[networkID], nil
}

func (f *fakeInfra) StackOutputs(_ context.Context, region, stackName string) (map[string]string, error) {
	if f.stacksErr != nil {
		return nil, f.stacksErr
	}
	if outputs, ok := f.stacks[region+"/"+stackName]; ok {
		return outputs, nil
	}
	return nil, fmt.Errorf("stack %s in %s: %w", stackName, region, ErrStackNotFound)
}

func (f *fakeInfra) CallerAccount(context.Context) (string, error) {
	return f.account, f.accountErr
}

func (f *fakeInfra) BuildID(context.Context) (string, error) {
	return f.buildID, f.buildIDErr
}

func (f *fakeInfra) lookups() Lookups {
	return Lookups{
		Networks: f,
		Zones:    f,
		Subnets:  f,
		Stacks:   f,
		Identity: f,
		BuildID:  f,
	}
}

func baseInputs() Inputs {
	return Inputs{
		AccountID:        "123456789012",
		Region:           "us-east-1",
		ProjectName:      "myapp",
		EnvironmentName:  "dev",
		HostedZoneSuffix: "example.com",
	}
}

func happyInfra() *fakeInfra {
	return &fakeInfra{
		networks: []Network{{ID: "vpc-abc123", CIDR: "10.0.0.0/16"}},
		zones: []Zone{
			{ID: "/hostedzone/ZPUBLIC1", Name: "example.com.", Private: false},
			{ID: "/hostedzone/ZPRIVATE1", Name: "example.com.", Private: true},
		},
		subnets: map[string][]Subnet{
			"vpc-abc123": {
				{ID: "subnet-111", Name: "public-subnet-1a"},
				{ID: "subnet-222", Name: "private-subnet-1a"},
			},
		},
		stacks:  map[string]map[string]string{},
		account: "123456789012",
		buildID: "abc1234",
	}
}

func value(t *testing.T, set *params.Set, key string) string {
	t.Helper()
	v, ok := set.Get(key)
	require.True(t, ok, "key %s missing", key)
	require.NotNil(t, v, "key %s is null", key)
	return *v
}

func TestResolve_FullDiscovery(t *testing.T) {
	infra := happyInfra()
	p := NewPipeline(infra.lookups())

	set, diags, err := p.Resolve(context.Background(), baseInputs())
	require.NoError(t, err)

	assert.Equal(t, "123456789012", value(t, set, KeyAccountID))
	assert.Equal(t, "us-east-1", value(t, set, KeyRegion))
	assert.Equal(t, "myapp", value(t, set, KeyProjectName))
	assert.Equal(t, "dev", value(t, set, KeyEnvironmentNameLower))
	assert.Equal(t, "DEV", value(t, set, KeyEnvironmentNameUpper))

	assert.Equal(t, "vpc-abc123", value(t, set, KeyVPCID))
	assert.Equal(t, "10.0.0.0/16", value(t, set, KeyVPCCidr))
	assert.Equal(t, "example.com", value(t, set, KeyPublicZoneName))
	assert.Equal(t, "ZPUBLIC1", value(t, set, KeyPublicZoneID))
	assert.Equal(t, "example.com", value(t, set, KeyPrivateZoneName))
	assert.Equal(t, "ZPRIVATE1", value(t, set, KeyPrivateZoneID))
	assert.Equal(t, "subnet-111", value(t, set, "public-subnet-1a"))
	assert.Equal(t, "subnet-222", value(t, set, "private-subnet-1a"))
	assert.Equal(t, "abc1234", value(t, set, KeyBuildID))

	// Only the missing core stack is worth a diagnostic here.
	require.Len(t, diags, 1)
	assert.Equal(t, params.StageCoreStack, diags[0].Stage)

	src, ok := set.Source("public-subnet-1a")
	require.True(t, ok)
	assert.Equal(t, params.StageDiscovery, src)
}

func TestResolve_NoNetworks(t *testing.T) {
	infra := happyInfra()
	infra.networks = nil
	p := NewPipeline(infra.lookups())

	set, diags, err := p.Resolve(context.Background(), baseInputs())
	require.NoError(t, err)

	// VPCId and VPCCidr are present with explicit nulls, not omitted.
	v, ok := set.Get(KeyVPCID)
	require.True(t, ok)
	assert.Nil(t, v)
	v, ok = set.Get(KeyVPCCidr)
	require.True(t, ok)
	assert.Nil(t, v)

	// Subnet discovery is skipped, with a diagnostic.
	assert.False(t, set.Has("public-subnet-1a"))
	var summaries []string
	for _, d := range diags {
		summaries = append(summaries, d.Summary)
	}
	assert.Contains(t, summaries, "no network found")
	assert.Contains(t, summaries, "skipping subnet discovery")
}

func TestResolve_MultipleNetworksFirstMatchWins(t *testing.T) {
	infra := happyInfra()
	infra.networks = []Network{
		{ID: "vpc-abc123", CIDR: "10.0.0.0/16"},
		{ID: "vpc-def456", CIDR: "10.1.0.0/16"},
		{ID: "vpc-ghi789", CIDR: "10.2.0.0/16"},
	}
	p := NewPipeline(infra.lookups())

	set, diags, err := p.Resolve(context.Background(), baseInputs())
	require.NoError(t, err)

	assert.Equal(t, "vpc-abc123", value(t, set, KeyVPCID))

	count := 0
	for _, d := range diags {
		if d.Summary == "multiple networks found, using the first" {
			count++
			assert.Contains(t, d.Detail, "vpc-def456")
			assert.Contains(t, d.Detail, "vpc-ghi789")
		}
	}
	assert.Equal(t, 1, count, "exactly one tie-break diagnostic")
}

func TestResolve_ParentStackOverridesCoreStack(t *testing.T) {
	infra := happyInfra()
	infra.stacks["us-east-1/MYAPP-DEV-CORE-global"] = map[string]string{
		"VPCSecurityGroupId": "sg-from-core",
		"ArtifactBucket":     "core-artifacts",
	}
	infra.stacks["us-east-1/MYAPP-DEV-CORE-vpc"] = map[string]string{
		"VPCSecurityGroupId": "sg-from-parent",
	}
	in := baseInputs()
	in.ParentStacks = []ParentStack{{Name: "CORE-vpc"}}
	p := NewPipeline(infra.lookups())

	set, _, err := p.Resolve(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "sg-from-parent", value(t, set, "VPCSecurityGroupId"))
	assert.Equal(t, "core-artifacts", value(t, set, "ArtifactBucket"))

	src, _ := set.Source("VPCSecurityGroupId")
	assert.Equal(t, params.StageParentStack, src)
}

func TestResolve_LaterParentStackWins(t *testing.T) {
	infra := happyInfra()
	infra.stacks["us-east-1/MYAPP-DEV-CORE-vpc"] = map[string]string{
		"VPCSecurityGroupId": "sg-vpc-stack",
	}
	infra.stacks["us-east-1/MYAPP-DEV-CORE-database"] = map[string]string{
		"VPCSecurityGroupId": "sg-database-stack",
	}
	in := baseInputs()
	in.ParentStacks = []ParentStack{{Name: "CORE-vpc"}, {Name: "CORE-database"}}
	p := NewPipeline(infra.lookups())

	set, _, err := p.Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "sg-database-stack", value(t, set, "VPCSecurityGroupId"))
}

func TestResolve_ParentStackRegionPin(t *testing.T) {
	infra := happyInfra()
	infra.stacks["eu-west-1/MYAPP-DEV-CORE-edge"] = map[string]string{
		"EdgeCertArn": "arn:aws:acm:eu-west-1:cert",
	}
	in := baseInputs()
	in.ParentStacks = ParseParentStacks([]string{"CORE-edge@eu-west-1"})
	p := NewPipeline(infra.lookups())

	set, _, err := p.Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:acm:eu-west-1:cert", value(t, set, "EdgeCertArn"))
}

func TestResolve_OverrideSupremacy(t *testing.T) {
	infra := happyInfra()
	infra.stacks["us-east-1/MYAPP-DEV-CORE-global"] = map[string]string{
		"BuildId": "from-core-stack",
	}
	in := baseInputs()
	in.Overrides = []string{
		"BuildId=custom-build-123",
		"Region=eu-central-1", // overrides even a base field
	}
	p := NewPipeline(infra.lookups())

	set, _, err := p.Resolve(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "custom-build-123", value(t, set, KeyBuildID))
	assert.Equal(t, "eu-central-1", value(t, set, KeyRegion))

	src, _ := set.Source(KeyBuildID)
	assert.Equal(t, params.StageOverride, src)
}

func TestResolve_StackOutputsCannotOverwriteBase(t *testing.T) {
	infra := happyInfra()
	infra.stacks["us-east-1/MYAPP-DEV-CORE-global"] = map[string]string{
		"Region":    "ap-southeast-2",
		"AccountId": "000000000000",
		"Harmless":  "kept",
	}
	p := NewPipeline(infra.lookups())

	set, _, err := p.Resolve(context.Background(), baseInputs())
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", value(t, set, KeyRegion))
	assert.Equal(t, "123456789012", value(t, set, KeyAccountID))
	assert.Equal(t, "kept", value(t, set, "Harmless"))

	src, _ := set.Source(KeyRegion)
	assert.Equal(t, params.StageBase, src)
}

func TestResolve_MalformedOverrideIgnored(t *testing.T) {
	infra := happyInfra()
	in := baseInputs()
	in.Overrides = []string{"CustomParameter", "Good=value"}
	p := NewPipeline(infra.lookups())

	set, diags, err := p.Resolve(context.Background(), in)
	require.NoError(t, err)

	assert.False(t, set.Has("CustomParameter"))
	assert.Equal(t, "value", value(t, set, "Good"))
	assert.Equal(t, "vpc-abc123", value(t, set, KeyVPCID))

	found := false
	for _, d := range diags {
		if d.Stage == params.StageOverride {
			found = true
		}
	}
	assert.True(t, found, "malformed override diagnostic")
}

func TestResolve_StackOutputsOverrideGeneratedBuildID(t *testing.T) {
	infra := happyInfra()
	infra.stacks["us-east-1/MYAPP-DEV-CORE-global"] = map[string]string{
		"BuildId": "pinned-by-core",
	}
	p := NewPipeline(infra.lookups())

	set, _, err := p.Resolve(context.Background(), baseInputs())
	require.NoError(t, err)
	assert.Equal(t, "pinned-by-core", value(t, set, KeyBuildID))
}

func TestResolve_BuildIDFailureIsSoft(t *testing.T) {
	infra := happyInfra()
	infra.buildIDErr = errors.New("not a git repository")
	p := NewPipeline(infra.lookups())

	set, diags, err := p.Resolve(context.Background(), baseInputs())
	require.NoError(t, err)

	assert.False(t, set.Has(KeyBuildID))
	found := false
	for _, d := range diags {
		if d.Stage == params.StageGenerated {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolve_UntaggedSubnetSkipped(t *testing.T) {
	infra := happyInfra()
	infra.subnets["vpc-abc123"] = append(infra.subnets["vpc-abc123"], Subnet{ID: "subnet-333"})
	p := NewPipeline(infra.lookups())

	set, diags, err := p.Resolve(context.Background(), baseInputs())
	require.NoError(t, err)

	assert.Equal(t, "subnet-111", value(t, set, "public-subnet-1a"))
	count := 0
	for _, d := range diags {
		if d.Summary == "subnet has no Name tag" {
			count++
			assert.Equal(t, "subnet-333", d.Detail)
		}
	}
	assert.Equal(t, 1, count)
}

func TestResolve_StackAPIFailureIsFatal(t *testing.T) {
	infra := happyInfra()
	infra.stacksErr = errors.New("AccessDenied: not authorized to perform cloudformation:DescribeStacks")
	p := NewPipeline(infra.lookups())

	_, _, err := p.Resolve(context.Background(), baseInputs())
	require.Error(t, err)

	var fatalErr *FatalError
	require.ErrorAs(t, err, &fatalErr)
	assert.Equal(t, params.StageCoreStack, fatalErr.Stage)
}

func TestResolve_DiscoveryAPIFailureIsFatal(t *testing.T) {
	infra := happyInfra()
	infra.networksErr = errors.New("UnauthorizedOperation")
	p := NewPipeline(infra.lookups())

	_, _, err := p.Resolve(context.Background(), baseInputs())
	var fatalErr *FatalError
	require.ErrorAs(t, err, &fatalErr)
	assert.Equal(t, params.StageDiscovery, fatalErr.Stage)
}

func TestResolve_MissingRequiredInputs(t *testing.T) {
	infra := happyInfra()
	p := NewPipeline(infra.lookups())

	in := baseInputs()
	in.EnvironmentName = ""
	in.ProjectName = " "
	_, _, err := p.Resolve(context.Background(), in)

	var fatalErr *FatalError
	require.ErrorAs(t, err, &fatalErr)
	assert.Equal(t, params.StageBase, fatalErr.Stage)
	assert.Contains(t, err.Error(), "project name")
	assert.Contains(t, err.Error(), "environment name")
}

func TestResolve_AccountMismatchIsDiagnostic(t *testing.T) {
	infra := happyInfra()
	infra.account = "999999999999"
	p := NewPipeline(infra.lookups())

	set, diags, err := p.Resolve(context.Background(), baseInputs())
	require.NoError(t, err)
	assert.Equal(t, "123456789012", value(t, set, KeyAccountID))

	found := false
	for _, d := range diags {
		if d.Summary == "credentials belong to a different account" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolve_NoHostedZoneSuffixSkipsZoneKeys(t *testing.T) {
	infra := happyInfra()
	in := baseInputs()
	in.HostedZoneSuffix = ""
	p := NewPipeline(infra.lookups())

	set, _, err := p.Resolve(context.Background(), in)
	require.NoError(t, err)

	// Never attempted means omitted, unlike the explicit nulls a
	// failed discovery writes.
	assert.False(t, set.Has(KeyPublicZoneID))
	assert.False(t, set.Has(KeyPrivateZoneID))
}

func TestResolve_MissingPrivateZoneIsNull(t *testing.T) {
	infra := happyInfra()
	infra.zones = infra.zones[:1] // public only
	p := NewPipeline(infra.lookups())

	set, diags, err := p.Resolve(context.Background(), baseInputs())
	require.NoError(t, err)

	assert.Equal(t, "ZPUBLIC1", value(t, set, KeyPublicZoneID))
	v, ok := set.Get(KeyPrivateZoneID)
	require.True(t, ok)
	assert.Nil(t, v)

	found := false
	for _, d := range diags {
		if d.Summary == "no private hosted zone found" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolve_ZoneSuffixFilter(t *testing.T) {
	infra := happyInfra()
	infra.zones = []Zone{
		{ID: "/hostedzone/ZOTHER", Name: "other.net.", Private: false},
		{ID: "/hostedzone/ZMATCH", Name: "sub.example.com.", Private: false},
		{ID: "/hostedzone/ZLATER", Name: "example.com.", Private: false},
	}
	p := NewPipeline(infra.lookups())

	set, _, err := p.Resolve(context.Background(), baseInputs())
	require.NoError(t, err)

	// First match in listing order wins; the suffix filter also
	// accepts subdomains of the configured suffix.
	assert.Equal(t, "ZMATCH", value(t, set, KeyPublicZoneID))
	assert.Equal(t, "sub.example.com", value(t, set, KeyPublicZoneName))
}

func TestResolve_Deterministic(t *testing.T) {
	infra := happyInfra()
	infra.stacks["us-east-1/MYAPP-DEV-CORE-global"] = map[string]string{
		"ArtifactBucket": "artifacts",
	}
	in := baseInputs()
	in.ParentStacks = []ParentStack{}
	in.Overrides = []string{"Extra=1"}
	p := NewPipeline(infra.lookups())

	first, _, err := p.Resolve(context.Background(), in)
	require.NoError(t, err)
	second, _, err := p.Resolve(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.Values(), second.Values())
	assert.Equal(t, first.Keys(), second.Keys())
}

func TestStackName(t *testing.T) {
	tests := []struct {
		project, env, base string
		expected           string
	}{
		{"myapp", "dev", "CORE-global", "MYAPP-DEV-CORE-global"},
		{"myapp", "dev", "CORE_global", "MYAPP-DEV-CORE-global"},
		{"my_app", "staging", "vpc-setup", "MY-APP-STAGING-vpc-setup"},
		{"MyApp", "Prod", "CORE-database", "MYAPP-PROD-CORE-database"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, StackName(tt.project, tt.env, tt.base))
		})
	}
}

func TestParseParentStacks(t *testing.T) {
	parsed := ParseParentStacks([]string{
		"CORE-global@us-east-1",
		"CORE-vpc",
		" ",
		"CORE-network@eu-west-1",
	})
	require.Len(t, parsed, 3)
	assert.Equal(t, ParentStack{Name: "CORE-global", Region: "us-east-1"}, parsed[0])
	assert.Equal(t, ParentStack{Name: "CORE-vpc"}, parsed[1])
	assert.Equal(t, ParentStack{Name: "CORE-network", Region: "eu-west-1"}, parsed[2])
}
