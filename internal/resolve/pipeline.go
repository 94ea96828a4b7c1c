package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/resolvr-io/resolvr/internal/logging"
	"github.com/resolvr-io/resolvr/internal/params"
)

// Well-known parameter names written by the base, discovery, and
// generated stages. Stack outputs and overrides contribute arbitrary
// keys on top of these.
const (
	KeyAccountID            = "AccountId"
	KeyRegion               = "Region"
	KeyProjectName          = "ProjectName"
	KeyEnvironmentName      = "EnvironmentName"
	KeyEnvironmentNameLower = "EnvironmentNameLower"
	KeyEnvironmentNameUpper = "EnvironmentNameUpper"
	KeyVPCID                = "VPCId"
	KeyVPCCidr              = "VPCCidr"
	KeyPublicZoneName       = "PublicHostedZoneName"
	KeyPublicZoneID         = "PublicHostedZoneId"
	KeyPrivateZoneName      = "PrivateHostedZoneName"
	KeyPrivateZoneID        = "PrivateHostedZoneId"
	KeyBuildID              = "BuildId"
)

// The core stack is a shared-resource convention: one well-known stack
// always read from us-east-1, whatever region the deployment targets.
const (
	CoreStackBaseName = "CORE-global"
	CoreStackRegion   = "us-east-1"
)

// ParentStack names a caller-supplied stack whose outputs feed the
// parent-stack stage. An empty Region means the deployment region.
type ParentStack struct {
	Name   string
	Region string
}

// ParseParentStacks parses raw parent stack entries of the form NAME
// or NAME@REGION, preserving caller order. Blank entries are dropped.
func ParseParentStacks(raw []string) []ParentStack {
	var out []ParentStack
	for _, entry := range raw {
		name, region, _ := strings.Cut(entry, "@")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, ParentStack{Name: name, Region: strings.TrimSpace(region)})
	}
	return out
}

// Inputs are the caller-supplied fields a resolution starts from.
// AccountID, Region, ProjectName, and EnvironmentName are required;
// everything else is optional.
type Inputs struct {
	AccountID        string
	Region           string
	ProjectName      string
	EnvironmentName  string
	HostedZoneSuffix string
	ParentStacks     []ParentStack
	Overrides        []string
}

// StackName builds the deployed stack identifier for a base stack
// name: uppercase {PROJECT}-{ENV}- prefix, underscores replaced with
// hyphens throughout. The base name keeps its own casing.
func StackName(project, environment, base string) string {
	name := fmt.Sprintf("%s-%s-%s", strings.ToUpper(project), strings.ToUpper(environment), base)
	return strings.ReplaceAll(name, "_", "-")
}

// Pipeline executes the six-stage precedence chain. It holds no state
// across resolutions; every Resolve starts from an empty set plus the
// caller's inputs.
type Pipeline struct {
	lookups Lookups
}

func NewPipeline(lookups Lookups) *Pipeline {
	return &Pipeline{lookups: lookups}
}

// A stage contributes a partial mapping which is folded into the set
// with last-write-wins. Stages may read the set built so far (subnet
// discovery needs the discovered network id, the generated stage
// checks for an existing BuildId) but never write it directly.
type stage struct {
	name params.Stage
	run  func(ctx context.Context, in Inputs, prior *params.Set) (map[string]*string, []params.Diagnostic, error)
}

// Resolve runs all stages in precedence order and returns the final
// set plus every soft diagnostic gathered along the way. It returns a
// *FatalError when an underlying API call fails for any reason other
// than "resource not found", or when a required input is missing;
// no further stages run after a fatal failure.
func (p *Pipeline) Resolve(ctx context.Context, in Inputs) (*params.Set, []params.Diagnostic, error) {
	stages := []stage{
		{params.StageBase, p.baseStage},
		{params.StageDiscovery, p.discoveryStage},
		{params.StageGenerated, p.generatedStage},
		{params.StageCoreStack, p.coreStackStage},
		{params.StageParentStack, p.parentStackStage},
		{params.StageOverride, p.overrideStage},
	}

	set := params.NewSet()
	var diags []params.Diagnostic
	for _, st := range stages {
		logging.Debug("running resolution stage", "stage", st.name.String())
		partial, stageDiags, err := st.run(ctx, in, set)
		diags = append(diags, stageDiags...)
		if err != nil {
			var fe *FatalError
			if !errors.As(err, &fe) {
				err = fatal(st.name, "stage failed", err)
			}
			return nil, diags, err
		}
		// Base values are protected from everything except explicit
		// overrides, which win unconditionally.
		if st.name != params.StageBase && st.name != params.StageOverride {
			for k := range partial {
				if src, ok := set.Source(k); ok && src == params.StageBase {
					logging.Debug("ignoring contribution to protected base parameter",
						"key", k, "stage", st.name.String())
					delete(partial, k)
				}
			}
		}
		set.Merge(partial, st.name)
	}
	logging.Debug("resolution complete", "parameters", set.Len(), "diagnostics", len(diags))
	return set, diags, nil
}

func (p *Pipeline) baseStage(ctx context.Context, in Inputs, _ *params.Set) (map[string]*string, []params.Diagnostic, error) {
	missing := []string{}
	for _, f := range []struct{ name, value string }{
		{"account id", in.AccountID},
		{"region", in.Region},
		{"project name", in.ProjectName},
		{"environment name", in.EnvironmentName},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fatal(params.StageBase, "missing required inputs", errors.New(strings.Join(missing, ", ")))
	}

	var diags []params.Diagnostic
	if p.lookups.Identity != nil {
		account, err := p.lookups.Identity.CallerAccount(ctx)
		switch {
		case err != nil:
			diags = append(diags, params.Diagnostic{
				Stage:   params.StageBase,
				Summary: "could not verify caller identity",
				Detail:  err.Error(),
			})
		case account != in.AccountID:
			diags = append(diags, params.Diagnostic{
				Stage:   params.StageBase,
				Summary: "credentials belong to a different account",
				Detail:  fmt.Sprintf("requested %s, credentials resolve to %s", in.AccountID, account),
			})
		}
	}

	return map[string]*string{
		KeyAccountID:            strptr(in.AccountID),
		KeyRegion:               strptr(in.Region),
		KeyProjectName:          strptr(in.ProjectName),
		KeyEnvironmentName:      strptr(in.EnvironmentName),
		KeyEnvironmentNameLower: strptr(strings.ToLower(in.EnvironmentName)),
		KeyEnvironmentNameUpper: strptr(strings.ToUpper(in.EnvironmentName)),
	}, diags, nil
}

// discoveryStage runs the network and zone listings concurrently,
// then applies their results in a fixed order once both are in; the
// subnet listing follows because it needs the chosen network id. The
// stage boundary is the synchronization barrier.
func (p *Pipeline) discoveryStage(ctx context.Context, in Inputs, _ *params.Set) (map[string]*string, []params.Diagnostic, error) {
	var (
		networks []Network
		zones    []Zone
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := p.lookups.Networks.ListNetworks(gctx)
		if err != nil {
			return fatal(params.StageDiscovery, "network discovery failed", err)
		}
		networks = found
		return nil
	})
	if in.HostedZoneSuffix != "" {
		g.Go(func() error {
			found, err := p.lookups.Zones.ListZones(gctx)
			if err != nil {
				return fatal(params.StageDiscovery, "zone discovery failed", err)
			}
			zones = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	partial := make(map[string]*string)
	var diags []params.Diagnostic

	networkID, networkDiags := applyNetworks(in, networks, partial)
	diags = append(diags, networkDiags...)
	if in.HostedZoneSuffix != "" {
		diags = append(diags, applyZones(in, zones, partial)...)
	}

	if networkID == nil {
		diags = append(diags, params.Diagnostic{
			Stage:   params.StageDiscovery,
			Summary: "skipping subnet discovery",
			Detail:  "no network id discovered",
		})
		return partial, diags, nil
	}

	subnets, err := p.lookups.Subnets.ListSubnets(ctx, *networkID)
	if err != nil {
		return nil, diags, fatal(params.StageDiscovery, "subnet discovery failed", err)
	}
	for _, sn := range subnets {
		if sn.Name == "" {
			diags = append(diags, params.Diagnostic{
				Stage:   params.StageDiscovery,
				Summary: "subnet has no Name tag",
				Detail:  sn.ID,
			})
			continue
		}
		partial[sn.Name] = strptr(sn.ID)
	}
	return partial, diags, nil
}

// applyNetworks picks the network with a stable-first-match tie-break
// and writes VPCId/VPCCidr, explicit nulls when nothing was found so
// consumers can tell "not discovered" from "never attempted".
func applyNetworks(in Inputs, networks []Network, partial map[string]*string) (*string, []params.Diagnostic) {
	if len(networks) == 0 {
		partial[KeyVPCID] = nil
		partial[KeyVPCCidr] = nil
		return nil, []params.Diagnostic{{
			Stage:   params.StageDiscovery,
			Summary: "no network found",
			Detail:  fmt.Sprintf("region %s", in.Region),
		}}
	}

	var diags []params.Diagnostic
	if len(networks) > 1 {
		discarded := make([]string, 0, len(networks)-1)
		for _, n := range networks[1:] {
			discarded = append(discarded, n.ID)
		}
		diags = append(diags, params.Diagnostic{
			Stage:   params.StageDiscovery,
			Summary: "multiple networks found, using the first",
			Detail:  fmt.Sprintf("chose %s, discarded %s", networks[0].ID, strings.Join(discarded, ", ")),
		})
	}
	chosen := networks[0]
	partial[KeyVPCID] = strptr(chosen.ID)
	if chosen.CIDR == "" {
		partial[KeyVPCCidr] = nil
	} else {
		partial[KeyVPCCidr] = strptr(chosen.CIDR)
	}
	return &chosen.ID, diags
}

// applyZones filters zones to the configured suffix and selects the
// first public and the first private match independently.
func applyZones(in Inputs, zones []Zone, partial map[string]*string) []params.Diagnostic {
	suffix := in.HostedZoneSuffix
	if !strings.HasSuffix(suffix, ".") {
		suffix += "."
	}

	var public, private *Zone
	for i := range zones {
		z := zones[i]
		name := z.Name
		if !strings.HasSuffix(name, ".") {
			name += "."
		}
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		if z.Private {
			if private == nil {
				private = &z
			}
		} else if public == nil {
			public = &z
		}
	}

	var diags []params.Diagnostic
	writeZone := func(z *Zone, kind, nameKey, idKey string) {
		if z == nil {
			diags = append(diags, params.Diagnostic{
				Stage:   params.StageDiscovery,
				Summary: fmt.Sprintf("no %s hosted zone found", kind),
				Detail:  fmt.Sprintf("suffix %q", in.HostedZoneSuffix),
			})
			partial[nameKey] = nil
			partial[idKey] = nil
			return
		}
		partial[nameKey] = strptr(strings.TrimSuffix(z.Name, "."))
		partial[idKey] = strptr(strings.TrimPrefix(z.ID, "/hostedzone/"))
	}
	writeZone(public, "public", KeyPublicZoneName, KeyPublicZoneID)
	writeZone(private, "private", KeyPrivateZoneName, KeyPrivateZoneID)
	return diags
}

// generatedStage contributes BuildId, but only when no prior stage
// produced one. A key present with an explicit null counts as absent
// for this eligibility check. A failing version-control lookup is
// soft: one diagnostic, nothing contributed.
func (p *Pipeline) generatedStage(ctx context.Context, _ Inputs, prior *params.Set) (map[string]*string, []params.Diagnostic, error) {
	if prior.IsSet(KeyBuildID) {
		return nil, nil, nil
	}
	if p.lookups.BuildID == nil {
		return nil, []params.Diagnostic{{
			Stage:   params.StageGenerated,
			Summary: "no build id source configured",
		}}, nil
	}
	id, err := p.lookups.BuildID.BuildID(ctx)
	if err != nil {
		return nil, []params.Diagnostic{{
			Stage:   params.StageGenerated,
			Summary: "could not determine build id from version control",
			Detail:  err.Error(),
		}}, nil
	}
	return map[string]*string{KeyBuildID: strptr(id)}, nil, nil
}

func (p *Pipeline) coreStackStage(ctx context.Context, in Inputs, _ *params.Set) (map[string]*string, []params.Diagnostic, error) {
	return p.stackStage(ctx, params.StageCoreStack, CoreStackRegion,
		StackName(in.ProjectName, in.EnvironmentName, CoreStackBaseName))
}

// parentStackStage folds caller-named stacks in the order given, so a
// later-named parent wins for shared keys; all of them outrank the
// core stack by stage order.
func (p *Pipeline) parentStackStage(ctx context.Context, in Inputs, _ *params.Set) (map[string]*string, []params.Diagnostic, error) {
	partial := make(map[string]*string)
	var diags []params.Diagnostic
	for _, parent := range in.ParentStacks {
		region := parent.Region
		if region == "" {
			region = in.Region
		}
		name := StackName(in.ProjectName, in.EnvironmentName, parent.Name)
		outputs, stackDiags, err := p.stackStage(ctx, params.StageParentStack, region, name)
		diags = append(diags, stackDiags...)
		if err != nil {
			return nil, diags, err
		}
		for k, v := range outputs {
			partial[k] = v
		}
	}
	return partial, diags, nil
}

// stackStage reads one stack's outputs. A missing stack is soft;
// everything else means the resolution cannot be trusted and aborts.
func (p *Pipeline) stackStage(ctx context.Context, st params.Stage, region, stackName string) (map[string]*string, []params.Diagnostic, error) {
	logging.Debug("retrieving stack outputs", "stack", stackName, "region", region)
	outputs, err := p.lookups.Stacks.StackOutputs(ctx, region, stackName)
	if errors.Is(err, ErrStackNotFound) {
		return nil, []params.Diagnostic{{
			Stage:   st,
			Summary: "stack not found",
			Detail:  fmt.Sprintf("%s in %s", stackName, region),
		}}, nil
	}
	if err != nil {
		return nil, nil, fatal(st, fmt.Sprintf("failed to retrieve outputs of stack %s in %s", stackName, region), err)
	}
	partial := make(map[string]*string, len(outputs))
	for k, v := range outputs {
		partial[k] = strptr(v)
	}
	return partial, nil, nil
}

func (p *Pipeline) overrideStage(_ context.Context, in Inputs, _ *params.Set) (map[string]*string, []params.Diagnostic, error) {
	partial, diags := params.ParseOverrides(in.Overrides)
	return partial, diags, nil
}

func strptr(s string) *string {
	return &s
}
