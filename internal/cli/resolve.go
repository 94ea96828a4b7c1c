package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/resolvr-io/resolvr/internal/buildid"
	"github.com/resolvr-io/resolvr/internal/logging"
	"github.com/resolvr-io/resolvr/internal/resolve"
	awsprovider "github.com/resolvr-io/resolvr/providers/aws"
)

var (
	resolveAccountID    string
	resolveRegion       string
	resolveProject      string
	resolveEnvironment  string
	resolveZoneSuffix   string
	resolveParentStacks []string
	resolveOverrides    []string
	resolveOutput       string
	resolveQuiet        bool
	resolveLogLevel     string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the deployment parameter set",
	Long: `Resolves the flat parameter mapping for one deployment and prints it.

Parent stacks are named by their base name, optionally with a region
(NAME@REGION); the region defaults to --region. Overrides are given as
repeatable --param KEY=VALUE flags and always win.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveAccountID, "account-id", "", "AWS account id (required)")
	resolveCmd.Flags().StringVar(&resolveRegion, "region", "", "AWS region, e.g. us-east-1 (required)")
	resolveCmd.Flags().StringVar(&resolveProject, "project", "", "Project name (required)")
	resolveCmd.Flags().StringVar(&resolveEnvironment, "environment", "", "Environment name, e.g. dev (required)")
	resolveCmd.Flags().StringVar(&resolveZoneSuffix, "hosted-zone", "", "Hosted zone suffix to discover, e.g. example.com")
	resolveCmd.Flags().StringSliceVar(&resolveParentStacks, "parent-stack", nil, "Parent stack base name, NAME or NAME@REGION (repeatable, order-significant)")
	resolveCmd.Flags().StringArrayVar(&resolveOverrides, "param", nil, "Override KEY=VALUE (repeatable, later duplicates win)")
	resolveCmd.Flags().StringVar(&resolveOutput, "output", "pretty", "Output format: pretty, json, or text")
	resolveCmd.Flags().BoolVar(&resolveQuiet, "quiet", false, "Suppress progress messages (implied by --output json)")
	resolveCmd.Flags().StringVar(&resolveLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	_ = resolveCmd.MarkFlagRequired("account-id")
	_ = resolveCmd.MarkFlagRequired("region")
	_ = resolveCmd.MarkFlagRequired("project")
	_ = resolveCmd.MarkFlagRequired("environment")
}

func runResolve(cmd *cobra.Command, args []string) error {
	logging.Init(resolveLogLevel)
	if resolveQuiet || resolveOutput == "json" {
		logging.Quiet()
	}
	if resolveOutput != "pretty" && resolveOutput != "json" && resolveOutput != "text" {
		return fmt.Errorf("unknown output format %q (use pretty, json, or text)", resolveOutput)
	}

	ctx := cmd.Context()
	provider, err := awsprovider.New(ctx, resolveRegion)
	if err != nil {
		return fmt.Errorf("failed to initialize AWS provider: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	pipeline := resolve.NewPipeline(resolve.Lookups{
		Networks: provider,
		Zones:    provider,
		Subnets:  provider,
		Stacks:   provider,
		Identity: provider,
		BuildID:  &buildid.Generator{Dir: wd},
	})

	set, diags, err := pipeline.Resolve(ctx, resolve.Inputs{
		AccountID:        resolveAccountID,
		Region:           resolveRegion,
		ProjectName:      resolveProject,
		EnvironmentName:  resolveEnvironment,
		HostedZoneSuffix: resolveZoneSuffix,
		ParentStacks:     resolve.ParseParentStacks(resolveParentStacks),
		Overrides:        resolveOverrides,
	})
	for _, d := range diags {
		logging.Warn(d.Summary, "stage", d.Stage.String(), "detail", d.Detail)
	}
	if err != nil {
		return err
	}

	switch resolveOutput {
	case "json":
		out, err := formatJSON(set)
		if err != nil {
			return err
		}
		fmt.Println(out)
	case "text":
		fmt.Print(formatText(set))
	default:
		fmt.Print(formatPretty(set, diags))
	}
	return nil
}
