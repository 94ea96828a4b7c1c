package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resolvr",
	Short: "Deployment parameter resolution for CloudFormation",
	Long: `Resolvr answers one question ahead of every deployment: what is the
final value of each template parameter, given base inputs, live AWS
infrastructure, previously published stack outputs, and explicit
operator overrides?

Sources are applied in a fixed precedence order:
  1. Base inputs (account, region, project, environment)
  2. Infrastructure discovery (VPC, hosted zones, subnets)
  3. Generated values (BuildId from git)
  4. Core global stack outputs
  5. Parent stack outputs (caller order, later wins)
  6. Explicit --param overrides (always win)`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)
}
