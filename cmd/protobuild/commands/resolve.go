package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/protobuild/internal/app"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the packages of a module and its nested modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := app.ResolveRequest{Scope: scope(cmd)}
			req.SkipNested, _ = cmd.Flags().GetBool("skip-nested")
			req.SafeResolve = changedBool(cmd, "safe-resolve")
			req.Parallel = changedBool(cmd, "parallel")
			req.ContinueOnError = changedBool(cmd, "continue-on-error")
			return c.app.Resolve(cmd.Context(), req)
		},
	}

	cmd.Flags().Bool("safe-resolve", false, "Unpack over existing package content instead of cleaning it")
	cmd.Flags().Bool("parallel", true, "Fetch packages of one level concurrently")
	cmd.Flags().Bool("continue-on-error", true, "Keep resolving after a package fails")
	cmd.Flags().Bool("skip-nested", false, "Do not resolve packages of nested modules")

	return cmd
}

// changedBool returns the flag value only when it was set on the command line,
// leaving the configured default in place otherwise.
func changedBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}
