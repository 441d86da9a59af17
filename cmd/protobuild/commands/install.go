package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/protobuild/internal/app"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install URI",
		Short: "Add a package to the module and resolve it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.InstallRequest{Scope: scope(cmd), URI: args[0]}
			req.Ref, _ = cmd.Flags().GetString("ref")
			req.Folder, _ = cmd.Flags().GetString("folder")
			req.Optional, _ = cmd.Flags().GetBool("optional")
			req.Source, _ = cmd.Flags().GetBool("source")
			req.Binary, _ = cmd.Flags().GetBool("binary")
			return c.app.Install(cmd.Context(), req)
		},
	}

	cmd.Flags().String("ref", "", "Branch, tag or commit to resolve")
	cmd.Flags().String("folder", "", "Folder to materialize the package into")
	cmd.Flags().Bool("optional", false, "Only warn when the package cannot be resolved")
	cmd.Flags().Bool("source", false, "Prefer a source checkout")
	cmd.Flags().Bool("binary", false, "Require the binary package")
	cmd.MarkFlagsMutuallyExclusive("source", "binary")

	return cmd
}

func (c *CLI) newUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade URI",
		Short: "Evict a package from the cache and resolve it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Upgrade(cmd.Context(), app.PackageRequest{Scope: scope(cmd), URI: args[0]})
		},
	}
}

func (c *CLI) newUpgradeAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade-all",
		Short: "Upgrade every package of the module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.UpgradeAll(cmd.Context(), scope(cmd))
		},
	}
}

func (c *CLI) newSwapToSourceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swap-to-source URI",
		Short: "Replace a binary package with a source checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.SwapToSource(cmd.Context(), app.PackageRequest{Scope: scope(cmd), URI: args[0]})
		},
	}
}

func (c *CLI) newSwapToBinaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swap-to-binary URI",
		Short: "Replace a source checkout with the binary package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.SwapToBinary(cmd.Context(), app.PackageRequest{Scope: scope(cmd), URI: args[0]})
		},
	}
}
