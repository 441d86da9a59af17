package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/protobuild/internal/app"
)

func (c *CLI) newPrecacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "precache URI",
		Short: "Download a package and its dependencies into the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.PrecacheRequest{Scope: scope(cmd), URI: args[0]}
			req.Ref, _ = cmd.Flags().GetString("ref")
			return c.app.Precache(cmd.Context(), req)
		},
	}

	cmd.Flags().String("ref", "", "Branch, tag or commit to cache")
	return cmd
}
