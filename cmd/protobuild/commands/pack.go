package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
)

func (c *CLI) newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack SOURCE OUTPUT",
		Short: "Build a deduplicated package archive from a module folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("format")
			format, err := domain.ParseArchiveFormat(name)
			if err != nil {
				return err
			}

			req := ports.PackRequest{SourceDir: args[0], Output: args[1], Format: format}
			req.Platform, _ = cmd.Flags().GetString("platform")
			req.FilterFile, _ = cmd.Flags().GetString("filter")
			req.PackageID, _ = cmd.Flags().GetString("id")
			req.Version, _ = cmd.Flags().GetString("version")
			return c.app.Pack(cmd.Context(), req)
		},
	}

	cmd.Flags().String("format", string(domain.FormatTarLZMA), "Archive format: tar/lzma, tar/gzip or nuget/zip")
	cmd.Flags().String("filter", "", "Filter file selecting and renaming packaged files")
	cmd.Flags().String("id", "", "Package ID for nuget/zip (defaults to the module name)")
	cmd.Flags().String("version", "", "Package version for nuget/zip")

	return cmd
}

func (c *CLI) newUnifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unify OUTPUT INPUT...",
		Short: "Merge single-platform NuGet packages into one",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Unify(cmd.Context(), args[0], args[1:])
		},
	}
}
