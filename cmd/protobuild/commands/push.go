package commands

import (
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/protobuild/internal/core/ports"
)

// apiKeyEnv supplies the repository API key when --api-key is not given.
const apiKeyEnv = "PROTOBUILD_API_KEY"

func (c *CLI) newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push ARCHIVE REPO VERSION PLATFORM",
		Short: "Upload a package archive to a package repository",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ports.PushRequest{
				ArchivePath:   args[0],
				RepositoryURL: args[1],
				Version:       args[2],
				Platform:      args[3],
			}
			req.Branch, _ = cmd.Flags().GetString("branch")
			req.APIKey = apiKey(cmd)
			return c.app.Push(cmd.Context(), req)
		},
	}

	addRepositoryFlags(cmd)
	return cmd
}

func (c *CLI) newRepushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repush REPO VERSION",
		Short: "Point a repository branch at an uploaded version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ports.RepushRequest{RepositoryURL: args[0], Version: args[1]}
			req.Branch, _ = cmd.Flags().GetString("branch")
			req.APIKey = apiKey(cmd)
			return c.app.Repush(cmd.Context(), req)
		},
	}

	addRepositoryFlags(cmd)
	return cmd
}

func addRepositoryFlags(cmd *cobra.Command) {
	cmd.Flags().String("branch", "master", "Branch to point at the version")
	cmd.Flags().String("api-key", "", "Repository API key (or "+apiKeyEnv+")")
}

func apiKey(cmd *cobra.Command) string {
	if key, _ := cmd.Flags().GetString("api-key"); key != "" {
		return key
	}
	return os.Getenv(apiKeyEnv)
}
