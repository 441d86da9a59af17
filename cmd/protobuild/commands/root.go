// Package commands implements the CLI commands for protobuild.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/protobuild/internal/app"
	"go.trai.ch/protobuild/internal/build"
	"go.trai.ch/protobuild/internal/core/ports"
)

// CLI represents the command line interface for protobuild.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	SetJSONLog(enable bool)
	Resolve(ctx context.Context, req app.ResolveRequest) error
	Install(ctx context.Context, req app.InstallRequest) error
	Upgrade(ctx context.Context, req app.PackageRequest) error
	UpgradeAll(ctx context.Context, scope app.Scope) error
	SwapToSource(ctx context.Context, req app.PackageRequest) error
	SwapToBinary(ctx context.Context, req app.PackageRequest) error
	Pack(ctx context.Context, req ports.PackRequest) error
	Unify(ctx context.Context, output string, inputs []string) error
	Push(ctx context.Context, req ports.PushRequest) error
	Repush(ctx context.Context, req ports.RepushRequest) error
	Precache(ctx context.Context, req app.PrecacheRequest) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "protobuild",
		Short:         "Resolve, pack and publish module packages",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Module folder containing Build/Module.xml")
	flags.String("platform", "", "Target platform (defaults to the host platform)")
	flags.StringArray("redirect", nil, "Redirect a package URI, as ORIGINAL=TARGET (repeatable)")
	flags.Bool("json-log", false, "Write logs as JSON")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		jsonLog, err := cmd.Flags().GetBool("json-log")
		if err != nil {
			return err
		}
		if jsonLog {
			c.app.SetJSONLog(true)
		}
		return nil
	}

	rootCmd.AddCommand(
		c.newResolveCmd(),
		c.newInstallCmd(),
		c.newUpgradeCmd(),
		c.newUpgradeAllCmd(),
		c.newSwapToSourceCmd(),
		c.newSwapToBinaryCmd(),
		c.newPackCmd(),
		c.newUnifyCmd(),
		c.newPushCmd(),
		c.newRepushCmd(),
		c.newPrecacheCmd(),
		c.newVersionCmd(),
	)

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// scope reads the persistent flags shared by module commands.
func scope(cmd *cobra.Command) app.Scope {
	dir, _ := cmd.Flags().GetString("dir")
	platform, _ := cmd.Flags().GetString("platform")
	redirects, _ := cmd.Flags().GetStringArray("redirect")
	return app.Scope{Dir: dir, Platform: platform, Redirects: redirects}
}
