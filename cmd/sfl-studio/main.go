package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	serverhttp "sflstudio/internal/server/http"
)

// Color helpers for terminal output.
var (
	blue  = color.New(color.FgBlue).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

type rootFlags struct {
	configFile string
	debug      bool
}

// NewRootCommand builds the sfl-studio command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "sfl-studio",
		Short: "Backend for SFL Prompt Studio: provider configuration, sessions, and prompts",
		Long: fmt.Sprintf(`%s

Serves the SFL Prompt Studio API: the provider and model catalog, parameter
validation, API key management, the active session, and SFL-annotated prompt
storage.

%s
  sfl-studio serve                       # Start the API server
  sfl-studio serve --config studio.yaml  # With a config file
  sfl-studio catalog providers           # List known providers
  sfl-studio catalog models anthropic    # List a provider's models`,
			bold("SFL Prompt Studio "+serverhttp.Version),
			bold("EXAMPLES:")),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Debug logging")

	rootCmd.AddCommand(newServeCommand(flags))
	rootCmd.AddCommand(newCatalogCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sfl-studio %s\n", serverhttp.Version)
		},
	}
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Printf("%s %v\n", red("Error:"), err)
		os.Exit(1)
	}
}
