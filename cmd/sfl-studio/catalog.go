package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"sflstudio/internal/catalog"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the built-in provider catalog",
	}
	cmd.AddCommand(newCatalogProvidersCommand())
	cmd.AddCommand(newCatalogModelsCommand())
	cmd.AddCommand(newCatalogPresetsCommand())
	return cmd
}

func newCatalogProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List known providers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("\n%s\n", bold("Providers:"))
			for _, p := range catalog.Default().Providers() {
				keyNote := green("no API key needed")
				if p.RequiresAPIKey {
					keyNote = gray("API key required")
				}
				fmt.Printf("\n%s (%s)\n", bold(p.Name), blue(p.ID))
				fmt.Printf("  %s\n", p.Description)
				fmt.Printf("  Models: %d  %s\n", len(p.Models), keyNote)
				if p.BaseURL != "" {
					fmt.Printf("  Base URL: %s\n", gray(p.BaseURL))
				}
			}
			fmt.Println()
		},
	}
}

func newCatalogModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models <provider>",
		Short: "List a provider's models and parameter ranges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ok := catalog.Default().Provider(args[0])
			if !ok {
				return fmt.Errorf("unknown provider: %s", args[0])
			}

			fmt.Printf("\n%s\n", bold(cfg.Name+" models:"))
			for _, m := range cfg.Models {
				fmt.Printf("\n%s (%s)\n", bold(m.Name), blue(m.ID))
				if m.ContextLength > 0 {
					fmt.Printf("  Context: %d tokens\n", m.ContextLength)
				}
				if m.Pricing != nil {
					fmt.Printf("  Pricing: $%.4f in / $%.4f out per 1K tokens\n",
						m.Pricing.Input, m.Pricing.Output)
				}
				printConstraints(m.Constraints)
			}
			fmt.Println()
			return nil
		},
	}
}

func printConstraints(constraints map[string]catalog.ParameterConstraint) {
	if len(constraints) == 0 {
		return
	}
	keys := make([]string, 0, len(constraints))
	for k := range constraints {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("  Parameters:\n")
	for _, key := range keys {
		c := constraints[key]
		if c.Numeric() {
			fmt.Printf("    %s: %s to %s (default %v)\n",
				key, gray(trimFloat(*c.Min)), gray(trimFloat(*c.Max)), c.Default)
			continue
		}
		fmt.Printf("    %s: %s (default %v)\n", key, gray(c.Type), c.Default)
	}
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func newCatalogPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets <provider>",
		Short: "List parameter presets applicable to a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := catalog.Default().Provider(args[0]); !ok {
				return fmt.Errorf("unknown provider: %s", args[0])
			}

			presets := catalog.Default().ProviderPresets(args[0])
			if len(presets) == 0 {
				fmt.Println("No presets for this provider.")
				return nil
			}
			for _, preset := range presets {
				fmt.Printf("\n%s (%s)\n", bold(preset.Name), blue(preset.ID))
				fmt.Printf("  %s\n", preset.Description)
				for key, value := range preset.Parameters {
					fmt.Printf("    %s: %v\n", key, value)
				}
			}
			fmt.Println()
			return nil
		},
	}
}
