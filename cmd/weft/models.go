package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danebolt/weft/internal/config"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List configured models and role mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, rt, err := buildRouter()
		if err != nil {
			return err
		}

		fmt.Println(color.New(color.Bold).Sprint("Models:"))
		for _, m := range cfg.Models {
			family := m.Provider
			if family == "" {
				family = "anthropic"
			}
			fmt.Printf("  %s (%s)\n", m.Name, family)
		}

		if len(cfg.Roles) > 0 {
			fmt.Println()
			fmt.Println(color.New(color.Bold).Sprint("Roles:"))
			roles := make([]string, 0, len(cfg.Roles))
			for role := range cfg.Roles {
				roles = append(roles, role)
			}
			sort.Strings(roles)
			for _, role := range roles {
				contexts := cfg.Roles[role]
				names := make([]string, 0, len(contexts))
				for name := range contexts {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Printf("  %s/%s → %s\n", role, name, contexts[name])
				}
			}
		}

		if model, err := rt.DefaultModel(); err == nil {
			fmt.Printf("\nDefault model: %s\n", model)
		}

		fmt.Println()
		fmt.Println(color.New(color.Bold).Sprint("Credentials:"))
		anthropicKey, _ := config.AnthropicAPIKey(cfg)
		openaiKey, _ := config.OpenAIAPIKey(cfg)
		fmt.Printf("  anthropic: %s\n", config.MaskAPIKey(anthropicKey))
		fmt.Printf("  openai:    %s\n", config.MaskAPIKey(openaiKey))
		return nil
	},
}
