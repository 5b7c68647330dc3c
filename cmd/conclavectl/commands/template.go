package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conclave-dao/conclave/cmd/conclavectl/templates"
)

var (
	templateName        string
	templateTraits      string
	templateStyle       string
	templateRiskProfile string
	templateDescription string
)

// TemplateCmd represents the template command
var TemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage agent templates",
	Long:  `Create, list, and manage agent templates.`,
}

var templateCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new agent template",
	Run: func(cmd *cobra.Command, args []string) {
		if templateName == "" || templateTraits == "" {
			fmt.Println("Error: template name and traits are required")
			os.Exit(1)
		}
		registry := templates.NewTemplateRegistry()
		err := registry.SaveTemplate(templateName, &templates.AgentTemplate{
			Name:        templateName,
			Traits:      strings.Split(templateTraits, ","),
			Style:       templateStyle,
			RiskProfile: templateRiskProfile,
			Description: templateDescription,
		})
		if err != nil {
			fmt.Printf("Error saving template: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Template %q saved\n", templateName)
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agent templates",
	Run: func(cmd *cobra.Command, args []string) {
		registry := templates.NewTemplateRegistry()
		names, err := registry.ListTemplates()
		if err != nil {
			fmt.Printf("Error listing templates: %v\n", err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show template details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		registry := templates.NewTemplateRegistry()
		t, err := registry.GetTemplate(args[0])
		if err != nil {
			fmt.Printf("Error loading template: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Name: %s\n", t.Name)
		fmt.Printf("Traits: %s\n", strings.Join(t.Traits, ", "))
		fmt.Printf("Style: %s\n", t.Style)
		fmt.Printf("Risk profile: %s\n", t.RiskProfile)
		fmt.Printf("Description: %s\n", t.Description)
	},
}

func init() {
	templateCreateCmd.Flags().StringVar(&templateName, "name", "", "Template name")
	templateCreateCmd.Flags().StringVar(&templateTraits, "traits", "", "Comma-separated traits")
	templateCreateCmd.Flags().StringVar(&templateStyle, "style", "", "Communication style")
	templateCreateCmd.Flags().StringVar(&templateRiskProfile, "risk", "balanced", "Risk profile")
	templateCreateCmd.Flags().StringVar(&templateDescription, "description", "", "Template description")

	TemplateCmd.AddCommand(templateCreateCmd)
	TemplateCmd.AddCommand(templateListCmd)
	TemplateCmd.AddCommand(templateShowCmd)
}
