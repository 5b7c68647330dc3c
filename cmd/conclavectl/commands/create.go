package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conclave-dao/conclave/cmd/conclavectl/templates"
	"github.com/conclave-dao/conclave/core"
)

var (
	createTemplateName string
	createAgentName    string
	createTraits       string
	createStyle        string
	createRiskProfile  string
	createAPIURL       string
)

// CreateCmd represents the create command
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new agent",
	Long:  `Create a new agent from a template or with custom parameters.`,
	Run: func(cmd *cobra.Command, args []string) {
		if createAPIURL == "" {
			createAPIURL = defaultAPIURL
		}

		if createTemplateName != "" {
			createAgentFromTemplate()
		} else {
			createCustomAgent()
		}
	},
}

func init() {
	CreateCmd.Flags().StringVar(&createTemplateName, "template", "", "Template name to use")
	CreateCmd.Flags().StringVar(&createAgentName, "name", "", "Custom name for the agent")
	CreateCmd.Flags().StringVar(&createTraits, "traits", "", "Comma-separated list of traits")
	CreateCmd.Flags().StringVar(&createStyle, "style", "", "Agent communication style")
	CreateCmd.Flags().StringVar(&createRiskProfile, "risk", "balanced", "Risk profile (conservative, balanced, aggressive)")
	CreateCmd.Flags().StringVar(&createAPIURL, "api-url", "", "API URL (default: "+defaultAPIURL+")")
}

func createAgentFromTemplate() {
	registry := templates.NewTemplateRegistry()
	template, err := registry.GetTemplate(createTemplateName)
	if err != nil {
		fmt.Printf("Error loading template: %v\n", err)
		os.Exit(1)
	}

	if createAgentName != "" {
		template.Name = createAgentName
	}
	if createTraits != "" {
		template.Traits = strings.Split(createTraits, ",")
	}
	if createStyle != "" {
		template.Style = createStyle
	}

	createAgent(template.ToAgentStruct())
}

func createCustomAgent() {
	if createAgentName == "" {
		fmt.Println("Error: agent name is required")
		os.Exit(1)
	}
	if createTraits == "" {
		fmt.Println("Error: traits are required")
		os.Exit(1)
	}

	agent := core.Agent{
		Name:        createAgentName,
		Traits:      strings.Split(createTraits, ","),
		Style:       createStyle,
		RiskProfile: createRiskProfile,
	}

	createAgent(agent)
}

func createAgent(agent core.Agent) {
	body := postJSON(createAPIURL+"/api/agents", agent)
	fmt.Println("Agent created:")
	printIndented(body)
}
