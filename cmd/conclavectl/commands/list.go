package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listAPIURL string

// ListCmd represents the list command
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	Long:  `List all registered agents.`,
	Run: func(cmd *cobra.Command, args []string) {
		if listAPIURL == "" {
			listAPIURL = defaultAPIURL
		}
		body := getJSON(listAPIURL + "/api/agents")
		fmt.Println("Agents:")
		printIndented(body)
	},
}

func init() {
	ListCmd.Flags().StringVar(&listAPIURL, "api-url", "", "API URL (default: "+defaultAPIURL+")")
}
