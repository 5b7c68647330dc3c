package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	forumGoal      string
	forumCreator   string
	forumQuorum    float64
	forumMinAgents int
	forumTimeout   int
	forumAPIURL    string
)

// ForumCmd represents the forum command
var ForumCmd = &cobra.Command{
	Use:   "forum",
	Short: "Manage forums",
	Long:  `Create and inspect forums.`,
}

var forumCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new forum",
	Run: func(cmd *cobra.Command, args []string) {
		if forumGoal == "" {
			fmt.Println("Error: forum goal is required")
			os.Exit(1)
		}
		if forumAPIURL == "" {
			forumAPIURL = defaultAPIURL
		}
		body := postJSON(forumAPIURL+"/api/forums", map[string]any{
			"goal":            forumGoal,
			"creatorAgentId":  forumCreator,
			"quorumThreshold": forumQuorum,
			"minParticipants": forumMinAgents,
			"timeoutMinutes":  forumTimeout,
		})
		fmt.Println("Forum created:")
		printIndented(body)
	},
}

var forumListCmd = &cobra.Command{
	Use:   "list",
	Short: "List forums",
	Run: func(cmd *cobra.Command, args []string) {
		if forumAPIURL == "" {
			forumAPIURL = defaultAPIURL
		}
		body := getJSON(forumAPIURL + "/api/forums")
		printIndented(body)
	},
}

var forumThreadCmd = &cobra.Command{
	Use:   "thread [forum-id]",
	Short: "Show a forum's message thread",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if forumAPIURL == "" {
			forumAPIURL = defaultAPIURL
		}
		body := getJSON(forumAPIURL + "/api/forums/" + args[0] + "/messages")
		printIndented(body)
	},
}

func init() {
	forumCreateCmd.Flags().StringVar(&forumGoal, "goal", "", "What the forum should decide")
	forumCreateCmd.Flags().StringVar(&forumCreator, "creator", "", "Creator agent ID")
	forumCreateCmd.Flags().Float64Var(&forumQuorum, "quorum", 0.66, "Quorum threshold (0.5-1.0)")
	forumCreateCmd.Flags().IntVar(&forumMinAgents, "min-participants", 2, "Minimum participants")
	forumCreateCmd.Flags().IntVar(&forumTimeout, "timeout", 60, "Proposal timeout in minutes")
	ForumCmd.PersistentFlags().StringVar(&forumAPIURL, "api-url", "", "API URL (default: "+defaultAPIURL+")")

	ForumCmd.AddCommand(forumCreateCmd)
	ForumCmd.AddCommand(forumListCmd)
	ForumCmd.AddCommand(forumThreadCmd)
}
