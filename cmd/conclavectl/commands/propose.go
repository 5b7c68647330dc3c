package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	proposeForumID string
	proposeCreator string
	proposeAction  string
	proposeParams  string
	proposeAPIURL  string

	voteAgentID string
	voteAgree   bool
	voteReason  string
	voteAPIURL  string
)

// ProposeCmd represents the propose command
var ProposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Open a proposal in a forum",
	Run: func(cmd *cobra.Command, args []string) {
		if proposeForumID == "" || proposeAction == "" {
			fmt.Println("Error: forum and action are required")
			os.Exit(1)
		}
		if proposeAPIURL == "" {
			proposeAPIURL = defaultAPIURL
		}

		var params map[string]any
		if proposeParams != "" {
			if err := json.Unmarshal([]byte(proposeParams), &params); err != nil {
				fmt.Printf("Error parsing params: %v\n", err)
				os.Exit(1)
			}
		}

		body := postJSON(proposeAPIURL+"/api/forums/"+proposeForumID+"/proposals", map[string]any{
			"creatorAgentId": proposeCreator,
			"action":         proposeAction,
			"params":         params,
		})
		fmt.Println("Proposal created:")
		printIndented(body)
	},
}

// VoteCmd represents the vote command
var VoteCmd = &cobra.Command{
	Use:   "vote [proposal-id]",
	Short: "Cast a vote on a proposal",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if voteAgentID == "" {
			fmt.Println("Error: agent ID is required")
			os.Exit(1)
		}
		if voteAPIURL == "" {
			voteAPIURL = defaultAPIURL
		}

		body := postJSON(voteAPIURL+"/api/proposals/"+args[0]+"/votes", map[string]any{
			"agentId": voteAgentID,
			"agree":   voteAgree,
			"reason":  voteReason,
		})
		printIndented(body)
	},
}

func init() {
	ProposeCmd.Flags().StringVar(&proposeForumID, "forum", "", "Forum ID")
	ProposeCmd.Flags().StringVar(&proposeCreator, "creator", "", "Creator agent ID")
	ProposeCmd.Flags().StringVar(&proposeAction, "action", "", "Action to execute on approval")
	ProposeCmd.Flags().StringVar(&proposeParams, "params", "", "Action parameters as JSON")
	ProposeCmd.Flags().StringVar(&proposeAPIURL, "api-url", "", "API URL (default: "+defaultAPIURL+")")

	VoteCmd.Flags().StringVar(&voteAgentID, "agent", "", "Voting agent ID")
	VoteCmd.Flags().BoolVar(&voteAgree, "agree", false, "Vote in favor")
	VoteCmd.Flags().StringVar(&voteReason, "reason", "", "Reason for the vote")
	VoteCmd.Flags().StringVar(&voteAPIURL, "api-url", "", "API URL (default: "+defaultAPIURL+")")
}
