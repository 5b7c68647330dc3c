package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conclave-dao/conclave/cmd/conclavectl/commands"
)

var rootCmd = &cobra.Command{
	Use:   "conclavectl",
	Short: "Conclave CLI",
	Long:  `Command line interface for managing Conclave agents, forums, and proposals.`,
}

func init() {
	rootCmd.AddCommand(commands.CreateCmd)
	rootCmd.AddCommand(commands.ListCmd)
	rootCmd.AddCommand(commands.ForumCmd)
	rootCmd.AddCommand(commands.ProposeCmd)
	rootCmd.AddCommand(commands.VoteCmd)
	rootCmd.AddCommand(commands.TemplateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
