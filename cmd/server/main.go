package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "xenon",
	Short: "Xenon Trader live chat assistant",
	Long: `xenon serves the Xenon Trader chat assistant and offers a few
maintenance commands that share its configuration.

Examples:
  xenon serve                         Start the web server
  xenon ask "What is RSI?"            Send a single question
  xenon settings show                 Print the stored settings
  xenon classify sk-or-...            Show which provider a key routes to`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, askCmd, settingsCmd, classifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
