package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xenon-assistant/internal/config"
	"xenon-assistant/internal/models"
	"xenon-assistant/internal/repository"
	"xenon-assistant/internal/services"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Send one question through the configured provider",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		a, err := newApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.close()

		ctx := context.Background()
		sess, err := a.orchestrator.NewSession(ctx)
		if err != nil {
			return err
		}
		sess, err = a.orchestrator.Respond(ctx, sess.ID, strings.Join(args, " "))
		if err != nil {
			return err
		}
		reply := sess.Transcript[len(sess.Transcript)-1]
		fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect the stored settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored settings with the API key masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		return printSettings(cmd, repository.NewSettingsRepo(cfg.SettingsPath).Load())
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [api-key]",
	Short: "Report which provider an API key routes to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := services.ClassifyCredential(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", kind, kind.Label())
		if kind == services.ProviderInvalid {
			return services.ErrInvalidCredential
		}
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
}

func printSettings(cmd *cobra.Command, settings models.Settings) error {
	settings.Credential = services.MaskCredential(settings.Credential)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(settings)
}
