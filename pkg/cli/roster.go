package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pair-scheduler/pkg/clients/relay"
	"pair-scheduler/pkg/form"
	"pair-scheduler/pkg/models"
)

func newRosterCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "List the names selectable in the form",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateClient(); err != nil {
				return err
			}
			schema, err := form.SchemaFor(a.cfg.Form.Variant, formSettings(a.cfg.Form.EmailDomain, a.cfg.Form.EmailRule))
			if err != nil {
				return err
			}
			client := relay.NewClient(a.cfg.Client.RelayURL, a.cfg.Client.Timeout)
			roster, err := client.FetchRoster(cmd.Context())
			if err != nil {
				return fmt.Errorf("error fetching roster: %w", err)
			}
			return printOptions(cmd.OutOrStdout(), schema, roster)
		},
	}
}

// printOptions writes every roster-backed select with its options, one per line
func printOptions(w io.Writer, schema *form.Schema, roster models.Roster) error {
	for _, f := range schema.Fields {
		if f.Roster == form.NoRoster {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:\n", f.Name); err != nil {
			return err
		}
		for _, option := range schema.Options(f.Name, roster) {
			if _, err := fmt.Fprintf(w, "  %s\n", option); err != nil {
				return err
			}
		}
	}
	return nil
}

func formSettings(domain, rule string) form.Settings {
	// config validation already rejected unknown rules
	parsed, _ := form.ParseEmailRule(rule)
	return form.Settings{EmailDomain: domain, EmailRule: parsed}
}
