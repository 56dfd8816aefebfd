package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pair-scheduler/pkg/calendar"
	"pair-scheduler/pkg/clients/relay"
	"pair-scheduler/pkg/form"
	"pair-scheduler/pkg/models"
	"pair-scheduler/pkg/submission"
)

var (
	ErrMissingFields = errors.New("required fields are missing")
	ErrNotInRoster   = errors.New("value is not in the roster")
	ErrWrongVariant  = errors.New("field is not part of this form")
	ErrOutOfRange    = errors.New("value is outside the allowed window")
)

// submitOptions are the field values given on the command line, keyed by field name.
// Only fields the user actually set are present.
type submitOptions struct {
	values    map[string]string
	icsPath   string
	organizer calendar.Organizer
}

func newSubmitCommand(a *app) *cobra.Command {
	raw := map[string]*string{}
	opts := submitOptions{}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Fill in the form and send it through the relay",
		Example: `  pair-scheduler submit --name Rina --email rina@onja.org --date 07-03-2026 --from-time 09:00 --goal "table tests"
  SCHEDULER_FORM_VARIANT=feedback pair-scheduler submit --name Rina --mentor Rinon --email rina@onja.org --feedback "thanks"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateClient(); err != nil {
				return err
			}
			schema, err := form.SchemaFor(a.cfg.Form.Variant, formSettings(a.cfg.Form.EmailDomain, a.cfg.Form.EmailRule))
			if err != nil {
				return err
			}

			opts.values = map[string]string{}
			for name, v := range raw {
				if cmd.Flags().Changed(flagName(name)) {
					opts.values[name] = *v
				}
			}

			client := relay.NewClient(a.cfg.Client.RelayURL, a.cfg.Client.Timeout)
			return runSubmit(cmd.Context(), cmd.OutOrStdout(), schema, client, opts, a.logger, time.Now())
		},
	}

	// every field of every form gets a flag; the configured variant decides which are accepted
	for _, schema := range []*form.Schema{form.ScheduleSchema(form.Settings{}), form.FeedbackSchema(form.Settings{})} {
		for _, f := range schema.Fields {
			if _, ok := raw[f.Name]; ok {
				continue
			}
			v := new(string)
			raw[f.Name] = v
			cmd.Flags().StringVar(v, flagName(f.Name), "", f.Label)
		}
	}
	cmd.Flags().StringVar(&opts.icsPath, "ics", "", "Write a calendar invite for the session to this file after a successful submission")
	cmd.Flags().StringVar(&opts.organizer.Name, "organizer-name", "Rinon", "Name of the session host on the calendar invite")
	cmd.Flags().StringVar(&opts.organizer.Email, "organizer-email", "", "Email of the session host on the calendar invite")

	return cmd
}

func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

// runSubmit plays the browser form: load the roster, apply edits, check required
// fields, then hand a snapshot to the submission flow.
func runSubmit(ctx context.Context, out io.Writer, schema *form.Schema, client relay.Client, opts submitOptions, logger *zap.Logger, now time.Time) error {
	roster, rosterErr := client.FetchRoster(ctx)
	if rosterErr != nil {
		// the form still renders with only the placeholder; roster checks are skipped
		logger.Warn("error fetching roster", zap.Error(rosterErr))
	}

	model := form.NewModel(schema, now)
	flow := submission.NewFlow(schema, client, logger)
	flow.Attach(model)
	flow.OnChange(func(s submission.Status) {
		switch s {
		case submission.StatusSubmitting:
			fmt.Fprintln(out, "Submitting...")
		case submission.StatusSubmitted:
			fmt.Fprintln(out, "Form data submitted successfully!")
		case submission.StatusFailed:
			fmt.Fprintln(out, "An error has occured when submitting the form")
		}
	})

	for name := range opts.values {
		if _, ok := schema.Field(name); !ok {
			return fmt.Errorf("%w: --%s (form %s)", ErrWrongVariant, flagName(name), schema.Name)
		}
	}

	// schema order, so an explicit end time wins over the derived one
	for _, f := range schema.Fields {
		value, ok := opts.values[f.Name]
		if !ok {
			continue
		}
		if f.Kind == form.KindSelect && rosterErr == nil && value != "" {
			if !slices.Contains(schema.Options(f.Name, roster)[1:], value) {
				return fmt.Errorf("%w: %s %q", ErrNotInRoster, f.Name, value)
			}
		}
		if err := model.SetField(f.Name, value); err != nil {
			return err
		}
	}

	if missing := model.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if bad := model.OutOfRange(); len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrOutOfRange, describeBounds(schema, model, bad))
	}
	for _, name := range model.InvalidFields() {
		if name == "email" {
			fmt.Fprintln(out, "Warning: you must use your Onja email address which includes your name.")
			continue
		}
		fmt.Fprintf(out, "Warning: %s looks invalid\n", name)
	}

	values := model.Values()
	if err := flow.Submit(ctx, values); err != nil {
		if errors.Is(err, relay.ErrUpstreamTimeout) {
			return fmt.Errorf("the spreadsheet did not answer in time: %w", err)
		}
		return err
	}

	if opts.icsPath != "" {
		return writeInvite(out, opts, schema.Payload(values), now)
	}
	return nil
}

func describeBounds(schema *form.Schema, model *form.Model, names []string) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		f, _ := schema.Field(name)
		lower := f.Min
		if f.MinField != "" {
			lower = model.Value(f.MinField)
		}
		parts = append(parts, fmt.Sprintf("--%s %s (allowed %s to %s)", flagName(name), model.Value(name), lower, f.Max))
	}
	return strings.Join(parts, ", ")
}

func writeInvite(out io.Writer, opts submitOptions, payload models.SubmissionPayload, now time.Time) error {
	doc, err := calendar.Invite(payload, opts.organizer, time.Local, now)
	if err != nil {
		return fmt.Errorf("error creating calendar invite: %w", err)
	}
	if err := os.WriteFile(opts.icsPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("error writing calendar invite: %w", err)
	}
	fmt.Fprintf(out, "Calendar invite written to %s\n", opts.icsPath)
	return nil
}
