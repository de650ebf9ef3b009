// ABOUTME: Subcommand implementations for the guardian CLI
// ABOUTME: Contacts, settings, trigger, watch, history, and clear-data

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/2389/guardian/internal/addressbook"
	"github.com/2389/guardian/internal/alert"
	"github.com/2389/guardian/internal/gesture"
	"github.com/2389/guardian/internal/msgtemplate"
	"github.com/2389/guardian/internal/platform"
	"github.com/2389/guardian/internal/settings"
)

func (a *app) cmdContacts(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.listContacts()
	}

	switch args[0] {
	case "list":
		return a.listContacts()
	case "add":
		if len(args) < 3 {
			return fmt.Errorf("%w: contacts add <name> <phone> [relationship]", errUsage)
		}
		contact, err := a.store.Contacts().Add(settings.ContactDraft{
			Name:         args[1],
			Phone:        args[2],
			Relationship: optionalRelationship(args, 3),
		})
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(a.out, "✔ Added %s (%s)\n", contact.Name, contact.ID)
		return nil
	case "update":
		if len(args) < 4 {
			return fmt.Errorf("%w: contacts update <id> <name> <phone> [relationship]", errUsage)
		}
		existing, ok := a.store.Contacts().Get(args[1])
		if !ok {
			return fmt.Errorf("no contact with id %q", args[1])
		}
		existing.Name = args[2]
		existing.Phone = args[3]
		if rel := optionalRelationship(args, 4); rel != "" {
			existing.Relationship = rel
		}
		if err := a.store.Contacts().Update(existing); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(a.out, "✔ Updated %s\n", existing.ID)
		return nil
	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("%w: contacts remove <id>", errUsage)
		}
		if _, ok := a.store.Contacts().Get(args[1]); !ok {
			return fmt.Errorf("no contact with id %q", args[1])
		}
		a.store.Contacts().Remove(args[1])
		color.New(color.FgGreen).Fprintf(a.out, "✔ Removed %s\n", args[1])
		return nil
	case "import":
		return a.importContact(ctx, args[1:])
	default:
		return fmt.Errorf("%w: unknown contacts command %q", errUsage, args[0])
	}
}

func optionalRelationship(args []string, i int) settings.Relationship {
	if len(args) <= i {
		return ""
	}
	return settings.Relationship(args[i])
}

func (a *app) listContacts() error {
	contacts := a.store.Contacts().List()

	cyan := color.New(color.FgCyan)
	fmt.Fprintln(a.out)
	cyan.Fprintf(a.out, "  Emergency Contacts (%d/%d)\n", len(contacts), settings.MaxContacts)
	cyan.Fprintln(a.out, "  ------------------")

	if len(contacts) == 0 {
		fmt.Fprintln(a.out, "  (no contacts)")
		fmt.Fprintln(a.out)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tPHONE\tRELATIONSHIP")
	fmt.Fprintln(w, "  --\t----\t-----\t------------")
	for _, c := range contacts {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.Relationship)
	}
	w.Flush()
	fmt.Fprintln(a.out)
	return nil
}

func (a *app) importContact(ctx context.Context, args []string) error {
	candidates, err := a.importer.Candidates(ctx)
	switch {
	case errors.Is(err, addressbook.ErrUnavailable):
		return fmt.Errorf("contacts not available: set address_book.path in the config: %w", err)
	case errors.Is(err, addressbook.ErrPermissionDenied):
		return fmt.Errorf("permission required: allow address book access to pick a contact")
	case errors.Is(err, addressbook.ErrNoCandidates):
		return fmt.Errorf("no contacts found: %w", err)
	case err != nil:
		return fmt.Errorf("couldn't load contacts: %w", err)
	}

	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	matches := addressbook.Search(candidates, query)

	if query == "" || len(matches) != 1 {
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		for _, c := range matches {
			fmt.Fprintf(w, "  %s\t%s\n", c.Name, c.Phone)
		}
		w.Flush()
		if query == "" {
			return nil
		}
		return fmt.Errorf("%d contacts match %q, narrow the search to exactly one", len(matches), query)
	}

	contact, err := a.importer.Import(matches[0], optionalRelationship(args, 1))
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(a.out, "✔ Imported %s (%s)\n", contact.Name, contact.ID)
	return nil
}

func (a *app) cmdSettings(args []string) error {
	if len(args) == 0 || args[0] == "show" {
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(a.store.Settings()); err != nil {
			return fmt.Errorf("encoding settings: %w", err)
		}
		return enc.Close()
	}

	switch args[0] {
	case "sensitivity":
		if len(args) < 2 {
			return fmt.Errorf("%w: settings sensitivity <value>", errUsage)
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid sensitivity %q: %w", args[1], err)
		}
		a.store.SetShakeSensitivity(v)
		fmt.Fprintf(a.out, "Shake sensitivity %.2f (threshold %.2f)\n",
			settings.ClampSensitivity(v), gesture.Threshold(v))
		return nil
	case "template":
		if len(args) < 2 {
			return fmt.Errorf("%w: settings template <text>", errUsage)
		}
		text := strings.Join(args[1:], " ")
		a.store.Merge(settings.Partial{Templates: &settings.TemplateSettings{DefaultMessage: text}})
		fmt.Fprintln(a.out, a.orchestrator.Preview(a.store.Settings()))
		return nil
	case "token":
		return a.insertToken(args[1:])
	case "preview":
		fmt.Fprintln(a.out, a.orchestrator.Preview(a.store.Settings()))
		return nil
	case "gesture":
		if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
			return fmt.Errorf("%w: settings gesture on|off", errUsage)
		}
		enabled := args[1] == "on"
		a.store.Update(func(prev settings.AppSettings) settings.AppSettings {
			prev.Gesture.Enabled = enabled
			return prev
		})
		fmt.Fprintf(a.out, "Shake detection %s\n", args[1])
		return nil
	case "auto-delete":
		if len(args) < 2 || !settings.AutoDeletePolicy(args[1]).Valid() {
			return fmt.Errorf("%w: settings auto-delete 24h|7d|never", errUsage)
		}
		privacy := a.store.Settings().Privacy
		privacy.AutoDelete = settings.AutoDeletePolicy(args[1])
		a.store.Merge(settings.Partial{Privacy: &privacy})
		fmt.Fprintf(a.out, "History kept for %s\n", args[1])
		return nil
	default:
		return fmt.Errorf("%w: unknown settings command %q", errUsage, args[0])
	}
}

// insertToken inserts a placeholder at a byte offset of the template, or at
// the end when no offset is given.
func (a *app) insertToken(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: settings token <NAME|LOCATION|TIME> [position]", errUsage)
	}
	token := "[" + strings.Trim(strings.ToUpper(args[0]), "[]") + "]"
	known := false
	for _, t := range msgtemplate.Tokens {
		if t == token {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown placeholder %s (use one of %s)", token, strings.Join(msgtemplate.Tokens, ", "))
	}

	current := a.store.Settings().Templates.DefaultMessage
	pos := len(current)
	if len(args) > 1 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", args[1], err)
		}
		pos = p
	}

	next := msgtemplate.InsertAt(current, token, pos, pos)
	a.store.Merge(settings.Partial{Templates: &settings.TemplateSettings{DefaultMessage: next}})
	fmt.Fprintln(a.out, next)
	return nil
}

func (a *app) cmdTrigger(ctx context.Context) error {
	report := a.orchestrator.Trigger(ctx)
	a.printReport(report)
	switch report.Outcome {
	case alert.OutcomeSent, alert.OutcomeBusy:
		return nil
	default:
		return report.Err
	}
}

func (a *app) printReport(r alert.Report) {
	out := a.syncOut()
	switch r.Outcome {
	case alert.OutcomeSent:
		color.New(color.FgGreen, color.Bold).Fprintf(out, "✔ Emergency alert sent to %d contact(s)\n", len(r.Recipients))
	case alert.OutcomeBusy:
		color.New(color.FgHiBlack).Fprintln(out, "Alert already in progress")
	}
}

// cmdWatch runs shake detection over samples read from in until the stream
// ends or ctx is cancelled. Each shake triggers an alert.
func (a *app) cmdWatch(ctx context.Context, in io.Reader) error {
	motion := platform.NewReaderMotion(in, a.logger)
	detector := gesture.New(motion, gesture.WithLogger(a.logger))
	defer detector.Close()

	shakes := make(chan struct{}, 1)
	detector.OnShake(func() {
		select {
		case shakes <- struct{}{}:
		default:
		}
	})
	a.store.OnChange(func(s settings.AppSettings) {
		detector.Configure(gesture.ConfigFrom(s))
	})
	detector.Configure(gesture.ConfigFrom(a.store.Settings()))

	if !detector.Active() {
		color.New(color.FgYellow).Fprintln(a.out, "Shake detection is off; enable it with: guardian settings gesture on")
		return nil
	}
	color.New(color.FgCyan).Fprintln(a.out, "Watching for shakes... (Ctrl+C to stop)")

	var wg sync.WaitGroup
	trigger := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.printReport(a.orchestrator.Trigger(ctx))
		}()
	}

	for done := false; !done; {
		select {
		case <-shakes:
			trigger()
		case <-motion.Done():
			select {
			case <-shakes:
				trigger()
			default:
			}
			done = true
		case <-ctx.Done():
			done = true
		}
	}

	wg.Wait()
	return nil
}

func (a *app) cmdHistory(ctx context.Context) error {
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(a.out)
	cyan.Fprintln(a.out, "  Alert Log")
	cyan.Fprintln(a.out, "  ---------")
	alerts := a.journal.Alerts(ctx)
	if len(alerts) == 0 {
		fmt.Fprintln(a.out, "  (no alerts)")
	} else {
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  WHEN\tOUTCOME\tRECIPIENTS\tLOCATION")
		for _, e := range alerts {
			fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n", e.At.Format("Jan 02 15:04"), e.Outcome, len(e.Recipients), e.LocationLink)
		}
		w.Flush()
	}

	fmt.Fprintln(a.out)
	cyan.Fprintln(a.out, "  Location History")
	cyan.Fprintln(a.out, "  ----------------")
	locations := a.journal.Locations(ctx)
	if len(locations) == 0 {
		fmt.Fprintln(a.out, "  (no locations)")
	}
	for _, l := range locations {
		fmt.Fprintf(a.out, "  %s  %s\n", l.At.Format("Jan 02 15:04"), l.Position)
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *app) cmdClearData(ctx context.Context) error {
	if !a.store.ClearAllData(ctx) {
		return fmt.Errorf("could not clear all data")
	}
	color.New(color.FgGreen).Fprintln(a.out, "✔ Location history and alert logs deleted")
	return nil
}
