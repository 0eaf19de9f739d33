package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kaelos/devdeck"
)

// command holds the client-side logic behind the cobra commands.
type command struct{}

func (command) Status(flags StatusFlags) error {
	client := NewAPIClient(flags.APIUrl, flags.APITimeout)
	if !client.IsReachable() {
		return fmt.Errorf("daemon not reachable at %s", client.baseURL)
	}

	svcs, err := client.GetServices()
	if err != nil {
		return err
	}
	if flags.Service != "" {
		filtered := svcs[:0]
		for _, s := range svcs {
			if s.Name == flags.Service {
				filtered = append(filtered, s)
			}
		}
		svcs = filtered
		if len(svcs) == 0 {
			return fmt.Errorf("unknown service: %s", flags.Service)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SERVICE\tSTATUS\tHEALTH\tEFFECTIVE\tSEVERITY")
	for _, s := range svcs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Name, s.Status, s.Health, s.Effective.Label, s.Effective.Severity)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	// Per-service probe detail when a single service was requested and
	// the daemon has a health report.
	if flags.Service != "" {
		if report, err := client.GetHealth(); err == nil {
			for _, r := range report.Services {
				if r.ServiceName != flags.Service {
					continue
				}
				fmt.Printf("\ncheck: %s  endpoint: %s  port: %s  response: %s  uptime: %s  at: %s\n",
					r.CheckType, r.FormatEndpoint(), r.FormatPort(),
					r.FormatResponseTime(), r.FormatUptime(), r.FormatTimestamp())
			}
		}
		return nil
	}

	counts, err := client.GetSummary()
	if err != nil {
		return err
	}
	fmt.Printf("\n%d total: %d running, %d warning, %d error, %d stopped\n",
		counts.Total, counts.Running, counts.Warn, counts.Error, counts.Stopped)
	return nil
}

func (command) Logs(flags LogsFlags) error {
	client := NewAPIClient(flags.APIUrl, flags.APITimeout)
	lines, err := client.GetLogs(flags.Service, flags.Level, flags.Limit)
	if err != nil {
		return err
	}
	for _, l := range lines {
		prefix := l.Service
		if l.Level != "" {
			prefix += " " + strings.ToUpper(l.Level)
		}
		fmt.Printf("%s [%s] %s\n", l.Timestamp.Format("15:04:05"), prefix, l.Line)
	}
	return nil
}

func (command) Lifecycle(action string, flags LifecycleFlags) error {
	if flags.Name == "" {
		return fmt.Errorf("--name is required")
	}
	client := NewAPIClient(flags.APIUrl, flags.APITimeout)
	if err := client.Lifecycle(action, flags.Name); err != nil {
		return err
	}
	fmt.Printf("%s requested for %s\n", action, flags.Name)
	return nil
}

func (command) ClassifyList(flags ClassifyFlags) error {
	client := NewAPIClient(flags.APIUrl, flags.APITimeout)
	overrides, err := client.ListClassifications()
	if err != nil {
		return err
	}
	if len(overrides) == 0 {
		fmt.Println("no classification overrides")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TEXT\tLEVEL")
	for _, o := range overrides {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", o.Text, o.Level)
	}
	return w.Flush()
}

func (command) ClassifyAdd(flags ClassifyFlags) error {
	client := NewAPIClient(flags.APIUrl, flags.APITimeout)
	if err := client.AddClassification(devdeck.Override{Text: flags.Text, Level: flags.Level}); err != nil {
		return err
	}
	fmt.Printf("override added: %q -> %s\n", flags.Text, flags.Level)
	return nil
}

func (command) ClassifyRemove(flags ClassifyFlags) error {
	client := NewAPIClient(flags.APIUrl, flags.APITimeout)
	if err := client.RemoveClassification(flags.Text); err != nil {
		return err
	}
	fmt.Printf("override removed: %q\n", flags.Text)
	return nil
}
