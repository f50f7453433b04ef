package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/amonks/taskmate/internal/listflags"
	"github.com/amonks/taskmate/internal/ui"
	"github.com/amonks/taskmate/notify"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show and clear display-only reminders whose time has come",
	Long: `Show and clear display-only reminders whose time has come.

Reminders are display-only when they could not be scheduled, for example
on the web platform. Scheduled reminders are delivered by "notify watch".`,
	Args: cobra.NoArgs,
	RunE: runDue,
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Manage scheduled notifications",
}

var notifyWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Deliver scheduled notifications as they come due",
	Long: `Deliver scheduled notifications as they come due.

Each notification is printed to stdout and, when notify.command is
configured, passed to that script in TASKMATE_TITLE, TASKMATE_BODY, and
TASKMATE_FIRE_AT. Failed deliveries are retried with exponential backoff.`,
	Args: cobra.NoArgs,
	RunE: runNotifyWatch,
}

var notifyWatchOnce bool

var notifyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending notifications",
	Args:  cobra.NoArgs,
	RunE:  runNotifyList,
}

var notifyListJSON bool

func init() {
	rootCmd.AddCommand(dueCmd, notifyCmd)
	notifyCmd.AddCommand(notifyWatchCmd, notifyListCmd)

	notifyWatchCmd.Flags().BoolVar(&notifyWatchOnce, "once", false, "Deliver what is due now and exit")
	listflags.AddJSONFlag(notifyListCmd, &notifyListJSON)
}

func runDue(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	due, err := a.repo.DueReminders(cmd.Context())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	if len(due) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reminders due.")
		return nil
	}
	highlight := a.highlighter()
	for _, d := range due {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", d.FireAt.Local().Format(time.Kitchen), highlight(d.TaskID), d.Text)
	}
	return nil
}

func runNotifyWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	interval, err := a.cfg.NotifyInterval()
	if err != nil {
		return err
	}

	dispatchers := []notify.Dispatcher{&notify.ConsoleDispatcher{
		W:     cmd.OutOrStdout(),
		Plain: !term.IsTerminal(int(os.Stdout.Fd())),
	}}
	if a.cfg.Notify.Command != "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		dispatchers = append(dispatchers, &notify.CommandDispatcher{Script: a.cfg.Notify.Command, Dir: cwd})
	}

	worker := &notify.Worker{
		Queue:      a.queue,
		Dispatcher: notify.Multi(dispatchers...),
		Logger:     a.logger,
		Interval:   interval,
	}
	if notifyWatchOnce {
		_, err := worker.Tick(cmd.Context())
		return err
	}
	return worker.Run(cmd.Context())
}

func runNotifyList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.queue.List(cmd.Context())
	if err != nil {
		return err
	}
	if notifyListJSON {
		return encodeJSON(cmd.OutOrStdout(), entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pending notifications.")
		return nil
	}

	now := time.Now()
	builder := ui.NewTableBuilder([]string{"FIRES", "TITLE", "BODY", "ATTEMPTS"}, len(entries))
	for _, entry := range entries {
		builder.AddRow(
			ui.FormatUntil(entry.FireAt, now),
			entry.Title,
			ui.TruncateTableCell(entry.Body),
			strconv.Itoa(entry.Attempts),
		)
	}
	fmt.Fprint(cmd.OutOrStdout(), builder.String())
	return nil
}
