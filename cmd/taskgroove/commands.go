package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
	"github.com/Joseda-hg/taskgroove/internal/tracker"
	"github.com/Joseda-hg/taskgroove/internal/tui"
	"github.com/Joseda-hg/taskgroove/internal/web"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func tuiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
}

func runTUI(ctx context.Context, opts *rootOptions) error {
	ui := tui.New(nil)
	a, err := openApp(ctx, opts, io.Discard, tracker.WithOnChange(ui.Changed))
	if err != nil {
		return err
	}
	defer a.Close()

	ui.SetHistory(a.store)
	if a.cfg.WebEnabled {
		server := newHTTPServer(a)
		go func() {
			a.logger.Printf("web server running at http://localhost%s", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Printf("web server error: %v", err)
			}
		}()
		defer server.Close()
	}

	return ui.Run(a.tracker)
}

func serveCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			if port != 0 {
				a.cfg.WebPort = port
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					a.logger.Println("shutting down...")
					cancel()
				case <-ctx.Done():
				}
			}()

			server := newHTTPServer(a)
			errCh := make(chan error, 1)
			go func() {
				a.logger.Printf("web server running at http://localhost%s", server.Addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				defer stop()
				return server.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (defaults to web_port)")
	return cmd
}

func newHTTPServer(a *app) *http.Server {
	port := a.cfg.WebPort
	if port == 0 {
		port = 8080
	}
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           web.NewServer(a.tracker, a.store).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          log.New(a.logger.Writer(), "http: ", log.LstdFlags),
	}
}

func listCmd(opts *rootOptions) *cobra.Command {
	var filterValue string
	var completed bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks in a date bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, ok := model.ParseFilter(filterValue)
			if !ok {
				return fmt.Errorf("unknown filter %q", filterValue)
			}
			a, err := openApp(cmd.Context(), opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			loc := a.tracker.Calendar().Location
			if completed {
				tasks := a.tracker.VisibleCompletedTasks()
				printTasks(out, "Completed", tasks, loc)
				if a.tracker.HasMoreCompleted() {
					fmt.Fprintf(out, "  ... %d more\n", a.tracker.RemainingCompleted())
				}
				return nil
			}
			printTasks(out, filter.Label(), a.tracker.FilteredTasks(filter), loc)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filterValue, "filter", "f", "all", "all, today, tomorrow, this_week, next_week, this_month, next_month, no_date")
	cmd.Flags().BoolVar(&completed, "completed", false, "list completed tasks instead")
	return cmd
}

func agendaCmd(opts *rootOptions) *cobra.Command {
	var dateValue string
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show scheduled tasks by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			loc := a.tracker.Calendar().Location
			if dateValue != "" {
				day, err := time.ParseInLocation("2006-01-02", dateValue, loc)
				if err != nil {
					return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
				}
				printTasks(out, day.Format("Mon Jan 2 2006"), a.tracker.TasksForDate(day), loc)
				return nil
			}

			busy := 0
			for _, bucket := range a.tracker.Agenda() {
				if len(bucket.Tasks) == 0 {
					continue
				}
				busy++
				printTasks(out, bucket.Date.Format("Mon Jan 2 2006"), bucket.Tasks, loc)
			}
			if busy == 0 {
				fmt.Fprintln(out, "Nothing scheduled")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateValue, "date", "d", "", "show a single day (YYYY-MM-DD)")
	return cmd
}

func addCmd(opts *rootOptions) *cobra.Command {
	var (
		due         string
		quick       string
		priority    string
		labels      []string
		description string
		location    string
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if err := model.ValidateName(name); err != nil {
				return err
			}
			parsedPriority, err := model.ParsePriority(priority)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			task := model.NewTask(name)
			task.Description = description
			task.Priority = parsedPriority
			task.Labels = labels
			if location != "" {
				task.Location = &location
			}
			dueDate, err := resolveDue(a.tracker, due, quick)
			if err != nil {
				return err
			}
			task.DueDate = dueDate

			created := a.tracker.AddTask(cmd.Context(), task)
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", shortID(created.ID), created.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC3339)")
	cmd.Flags().StringVar(&quick, "quick", "", "today, tomorrow, this_weekend or next_week")
	cmd.Flags().StringVarP(&priority, "priority", "p", "none", "high, medium, low or none")
	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "labels (repeatable)")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&location, "location", "", "location")
	return cmd
}

func doneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := findTask(a.tracker, args[0])
			if err != nil {
				return err
			}
			a.tracker.ToggleCompletion(cmd.Context(), task.ID)
			state := "completed"
			if task.Completed {
				state = "reopened"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, task.Name)
			return nil
		},
	}
}

func rescheduleCmd(opts *rootOptions) *cobra.Command {
	var due, quick string
	cmd := &cobra.Command{
		Use:   "reschedule ID",
		Short: "Move a task to another day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := findTask(a.tracker, args[0])
			if err != nil {
				return err
			}
			target, err := resolveDue(a.tracker, due, quick)
			if err != nil {
				return err
			}
			if target == nil {
				return errors.New("--due or --quick is required")
			}
			toast, ok := a.tracker.RescheduleTask(cmd.Context(), task.ID, *target)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already on that day\n", task.Name)
				return nil
			}
			a.tracker.DismissUndo()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", task.Name, toast.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC3339)")
	cmd.Flags().StringVar(&quick, "quick", "", "today, tomorrow, this_weekend or next_week")
	return cmd
}

func exportCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			return writeExport(cmd.OutOrStdout(), format, a.tracker.Tasks())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "json", "json or yaml")
	return cmd
}

func writeExport(out io.Writer, format string, tasks []model.Task) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tasks)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(tasks); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// resolveDue turns the --due/--quick pair into a due date. Neither set means
// no date.
func resolveDue(tr *tracker.Tracker, due, quick string) (*time.Time, error) {
	if due != "" && quick != "" {
		return nil, errors.New("use either --due or --quick")
	}
	if quick != "" {
		option, ok := tracker.ParseQuickOption(quick)
		if !ok {
			return nil, fmt.Errorf("unknown quick option %q", quick)
		}
		target := tracker.QuickDate(tr.Calendar(), tr.Now(), option)
		return &target, nil
	}
	if due == "" {
		return nil, nil
	}
	parsed, err := parseDueFlag(due, tr.Calendar().Location)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseDueFlag(value string, loc *time.Location) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", value)
}

// findTask accepts a full ID or a unique prefix of one.
func findTask(tr *tracker.Tracker, ref string) (model.Task, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := uuid.Parse(ref); err == nil {
		if task, ok := tr.Task(id); ok {
			return task, nil
		}
		return model.Task{}, fmt.Errorf("task %s not found", ref)
	}

	var matches []model.Task
	for _, task := range tr.Tasks() {
		if strings.HasPrefix(task.ID.String(), ref) {
			matches = append(matches, task)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("task %s not found", ref)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("task prefix %s is ambiguous (%d matches)", ref, len(matches))
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func printTasks(out io.Writer, heading string, tasks []model.Task, loc *time.Location) {
	fmt.Fprintf(out, "%s (%d)\n", heading, len(tasks))
	for _, task := range tasks {
		check := " "
		if task.Completed {
			check = "x"
		}
		due := "no date"
		if task.DueDate != nil {
			due = task.DueDate.In(loc).Format("2006-01-02 15:04")
		}
		line := fmt.Sprintf("  [%s] %s  %s  %s", check, shortID(task.ID), task.Name, due)
		if task.Priority != "" && task.Priority != model.PriorityNone {
			line += "  " + task.Priority.Label()
		}
		if len(task.Labels) > 0 {
			line += "  #" + strings.Join(task.Labels, " #")
		}
		fmt.Fprintln(out, line)
	}
}
