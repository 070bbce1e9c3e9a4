package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Joseda-hg/taskgroove/internal/config"
	"github.com/Joseda-hg/taskgroove/internal/db"
	"github.com/Joseda-hg/taskgroove/internal/model"
	"github.com/Joseda-hg/taskgroove/internal/tracker"
	"github.com/spf13/cobra"
)

var Version = "dev"

type rootOptions struct {
	configPath string
	dbPath     string
	logFile    string
}

func main() {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:     "taskgroove",
		Short:   "Date-bucketed task tracker with a terminal UI and JSON API",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "sqlite db path")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "append logs to this file")

	rootCmd.AddCommand(tuiCmd(opts))
	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(listCmd(opts))
	rootCmd.AddCommand(agendaCmd(opts))
	rootCmd.AddCommand(addCmd(opts))
	rootCmd.AddCommand(doneCmd(opts))
	rootCmd.AddCommand(rescheduleCmd(opts))
	rootCmd.AddCommand(exportCmd(opts))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles what every command needs once the config has been resolved.
type app struct {
	cfg     config.Config
	conn    *sql.DB
	store   *db.Store
	tracker *tracker.Tracker
	logger  *log.Logger
	logOut  io.Closer
}

func openApp(ctx context.Context, opts *rootOptions, logDefault io.Writer, extra ...tracker.Option) (*app, error) {
	cfgPath := opts.configPath
	if cfgPath == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = defaultPath
	}

	cfg, err := config.LoadOrCreate(cfgPath)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}

	a := &app{cfg: cfg}
	if err := a.openLog(opts.logFile, logDefault); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	weekday, err := cfg.Weekday()
	if err != nil {
		return nil, err
	}

	dbPath := cfg.ResolveDBPath(cfgPath)
	if dbPath != ":memory:" {
		if err := config.EnsureDir(dbPath); err != nil {
			return nil, err
		}
	}
	conn, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	a.conn = conn
	a.store = db.NewStore(conn)

	options := []tracker.Option{
		tracker.WithCalendar(tracker.Calendar{Location: loc, FirstWeekday: weekday}),
		tracker.WithUndoWindow(cfg.UndoWindow()),
		tracker.WithJournal(a.store),
		tracker.WithLogger(a.logger),
		tracker.WithNotifier(logNotifier{logger: a.logger}),
	}
	if cfg.CompletedPageSize > 0 {
		options = append(options, tracker.WithPageSize(cfg.CompletedPageSize))
	}
	if !cfg.SeedSample {
		options = append(options, tracker.WithSeed(nil))
	}
	options = append(options, extra...)

	a.tracker = tracker.New(a.store, options...)
	a.tracker.Load(ctx)
	return a, nil
}

func (a *app) openLog(path string, fallback io.Writer) error {
	if path == "" {
		a.logger = log.New(fallback, "taskgroove: ", log.LstdFlags)
		log.SetOutput(fallback)
		return nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.logOut = file
	a.logger = log.New(file, "taskgroove: ", log.LstdFlags)
	log.SetOutput(file)
	return nil
}

func (a *app) Close() {
	if a.conn != nil {
		_ = a.conn.Close()
	}
	if a.logOut != nil {
		_ = a.logOut.Close()
	}
}

type logNotifier struct {
	logger *log.Logger
}

func (n logNotifier) TaskCompleted(task model.Task) {
	n.logger.Printf("completed %q", task.Name)
}

func (n logNotifier) TaskReopened(task model.Task) {
	n.logger.Printf("reopened %q", task.Name)
}
