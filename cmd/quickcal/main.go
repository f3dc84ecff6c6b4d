package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	_ "github.com/joho/godotenv/autoload"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/term"

	"github.com/thinkwright/quickcal/internal/config"
	"github.com/thinkwright/quickcal/internal/diary"
	"github.com/thinkwright/quickcal/internal/render"
	"github.com/thinkwright/quickcal/internal/store"
	"github.com/thinkwright/quickcal/internal/ui"
	"github.com/thinkwright/quickcal/internal/vault"
)

var version = "dev"

func configPath(cmd *cli.Command) string {
	if p := cmd.String("config"); p != "" {
		if expanded, err := homedir.Expand(p); err == nil {
			return expanded
		}
		return p
	}
	return config.Path()
}

// vaultRoot picks the --vault flag, then the config value, then the working directory.
func vaultRoot(flag, configured string) (string, error) {
	root := flag
	if root == "" {
		root = configured
	}
	if root == "" {
		return os.Getwd()
	}
	return homedir.Expand(root)
}

// openLog sends logrus output to a JSON file; the terminal belongs to the UI.
func openLog(level string) (*logrus.Logger, func(), error) {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	}
	dir := store.DataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "quickcal.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	l.SetOutput(f)
	return l, func() { f.Close() }, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfgPath := configPath(cmd)
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		return fmt.Errorf("invalid config %s: %w (fix it with `quickcal config set`)", cfgPath, err)
	}

	root, err := vaultRoot(cmd.String("vault"), cfg.Vault)
	if err != nil {
		return fmt.Errorf("vault: %w", err)
	}

	logger, closeLog, err := openLog(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()
	log := logger.WithField("component", "main")

	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.WithError(err).Warn("error setting GOMAXPROCS")
	}

	db, err := store.Open(store.DBPath(root))
	if err != nil {
		return fmt.Errorf("error opening index: %w", err)
	}
	defer db.Close()

	if cmd.Bool("reindex") {
		if err := db.Reset(); err != nil {
			return fmt.Errorf("error resetting index: %w", err)
		}
	}

	v, err := vault.Open(root, db)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"vault": v.Root(), "version": version}).Info("starting")

	m, err := ui.NewModel(ui.Deps{
		Vault:      v,
		Store:      db,
		Renderer:   render.NewGlamour("dark"),
		Config:     cfg,
		ConfigPath: cfgPath,
		Log:        logrus.NewEntry(logger),
	})
	if err != nil {
		return err
	}

	// Ask the terminal for room to show a week of cells
	const minCols, minRows = 100, 32
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		if w < minCols || h < minRows {
			fmt.Fprintf(os.Stdout, "\x1b[8;%d;%dt", max(h, minRows), max(w, minCols))
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		log.WithError(err).Error("ui exited")
		return err
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func showConfig(ctx context.Context, cmd *cli.Command) error {
	p := configPath(cmd)
	cfg, err := config.LoadFrom(p)
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Setting"), bold.Sprint("Value"))
	tbl.AddRow("config", p)
	tbl.AddRow("vault", orDefault(cfg.Vault, faint.Sprint("(working directory)")))
	tbl.AddRow("log_level", cfg.LogLevel)
	tbl.AddRow("diary_folder", orDefault(cfg.Settings.DiaryFolder, faint.Sprint("(vault root)")))
	tbl.AddRow("date_format", cfg.Settings.DateFormat)
	tbl.AddRow("show_weekends", cfg.Settings.ShowWeekends)
	tbl.AddRow("start_week_on_monday", cfg.Settings.StartWeekOnMonday)
	if err == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		if b, berr := diary.NewBinder(nil, cfg.Settings, logrus.NewEntry(quiet)); berr == nil {
			tbl.AddRow("today's note", b.Path(time.Now()))
		}
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(color.Output, tbl)

	if err != nil {
		return fmt.Errorf("config is invalid: %w", err)
	}
	return nil
}

func setConfig(ctx context.Context, cmd *cli.Command) error {
	p := configPath(cmd)
	cfg, _ := config.LoadFrom(p)
	if cmd.IsSet("vault") {
		cfg.Vault = cmd.String("vault")
	}
	if cmd.IsSet("folder") {
		cfg.Settings.DiaryFolder = cmd.String("folder")
	}
	if cmd.IsSet("date-format") {
		cfg.Settings.DateFormat = cmd.String("date-format")
	}
	if cmd.IsSet("monday") {
		cfg.Settings.StartWeekOnMonday = cmd.Bool("monday")
	}
	if cmd.IsSet("weekends") {
		cfg.Settings.ShowWeekends = cmd.Bool("weekends")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("not saved: %w", err)
	}
	if err := config.SaveTo(p, cfg); err != nil {
		return err
	}
	color.Green("saved %s", p)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "quickcal",
		Usage:   "Scrolling month calendar over a folder of daily Markdown notes",
		Version: version,
		Action:  run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars("QUICKCAL_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "vault",
				Usage: "Vault directory (default: config value, then the working directory)",
			},
			&cli.BoolFlag{
				Name:  "reindex",
				Usage: "Rebuild the file index before starting",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Show or change settings",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the effective config",
						Action: showConfig,
					},
					{
						Name:  "set",
						Usage: "Validate and save settings",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "vault", Usage: "Default vault directory"},
							&cli.StringFlag{Name: "folder", Usage: "Diary folder, relative to the vault"},
							&cli.StringFlag{Name: "date-format", Usage: "File name pattern, e.g. YYYY-MM-DD"},
							&cli.BoolFlag{Name: "monday", Usage: "Start weeks on Monday"},
							&cli.BoolFlag{Name: "weekends", Usage: "Show Saturday and Sunday"},
							&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
						},
						Action: setConfig,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
