// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the table lookup server or its interactive CLI.

tableserve answers input method lookups from keyboard-table dictionaries:
ibus-table SQLite databases and packed table files. A host input method
sends the keys typed so far (the preedit) and receives pages of candidate
phrases plus the directives it should run next.

# Usage

Start the IPC server with the dictionary from the config file:

	tableserve

Serve a specific dictionary and log debug output to stderr:

	tableserve --backend ibus --dict /usr/share/ibus-table/tables/array30.db -d

Try a dictionary interactively:

	tableserve -c --dict array30.table

# Configuration

The config lives at ~/.config/tableserve/config.toml and is created with
defaults when missing:

	[session]
	backend = "auto"
	dictionary = ""
	widening_start = 1
	max_candidates = 64
	page_size = 10

	[cache]
	max_entries = 256

	[server]
	max_preedit = 64

	[cli]
	verbose = false

Flags override the [session] values for this run.

# IPC Protocol

The server reads msgpack requests from stdin and writes one msgpack
response per request to stdout. See package server for the message
formats. Logs always go to stderr.

# Command Line Flags

	--config string    config file path
	--backend string   ibus, sqlite, packed or auto
	--dict string      dictionary path
	--xlen int         first widening step of relational lookups
	--max int          maximum candidates per relational lookup
	--page int         candidates per page
	-d, --debug        debug logging
	-c, --cli          interactive mode
	--version          print the version
*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bastiangx/tableserve/internal/cli"
	"github.com/bastiangx/tableserve/internal/logger"
	"github.com/bastiangx/tableserve/internal/utils"
	"github.com/bastiangx/tableserve/pkg/config"
	"github.com/bastiangx/tableserve/pkg/dictionary"
	"github.com/bastiangx/tableserve/pkg/server"
	"github.com/bastiangx/tableserve/pkg/session"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"
)

const (
	Version = "0.1.0-beta"
	AppName = "tableserve"
	gh      = "https://github.com/bastiangx/tableserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only wires config, flags and the chosen mode together.
func main() {
	sigHandler()
	defaults := config.DefaultConfig()

	configPath := flag.String("config", "", "Path to config.toml")
	backend := flag.String("backend", "", "Dictionary backend: ibus, sqlite, packed or auto")
	dictPath := flag.String("dict", "", "Dictionary file")
	xlen := flag.Int("xlen", defaults.Session.WideningStart, "First widening step of relational lookups")
	maxCandidates := flag.Int("max", defaults.Session.MaxCandidates, "Maximum candidates per relational lookup")
	pageSize := flag.Int("page", defaults.Session.PageSize, "Candidates per page")
	debugMode := flag.BoolP("debug", "d", false, "Toggle debug mode")
	logJSON := flag.Bool("log-json", false, "Write logs to stderr as JSON lines")
	rebuildConfig := flag.Bool("rebuild-config", false, "Rewrite the default config file with built-in values and exit")
	cliMode := flag.BoolP("cli", "c", false, "Run CLI -- useful for trying a dictionary")
	showVersion := flag.Bool("version", false, "Show current version")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	logger.Setup(*debugMode, *logJSON)

	if *rebuildConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		l := logger.New(AppName)
		l.SetLevel(log.InfoLevel)
		l.Infof("Rebuilt config file at: (%s)", config.GetActiveConfigPath(""))
		return
	}

	cfg, usedPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedPath))

	// Explicit flags win over the config file.
	if *backend != "" {
		cfg.Session.Backend = *backend
	}
	if *dictPath != "" {
		cfg.Session.Dictionary = *dictPath
	}
	if flag.CommandLine.Changed("xlen") {
		cfg.Session.WideningStart = *xlen
	}
	if flag.CommandLine.Changed("max") {
		cfg.Session.MaxCandidates = *maxCandidates
	}
	if flag.CommandLine.Changed("page") {
		cfg.Session.PageSize = *pageSize
	}

	configDir := ""
	if usedPath != "" {
		configDir = filepath.Dir(usedPath)
	}
	dict := utils.ResolveDictionaryPath(cfg.Session.Dictionary, configDir)
	opts := dictionary.Options{
		Path:          dict,
		WideningStart: cfg.Session.WideningStart,
		MaxCandidates: cfg.Session.MaxCandidates,
	}
	sessionConfig := session.Config{PageSize: cfg.Session.PageSize, CacheSize: cfg.Cache.MaxEntries}

	if *cliMode {
		log.SetReportTimestamp(false)
		sess := session.New(sessionConfig)
		defer sess.Close()
		if dict != "" {
			if err := sess.Open(cfg.Session.Backend, opts); err != nil {
				log.Errorf("Cannot open %s: %v", dict, err)
			}
		} else {
			log.Warn("No dictionary configured, use :open <backend> <path>")
		}
		handler := cli.NewInputHandler(sess, opts, cfg.Server.MaxPreedit, cfg.CLI.Verbose, os.Stdin, os.Stdout).
			WithSave(saveSessionDefaults(usedPath))
		if err := handler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	srv := server.NewServer(server.Options{
		Backend:       cfg.Session.Backend,
		Dictionary:    dict,
		WideningStart: cfg.Session.WideningStart,
		MaxCandidates: cfg.Session.MaxCandidates,
		MaxPreedit:    cfg.Server.MaxPreedit,
		Session:       sessionConfig,
	}, os.Stdin, os.Stdout)

	// The unnamed session is ready for clients that never send open.
	if dict != "" {
		if err := srv.Open("", cfg.Session.Backend, opts); err != nil {
			log.Errorf("Cannot open %s: %v", dict, err)
		}
	}

	showStartupInfo(dict, cfg.Session.Backend)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// saveSessionDefaults writes the backend and dictionary a CLI session has
// open into the config file. Values given only as flags are not persisted.
func saveSessionDefaults(usedPath string) cli.SaveFunc {
	return func(backend string, opts dictionary.Options) error {
		path := usedPath
		if path == "" {
			defaultPath, err := config.GetDefaultConfigPath()
			if err != nil {
				return err
			}
			path = defaultPath
		}
		fileCfg, err := config.InitConfig(path)
		if err != nil {
			return err
		}
		dict := utils.GetAbsolutePath(opts.Path)
		return fileCfg.Update(path, &backend, &dict, &opts.WideningStart, &opts.MaxCandidates, nil)
	}
}

func printVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
	})
	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ tableserve ] Keyboard table lookups for input methods")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo writes to stderr; stdout belongs to the IPC stream.
func showStartupInfo(dict, backend string) {
	l := logger.New(AppName)
	l.SetLevel(log.InfoLevel)
	l.Infof("Version: %s", Version)
	l.Infof("Process ID: [ %d ]", os.Getpid())
	l.Infof("dictionary: ( %s ) backend: %s", dict, backend)
	l.Info("status: ready")
}
