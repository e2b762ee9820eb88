package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/okeefe/taskdeck/internal/app"
	"github.com/okeefe/taskdeck/internal/config"
	"github.com/okeefe/taskdeck/internal/store"
	"github.com/okeefe/taskdeck/internal/ui"
	"github.com/okeefe/taskdeck/internal/ui/theme"
)

var (
	version = "0.1.0"
)

func main() {
	// Subcommand handling
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "logout":
			handleLogout()
			return
		case "version":
			fmt.Printf("taskdeck v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	serverFlag := flag.String("server", "", "API base URL (overrides config)")
	themeFlag := flag.String("theme", "", "Theme name (nord, dracula, gruvbox, catppuccin)")
	flag.Parse()

	if err := runTUI(*serverFlag, *themeFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	help := `taskdeck - A terminal client for the task manager API

Usage:
  taskdeck                  Start the TUI
  taskdeck logout           Drop the stored session
  taskdeck version          Show version
  taskdeck help             Show this help

Options:
  --server <url>    API base URL (overrides config)
  --theme <name>    Theme (nord, dracula, gruvbox, catppuccin)

Configuration:
  ~/.taskdeck/config.yaml   api.base_url, upload.cloud_name,
                            upload.upload_preset, theme
  ~/.taskdeck/.env          TASKDECK_API_URL,
                            TASKDECK_CLOUDINARY_CLOUD_NAME,
                            TASKDECK_CLOUDINARY_UPLOAD_PRESET
  TASKDECK_PATH             Override the data directory

Keybindings:
  Navigation:   ↑/↓ or j/k    Move cursor
                g/G           Go to top/bottom

  Actions:      a             Add new task
                enter/e       Edit task
                d             Delete task
                v             View attachment URL
                r             Refresh from server

  Filters:      f/tab         Cycle status filter
                1-4           Jump to a filter

  Session:      L             Log out
                ctrl+t        Cycle theme
                ?             Help
                q             Quit`

	fmt.Println(help)
}

// handleLogout clears the stored token without starting the TUI. No
// instance lock is taken; a single settings write is safe alongside a
// running instance.
func handleLogout() {
	dataDir := config.Path()

	st, err := store.Open(store.DefaultPath(dataDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening settings store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.ClearToken(); err != nil {
		fmt.Fprintf(os.Stderr, "Error clearing session: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Logged out.")
}

func runTUI(server, themeName string) error {
	if err := config.LoadDotenv(config.DotenvPath()); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.Load(config.FilePath())
	if err != nil {
		return err
	}
	if server != "" {
		cfg.API.BaseURL = server
	}
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	// The flag becomes the persisted choice, so it survives restarts
	// and beats whatever ctrl+t last saved.
	if themeName != "" {
		if _, ok := theme.ByName(themeName); !ok {
			return fmt.Errorf("unknown theme %q", themeName)
		}
		if err := application.Store.SetSetting("theme", themeName); err != nil {
			return err
		}
	}

	p := tea.NewProgram(
		ui.NewRootModel(application),
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}
