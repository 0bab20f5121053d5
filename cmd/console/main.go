package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	apiURL := flag.String("api", os.Getenv("API_BASE_URL"), "play through a running API at this base URL instead of in-process")
	lang := flag.String("lang", os.Getenv("LANG_TAG"), "story language, e.g. en-US or cs")
	flag.Parse()

	var backend Backend
	if *apiURL != "" {
		client := &http.Client{Timeout: 30 * time.Second}
		if !testConnection(client, *apiURL) {
			fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
			os.Exit(1)
		}
		backend = newRemoteBackend(client, *apiURL)
	} else {
		// The terminal belongs to the UI; engine logs are discarded.
		backend = newLocalBackend(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}

	p := tea.NewProgram(NewConsoleUI(backend, *lang),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
