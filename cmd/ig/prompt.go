package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/influgraph/internal/datasource"
)

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// promptIngest asks for an ingest keyword and post limit before the
// explorer starts.
func promptIngest(defaultLimit int) (string, int, error) {
	var keyword string
	limitText := strconv.Itoa(defaultLimit)

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Ingest keyword").
				Description("#hashtag for a hashtag search, @user for a profile").
				Placeholder("#skincare").
				CharLimit(100).
				Value(&keyword).
				Validate(func(s string) error {
					_, err := datasource.ParseKeyword(s)
					return err
				}),
			huh.NewInput().
				Title("Posts to scrape").
				Value(&limitText).
				Validate(func(s string) error {
					_, err := parseLimit(s)
					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", 0, err
	}
	limit, _ := parseLimit(limitText)
	return strings.TrimSpace(keyword), limit, nil
}

func parseLimit(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive number")
	}
	return n, nil
}
