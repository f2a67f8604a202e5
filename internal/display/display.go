// Package display provides functions for styled terminal output: the
// hard-failure run summary and live translation progress.
package display

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// ErrRawMarkdown marks a fallback-to-raw-output path; it is never returned
// to callers, only used internally to exercise handleRendererError.
var ErrRawMarkdown = errors.New("falling back to raw markdown")

// Theme and terminal color constants used throughout the display package.
const (
	// None disables all terminal styling.
	None = "none"
	// Custom indicates a custom color profile is in use.
	Custom = "custom"
	// Auto enables automatic color profile detection.
	Auto = "auto"
	// Notty indicates no TTY is available (non-interactive mode).
	Notty = "notty"
	// Truecolor indicates a terminal supporting 24-bit true color.
	Truecolor = "truecolor"
	// Bit24 is an alias for 24-bit color support.
	Bit24 = "24bit"
)

// progressRenderingFraction is the percentage shown while Glamour is
// rendering, ahead of the fixed "Display complete!" 1.0 at the end.
const progressRenderingFraction = 0.5

// StyleSheet holds styles for various terminal display elements.
type StyleSheet struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Table    lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	theme    Theme
}

// NewStyleSheet returns a new StyleSheet configured with an automatically detected theme based on the current environment.
func NewStyleSheet() *StyleSheet {
	theme := DetectTheme("")
	return NewStyleSheetWithTheme(theme)
}

// NewStyleSheetWithTheme returns a new StyleSheet configured with the provided theme.
func NewStyleSheetWithTheme(theme Theme) *StyleSheet {
	return &StyleSheet{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.GetColor("title"))).
			Background(lipgloss.Color(theme.GetColor("primary"))).
			Padding(0, 1),
		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.GetColor("subtitle"))).
			Padding(0, 1),
		Table: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.GetColor("foreground"))).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(theme.GetColor("table_border"))),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.GetColor("error"))),
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.GetColor("warning"))),
		theme: theme,
	}
}

const (
	// DefaultWordWrapWidth is the default word wrap width for terminal display.
	DefaultWordWrapWidth = 120
)

// TitlePrint prints a title-styled text on the terminal.
func (s *StyleSheet) TitlePrint(text string) { fmt.Println(s.Title.Render(text)) }

// ErrorPrint prints an error-styled text on the terminal.
func (s *StyleSheet) ErrorPrint(text string) { fmt.Println(s.Error.Render(text)) }

// WarningPrint prints a warning-styled text on the terminal.
func (s *StyleSheet) WarningPrint(text string) { fmt.Println(s.Warning.Render(text)) }

// SubtitlePrint prints a subtitle-styled text on the terminal.
func (s *StyleSheet) SubtitlePrint(text string) { fmt.Println(s.Subtitle.Render(text)) }

// TablePrint prints a table-styled text on the terminal.
func (s *StyleSheet) TablePrint(text string) { fmt.Println(s.Table.Render(text)) }

// Options holds display configuration settings.
type Options struct {
	Theme        Theme
	WrapWidth    int
	EnableTables bool
	EnableColors bool
}

// DefaultOptions returns an Options struct with the default theme, word wrap width, and both tables and colors enabled.
func DefaultOptions() Options {
	return Options{
		Theme:        DetectTheme(""),
		WrapWidth:    DefaultWordWrapWidth,
		EnableTables: true,
		EnableColors: true,
	}
}

// DetermineGlamourStyle returns the Glamour style string to use for markdown rendering based on the provided options, considering color enablement, terminal color support, and the selected theme.
func DetermineGlamourStyle(opts *Options) string {
	if !opts.EnableColors {
		return Notty
	}
	if !IsTerminalColorCapable() {
		return "ascii"
	}
	switch opts.Theme.Name {
	case "light", "dark":
		return opts.Theme.Name
	case None:
		return Notty
	case Custom:
		return Auto
	default:
		return opts.Theme.GetGlamourStyleName()
	}
}

// IsTerminalColorCapable returns true if the current terminal environment supports color output, based on environment variables and terminal type heuristics.
func IsTerminalColorCapable() bool {
	if !isTerminal() {
		return false
	}

	colorTerm := os.Getenv("COLORTERM")
	term := os.Getenv("TERM")

	if colorTerm == Truecolor || colorTerm == Bit24 {
		return true
	}
	if strings.Contains(term, "256color") {
		return true
	}
	if strings.Contains(term, "color") {
		return true
	}

	colorTerminals := []string{"xterm", "screen", "tmux", "iterm", "konsole", "gnome", "alacritty"}
	for _, colorTerm := range colorTerminals {
		if strings.Contains(strings.ToLower(term), colorTerm) {
			return true
		}
	}
	return false
}

// isTerminal returns true if the standard output is a terminal device.
func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// TerminalDisplay renders the hard-failure run summary and live progress to
// the terminal.
type TerminalDisplay struct {
	options     *Options
	renderer    *glamour.TermRenderer
	rendererErr error // preserved from construction; nil if colors were intentionally disabled
	progress    *progress.Model
	progressMu  sync.Mutex
}

// NewTerminalDisplay creates a TerminalDisplay with default display options and progress bar settings.
func NewTerminalDisplay() *TerminalDisplay {
	return NewTerminalDisplayWithOptions(DefaultOptions())
}

// NewTerminalDisplayWithTheme creates a TerminalDisplay with the specified theme and terminal width.
func NewTerminalDisplayWithTheme(theme Theme) *TerminalDisplay {
	opts := DefaultOptions()
	opts.Theme = theme
	opts.WrapWidth = getTerminalWidth()
	return NewTerminalDisplayWithOptions(opts)
}

// NewTerminalDisplayWithOptions returns a TerminalDisplay configured with the provided options, initializing the progress bar with theme-based colors and setting the wrap width if not specified.
func NewTerminalDisplayWithOptions(opts Options) *TerminalDisplay {
	if opts.WrapWidth < 0 {
		opts.WrapWidth = getTerminalWidth()
	}

	theme := opts.Theme
	progressColor1 := theme.GetColor("accent")
	progressColor2 := theme.GetColor("secondary")
	p := progress.New(
		progress.WithScaledGradient(progressColor1, progressColor2),
		progress.WithWidth(opts.WrapWidth),
	)

	var renderer *glamour.TermRenderer
	var rendererErr error
	if opts.EnableColors {
		glamourStyle := DetermineGlamourStyle(&opts)
		glamourOpts := []glamour.TermRendererOption{
			glamour.WithStandardStyle(glamourStyle),
		}
		if opts.WrapWidth > 0 {
			glamourOpts = append(glamourOpts, glamour.WithWordWrap(opts.WrapWidth))
		}
		r, err := glamour.NewTermRenderer(glamourOpts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to create markdown renderer: %v\n", err)
			rendererErr = err
		} else {
			renderer = r
		}
	}

	return &TerminalDisplay{
		options:     &opts,
		renderer:    renderer,
		rendererErr: rendererErr,
		progress:    &p,
	}
}

var (
	rendererCacheMu  sync.Mutex
	rendererCacheKey string
	rendererCache    *glamour.TermRenderer
)

// getGlamourRenderer returns a cached *glamour.TermRenderer for opts,
// rebuilding it only when opts describe a different renderer configuration
// than the one currently cached.
func getGlamourRenderer(opts *Options) (*glamour.TermRenderer, error) {
	rendererCacheMu.Lock()
	defer rendererCacheMu.Unlock()

	key := fmt.Sprintf("%s|%d|%t", opts.Theme.Name, opts.WrapWidth, opts.EnableColors)
	if rendererCache != nil && rendererCacheKey == key {
		return rendererCache, nil
	}

	glamourStyle := DetermineGlamourStyle(opts)
	glamourOpts := []glamour.TermRendererOption{
		glamour.WithStandardStyle(glamourStyle),
	}
	if opts.WrapWidth > 0 {
		glamourOpts = append(glamourOpts, glamour.WithWordWrap(opts.WrapWidth))
	}
	renderer, err := glamour.NewTermRenderer(glamourOpts...)
	if err != nil {
		return nil, err
	}

	rendererCache = renderer
	rendererCacheKey = key
	return renderer, nil
}

// getTerminalWidth returns the terminal width in columns, using the COLUMNS environment variable if set, or a default wrap width otherwise.
func getTerminalWidth() int {
	columns := os.Getenv("COLUMNS")
	if columns != "" {
		if width, err := strconv.Atoi(columns); err == nil {
			return width
		}
	}
	return DefaultWordWrapWidth
}

// ProgressEvent represents a progress update event: a TU was translated, or
// a hard-failure repair round finished.
type ProgressEvent struct {
	Percent float64
	Message string
}

// ShowProgress displays a progress bar with the given completion percentage and message.
func (td *TerminalDisplay) ShowProgress(percent float64, message string) {
	td.progressMu.Lock()
	defer td.progressMu.Unlock()

	if td.progress == nil {
		return
	}

	cmd := td.progress.SetPercent(percent)
	if cmd != nil {
		fmt.Printf("\r%s %s", td.progress.View(), message)
	}
}

// ClearProgress clears the progress indicator from the terminal.
func (td *TerminalDisplay) ClearProgress() {
	td.progressMu.Lock()
	defer td.progressMu.Unlock()
	fmt.Print("\r\033[K")
}

// Display renders and displays markdown content (typically a
// report.Summary.ToMarkdown() result) in the terminal with syntax highlighting.
func (td *TerminalDisplay) Display(ctx context.Context, markdownContent string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	markdownContent = wrapMarkdownContent(markdownContent, td.options.WrapWidth)

	if td.renderer == nil {
		if td.rendererErr != nil {
			fmt.Fprintf(os.Stderr, "Note: Displaying raw markdown due to renderer error: %v\n", td.rendererErr)
		}
		fmt.Print(wrapRenderedOutput(markdownContent, td.options.WrapWidth))
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	out, err := td.renderer.Render(markdownContent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to render markdown (error: %v), displaying raw output\n", err)
		fmt.Print(wrapRenderedOutput(markdownContent, td.options.WrapWidth))
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fmt.Print(wrapRenderedOutput(out, td.options.WrapWidth))
	return nil
}

// DisplayWithProgress renders and displays markdown content with progress events.
func (td *TerminalDisplay) DisplayWithProgress(
	ctx context.Context,
	markdownContent string,
	progressCh <-chan ProgressEvent,
) error {
	if err := td.checkContext(ctx); err != nil {
		return err
	}

	td.ShowProgress(0.0, "Starting display...")

	wg := td.setupProgressHandling(ctx, progressCh)

	if err := td.checkContext(ctx); err != nil {
		wg.Wait()
		return err
	}

	td.ShowProgress(progressRenderingFraction, "Rendering markdown...")

	err := td.renderContent(ctx, markdownContent, wg)
	wg.Wait()
	return err
}

// checkContext checks and handles context cancellation.
func (td *TerminalDisplay) checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// setupProgressHandling sets up a goroutine for handling progress events.
func (td *TerminalDisplay) setupProgressHandling(
	ctx context.Context,
	progressCh <-chan ProgressEvent,
) *sync.WaitGroup {
	var waitGroup sync.WaitGroup
	waitGroup.Add(1)

	go func() {
		defer waitGroup.Done()

		for {
			select {
			case event, ok := <-progressCh:
				if !ok {
					return
				}
				if err := td.checkContext(ctx); err != nil {
					return
				}
				td.ShowProgress(event.Percent, event.Message)
			case <-ctx.Done():
				return
			}
		}
	}()

	return &waitGroup
}

// renderContent handles rendering the markdown content and manages progress.
func (td *TerminalDisplay) renderContent(ctx context.Context, markdownContent string, wg *sync.WaitGroup) error {
	markdownContent = wrapMarkdownContent(markdownContent, td.options.WrapWidth)

	if td.renderer == nil {
		if td.rendererErr != nil {
			td.ShowProgress(1.0, "Displaying raw markdown (renderer error)...")
			fmt.Fprintf(os.Stderr, "Note: Displaying raw markdown due to renderer error: %v\n", td.rendererErr)
		} else {
			td.ShowProgress(1.0, "Displaying raw markdown (colors disabled)...")
		}
		td.ClearProgress()
		fmt.Print(wrapRenderedOutput(markdownContent, td.options.WrapWidth))
		wg.Wait()
		return nil
	}

	if err := td.checkContext(ctx); err != nil {
		wg.Wait()
		return err
	}

	out, err := td.renderer.Render(markdownContent)
	if err != nil {
		return td.handleRendererError(err, markdownContent, wg)
	}

	if err := td.checkContext(ctx); err != nil {
		wg.Wait()
		return err
	}

	td.ShowProgress(1.0, "Display complete!")
	td.ClearProgress()

	fmt.Print(wrapRenderedOutput(out, td.options.WrapWidth))
	return nil
}

// handleRendererError handles unexpected render failures by falling back to raw markdown output.
func (td *TerminalDisplay) handleRendererError(err error, markdownContent string, wg *sync.WaitGroup) error {
	td.ShowProgress(1.0, "Renderer failed, displaying raw markdown...")
	td.ClearProgress()

	fmt.Fprintf(os.Stderr, "Warning: Failed to render markdown (error: %v), displaying raw output\n", err)
	fmt.Print(wrapRenderedOutput(markdownContent, td.options.WrapWidth))
	wg.Wait()
	return nil
}
