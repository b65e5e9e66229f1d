// Package main provides UI utilities for the title-parser CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// UI provides user-friendly terminal output, adapted from the teacher's
// UI type: an mpb progress container for the worker pool, plus color
// and plain-message helpers that no-op in JSON mode.
type UI struct {
	progress *mpb.Progress
	noColor  bool
	jsonMode bool
}

// NewUI creates a new UI instance.
func NewUI(jsonMode, noColor bool) *UI {
	var progress *mpb.Progress
	if !jsonMode {
		progress = mpb.New(mpb.WithWidth(64))
	}
	return &UI{progress: progress, noColor: noColor, jsonMode: jsonMode}
}

// Close waits for in-flight bars to finish rendering.
func (ui *UI) Close() {
	if ui.progress == nil {
		return
	}
	if IsTerminal() {
		ui.progress.Wait()
	} else {
		ui.progress.Shutdown()
	}
}

func (ui *UI) Success(format string, args ...interface{}) { ui.colored(color.FgGreen, "✓", format, args...) }
func (ui *UI) Error(format string, args ...interface{})   { ui.colored(color.FgRed, "✗", format, args...) }
func (ui *UI) Warning(format string, args ...interface{}) { ui.colored(color.FgYellow, "⚠", format, args...) }
func (ui *UI) Info(format string, args ...interface{})    { ui.colored(color.FgCyan, "ℹ", format, args...) }

func (ui *UI) colored(c color.Attribute, glyph, format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if ui.noColor {
		fmt.Printf("%s %s\n", glyph, msg)
	} else {
		color.New(c).Printf("%s %s\n", glyph, msg)
	}
}

// WorkerBar creates an mpb progress bar tracking how many of total
// titles the worker pool has finished — mpb's strength is exactly this
// kind of concurrently-updated bar, unlike the single-threaded
// progressbar/spinner below.
func (ui *UI) WorkerBar(total int64) *mpb.Bar {
	if ui.progress == nil {
		return nil
	}
	return ui.progress.AddBar(total,
		mpb.PrependDecorators(
			decor.Name("parsing", decor.WC{W: 8, C: decor.DSyncSpaceR}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 12}), " done"),
		),
	)
}

// ReadProgressBar tracks the single-pass, known-length scan of the
// input title file before any title reaches a worker.
func (ui *UI) ReadProgressBar(total int64) *progressbar.ProgressBar {
	if ui.jsonMode {
		return progressbar.DefaultSilent(total)
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription("reading titles"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
	)
}

// LoadingSpinner shows indeterminate progress while the pattern library
// loads, since its size (and therefore a meaningful total) isn't known
// until the fetch completes.
func (ui *UI) LoadingSpinner(message string) *spinner.Spinner {
	if ui.jsonMode || !IsTerminal() {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return s
}

// Table prints a simple formatted table; a no-op in JSON mode.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode {
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	printRow := func(cells []string, bold bool) {
		for i, cell := range cells {
			pad := widths[i] - len(cell)
			if pad < 0 {
				pad = 0
			}
			field := cell + repeat(" ", pad) + "  "
			if bold && !ui.noColor {
				color.New(color.Bold).Print(field)
			} else {
				fmt.Print(field)
			}
		}
		fmt.Println()
	}
	printRow(headers, true)
	for _, row := range rows {
		printRow(row, false)
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
