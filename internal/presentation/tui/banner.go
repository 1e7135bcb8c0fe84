package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the aime banner, colored for the terminal profile of w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"     _    ___ __  __ _____ ", "#34d399"},
		{"    / \\  |_ _|  \\/  | ____|", "#2dd4bf"},
		{"   / _ \\  | || |\\/| |  _|  ", "#22d3ee"},
		{"  / ___ \\ | || |  | | |___ ", "#38bdf8"},
		{" /_/   \\_\\___|_|  |_|_____|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
