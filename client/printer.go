// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// PrinterOptions configures terminal output.
type PrinterOptions struct {
	// Color enables the styled speaker label. It is forced off when
	// the environment opts out of color (NO_COLOR) or the terminal
	// reports no color support.
	Color bool
}

// Printer writes display messages to the terminal, one line per
// message. Writes go straight to the underlying writer with no
// buffering layer, so each message is visible as soon as it arrives.
type Printer struct {
	out          io.Writer
	styled       bool
	speakerStyle lipgloss.Style
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, options PrinterOptions) *Printer {
	styled := options.Color
	if styled && (termenv.EnvNoColor() || termenv.ColorProfile() == termenv.Ascii) {
		styled = false
	}
	return &Printer{
		out:          out,
		styled:       styled,
		speakerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
	}
}

// Print writes one normalized message as "speaker: text".
func (p *Printer) Print(message DisplayMessage) error {
	speaker := message.Speaker
	if p.styled {
		speaker = p.speakerStyle.Render(speaker)
	}
	_, err := fmt.Fprintf(p.out, "%s: %s\n", speaker, message.Text)
	return err
}

// PrintRaw writes one raw payload followed by a newline, for the
// passthrough NDJSON output mode.
func (p *Printer) PrintRaw(payload []byte) error {
	_, err := fmt.Fprintf(p.out, "%s\n", payload)
	return err
}
