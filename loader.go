package payments

import (
	"context"
	"fmt"
	"os"
)

// Input describes an event file to process.
type Input struct {
	Path     string
	Format   Format // Format is guessed from Path when empty.
	JSONPath string // JSONPath selects events in a FormatJSON document.
}

// ProcessFile opens in and runs all its events through p.
//
// Rejected events do not make it fail, only I/O and header problems do.
func ProcessFile(ctx context.Context, p *Processor, in Input) error {
	format := in.Format
	if format == "" {
		format = FormatOf(in.Path)
	}

	f, err := os.Open(in.Path)
	if err != nil {
		return fmt.Errorf("could not open events file %q: %w", in.Path, err)
	}
	defer f.Close()

	events, err := Decode(f, format, in.JSONPath)
	if err != nil {
		return err
	}
	if err := p.Run(ctx, events); err != nil {
		return fmt.Errorf("could not process %q: %w", in.Path, err)
	}
	return nil
}
