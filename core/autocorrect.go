package core

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/cop"
)

// MaxCorrectionPasses bounds the inspect and correct loop of one file.
const MaxCorrectionPasses = 200

// ErrInfiniteCorrection is returned when corrections never settle, either by
// reaching MaxCorrectionPasses or by producing a source seen before.
var ErrInfiniteCorrection = errors.New("infinite autocorrection loop")

// Parser turns a source buffer into a tree.
type Parser interface {
	Parse(ctx context.Context, path string, src []byte) (*ast.File, error)
}

// Inspection is the outcome of Inspect or Autocorrect on one source.
type Inspection struct {
	// Source is the final text, equal to the input without corrections.
	Source string
	// Offenses holds the offenses corrected along the way followed by those
	// left in Source.
	Offenses []cop.Offense
	// Corrected counts the corrected offenses.
	Corrected int
	// Passes counts the inspections run.
	Passes int
}

// Inspect reports the offenses of src without correcting anything.
func Inspect(ctx context.Context, parser Parser, path string, src []byte, cops []cop.Cop) (*Inspection, error) {
	file, err := parser.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}
	inv := cop.NewCommissioner(cops...).Investigate(file)
	return &Inspection{Source: string(src), Offenses: inv.Offenses(), Passes: 1}, nil
}

// Autocorrect inspects and corrects src until no cop produces an edit.
// Cops deferred by a conflict in one pass get their turn in the next.
func Autocorrect(ctx context.Context, parser Parser, path string, src []byte, cops []cop.Cop) (*Inspection, error) {
	commissioner := cop.NewCommissioner(cops...)
	text := string(src)
	seen := map[[sha256.Size]byte]struct{}{sha256.Sum256(src): {}}
	out := &Inspection{}

	for pass := 1; ; pass++ {
		if pass > MaxCorrectionPasses {
			return nil, fmt.Errorf("%s: %w after %d passes", path, ErrInfiniteCorrection, MaxCorrectionPasses)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, err := parser.Parse(ctx, path, []byte(text))
		if err != nil {
			if pass > 1 {
				return nil, fmt.Errorf("corrected source no longer parses: %w", err)
			}
			return nil, err
		}
		res, err := commissioner.Investigate(file).Correct()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out.Passes = pass

		if !res.Changed() {
			out.Source = text
			out.Offenses = append(out.Offenses, res.Offenses...)
			return out, nil
		}

		for _, off := range res.Offenses {
			if off.Corrected {
				out.Offenses = append(out.Offenses, off)
				out.Corrected++
			}
		}

		sum := sha256.Sum256([]byte(res.Source))
		if _, loop := seen[sum]; loop {
			return nil, fmt.Errorf("%s: %w (source repeated on pass %d)", path, ErrInfiniteCorrection, pass)
		}
		seen[sum] = struct{}{}
		text = res.Source
	}
}
