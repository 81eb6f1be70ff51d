package board

import (
	"log/slog"
	"math/rand"

	"github.com/sweeparena/sweeparena/internal/model"
)

// ExclusionRadius is the half-width of the mine-free neighborhood
// around the first click. Radius 2 gives a 5x5 zone, guaranteeing the
// first reveal flood-fills instead of exposing a numbered cell.
const ExclusionRadius = 2

// Options tune a single generation call
type Options struct {
	// DisableExclusion drops the safe zone entirely. Used by survival
	// mode past the escalation level, trading safety for difficulty.
	DisableExclusion bool
}

// Generator produces deterministic boards from a seed. The generator
// carries no state between calls; every call builds its own PRNG from
// the explicit seed so that the same (rows, cols, mineCount, exclude,
// seed) tuple always yields an identical board.
type Generator struct {
	logger *slog.Logger
}

// New creates a new Generator
func New(logger *slog.Logger) *Generator {
	return &Generator{
		logger: logger.With(slog.String("component", "board-generator")),
	}
}

// Generate builds a board with mines placed and adjacency counts
// computed, honoring the exclusion zone around the first click.
func (g *Generator) Generate(rows, cols, mineCount int, exclude model.Position, seed int64) *model.Board {
	return g.GenerateWithOptions(rows, cols, mineCount, exclude, seed, Options{})
}

// GenerateWithOptions is Generate with explicit options.
func (g *Generator) GenerateWithOptions(rows, cols, mineCount int, exclude model.Position, seed int64, opts Options) *model.Board {
	rng := rand.New(rand.NewSource(seed))

	excluded := exclusionZone(rows, cols, exclude, opts)

	// Candidate mine locations, in row-major order for determinism.
	candidates := make([]int, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if _, ok := excluded[r*cols+c]; !ok {
				candidates = append(candidates, r*cols+c)
			}
		}
	}

	// Clamp so at least one safe cell always remains.
	if mineCount >= len(candidates) {
		clamped := max(1, len(candidates)-1)
		g.logger.Warn("mine count exceeds available cells, clamping",
			slog.Int("requested", mineCount),
			slog.Int("clamped", clamped),
			slog.Int("rows", rows),
			slog.Int("cols", cols),
		)
		mineCount = clamped
	}

	b := model.NewEmptyBoard(rows, cols, mineCount)

	// Pick mineCount cells off the candidate list at random, swapping
	// chosen entries to the shrinking tail.
	k := len(candidates)
	for i := 0; i < mineCount; i++ {
		j := rng.Intn(k)
		idx := candidates[j]
		b.Cells[idx/cols][idx%cols].IsMine = true
		k--
		candidates[j] = candidates[k]
	}

	computeAdjacency(b)
	return b
}

// exclusionZone returns the set of flattened indices inside the safe
// neighborhood of the first click.
func exclusionZone(rows, cols int, exclude model.Position, opts Options) map[int]struct{} {
	zone := make(map[int]struct{})
	if opts.DisableExclusion {
		return zone
	}
	for dr := -ExclusionRadius; dr <= ExclusionRadius; dr++ {
		for dc := -ExclusionRadius; dc <= ExclusionRadius; dc++ {
			r, c := exclude.Row+dr, exclude.Col+dc
			if r >= 0 && r < rows && c >= 0 && c < cols {
				zone[r*cols+c] = struct{}{}
			}
		}
	}
	return zone
}

func computeAdjacency(b *model.Board) {
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.Cells[r][c].IsMine {
				continue
			}
			count := 0
			for _, n := range b.Neighbors(model.Position{Row: r, Col: c}) {
				if b.Cells[n.Row][n.Col].IsMine {
					count++
				}
			}
			b.Cells[r][c].AdjacentMines = count
		}
	}
}
