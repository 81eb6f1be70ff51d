package reveal

import (
	"log/slog"

	"github.com/gammazero/deque"

	"github.com/sweeparena/sweeparena/internal/model"
	"github.com/sweeparena/sweeparena/internal/services/board"
)

// Engine applies reveal and flag actions to a session's board. It is
// purely computational: it mutates the session it is given and reports
// what changed, but never touches storage, clocks, or the network. The
// caller holds the room lock for the duration of a call.
type Engine struct {
	generator *board.Generator
	logger    *slog.Logger
}

// New creates a new Engine
func New(generator *board.Generator, logger *slog.Logger) *Engine {
	return &Engine{
		generator: generator,
		logger:    logger.With(slog.String("component", "reveal-engine")),
	}
}

// Result describes the outcome of a single reveal or flag action.
type Result struct {
	// Cells lists every cell changed by this action, flood-filled
	// cells included.
	Cells []model.CellUpdate

	// ScoreDelta is the number of safe cells revealed by this action.
	ScoreDelta int

	// HitMine is true when the action revealed a mine, whether or not
	// a shield absorbed it.
	HitMine bool

	// ShieldUsed is true when a power-up shield absorbed the mine hit.
	ShieldUsed bool

	// GameEnded is true when the action reached a terminal state. The
	// session's Outcome, WinnerID and LoserID carry the details.
	GameEnded bool
}

// Reveal processes a reveal at pos by actor. The first reveal of a
// session places the mines, excluding a safe zone around pos.
//
// Returns ErrCellRevealed or ErrCellFlagged when the target cell cannot
// be revealed; callers treat both as benign no-ops.
func (e *Engine) Reveal(session *model.GameSession, actor model.PlayerID, pos model.Position) (*Result, error) {
	if session.Ended() {
		return nil, model.ErrSessionEnded
	}
	b := session.Board
	if !b.InBounds(pos) {
		return nil, model.ErrOutOfBounds
	}

	if !session.MinesPlaced {
		if err := e.PlaceMines(session, pos); err != nil {
			return nil, err
		}
		// Placement swapped in the generated board.
		b = session.Board
	}
	session.FirstClickDone = true

	cell := b.At(pos)
	if cell.IsRevealed {
		return nil, model.ErrCellRevealed
	}
	if cell.IsFlagged {
		return nil, model.ErrCellFlagged
	}

	res := &Result{}

	if cell.IsMine {
		cell.IsRevealed = true
		res.HitMine = true

		if session.Shields[actor] > 0 {
			session.Shields[actor]--
			res.ShieldUsed = true
			res.Cells = append(res.Cells, cellUpdate(session, pos, cell))
			e.logger.Info("shield absorbed mine hit",
				slog.String("room", string(session.RoomCode)),
				slog.String("player", string(actor)),
			)
			return res, nil
		}

		if session.Mode.TurnOrdered() {
			// Turn-ordered modes eliminate the player instead of
			// ending the game. Only the hit mine is exposed; the
			// caller handles elimination and turn advance.
			res.Cells = append(res.Cells, cellUpdate(session, pos, cell))
			return res, nil
		}

		e.endInLoss(session, actor, res)
		return res, nil
	}

	e.revealFrom(session, pos, res)

	if b.AllSafeRevealed() {
		session.Outcome = model.OutcomeWin
		session.WinnerID = &actor
		res.GameEnded = true
	}
	return res, nil
}

// ToggleFlag flips the flag on an unrevealed cell. Flagged cells block
// reveals until unflagged.
func (e *Engine) ToggleFlag(session *model.GameSession, actor model.PlayerID, pos model.Position) (*Result, error) {
	if session.Ended() {
		return nil, model.ErrSessionEnded
	}
	b := session.Board
	if !b.InBounds(pos) {
		return nil, model.ErrOutOfBounds
	}
	cell := b.At(pos)
	if cell.IsRevealed {
		return nil, model.ErrCellRevealed
	}

	cell.IsFlagged = !cell.IsFlagged
	return &Result{
		Cells: []model.CellUpdate{{
			Row:     pos.Row,
			Col:     pos.Col,
			Flagged: cell.IsFlagged,
		}},
	}, nil
}

// PlaceMines performs the one-time mine placement for a session, using
// pos as the exclusion center. A second call returns
// ErrMinesAlreadyPlaced, which callers treat as benign: it only means
// another player's first click won the race.
func (e *Engine) PlaceMines(session *model.GameSession, pos model.Position) error {
	if session.MinesPlaced {
		return model.ErrMinesAlreadyPlaced
	}
	old := session.Board
	opts := board.Options{
		DisableExclusion: session.Mode == model.ModeSurvival && session.Level > model.SurvivalEscalationLevel,
	}
	generated := e.generator.GenerateWithOptions(old.Rows, old.Cols, old.MineCount, pos, session.BoardSeed, opts)

	// Flags placed before the first reveal carry over to the generated
	// board.
	for r := 0; r < old.Rows; r++ {
		for c := 0; c < old.Cols; c++ {
			if old.Cells[r][c].IsFlagged {
				generated.Cells[r][c].IsFlagged = true
			}
		}
	}

	session.Board = generated
	session.MinesPlaced = true
	return nil
}

// revealFrom reveals the cell at start and, when it has no adjacent
// mines, flood-fills the connected zero region plus its numbered
// border. The fill is iterative with an explicit work queue; a visited
// set keeps each cell enqueued at most once, bounding the loop at
// rows*cols iterations.
//
// Modes that hide adjacency numbers reveal exactly one cell per click:
// without visible numbers a flood fill would give away the zero region.
func (e *Engine) revealFrom(session *model.GameSession, start model.Position, res *Result) {
	b := session.Board

	reveal := func(pos model.Position) {
		cell := b.At(pos)
		cell.IsRevealed = true
		res.ScoreDelta++
		res.Cells = append(res.Cells, cellUpdate(session, pos, cell))
	}

	reveal(start)

	if session.Mode.HidesNumbers() || b.At(start).AdjacentMines > 0 {
		return
	}

	var queue deque.Deque[model.Position]
	queue.PushBack(start)
	visited := map[model.Position]struct{}{start: {}}

	for queue.Len() > 0 {
		pos := queue.PopFront()
		for _, n := range b.Neighbors(pos) {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}

			cell := b.At(n)
			if cell.IsRevealed || cell.IsFlagged || cell.IsMine {
				continue
			}
			reveal(n)
			if cell.AdjacentMines == 0 {
				queue.PushBack(n)
			}
		}
	}
}

// endInLoss finalizes a mine-hit loss: the full mine layout is exposed
// so every client can render the postmortem board.
func (e *Engine) endInLoss(session *model.GameSession, actor model.PlayerID, res *Result) {
	session.Outcome = model.OutcomeLoss
	session.LoserID = &actor
	res.GameEnded = true

	b := session.Board
	for _, pos := range b.MinePositions() {
		cell := b.At(pos)
		cell.IsRevealed = true
		res.Cells = append(res.Cells, cellUpdate(session, pos, cell))
	}
}

// cellUpdate builds the broadcast view of a single cell. Adjacency
// numbers are withheld in modes that hide them.
func cellUpdate(session *model.GameSession, pos model.Position, cell *model.Cell) model.CellUpdate {
	u := model.CellUpdate{
		Row:      pos.Row,
		Col:      pos.Col,
		IsMine:   cell.IsMine,
		Flagged:  cell.IsFlagged,
		Revealed: cell.IsRevealed,
	}
	switch {
	case cell.IsMine:
		u.Value = -1
	case session.Mode.HidesNumbers():
		u.Value = 0
	default:
		u.Value = cell.AdjacentMines
	}
	return u
}
