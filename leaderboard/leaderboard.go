package leaderboard

import (
	"sync"

	"github.com/dewolfe001/dynamic-points/core"
)

// Entry represents a ranked rule.
type Entry struct {
	RuleID string
	Score  int64
}

// Board abstracts leaderboard operations.
type Board interface {
	Update(ruleID string, score int64)
	Remove(ruleID string)
	TopN(n int) []Entry
	Get(ruleID string) (Entry, bool)
}

// Tracker accumulates awarded points per rule from the event stream and
// keeps a board ranked by cumulative total.
type Tracker struct {
	mu     sync.Mutex
	board  Board
	totals map[string]int64
}

func NewTracker(board Board) *Tracker {
	return &Tracker{board: board, totals: map[string]int64{}}
}

func (t *Tracker) OnEvent(e core.Event) {
	if e.Type != core.EventAwardComputed {
		return
	}
	t.mu.Lock()
	t.totals[e.RuleID] += e.Award
	total := t.totals[e.RuleID]
	t.mu.Unlock()
	t.board.Update(e.RuleID, total)
}

// Top returns the n rules with the highest cumulative awards.
func (t *Tracker) Top(n int) []Entry { return t.board.TopN(n) }
