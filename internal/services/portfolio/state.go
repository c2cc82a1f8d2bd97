package portfolio

import (
	"sync"

	"github.com/roshan4665/fundfolio/internal/models"
)

// state is the session-level portfolio: an owned, mutex-guarded holdings
// list. Mutators return copies; the internal slice is never shared.
type state struct {
	mu       sync.Mutex
	loaded   bool
	holdings []models.PortfolioHolding
}

func newState() *state {
	return &state{}
}

// loadOnce runs load exactly once to seed the holdings list. Concurrent
// callers block until the first load completes.
func (st *state) loadOnce(load func() []models.PortfolioHolding) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.loaded {
		return nil
	}
	st.holdings = load()
	st.loaded = true
	return nil
}

// snapshot returns a copy of the holdings list.
func (st *state) snapshot() []models.PortfolioHolding {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]models.PortfolioHolding, len(st.holdings))
	copy(out, st.holdings)
	return out
}

// add appends the holding unless its fund id is already present.
func (st *state) add(h models.PortfolioHolding) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.holdings {
		if st.holdings[i].Fund.ID == h.Fund.ID {
			return false
		}
	}
	st.holdings = append(st.holdings, h)
	return true
}

// update changes the weekly investment of the holding with the given fund id.
func (st *state) update(fundID string, weekly float64) (models.PortfolioHolding, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.holdings {
		if st.holdings[i].Fund.ID == fundID {
			st.holdings[i].WeeklyInvestment = weekly
			return st.holdings[i], true
		}
	}
	return models.PortfolioHolding{}, false
}

// remove deletes the holding with the given fund id.
func (st *state) remove(fundID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.holdings {
		if st.holdings[i].Fund.ID == fundID {
			st.holdings = append(st.holdings[:i], st.holdings[i+1:]...)
			return true
		}
	}
	return false
}
