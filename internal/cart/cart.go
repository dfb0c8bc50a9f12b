// Package cart holds the shopping cart. One Engine is shared by every
// consumer; state changes only through its methods.
package cart

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// Snapshot is an independent copy of the cart at one point in time.
type Snapshot struct {
	Lines     []models.CartLine `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"itemCount"`
}

type Engine struct {
	mu    sync.Mutex
	lines []models.CartLine

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(Snapshot)
}

func NewEngine() *Engine {
	return &Engine{subs: make(map[int]func(Snapshot))}
}

// Total sums price × quantity over lines using decimal arithmetic so the
// result does not accumulate float rounding error.
func Total(lines []models.CartLine) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.InexactFloat64()
}

func ItemCount(lines []models.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func (e *Engine) indexOf(productID string) int {
	return slices.IndexFunc(e.lines, func(l models.CartLine) bool {
		return l.ID == productID
	})
}

// AddToCart increments the line for product, or appends a new line with
// quantity 1 holding a copy of product.
func (e *Engine) AddToCart(product models.Product) {
	e.mu.Lock()
	if i := e.indexOf(product.ID); i >= 0 {
		e.lines[i].Quantity++
	} else {
		e.lines = append(e.lines, models.CartLine{Product: product, Quantity: 1})
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// UpdateQuantity sets the quantity of a line. Quantities of zero or less
// remove the line. Unknown ids are ignored.
func (e *Engine) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		e.RemoveFromCart(productID)
		return
	}

	e.mu.Lock()
	i := e.indexOf(productID)
	if i < 0 || e.lines[i].Quantity == quantity {
		e.mu.Unlock()
		return
	}
	e.lines[i].Quantity = quantity
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

func (e *Engine) RemoveFromCart(productID string) {
	e.mu.Lock()
	i := e.indexOf(productID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	e.lines = slices.Delete(e.lines, i, i+1)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

func (e *Engine) ClearCart() {
	e.mu.Lock()
	if len(e.lines) == 0 {
		e.mu.Unlock()
		return
	}
	e.lines = nil
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// Drain hands a copy of the current lines to fn while holding the cart
// lock, then empties the cart if fn returns nil. Other mutations wait
// until fn returns, so every line ends up either in fn's copy or still in
// the cart. fn must not call back into the Engine.
func (e *Engine) Drain(fn func([]models.CartLine) error) error {
	snap, changed, err := e.drain(fn)
	if err != nil {
		return err
	}
	if changed {
		e.notify(snap)
	}
	return nil
}

func (e *Engine) drain(fn func([]models.CartLine) error) (Snapshot, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(cloneLines(e.lines)); err != nil {
		return Snapshot{}, false, err
	}

	changed := len(e.lines) > 0
	e.lines = nil
	return e.snapshotLocked(), changed, nil
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) Lines() []models.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneLines(e.lines)
}

func (e *Engine) Total() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Total(e.lines)
}

func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ItemCount(e.lines)
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lines)
}

func cloneLines(lines []models.CartLine) []models.CartLine {
	return append([]models.CartLine{}, lines...)
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Lines:     cloneLines(e.lines),
		Total:     Total(e.lines),
		ItemCount: ItemCount(e.lines),
	}
}

// Subscribe registers fn to run after every mutation that changes the
// cart. fn runs on the mutating goroutine, outside the cart lock, so it
// may call back into the Engine. The returned func unsubscribes.
func (e *Engine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) notify(snap Snapshot) {
	e.subMu.Lock()
	ids := make([]int, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.subs[id])
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(Snapshot{
			Lines:     cloneLines(snap.Lines),
			Total:     snap.Total,
			ItemCount: snap.ItemCount,
		})
	}
}
