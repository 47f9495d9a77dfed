// Package panel provides a terminal board of named indicator elements.
package panel

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/osa030/loopbox/internal/app/visual"
)

const glyph = "●"

// Element is a named indicator with a fill color.
type Element struct {
	mu   sync.RWMutex
	id   string
	fill string
}

// ID returns the element ID.
func (e *Element) ID() string {
	return e.id
}

// SetFill sets the fill color (hex, e.g. "#fa5004").
func (e *Element) SetFill(color string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fill = color
}

// Fill returns the current fill color.
func (e *Element) Fill() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fill
}

// Board holds the declared elements in declaration order.
type Board struct {
	mu       sync.RWMutex
	elements map[string]*Element
	order    []string
	fill     string
}

// NewBoard creates a board with the given elements, all filled with initial.
// Duplicate IDs are declared once.
func NewBoard(initial string, ids ...string) *Board {
	b := &Board{
		elements: make(map[string]*Element, len(ids)),
		fill:     initial,
	}
	for _, id := range ids {
		b.Add(id)
	}
	return b
}

// Add declares an element if it does not exist and returns it.
func (b *Board) Add(id string) *Element {
	b.mu.Lock()
	defer b.mu.Unlock()

	if el, ok := b.elements[id]; ok {
		return el
	}
	el := &Element{id: id, fill: b.fill}
	b.elements[id] = el
	b.order = append(b.order, id)
	return el
}

// Lookup implements visual.Lookup.
func (b *Board) Lookup(id string) (visual.Element, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	el, ok := b.elements[id]
	if !ok {
		return nil, false
	}
	return el, true
}

// Get returns the concrete element.
func (b *Board) Get(id string) (*Element, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	el, ok := b.elements[id]
	return el, ok
}

// Render draws every element as a colored glyph followed by its ID.
func (b *Board) Render() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cells := make([]string, 0, len(b.order))
	for _, id := range b.order {
		el := b.elements[id]
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(el.Fill())).Render(glyph)
		cells = append(cells, dot+" "+id)
	}
	return strings.Join(cells, "   ")
}
