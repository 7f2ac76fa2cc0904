package cart

import (
	"go.uber.org/zap"
)

type Product struct {
	ID    int     `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
}

type Line struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func (l Line) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

type Summary struct {
	TotalItems int     `json:"total_items"`
	TotalPrice float64 `json:"total_price"`
	AvgPrice   float64 `json:"avg_price"`
}

// Store is the single-writer cart. Lines keep the order in which their id was
// first added; a stored line always has Quantity >= 1.
type Store struct {
	lines    []Line
	revision uint64
	logger   *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger: logger.Named("cart"),
	}
}

func (s *Store) AddItem(p Product) {
	if i := s.index(p.ID); i >= 0 {
		s.lines[i].Quantity++
		s.touch("item incremented", zap.Int("id", p.ID), zap.Int("quantity", s.lines[i].Quantity))
		return
	}

	s.lines = append(s.lines, Line{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: 1,
	})
	s.touch("item added", zap.Int("id", p.ID), zap.String("name", p.Name))
}

func (s *Store) RemoveItem(id int) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.touch("item removed", zap.Int("id", id))
}

// UpdateQty sets the quantity of a line. Any quantity <= 0, negative values
// included, removes the line.
func (s *Store) UpdateQty(id int, quantity int) {
	i := s.index(id)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		s.touch("item removed by quantity", zap.Int("id", id), zap.Int("quantity", quantity))
		return
	}
	if s.lines[i].Quantity == quantity {
		return
	}
	s.lines[i].Quantity = quantity
	s.touch("quantity updated", zap.Int("id", id), zap.Int("quantity", quantity))
}

func (s *Store) ClearCart() {
	if len(s.lines) == 0 {
		s.lines = nil
		return
	}
	s.lines = nil
	s.touch("cart cleared")
}

func (s *Store) Lines() []Line {
	if len(s.lines) == 0 {
		return nil
	}
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) Line(id int) (Line, bool) {
	if i := s.index(id); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

// Revision changes whenever a transition changes the lines.
func (s *Store) Revision() uint64 {
	return s.revision
}

func (s *Store) Count() int {
	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// Summary is the cart page view: AvgPrice is per distinct line, not per unit.
func (s *Store) Summary() Summary {
	var sum Summary
	for _, line := range s.lines {
		sum.TotalItems += line.Quantity
		sum.TotalPrice += line.Subtotal()
	}
	if len(s.lines) > 0 {
		sum.AvgPrice = sum.TotalPrice / float64(len(s.lines))
	}
	return sum
}

func (s *Store) index(id int) int {
	for i, line := range s.lines {
		if line.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) touch(msg string, fields ...zap.Field) {
	s.revision++
	fields = append(fields, zap.Uint64("revision", s.revision), zap.Int("lines", len(s.lines)))
	s.logger.Debug(msg, fields...)
}
