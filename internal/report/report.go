package report

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"storefront/internal/cart"
	"storefront/internal/catalog"
)

type Mode string

const (
	ModeValue    Mode = "value"
	ModeQuantity Mode = "quantity"
)

type SortKey string

const (
	SortBySubtotal SortKey = "subtotal"
	SortByQuantity SortKey = "quantity"
	SortByName     SortKey = "name"
)

const (
	DefaultHighValueThreshold = 40

	trendWidth  = 300
	trendBase   = 100
	trendHeight = 80
)

var (
	ErrUnknownMode    = errors.New("unknown analysis mode")
	ErrUnknownSortKey = errors.New("unknown sort key")
)

type Params struct {
	Mode               Mode    `json:"mode"`
	HighValueThreshold float64 `json:"high_value_threshold"`
	SortBy             SortKey `json:"sort_by"`
}

func DefaultParams() Params {
	return Params{
		Mode:               ModeValue,
		HighValueThreshold: DefaultHighValueThreshold,
		SortBy:             SortBySubtotal,
	}
}

func ParseMode(value string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(value))); m {
	case ModeValue, ModeQuantity:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

func ParseSortKey(value string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(value))); k {
	case SortBySubtotal, SortByQuantity, SortByName:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, value)
	}
}

type Item struct {
	cart.Line
	Subtotal float64 `json:"subtotal"`
}

type Bucket struct {
	Band    catalog.Band `json:"band"`
	Label   string       `json:"label"`
	Value   float64      `json:"value"`
	Percent float64      `json:"percent"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot is derived from a cart and a Params value. It is never a source of
// truth and callers must not modify its slices.
type Snapshot struct {
	Params         Params   `json:"params"`
	TotalItems     int      `json:"total_items"`
	TotalValue     float64  `json:"total_value"`
	AvgUnitValue   float64  `json:"avg_unit_value"`
	HighValueCount int      `json:"high_value_count"`
	LowStockCount  int      `json:"low_stock_count"`
	UniqueItems    int      `json:"unique_items"`
	Distribution   []Bucket `json:"distribution"`
	SortedItems    []Item   `json:"sorted_items"`
	TopItem        *Item    `json:"top_item,omitempty"`
	Trend          []Point  `json:"trend"`
	StockHealth    float64  `json:"stock_health"`
}

func Build(lines []cart.Line, p Params) Snapshot {
	items := make([]Item, len(lines))
	snap := Snapshot{
		Params:      p,
		UniqueItems: len(lines),
	}

	for i, line := range lines {
		items[i] = Item{Line: line, Subtotal: line.Subtotal()}
		snap.TotalItems += line.Quantity
		snap.TotalValue += items[i].Subtotal
		if line.Price >= p.HighValueThreshold {
			snap.HighValueCount++
		}
		if line.Quantity == 1 {
			snap.LowStockCount++
		}
	}

	if snap.TotalItems > 0 {
		snap.AvgUnitValue = snap.TotalValue / float64(snap.TotalItems)
	}

	snap.StockHealth = 100
	if snap.UniqueItems > 0 {
		ratio := float64(snap.LowStockCount) / float64(snap.UniqueItems)
		snap.StockHealth = math.Max(0, 100-ratio*100)
	}

	snap.Distribution = distribution(items, p.Mode)
	snap.SortedItems = sortItems(items, p.SortBy)
	snap.TopItem = topItem(items)
	snap.Trend = trend(items)
	return snap
}

func distribution(items []Item, mode Mode) []Bucket {
	buckets := make([]Bucket, len(catalog.Bands))
	index := make(map[catalog.Band]int, len(catalog.Bands))
	for i, b := range catalog.Bands {
		buckets[i] = Bucket{Band: b, Label: b.Label()}
		index[b] = i
	}

	total := 0.0
	for _, item := range items {
		v := item.Subtotal
		if mode == ModeQuantity {
			v = float64(item.Quantity)
		}
		buckets[index[catalog.BandOf(item.Price)]].Value += v
		total += v
	}

	if total > 0 {
		for i := range buckets {
			buckets[i].Percent = buckets[i].Value / total * 100
		}
	}
	return buckets
}

// sortItems returns a stably sorted copy; subtotal and quantity sort
// descending, name sorts ascending ignoring case.
func sortItems(items []Item, key SortKey) []Item {
	sorted := slices.Clone(items)
	switch key {
	case SortByName:
		slices.SortStableFunc(sorted, func(a, b Item) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortByQuantity:
		slices.SortStableFunc(sorted, func(a, b Item) int {
			return cmp.Compare(b.Quantity, a.Quantity)
		})
	default:
		slices.SortStableFunc(sorted, func(a, b Item) int {
			return cmp.Compare(b.Subtotal, a.Subtotal)
		})
	}
	return sorted
}

func topItem(items []Item) *Item {
	if len(items) == 0 {
		return nil
	}
	top := items[0]
	for _, item := range items[1:] {
		if item.Subtotal > top.Subtotal {
			top = item
		}
	}
	return &top
}

// trend keeps cart order. Y grows downward, so larger subtotals sit higher.
func trend(items []Item) []Point {
	maxSubtotal := 1.0
	for _, item := range items {
		maxSubtotal = math.Max(maxSubtotal, item.Subtotal)
	}

	points := make([]Point, len(items))
	for i, item := range items {
		x := float64(trendWidth) / 2
		if len(items) > 1 {
			x = float64(i) / float64(len(items)-1) * trendWidth
		}
		points[i] = Point{
			X: x,
			Y: trendBase - item.Subtotal/maxSubtotal*trendHeight,
		}
	}
	return points
}

// TrendLine renders the trend as polyline points: "x,y x,y ...".
func (s Snapshot) TrendLine() string {
	parts := make([]string, len(s.Trend))
	for i, pt := range s.Trend {
		parts[i] = strconv.FormatFloat(pt.X, 'f', -1, 64) + "," + strconv.FormatFloat(pt.Y, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}

func (b Bucket) String() string {
	return fmt.Sprintf("%s %.1f%%", b.Label, b.Percent)
}
