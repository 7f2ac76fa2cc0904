package catalog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"storefront/internal/cart"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Band is one of the three fixed price ranges shared by the product filter and
// the report distribution.
type Band string

const (
	BandBudget   Band = "budget"
	BandStandard Band = "standard"
	BandPremium  Band = "premium"
)

const (
	standardFloor = 35
	premiumFloor  = 50
)

var Bands = []Band{BandBudget, BandStandard, BandPremium}

var (
	ErrUnknownBand      = errors.New("unknown price band")
	ErrDuplicateProduct = errors.New("duplicate product id")
	ErrInvalidPrice     = errors.New("product price must be a finite non-negative number")
	ErrEmptyCatalog     = errors.New("catalog has no products")
)

func BandOf(price float64) Band {
	switch {
	case price < standardFloor:
		return BandBudget
	case price < premiumFloor:
		return BandStandard
	default:
		return BandPremium
	}
}

func (b Band) Label() string {
	switch b {
	case BandBudget:
		return "Budget"
	case BandStandard:
		return "Standard"
	case BandPremium:
		return "Premium"
	default:
		return string(b)
	}
}

// ParseBand accepts a band name; "" and "all" mean no band and return ok=false.
func ParseBand(value string) (Band, bool, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == "all" {
		return "", false, nil
	}
	for _, b := range Bands {
		if string(b) == v {
			return b, true, nil
		}
	}
	return "", false, fmt.Errorf("%w: %q", ErrUnknownBand, value)
}

type Catalog struct {
	products []cart.Product
	byID     map[int]int
}

func Default() *Catalog {
	c, _ := New([]cart.Product{
		{ID: 1, Name: "React Book", Price: 29.99},
		{ID: 2, Name: "JavaScript Course", Price: 49.99},
		{ID: 3, Name: "Material UI Kit", Price: 39.99},
		{ID: 4, Name: "Web Dev Guide", Price: 34.99},
		{ID: 5, Name: "Advanced CSS Course", Price: 59.99},
	})
	return c
}

func New(products []cart.Product) (*Catalog, error) {
	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		products: make([]cart.Product, 0, len(products)),
		byID:     make(map[int]int, len(products)),
	}
	for _, p := range products {
		if _, ok := c.byID[p.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateProduct, p.ID)
		}
		if !validPrice(p.Price) {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidPrice, p.ID)
		}
		p.Name = strings.TrimSpace(p.Name)
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

func validPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

type file struct {
	Products []cart.Product `yaml:"products"`
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c, err := New(f.Products)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

// Open returns the catalog at path, or the built-in one when path is empty.
func Open(path string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path = strings.TrimSpace(path)
	if path == "" {
		logger.Debug("using built-in catalog")
		return Default(), nil
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", zap.String("path", path), zap.Int("products", c.Len()))
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.products)
}

func (c *Catalog) Products() []cart.Product {
	out := make([]cart.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Get(id int) (cart.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return cart.Product{}, false
	}
	return c.products[i], true
}

// Filter matches the trimmed query as a case-insensitive substring of the
// product name and, when band names one, keeps only that price band.
func (c *Catalog) Filter(query, band string) ([]cart.Product, error) {
	b, hasBand, err := ParseBand(band)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	matches := make([]cart.Product, 0, len(c.products))
	for _, p := range c.products {
		if !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if hasBand && BandOf(p.Price) != b {
			continue
		}
		matches = append(matches, p)
	}
	return matches, nil
}
