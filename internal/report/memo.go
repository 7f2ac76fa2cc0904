package report

import (
	"fmt"

	"storefront/internal/cart"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

const defaultMemoSize = 16

// Source is the read side of a cart store.
type Source interface {
	Lines() []cart.Line
	Revision() uint64
}

type memoKey struct {
	revision uint64
	params   Params
}

// Memo caches snapshots by cart revision and params. A Memo must only be used
// with one Source, since revisions are not unique across stores.
type Memo struct {
	cache  *lru.Cache
	logger *zap.Logger
}

func NewMemo(size int, logger *zap.Logger) (*Memo, error) {
	if size <= 0 {
		size = defaultMemoSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create report cache: %w", err)
	}
	return &Memo{
		cache:  cache,
		logger: logger.Named("report"),
	}, nil
}

func (m *Memo) Snapshot(src Source, p Params) Snapshot {
	key := memoKey{revision: src.Revision(), params: p}
	if cached, ok := m.cache.Get(key); ok {
		m.logger.Debug("report cache hit", zap.Uint64("revision", key.revision))
		return cached.(Snapshot)
	}

	snap := Build(src.Lines(), p)
	m.cache.Add(key, snap)
	m.logger.Debug("report built",
		zap.Uint64("revision", key.revision),
		zap.String("mode", string(p.Mode)),
		zap.Float64("threshold", p.HighValueThreshold),
		zap.String("sort_by", string(p.SortBy)),
		zap.Int("lines", snap.UniqueItems),
	)
	return snap
}

func (m *Memo) Len() int {
	return m.cache.Len()
}

func (m *Memo) Purge() {
	m.cache.Purge()
}
