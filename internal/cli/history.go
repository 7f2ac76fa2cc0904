package cli

import (
	"slices"
	"strings"

	"go.uber.org/zap"
)

const defaultHistorySize = 20

// History keeps the most recent shell lines, oldest first.
type History struct {
	lines   []string
	maxSize int
	logger  *zap.Logger
}

func NewHistory(maxSize int, logger *zap.Logger) *History {
	if maxSize <= 0 {
		maxSize = defaultHistorySize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{
		maxSize: maxSize,
		logger:  logger,
	}
}

// Append records a line; blank lines are ignored.
func (h *History) Append(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	h.lines = append(h.lines, line)
	h.enforceLimit()
}

func (h *History) Lines() []string {
	if len(h.lines) == 0 {
		return nil
	}
	return slices.Clone(h.lines)
}

func (h *History) Len() int {
	return len(h.lines)
}

func (h *History) Clear() {
	h.lines = nil
}

func (h *History) enforceLimit() {
	if len(h.lines) <= h.maxSize {
		return
	}
	h.lines = slices.Clone(h.lines[len(h.lines)-h.maxSize:])
	h.logger.Debug("history trimmed", zap.Int("lines", len(h.lines)))
}
