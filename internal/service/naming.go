package service

import (
	"fmt"
	"sync/atomic"
	"time"

	"mediaapi/internal/validator"
)

// nameClock hands out strictly increasing millisecond stamps. Two calls within
// the same millisecond get different values, so generated names never collide.
type nameClock struct {
	now  func() time.Time
	last atomic.Int64
}

func (c *nameClock) next() int64 {
	for {
		ms := c.now().UnixMilli()
		last := c.last.Load()
		if ms <= last {
			ms = last + 1
		}
		if c.last.CompareAndSwap(last, ms) {
			return ms
		}
	}
}

// uniqueName returns <sanitized hint>-<millis>.<ext>, at most
// validator.MaxFileNameLength bytes long. The hint is shortened to fit.
func (c *nameClock) uniqueName(hint, ext string) string {
	suffix := fmt.Sprintf("-%d.%s", c.next(), ext)
	return validator.SanitizeFileName(hint, validator.MaxFileNameLength-len(suffix)) + suffix
}
