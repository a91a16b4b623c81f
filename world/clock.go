// Copyright © 2025 The typls authors

package world

import (
	"sync"
	"time"

	"github.com/typls/typls/typst"
)

// maxUTCOffset bounds the hour offsets datetime.today accepts.
const maxUTCOffset = 23

// clock captures the wall time once per compilation, so every Today call
// within one compile observes the same instant.
type clock struct {
	once sync.Once
	now  time.Time
}

func (c *clock) today(offset *int) *typst.Datetime {
	c.once.Do(func() { c.now = time.Now() })
	t := c.now
	if offset != nil {
		if *offset < -maxUTCOffset || *offset > maxUTCOffset {
			return nil
		}
		t = t.UTC().Add(time.Duration(*offset) * time.Hour)
	}
	return typst.DatetimeOf(t)
}
