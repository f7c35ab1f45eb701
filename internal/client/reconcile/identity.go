package reconcile

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/duet/internal/common"
)

// IDGenerator hands out placeholder ids. Ids carry the placeholder prefix,
// which never occurs in a UUID, followed by a millisecond timestamp and a
// per-generator sequence number, so no two calls return the same id even
// within one clock tick.
type IDGenerator struct {
	seq atomic.Uint64
	now func() time.Time
}

// NewIDGenerator returns a generator using the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns a fresh placeholder id.
func (g *IDGenerator) Next() string {
	n := g.seq.Add(1)
	return common.PlaceholderPrefix +
		strconv.FormatInt(g.now().UnixMilli(), 10) + "-" +
		strconv.FormatUint(n, 10)
}

// defaultIDs is shared by stores built without their own generator so
// placeholders stay distinct across screens.
var defaultIDs = NewIDGenerator()
