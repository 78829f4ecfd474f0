package destination

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	txIDPrefix   = "lead_"
	txSuffixLen  = 9
	base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// TxIDs generates conversion transaction ids of the form
// lead_<epoch-ms>_<9 base36 chars>. It is safe for concurrent use.
type TxIDs struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewTxIDs creates a generator. Nil arguments select the wall clock and a
// randomly seeded source.
func NewTxIDs(now func() time.Time, src rand.Source) *TxIDs {
	if now == nil {
		now = time.Now
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &TxIDs{rng: rand.New(src), now: now}
}

// Next returns a new transaction id.
func (g *TxIDs) Next() string {
	millis := g.now().UnixMilli()

	g.mu.Lock()
	var suffix [txSuffixLen]byte
	for i := range suffix {
		suffix[i] = base36Digits[g.rng.IntN(len(base36Digits))]
	}
	g.mu.Unlock()

	var b strings.Builder
	b.Grow(len(txIDPrefix) + 14 + txSuffixLen)
	b.WriteString(txIDPrefix)
	b.WriteString(strconv.FormatInt(millis, 10))
	b.WriteByte('_')
	b.Write(suffix[:])
	return b.String()
}
