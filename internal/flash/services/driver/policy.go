package driver

import (
	"fmt"

	arc "github.com/hashicorp/golang-lru/arc/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/flashsim/internal/flash/domain"
)

// recencyList tracks which keys are warm enough to be worth copying
// forward during container reclaim. Both implementations are bounded,
// so cold keys age out and get evicted instead of rewritten.
type recencyList interface {
	Touch(key domain.ObjectKey)
	Contains(key domain.ObjectKey) bool
}

type lruRecency struct {
	c *lru.Cache[domain.ObjectKey, struct{}]
}

func (l lruRecency) Touch(key domain.ObjectKey) {
	l.c.Add(key, struct{}{})
}

func (l lruRecency) Contains(key domain.ObjectKey) bool {
	return l.c.Contains(key)
}

type arcRecency struct {
	c *arc.ARCCache[domain.ObjectKey, struct{}]
}

func (a arcRecency) Touch(key domain.ObjectKey) {
	a.c.Add(key, struct{}{})
}

func (a arcRecency) Contains(key domain.ObjectKey) bool {
	return a.c.Contains(key)
}

// newRecency builds the recency tracker for the named policy, sized to
// roughly the number of objects the flash can hold.
func newRecency(policy string, slots int) (recencyList, error) {
	switch policy {
	case "lru":
		c, err := lru.New[domain.ObjectKey, struct{}](slots)
		if err != nil {
			return nil, err
		}
		return lruRecency{c: c}, nil
	case "arc":
		c, err := arc.NewARC[domain.ObjectKey, struct{}](slots)
		if err != nil {
			return nil, err
		}
		return arcRecency{c: c}, nil
	default:
		return nil, fmt.Errorf("unknown recency policy %q", policy)
	}
}
