package conflict

import "github.com/wippyai/cilmeta/errors"

// Strategy names accepted by ByName.
const (
	StrategyLastWriteWins  = "last-write-wins"
	StrategyFirstWriteWins = "first-write-wins"
	StrategyReject         = "reject"
)

// LastWriteWins keeps the operation with the greatest timestamp. An Insert
// and a Delete with equal timestamps resolve to the Insert.
type LastWriteWins struct{}

func (LastWriteWins) Resolve(conflicts []Conflict) (Resolution, error) {
	res := make(Resolution, len(conflicts))
	for _, c := range conflicts {
		switch c.Kind {
		case InsertDelete:
			if c.Insert.Timestamp >= c.Delete.Timestamp {
				res[c.RID] = Use(c.Insert)
			} else {
				res[c.RID] = Use(c.Delete)
			}
		default:
			res[c.RID] = Use(latest(c.Operations))
		}
	}
	return res, nil
}

// FirstWriteWins keeps the operation with the smallest timestamp. An Insert
// and a Delete with equal timestamps still resolve to the Insert.
type FirstWriteWins struct{}

func (FirstWriteWins) Resolve(conflicts []Conflict) (Resolution, error) {
	res := make(Resolution, len(conflicts))
	for _, c := range conflicts {
		switch c.Kind {
		case InsertDelete:
			if c.Delete.Timestamp < c.Insert.Timestamp {
				res[c.RID] = Use(c.Delete)
			} else {
				res[c.RID] = Use(c.Insert)
			}
		default:
			res[c.RID] = Use(earliest(c.Operations))
		}
	}
	return res, nil
}

// RejectConflicts refuses every conflict.
type RejectConflicts struct{}

func (RejectConflicts) Resolve(conflicts []Conflict) (Resolution, error) {
	res := make(Resolution, len(conflicts))
	for _, c := range conflicts {
		res[c.RID] = RejectWith(c.String())
	}
	return res, nil
}

// ByName returns the resolver for a strategy name. An empty name is
// last-write-wins.
func ByName(name string) (Resolver, error) {
	switch name {
	case "", StrategyLastWriteWins:
		return LastWriteWins{}, nil
	case StrategyFirstWriteWins:
		return FirstWriteWins{}, nil
	case StrategyReject:
		return RejectConflicts{}, nil
	}
	return nil, errors.NotFound(errors.PhaseConfig, "conflict strategy", name)
}
