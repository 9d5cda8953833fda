package booking

import (
	"sort"

	"github.com/dstepanov-dev/medslot/internal/accounts"
	"github.com/dstepanov-dev/medslot/internal/requests"
)

// Priority ranks. Entitlement is a paid upgrade and must win contention for
// scarce slots; override is for operator-granted exceptions.
const (
	rankOverride = iota
	rankEntitled
	rankStandard
)

func rank(u accounts.User) int {
	switch {
	case u.PriorityOverride:
		return rankOverride
	case u.Entitled:
		return rankEntitled
	default:
		return rankStandard
	}
}

// SortByPriority orders pending requests for processing: override accounts
// first, then entitled, then everyone else. Within a rank, older user
// accounts go first; requests of the same user keep creation order.
func SortByPriority(reqs []requests.PendingRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		ri, rj := rank(reqs[i].Owner), rank(reqs[j].Owner)
		if ri != rj {
			return ri < rj
		}
		if !reqs[i].Owner.CreatedAt.Equal(reqs[j].Owner.CreatedAt) {
			return reqs[i].Owner.CreatedAt.Before(reqs[j].Owner.CreatedAt)
		}
		return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
	})
}
