package domain

import "time"

// Identity is an opaque, comparable token identifying a participant, e.g. a
// hex-encoded address. The core never interprets its contents; two owners of
// the same account are distinct iff their tokens differ.
type Identity string

// Account is a shared account controlled by a fixed set of co-owners.
// Balance is held in the smallest indivisible currency unit and never goes
// negative: it only changes through a Deposit or an executed withdrawal.
type Account struct {
	ID             int64      `json:"id"`
	Owners         []Identity `json:"owners"` // creation order, creator first
	Balance        int64      `json:"balance"`
	NextWithdrawID int64      `json:"-"` // next withdraw id to allocate, starts at 1
	CreatedAt      time.Time  `json:"created_at"`
}

// IsOwner reports whether the given identity belongs to the account's owner set.
func (a *Account) IsOwner(id Identity) bool {
	for _, o := range a.Owners {
		if o == id {
			return true
		}
	}
	return false
}

// BuildOwnerSet prepends the creator to the other owners and rejects
// duplicates. The returned slice preserves input order for display.
func BuildOwnerSet(creator Identity, others []Identity) ([]Identity, bool) {
	owners := make([]Identity, 0, len(others)+1)
	owners = append(owners, creator)
	seen := map[Identity]struct{}{creator: {}}
	for _, o := range others {
		if _, dup := seen[o]; dup {
			return nil, false
		}
		seen[o] = struct{}{}
		owners = append(owners, o)
	}
	return owners, true
}
