package domain

import "fmt"

// QuorumPolicy maps an account's owner-set size to the number of distinct
// co-owner approvals a withdrawal needs before it may execute. The requester
// never counts toward the quorum (self-approval is rejected upstream), so the
// policy is a pure function of owner count.
type QuorumPolicy func(ownerCount int) int

// UnanimousOthers is the default product policy: every co-owner except the
// requester must approve, with a floor of one. A single-owner account
// therefore needs one approval that no one can give; such requests stay
// pending forever. This is deliberate: a sole owner must not be able to
// satisfy quorum unilaterally.
func UnanimousOthers(ownerCount int) int {
	if ownerCount <= 2 {
		return 1
	}
	return ownerCount - 1
}

// FixedThreshold returns a policy requiring a constant number of approvals
// regardless of owner-set size, floored at one.
func FixedThreshold(n int) QuorumPolicy {
	if n < 1 {
		n = 1
	}
	return func(int) int { return n }
}

// QuorumPolicyByName resolves a configured policy name. threshold is only
// consulted for the "fixed" policy.
func QuorumPolicyByName(name string, threshold int) (QuorumPolicy, error) {
	switch name {
	case "", "unanimous-others":
		return UnanimousOthers, nil
	case "fixed":
		return FixedThreshold(threshold), nil
	default:
		return nil, fmt.Errorf("unknown quorum policy %q", name)
	}
}
