package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_IsOwner(t *testing.T) {
	a := &Account{ID: 1, Owners: []Identity{"alice", "bob"}}

	assert.True(t, a.IsOwner("alice"))
	assert.True(t, a.IsOwner("bob"))
	assert.False(t, a.IsOwner("carol"))
	assert.False(t, a.IsOwner(""))
}

func TestBuildOwnerSet(t *testing.T) {
	tests := []struct {
		name    string
		creator Identity
		others  []Identity
		want    []Identity
		ok      bool
	}{
		{"creator only", "alice", nil, []Identity{"alice"}, true},
		{"two owners", "alice", []Identity{"bob"}, []Identity{"alice", "bob"}, true},
		{"four owners", "alice", []Identity{"bob", "carol", "dave"}, []Identity{"alice", "bob", "carol", "dave"}, true},
		{"creator repeated in others", "alice", []Identity{"alice"}, nil, false},
		{"duplicate among others", "alice", []Identity{"bob", "bob"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BuildOwnerSet(tt.creator, tt.others)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildOwnerSet_CreatorFirst(t *testing.T) {
	owners, ok := BuildOwnerSet("zoe", []Identity{"alice", "bob"})
	require.True(t, ok)
	assert.Equal(t, Identity("zoe"), owners[0])
}

func TestWithdrawalRequest_HasApproved(t *testing.T) {
	w := &WithdrawalRequest{Approvers: []Identity{"bob", "carol"}}

	assert.True(t, w.HasApproved("bob"))
	assert.False(t, w.HasApproved("alice"))
	assert.Equal(t, 2, w.ApprovalCount())
}

func TestWithdrawalRequest_IsExecuted(t *testing.T) {
	assert.False(t, (&WithdrawalRequest{Status: WithdrawalStatusPending}).IsExecuted())
	assert.True(t, (&WithdrawalRequest{Status: WithdrawalStatusExecuted}).IsExecuted())
}

func TestUnanimousOthers(t *testing.T) {
	tests := []struct {
		owners int
		want   int
	}{
		// A sole owner still needs one approval it cannot give itself:
		// single-owner withdrawals are permanently stuck, on purpose.
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 3},
		{10, 9},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, UnanimousOthers(tt.owners), "owners=%d", tt.owners)
	}
}

func TestFixedThreshold(t *testing.T) {
	assert.Equal(t, 2, FixedThreshold(2)(4))
	assert.Equal(t, 2, FixedThreshold(2)(100))
	assert.Equal(t, 1, FixedThreshold(0)(4), "threshold floors at one")
	assert.Equal(t, 1, FixedThreshold(-5)(4))
}

func TestQuorumPolicyByName(t *testing.T) {
	p, err := QuorumPolicyByName("unanimous-others", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, p(4))

	p, err = QuorumPolicyByName("", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p(2))

	p, err = QuorumPolicyByName("fixed", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p(10))

	_, err = QuorumPolicyByName("majority", 0)
	assert.Error(t, err)
}
