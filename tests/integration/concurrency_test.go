package integration

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"shared-account-ledger/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrent_Deposits verifies per-account serialization under load:
// no deposit is lost, and the fact stream records every one.
func TestConcurrent_Deposits(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, _ := app.do(t, http.MethodPost, "/api/v1/accounts", "alice",
		map[string]any{"other_owners": []string{"bob"}})
	require.Equal(t, http.StatusCreated, status)

	// Distinct depositor identities keep each one inside its own rate
	// limit window; deposits are open to any authenticated identity.
	concurrency := 50
	amount := int64(10)

	var wg sync.WaitGroup
	var failures atomic.Int64
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			depositor := domain.Identity(fmt.Sprintf("depositor-%d", idx))
			status, _ := app.do(t, http.MethodPost, "/api/v1/accounts/1/deposits", depositor,
				map[string]any{"amount": amount})
			if status != http.StatusOK {
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Zero(t, failures.Load(), "every deposit should be accepted")

	status, body := app.do(t, http.MethodGet, "/api/v1/accounts/1/balance", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(int64(concurrency)*amount), data(t, body)["balance"],
		"no deposit may be lost")

	status, body = app.do(t, http.MethodGet, "/api/v1/accounts/1/facts?limit=0", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	facts := body["data"].([]interface{})
	assert.Len(t, facts, concurrency+1, "one creation fact plus one fact per deposit")
}

// TestConcurrent_ExecuteOnlyOnce races execution attempts for the same
// approved withdrawal: exactly one transfers funds.
func TestConcurrent_ExecuteOnlyOnce(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, _ := app.do(t, http.MethodPost, "/api/v1/accounts", "alice",
		map[string]any{"other_owners": []string{"bob"}})
	require.Equal(t, http.StatusCreated, status)

	status, _ = app.do(t, http.MethodPost, "/api/v1/accounts/1/deposits", "alice",
		map[string]any{"amount": 100})
	require.Equal(t, http.StatusOK, status)

	status, _ = app.do(t, http.MethodPost, "/api/v1/accounts/1/withdrawals", "alice",
		map[string]any{"amount": 100})
	require.Equal(t, http.StatusCreated, status)

	status, _ = app.do(t, http.MethodPost, "/api/v1/accounts/1/withdrawals/1/approvals", "bob", nil)
	require.Equal(t, http.StatusOK, status)

	concurrency := 10
	executors := []domain.Identity{"alice", "bob"}

	var wg sync.WaitGroup
	var executed, conflicted atomic.Int64
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			status, _ := app.do(t, http.MethodPost,
				"/api/v1/accounts/1/withdrawals/1/execute", executors[idx%2], nil)
			switch status {
			case http.StatusOK:
				executed.Add(1)
			case http.StatusConflict:
				conflicted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), executed.Load(), "exactly one execution may transfer funds")
	assert.Equal(t, int64(concurrency-1), conflicted.Load())

	status, body := app.do(t, http.MethodGet, "/api/v1/accounts/1/balance", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), data(t, body)["balance"], "funds transferred exactly once")
}

// TestConcurrent_ApprovalsIdempotent races repeated approvals: the count
// reflects distinct approvers only and the fact stream records each
// approver once.
func TestConcurrent_ApprovalsIdempotent(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, _ := app.do(t, http.MethodPost, "/api/v1/accounts", "alice",
		map[string]any{"other_owners": []string{"bob", "carol"}})
	require.Equal(t, http.StatusCreated, status)

	status, _ = app.do(t, http.MethodPost, "/api/v1/accounts/1/withdrawals", "alice",
		map[string]any{"amount": 50})
	require.Equal(t, http.StatusCreated, status)

	approvers := []domain.Identity{"bob", "carol"}
	concurrency := 20

	var wg sync.WaitGroup
	var failures atomic.Int64
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			status, _ := app.do(t, http.MethodPost,
				"/api/v1/accounts/1/withdrawals/1/approvals", approvers[idx%2], nil)
			if status != http.StatusOK {
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Zero(t, failures.Load(), "re-approval is idempotent, never an error")

	status, body := app.do(t, http.MethodGet, "/api/v1/accounts/1/withdrawals/1/approvals", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), data(t, body)["count"], "two distinct approvers")

	status, body = app.do(t, http.MethodGet, "/api/v1/accounts/1/facts?limit=0", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	approvedFacts := 0
	for _, f := range body["data"].([]interface{}) {
		if f.(map[string]interface{})["kind"] == "withdrawal_approved" {
			approvedFacts++
		}
	}
	assert.Equal(t, 2, approvedFacts, "one approval fact per distinct approver")
}
