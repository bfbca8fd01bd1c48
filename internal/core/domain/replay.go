package domain

import "fmt"

// AccountSnapshot is the full reconstructed state of one account: the
// account itself plus its withdrawal requests in insertion order.
type AccountSnapshot struct {
	Account     Account
	Withdrawals []*WithdrawalRequest
}

func (s *AccountSnapshot) withdrawal(id int64) *WithdrawalRequest {
	for _, w := range s.Withdrawals {
		if w.ID == id {
			return w
		}
	}
	return nil
}

// Replay folds an ordered fact stream into current account state. Facts must
// be supplied in ascending Seq order. Replaying the complete stream from an
// empty ledger reproduces exactly the state held by the mutable store; this
// is the audit guarantee the fact log exists for.
func Replay(facts []Fact) (map[int64]*AccountSnapshot, error) {
	state := make(map[int64]*AccountSnapshot)
	for i := range facts {
		f := &facts[i]
		if f.Kind == FactAccountCreated {
			if _, exists := state[f.AccountID]; exists {
				return nil, fmt.Errorf("fact %d: account %d created twice", f.Seq, f.AccountID)
			}
			state[f.AccountID] = &AccountSnapshot{
				Account: Account{
					ID:             f.AccountID,
					Owners:         append([]Identity(nil), f.Payload.Owners...),
					NextWithdrawID: 1,
					CreatedAt:      f.RecordedAt,
				},
			}
			continue
		}

		snap, ok := state[f.AccountID]
		if !ok {
			return nil, fmt.Errorf("fact %d: %s before creation of account %d", f.Seq, f.Kind, f.AccountID)
		}

		switch f.Kind {
		case FactDeposited:
			snap.Account.Balance += f.Payload.Amount

		case FactWithdrawalRequested:
			snap.Withdrawals = append(snap.Withdrawals, &WithdrawalRequest{
				AccountID: f.AccountID,
				ID:        f.Payload.WithdrawID,
				Requester: f.Payload.Actor,
				Amount:    f.Payload.Amount,
				Status:    WithdrawalStatusPending,
				CreatedAt: f.RecordedAt,
			})
			if f.Payload.WithdrawID >= snap.Account.NextWithdrawID {
				snap.Account.NextWithdrawID = f.Payload.WithdrawID + 1
			}

		case FactWithdrawalApproved:
			w := snap.withdrawal(f.Payload.WithdrawID)
			if w == nil {
				return nil, fmt.Errorf("fact %d: approval for unknown withdrawal %d", f.Seq, f.Payload.WithdrawID)
			}
			if !w.HasApproved(f.Payload.Actor) {
				w.Approvers = append(w.Approvers, f.Payload.Actor)
			}

		case FactWithdrawn:
			w := snap.withdrawal(f.Payload.WithdrawID)
			if w == nil {
				return nil, fmt.Errorf("fact %d: execution of unknown withdrawal %d", f.Seq, f.Payload.WithdrawID)
			}
			if w.IsExecuted() {
				return nil, fmt.Errorf("fact %d: withdrawal %d executed twice", f.Seq, f.Payload.WithdrawID)
			}
			w.Status = WithdrawalStatusExecuted
			snap.Account.Balance -= f.Payload.Amount
			if snap.Account.Balance < 0 {
				return nil, fmt.Errorf("fact %d: account %d balance went negative", f.Seq, f.AccountID)
			}

		default:
			return nil, fmt.Errorf("fact %d: unknown kind %q", f.Seq, f.Kind)
		}
	}
	return state, nil
}
