package agent

import (
	"fmt"  // Log line formatting
	"sync" // Per-user run serialization

	"subtrack/internal/domain" // Importing domain models
	"subtrack/internal/store"  // Ledger and subscription stores

	"github.com/sirupsen/logrus" // Logging library
)

// refundRate is the fixed share of the subscription price credited back when
// the agent cancels a subscription. Not prorated by billing cycle.
const refundRate = 0.5

// Report summarizes one evaluator run
type Report struct {
	Processed int      `json:"processed"` // Active subscriptions scanned
	Cancelled int      `json:"cancelled"` // Subscriptions actually cancelled
	Logs      []string `json:"logs"`      // Human-readable decision log
}

// Evaluator scans a user's active subscriptions, cancels the ones that match
// its rules and are flagged auto-cancel, and credits a partial refund for each
// cancellation. Runs for the same user are serialized so two concurrent
// requests cannot double-refund.
type Evaluator struct {
	ledger *store.LedgerStore       // Wallet balances and transaction log
	subs   *store.SubscriptionStore // Subscription records

	mu    sync.Mutex            // Guards the lock map
	locks map[uint]*sync.Mutex  // One lock per user
}

// NewEvaluator creates an Evaluator over the given stores
func NewEvaluator(ledger *store.LedgerStore, subs *store.SubscriptionStore) *Evaluator {
	return &Evaluator{
		ledger: ledger,                  // Ledger store
		subs:   subs,                    // Subscription store
		locks:  make(map[uint]*sync.Mutex), // Per-user locks
	}
}

// userLock returns the mutex serializing runs for one user
func (e *Evaluator) userLock(userID uint) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	return l
}

// Run evaluates every active subscription of the user once.
//
// Two rules mark a subscription as a cancellation candidate: usage at most
// once this month, and a wallet balance below the subscription price. When
// both match, the balance reason replaces the usage reason. A candidate is
// only acted on when its own AutoCancel flag is set; everything else is left
// untouched. The balance compared against is the one read at run start;
// refunds credited during the run do not feed back into later comparisons.
//
// The batch is not transactional: a store error aborts the run and whatever
// was already cancelled and refunded stands. Repeat runs are harmless because
// only active subscriptions are scanned.
func (e *Evaluator) Run(userID uint) (*Report, error) {
	lock := e.userLock(userID) // Serialize runs per user
	lock.Lock()
	defer lock.Unlock()

	// The wallet must exist before anything is evaluated
	wallet, err := e.ledger.GetWallet(userID)
	if err != nil {
		return nil, err
	}
	// Full subscription list for the user
	subs, err := e.subs.List(userID)
	if err != nil {
		return nil, err
	}

	report := &Report{Logs: []string{}} // Empty report
	for _, sub := range subs {
		// Only active subscriptions are evaluated
		if sub.Status != domain.StatusActive {
			continue
		}
		report.Processed++

		shouldCancel := false
		reason := ""

		// Rule 1: usage count low
		if sub.UsageCount != nil && *sub.UsageCount <= 1 {
			shouldCancel = true
			reason = fmt.Sprintf("Low usage detected (%d times/month)", *sub.UsageCount)
		}

		// Rule 2: wallet balance below price. Replaces the usage reason when
		// both rules match.
		if wallet.Balance < sub.Price {
			shouldCancel = true
			reason = fmt.Sprintf("Insufficient wallet balance (₹%.2f)", wallet.Balance)
		}

		// Candidates are only acted on when the subscription opted in
		if !shouldCancel || !sub.AutoCancel {
			continue
		}

		// Flip the subscription to cancelled
		if _, err := e.subs.Update(sub.ID, map[string]any{"status": domain.StatusCancelled}); err != nil {
			return nil, err // Abort the run, prior cancellations stand
		}
		report.Cancelled++
		report.Logs = append(report.Logs, fmt.Sprintf("Cancelled %s: %s", sub.Name, reason))

		// Credit half the price back as a refund
		refund := sub.Price * refundRate
		if _, err := e.ledger.AdjustBalance(userID, refund, domain.TxRefund, "Agent refund for "+sub.Name); err != nil {
			return nil, err // Abort the run, the cancellation above stands
		}
		// Log the cancellation with context
		logrus.WithFields(logrus.Fields{
			"user_id":         userID,   // Owner of the subscription
			"subscription_id": sub.ID,   // Cancelled subscription
			"name":            sub.Name, // Service name
			"refund":          refund,   // Credited amount
			"reason":          reason,   // Why it was cancelled
		}).Info("Agent cancelled subscription")
	}

	// Log the run summary
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,           // User evaluated
		"processed": report.Processed, // Active subscriptions scanned
		"cancelled": report.Cancelled, // Subscriptions cancelled
	}).Info("Agent run complete")
	return report, nil
}
