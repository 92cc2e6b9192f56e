package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
)

const (
	defaultTxAttempts = 5
	defaultTxTimeout  = 15 * time.Second
)

// TxFunc runs inside a Firestore transaction. Returning an error aborts
// the transaction; contention errors trigger a retry up to the attempt cap.
type TxFunc func(ctx context.Context, tx *firestore.Transaction) error

// TxOption customises transaction behaviour.
type TxOption func(*txSettings)

type txSettings struct {
	maxAttempts int
	timeout     time.Duration
}

// WithTxAttempts caps the number of commit attempts.
func WithTxAttempts(attempts int) TxOption {
	return func(s *txSettings) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// WithTxTimeout bounds the total transaction time including retries.
func WithTxTimeout(timeout time.Duration) TxOption {
	return func(s *txSettings) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// RunTransaction executes fn within a transaction on the provided client and
// classifies the outcome through WrapError.
func RunTransaction(ctx context.Context, client *firestore.Client, fn TxFunc, opts ...TxOption) error {
	if client == nil {
		return WrapError("transaction", errors.New("firestore: client is nil"))
	}
	if fn == nil {
		return WrapError("transaction", errors.New("firestore: transaction function is nil"))
	}

	settings := txSettings{maxAttempts: defaultTxAttempts, timeout: defaultTxTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	txnCtx, cancel := boundedContext(ctx, settings.timeout)
	if cancel != nil {
		defer cancel()
	}

	var txOpts []firestore.TransactionOption
	if settings.maxAttempts > 0 {
		txOpts = append(txOpts, firestore.MaxAttempts(settings.maxAttempts))
	}

	err := client.RunTransaction(txnCtx, fn, txOpts...)
	return WrapError("transaction", err)
}

// boundedContext tightens ctx to the given timeout unless an earlier
// deadline is already in place.
func boundedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= timeout {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}
