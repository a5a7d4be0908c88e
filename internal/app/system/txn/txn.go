// Package txn provides transaction utilities for MongoDB and DocumentDB.
//
// Multi-collection mutations (folder rows plus file rows) run through Run so
// they commit together where the deployment supports transactions. On
// standalone MongoDB without a replica set, Run falls back to executing the
// function without a transaction, which keeps the code working everywhere at
// the cost of best-effort atomicity.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is the function type for transaction operations. The context passed
// in is a mongo.SessionContext when running inside a transaction and the
// original context otherwise, so callers just thread it through.
type Func func(ctx context.Context) error

// Run executes fn within a MongoDB transaction if possible. If transactions
// are not supported, it falls back to running fn without one and logs a
// warning (log may be nil to suppress it).
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	client := db.Client()

	session, err := client.StartSession()
	if err != nil {
		if log != nil {
			log.Warn("failed to start session, running without transaction",
				zap.Error(err))
		}
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})

	if err != nil {
		if IsNotSupported(err) {
			if log != nil {
				log.Warn("transactions not supported, running without transaction",
					zap.Error(err))
			}
			return fn(ctx)
		}
		return err
	}

	return nil
}

// IsNotSupported checks if an error indicates that transactions are not
// supported (standalone MongoDB, DocumentDB with transactions disabled).
//
// Known error codes:
//   - 20: "Transaction numbers are only allowed on a replica set member or mongos"
//   - 51: IllegalOperation
//   - 263: "Cannot run 'aggregate' in a multi-document transaction"
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	if cmdErr, ok := err.(mongo.CommandError); ok {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	// Fall back to message sniffing; this catches both MongoDB and
	// DocumentDB error variations.
	errStr := strings.ToLower(err.Error())
	transactionKeywords := []string{
		"transaction",
		"replica set",
		"session",
		"not supported",
		"illegal operation",
	}

	matchCount := 0
	for _, kw := range transactionKeywords {
		if strings.Contains(errStr, kw) {
			matchCount++
		}
	}

	// Require at least 2 keyword matches to avoid false positives
	return matchCount >= 2
}
