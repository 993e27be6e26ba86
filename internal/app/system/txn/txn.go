// Package txn runs multi-collection writes in a MongoDB transaction, falling
// back to sequential writes on deployments without transaction support
// (standalone servers, some DocumentDB versions).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction on client. If the deployment rejects
// transactions, fn is run once more without one. fn must therefore be safe to
// re-run after a rejected first attempt; in practice the rejection happens on
// the first write, before anything is committed.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	if client == nil {
		return fn(ctx)
	}

	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Debug("transactions unsupported; running without", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation: transaction numbers on a standalone
	51:  true, // IllegalOperation variant on older servers
	263: true, // OperationNotSupportedInTransaction
}

// Server and driver messages that only appear when the deployment itself
// cannot run transactions.
var notSupportedMessages = []string{
	"transaction numbers are only allowed on a replica set member or mongos",
	"current topology does not support sessions",
	"transactions are not supported",
}

// IsNotSupported reports whether err means the server cannot run transactions.
// Command errors are matched by code. Anything else must carry one of the
// exact deployment messages; a write error that merely mentions transactions
// or sessions is returned as is.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, m := range notSupportedMessages {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
