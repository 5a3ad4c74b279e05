package outbox

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Tx runs a unit of work inside a MongoDB transaction. Transactions need a
// replica set; with transactions disabled the work runs directly and a crash
// between writes can leave a state change without its event.
type Tx struct {
	client  *mongo.Client
	enabled bool
}

func NewTx(client *mongo.Client, enabled bool) *Tx {
	return &Tx{client: client, enabled: enabled}
}

func (t *Tx) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if t == nil || !t.enabled || t.client == nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("cannot start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
