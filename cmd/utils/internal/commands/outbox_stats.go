package commands

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/appetiteclub/delivery/cmd/utils/internal/seeding"
	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/aquamarinepk/aqm"
)

// serviceDatabases maps a service name to the database holding its outbox.
var serviceDatabases = map[string]string{
	"order":      seeding.OrderDB,
	"restaurant": seeding.RestaurantDB,
	"payment":    seeding.PaymentDB,
}

// OutboxDatabases resolves the databases to inspect. An empty service means
// all of them.
func OutboxDatabases(service string) ([]string, error) {
	if service == "" {
		dbs := make([]string, 0, len(serviceDatabases))
		for _, db := range serviceDatabases {
			dbs = append(dbs, db)
		}
		sort.Strings(dbs)
		return dbs, nil
	}
	db, ok := serviceDatabases[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q (want order, restaurant or payment)", service)
	}
	return []string{db}, nil
}

// OutboxStats prints outbox messages per status for the service selected by
// "service" or for every service.
func OutboxStats(ctx context.Context, config *aqm.Config, logger aqm.Logger, out io.Writer) error {
	dbs, err := OutboxDatabases(config.GetStringOrDef("service", ""))
	if err != nil {
		return err
	}

	client, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	for _, name := range dbs {
		counts, err := outbox.NewMongoStore(client.Database(name)).CountByStatus(ctx)
		if err != nil {
			return fmt.Errorf("count outbox in %s: %w", name, err)
		}
		WriteOutboxCounts(out, name, counts)
	}
	return nil
}

// WriteOutboxCounts prints one line per known outbox status, zeros included.
func WriteOutboxCounts(out io.Writer, database string, counts map[string]int64) {
	fmt.Fprintf(out, "%s\n", database)
	for _, status := range []string{outbox.StatusPending, outbox.StatusDispatching, outbox.StatusSent, outbox.StatusFailed} {
		fmt.Fprintf(out, "  %-12s %d\n", status, counts[status])
	}
}
