package database

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"
)

var productsSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id text PRIMARY KEY,
		name text,
		description text,
		price double,
		category text,
		stock int,
		images text,
		reviews text,
		ratings double,
		num_of_reviews int,
		user_id text,
		version bigint,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		product_id text,
		id timeuuid,
		order_id text,
		delta int,
		prev_stock int,
		new_stock int,
		reason text,
		created_at timestamp,
		PRIMARY KEY (product_id, id)
	) WITH CLUSTERING ORDER BY (id DESC)`,
}

var usersSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id text PRIMARY KEY,
		name text,
		email text,
		password text,
		role text,
		avatar_public_id text,
		avatar_url text,
		provider text,
		created_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS users_by_email (
		email text PRIMARY KEY,
		user_id text
	)`,
}

var ordersSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id text PRIMARY KEY,
		user_id text,
		shipping_info text,
		order_items text,
		payment_info text,
		items_price double,
		tax_price double,
		shipping_price double,
		total_price double,
		order_status text,
		stock_committed boolean,
		paid_at timestamp,
		delivered_at timestamp,
		created_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS orders_by_user (
		user_id text,
		created_at timestamp,
		order_id text,
		PRIMARY KEY (user_id, created_at, order_id)
	) WITH CLUSTERING ORDER BY (created_at DESC, order_id ASC)`,
}

// Migrate crée les tables de chaque keyspace. Les keyspaces doivent déjà exister.
func (sm *ScyllaManager) Migrate(ctx context.Context) error {
	steps := []struct {
		keyspace   string
		statements []string
	}{
		{sm.cfg.Products.Keyspace, productsSchema},
		{sm.cfg.Users.Keyspace, usersSchema},
		{sm.cfg.Orders.Keyspace, ordersSchema},
	}

	for _, step := range steps {
		session, err := sm.Session(step.keyspace)
		if err != nil {
			return err
		}
		if err := applySchema(ctx, session, step.statements); err != nil {
			return fmt.Errorf("migrate %s: %w", step.keyspace, err)
		}
		sm.logger.Info("scylla schema applied", zap.String("keyspace", step.keyspace))
	}
	return nil
}

func applySchema(ctx context.Context, session *gocql.Session, statements []string) error {
	for _, stmt := range statements {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return err
		}
	}
	return nil
}
