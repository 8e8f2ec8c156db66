// Package migrations registers the schema migrations applied by the migrate
// command and at server startup.
package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_users.sql
var createUsersSQL string

//go:embed 0002_create_categories.sql
var createCategoriesSQL string

//go:embed 0003_create_questions.sql
var createQuestionsSQL string

//go:embed 0004_create_products.sql
var createProductsSQL string

//go:embed 0005_create_purchases.sql
var createPurchasesSQL string

//go:embed 0006_create_matches.sql
var createMatchesSQL string

var Migrations = migrate.NewMigrations()

func init() {
	register("0001", "create_users", createUsersSQL, `DROP TABLE IF EXISTS users`)
	register("0002", "create_categories", createCategoriesSQL, `DROP TABLE IF EXISTS categories`)
	register("0003", "create_questions", createQuestionsSQL, `DROP TABLE IF EXISTS questions`)
	register("0004", "create_products", createProductsSQL, `DROP TABLE IF EXISTS products`)
	register("0005", "create_purchases", createPurchasesSQL, `DROP TABLE IF EXISTS purchases`)
	register("0006", "create_matches", createMatchesSQL, `DROP TABLE IF EXISTS match_usage; DROP TABLE IF EXISTS match_rounds; DROP TABLE IF EXISTS matches`)
}

func register(name, comment, up, down string) {
	Migrations.Add(migrate.Migration{
		Name:    name,
		Comment: comment,
		Up: func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(up)
			return err
		},
		Down: func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(down)
			return err
		},
	})
}
