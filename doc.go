// Package psql provides generic, typed access to PostgreSQL tables.
//
// # Overview
//
// Package psql builds parameterized SQL from declarative filters and runs it
// through an Executor bound either to a connection pool or to an open
// transaction. Accessors are generic over the row type, so each table gets
// its own typed instantiation while the SQL building stays shape-agnostic.
//
// Key features include:
//   - Identifier validation and quoting for every table and column name
//   - Readonly, Mutable and JoinTable accessors with find, count, page,
//     create, update, delete and upsert
//   - Payloads that tell "leave this column alone" from "set it to NULL"
//   - Nestable transactions: top-level calls use BEGIN/COMMIT, nested calls
//     use savepoints on the same connection
//
// # Basic Usage
//
//	type User struct {
//		ID        uuid.UUID `column:"id"`
//		Email     string    `column:"email"`
//		Status    string    `column:"status"`
//		CreatedAt time.Time `column:"created_at"`
//	}
//
//	type NewUser struct {
//		Email  string  `column:"email"`
//		Status *string `column:"status"` // nil uses the column default
//	}
//
//	type UserPatch struct {
//		Status psql.Optional[string] `column:"status"`
//	}
//
//	ex := psql.NewExecutor(conn, logger.StandardLogger)
//	users := psql.NewMutable[User, NewUser, UserPatch](ex, "users")
//
//	u, err := users.Create(ctx, NewUser{Email: "alice@example.com"})
//	// INSERT INTO "users" ("email") VALUES ($1) RETURNING *
//
//	page, err := users.FindPage(ctx, psql.Query{
//		Where:          psql.Where{"status": []string{"active", "invited"}},
//		OrderBy:        "created_at",
//		OrderDirection: psql.Desc,
//		Limit:          20,
//	})
//	// SELECT * FROM "users" WHERE "status" = ANY($1) ORDER BY "created_at" DESC LIMIT 20
//	// SELECT COUNT(*) FROM "users" WHERE "status" = ANY($1)
//
//	rows, err := users.Update(ctx, psql.Where{"id": u.ID}, UserPatch{Status: psql.Set("disabled")})
//	// UPDATE "users" SET "status" = $1 WHERE "id" = $2 RETURNING *
//
// # Filters
//
// A Where maps column names to values: a nil value matches NULL, a slice
// matches any of its elements (an empty slice matches nothing) and an unset
// Optional is skipped. An empty Where matches every row, including for
// Update and Delete.
//
// # Identifiers
//
// Table and column names must match ^[A-Za-z_][A-Za-z0-9_]*$, optionally as
// two dot-separated segments. Anything else fails with
// *UnsafeIdentifierError before a statement is sent. Names are always
// double-quoted.
//
// # Transactions
//
//	err := ex.Transaction(ctx, func(ctx context.Context, tx *psql.Executor) error {
//		users := psql.NewMutable[User, NewUser, UserPatch](tx, "users")
//		if _, err := users.Create(ctx, NewUser{Email: "bob@example.com"}); err != nil {
//			return err // ROLLBACK
//		}
//		return tx.Transaction(ctx, func(ctx context.Context, tx *psql.Executor) error {
//			return errors.New("undo only this block") // ROLLBACK TO SAVEPOINT
//		})
//	})
//
// # Database Drivers
//
// The pool is a db.DB from github.com/gopsql/db, so any of its drivers can
// be used:
//   - github.com/jackc/pgx via github.com/gopsql/pgx
//   - github.com/lib/pq via github.com/gopsql/pq
//   - database/sql via github.com/gopsql/standard
package psql
