// Package services gives typed access to every table and view of the
// defense portal.
//
// Each entity has a service built on a psql accessor, extended with the
// lookups the portal needs. The Registry assembles all of them for one
// Executor:
//
//	registry := services.New(psql.NewExecutor(conn))
//	user, err := registry.Users().FindByEmail(ctx, "Alice@Example.com")
//
// Writes that must succeed or fail together go through Registry.Transaction,
// whose work function receives a Registry bound to the transaction:
//
//	err := registry.Transaction(ctx, func(ctx context.Context, tx *services.Registry) error {
//		schedule, err := tx.DefenseSchedules().Create(ctx, newSchedule)
//		if err != nil {
//			return err
//		}
//		_, err = tx.SchedulePanelists().ReplacePanelists(ctx, schedule.ID, panel)
//		return err
//	})
package services
