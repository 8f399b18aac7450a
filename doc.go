/*
Package ecs is an archetype-based Entity-Component-System runtime.

Entities with the same set of component types are stored together in
chunked, columnar archetypes for cache-friendly iteration. Structural
changes (adding/removing components, destroying entities) go through a
per-worker Commands buffer and are only applied to storage at a
schedule's commit point, so systems running in the same execution group
never see a half-finished move.

Core Concepts:

  - Entity: a generational handle into the entity pool.
  - Component: a registered, fixed-layout value type stored in archetype columns.
  - Archetype: the set of entities sharing one exact component signature.
  - Commands: a deferred buffer for structural mutations, drained at commit.
  - Schedule: a DAG of systems batched into parallel execution groups.

Basic Usage:

	app := ecs.Factory.NewApp(0)
	position := ecs.FactoryNewComponent[Position](app.Registrar)
	velocity := ecs.FactoryNewComponent[Velocity](app.Registrar)

	query := ecs.Factory.NewQuery()
	moving := query.And(position.ID(), velocity.ID())
	cursor := ecs.Factory.NewCursor(moving, app.Archetypes)

	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}
*/
package ecs
