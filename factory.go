package ecs

// factory implements the factory pattern for this module's public
// constructors, the same shape the teacher uses for storage/query/cursor
// construction.
type factory struct{}

// Factory is the global factory instance for creating runtime values.
var Factory factory

// NewApp creates a new App with the given worker-thread hint (0 picks
// the default, §5).
func (f factory) NewApp(workers int) *App {
	return newApp(workers)
}

// NewQuery creates a new composable Query.
func (f factory) NewQuery() Query {
	return NewQuery()
}

// NewCursor creates a new Cursor over manager filtered by query.
func (f factory) NewCursor(query QueryNode, manager *ArchetypeManager) *Cursor {
	return NewCursor(query, manager)
}

// FactoryNewComponent registers T against r and returns its typed handle.
func FactoryNewComponent[T any](r *TypeRegistrar) ComponentType[T] {
	return NewComponentType[T](r)
}

// FactoryNewCache creates a SimpleCache with the given capacity.
func FactoryNewCache[T any](capacity int) *SimpleCache[T] {
	return NewSimpleCache[T](capacity)
}
