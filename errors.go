package ecs

import "fmt"

// InvalidArgumentError reports a malformed registration request, such as
// a bundle type with no fields.
type InvalidArgumentError struct {
	Reason string
}

func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Reason)
}

// SystemShapeError reports a system whose declared parameters are
// mutually exclusive or otherwise ill-formed.
type SystemShapeError struct {
	System string
	Reason string
}

func (e SystemShapeError) Error() string {
	return fmt.Sprintf("system %q is ill-formed: %s", e.System, e.Reason)
}

// DuplicateResourceError reports AddResource called for a type that
// already has a value in the pool.
type DuplicateResourceError struct {
	Type string
}

func (e DuplicateResourceError) Error() string {
	return fmt.Sprintf("resource already present: %s", e.Type)
}

// ResourceNotFoundError reports GetResource called for a type with no
// value in the pool.
type ResourceNotFoundError struct {
	Type string
}

func (e ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Type)
}

// ScheduleExistsError reports adding the same named schedule twice.
type ScheduleExistsError struct {
	Name string
}

func (e ScheduleExistsError) Error() string {
	return fmt.Sprintf("schedule already exists: %s", e.Name)
}

// AfterNotFoundError reports an after-target that doesn't exist, either
// for Schedule.AddSystem or ScheduleSet.Add.
type AfterNotFoundError struct {
	Name string
}

func (e AfterNotFoundError) Error() string {
	return fmt.Sprintf("after target not found: %s", e.Name)
}

// GraphCycleError reports a cycle detected when freezing a schedule's DAG.
type GraphCycleError struct {
	Schedule string
}

func (e GraphCycleError) Error() string {
	return fmt.Sprintf("schedule %q has a cycle in its system graph", e.Schedule)
}

// EntityRelationError reports SetParent called on a child that already
// has a parent (hierarchy resource, see SPEC_FULL.md).
type EntityRelationError struct {
	Child, Parent Entity
}

func (e EntityRelationError) Error() string {
	return fmt.Sprintf("entity %v already has parent %v", e.Child, e.Parent)
}
