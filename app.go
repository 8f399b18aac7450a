package ecs

import "reflect"

// Plugin installs a reusable bundle of components, resources, and
// schedules into an App. Install is idempotent per concrete plugin
// type; discovering or loading plugins from outside the process is an
// external-collaborator concern and out of scope here.
type Plugin interface {
	Install(app *App) error
}

// App is the composition root: type registry, resource pool, entity
// pool, archetype storage, and the named schedules that drive them
// (§5 "App lifecycle").
type App struct {
	Registrar  *TypeRegistrar
	Resources  *ResourcePool
	Entities   *EntityPool
	Archetypes *ArchetypeManager
	Threads    *ThreadPool
	Schedules  *ScheduleSet

	opQueue   *entityOperationsQueue
	opCmds    *Commands
	installed map[reflect.Type]bool
}

func newApp(workers int) *App {
	if workers <= 0 {
		workers = DefaultWorkerCount()
	}
	registrar := NewTypeRegistrar()
	pool := NewEntityPool()
	manager := NewArchetypeManager(registrar, Config.ChunkByteHint)
	threads := NewThreadPool(workers)
	return &App{
		Registrar:  registrar,
		Resources:  NewResourcePool(),
		Entities:   pool,
		Archetypes: manager,
		Threads:    threads,
		Schedules:  NewScheduleSet(32),
		opQueue:    &entityOperationsQueue{},
		opCmds:     NewCommands(registrar, pool, manager),
		installed:  make(map[reflect.Type]bool),
	}
}

// NewApp constructs an App with the given worker-thread hint; 0 picks
// half the host's hardware threads.
func NewApp(workers int) *App {
	return newApp(workers)
}

// Install runs p.Install once per concrete plugin type. Installing the
// same plugin type again is a no-op, matching the idempotent contract
// of the App lifecycle.
func (a *App) Install(p Plugin) error {
	t := reflect.TypeOf(p)
	if a.installed[t] {
		return nil
	}
	if err := p.Install(a); err != nil {
		return err
	}
	a.installed[t] = true
	return nil
}

// AddSchedule creates and registers a named schedule, positioned after
// an existing one if after is non-empty.
func (a *App) AddSchedule(name string, commitPoint CommitPoint, after string) (*Schedule, error) {
	sch := NewSchedule(name, a.Registrar, a.Entities, a.Archetypes, a.Threads, commitPoint)
	if err := a.Schedules.Add(name, sch, after); err != nil {
		return nil, err
	}
	return sch, nil
}

// Update runs one tick: every schedule in order, or only up to stopAt
// if it's non-empty.
func (a *App) Update(stopAt string) error {
	if stopAt == "" {
		return a.Schedules.Run(a)
	}
	return a.Schedules.RunUntil(a, stopAt)
}

// LockDirectIteration marks the start of a direct-iteration scan (e.g.
// via Cursor) outside any schedule; structural operations enqueued
// through a.Enqueue during the lock are deferred until UnlockDirectIteration
// drains them (§4 supplemented "enqueue-while-locked" feature).
func (a *App) LockDirectIteration() {
	a.opQueue.Lock()
}

// UnlockDirectIteration ends a direct-iteration scan, replaying any
// operations queued while locked against the app's scratch Commands
// buffer and committing them.
func (a *App) UnlockDirectIteration() error {
	if err := a.opQueue.Unlock(a.opCmds); err != nil {
		return err
	}
	if !a.opQueue.Locked() {
		a.opCmds.Commit()
		a.Archetypes.Commit()
	}
	return nil
}

// Enqueue stages op, deferring it if a direct-iteration lock is held.
func (a *App) Enqueue(op EntityOperation) error {
	return a.opQueue.Enqueue(op, a.opCmds)
}

// Dispose releases worker threads, chunk storage, and registries in
// that order (§5).
func (a *App) Dispose() {
	a.Threads.Close()
	a.Archetypes = nil
	a.Entities = nil
	a.Resources = nil
	a.Registrar = nil
}
