package ecs

import (
	"sync"
	"testing"
)

// applyVelocity is the scenario 1/3 system: mut Position, const Velocity.
type applyVelocity struct {
	position ComponentType[Position]
	velocity ComponentType[Velocity]
}

func (s *applyVelocity) Initialize(app *App) error { return nil }

func (s *applyVelocity) Configure(app *App) SystemDescriptor {
	return SystemDescriptor{
		All: []TypeID{s.position.ID(), s.velocity.ID()},
		Access: []AccessEntry{
			{Type: s.position.ID(), ReadOnly: false},
			{Type: s.velocity.ID(), ReadOnly: true},
		},
	}
}

func (s *applyVelocity) Execute(app *App, matched []*Archetype, cmds *Commands) error {
	for _, arch := range matched {
		for ci := 0; ci < arch.ChunkCount(); ci++ {
			for row := 0; row < arch.ChunkSize(ci); row++ {
				pos := s.position.Get(arch, ci, row)
				vel := s.velocity.Get(arch, ci, row)
				pos.X += vel.X
				pos.Y += vel.Y
			}
		}
	}
	return nil
}

// TestScenarioCreateAddIterate: create 4 entities, add Position{i,i} and
// Velocity{i+1,i+1}, run a system that applies velocity to position, and
// expect [(1,1),(3,3),(5,5),(7,7)].
func TestScenarioCreateAddIterate(t *testing.T) {
	r, pool, manager := newTestWorld()
	position := NewComponentType[Position](r)
	velocity := NewComponentType[Velocity](r)
	threads := NewThreadPool(2)
	defer threads.Close()

	cmds := NewCommands(r, pool, manager)
	entities := make([]Entity, 4)
	for i := 0; i < 4; i++ {
		e := cmds.CreateEntity()
		entities[i] = e
		AddComponent(cmds, e, Position{X: float64(i), Y: float64(i)})
		AddComponent(cmds, e, Velocity{X: float64(i + 1), Y: float64(i + 1)})
	}
	cmds.Commit()
	manager.Commit()

	app := &App{Registrar: r, Entities: pool, Archetypes: manager, Threads: threads}
	sch := NewSchedule("scenario1", r, pool, manager, threads, CommitScheduleEnd)
	sys := &applyVelocity{position: position, velocity: velocity}
	if err := sch.AddSystem(app, "apply-velocity", sys, ""); err != nil {
		t.Fatalf("AddSystem() error = %v", err)
	}
	if err := sch.Execute(app); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []Position{{1, 1}, {3, 3}, {5, 5}, {7, 7}}
	for i, e := range entities {
		got, ok := position.GetFromEntity(pool, manager, e)
		if !ok || *got != want[i] {
			t.Errorf("entity %d Position = %+v (ok=%v), want %+v", i, got, ok, want[i])
		}
	}
}

// TestScenarioRemoveBundleSendsEntityBack continues scenario 1's state:
// removing (Position, Velocity) from one entity moves it to the empty
// archetype and drops it from any {Position, Velocity} match.
func TestScenarioRemoveBundleSendsEntityBack(t *testing.T) {
	r, pool, manager := newTestWorld()
	position := NewComponentType[Position](r)
	velocity := NewComponentType[Velocity](r)

	cmds := NewCommands(r, pool, manager)
	entities := make([]Entity, 4)
	for i := 0; i < 4; i++ {
		e := cmds.CreateEntity()
		entities[i] = e
		AddComponent(cmds, e, Position{X: float64(i), Y: float64(i)})
		AddComponent(cmds, e, Velocity{X: float64(i + 1), Y: float64(i + 1)})
	}
	cmds.Commit()
	manager.Commit()

	removed := entities[2]
	cmds2 := NewCommands(r, pool, manager)
	if _, err := RemoveComponents[struct {
		Position Position
		Velocity Velocity
	}](cmds2, removed); err != nil {
		t.Fatalf("RemoveComponents() error = %v", err)
	}
	cmds2.Commit()
	manager.Commit()

	q := NewQuery()
	node := q.And(position.ID(), velocity.ID())
	cursor := NewCursor(node, manager)
	count := 0
	for cursor.Next() {
		e := cursor.CurrentEntity()
		if e == removed {
			t.Errorf("removed entity %+v should not appear in the Position+Velocity match", removed)
		}
		count++
	}
	if count != 3 {
		t.Errorf("matched %d entities, want 3", count)
	}

	info, ok := pool.Info(removed)
	if !ok {
		t.Fatalf("removed entity should still be resident")
	}
	emptyArch := manager.Get(info.Archetype)
	if len(emptyArch.IDs()) != 0 {
		t.Errorf("removed entity's archetype should be empty, has ids %v", emptyArch.IDs())
	}
}

// TestScenarioParallelSafety: &mut Position / &Velocity share a group;
// two &mut Position systems must land in different groups.
func TestScenarioParallelSafety(t *testing.T) {
	r, pool, manager := newTestWorld()
	position := NewComponentType[Position](r)
	velocity := NewComponentType[Velocity](r)
	threads := NewThreadPool(2)
	defer threads.Close()
	app := &App{Registrar: r, Entities: pool, Archetypes: manager, Threads: threads}

	sch := NewSchedule("scenario3", r, pool, manager, threads, CommitScheduleEnd)

	var mu sync.Mutex
	var runs1, runs2 int
	s1 := &mutatingSystem{typ: position.ID(), runs: &runs1, mu: &mu}
	s2 := &readingSystem{typ: velocity.ID(), runs: &runs2, mu: &mu}
	if err := sch.AddSystem(app, "s1", s1, ""); err != nil {
		t.Fatalf("AddSystem(s1) error = %v", err)
	}
	if err := sch.AddSystem(app, "s2", s2, ""); err != nil {
		t.Fatalf("AddSystem(s2) error = %v", err)
	}
	if err := sch.freeze(); err != nil {
		t.Fatalf("freeze() error = %v", err)
	}
	if groupOf(sch, "s1") != groupOf(sch, "s2") {
		t.Errorf("mut Position and const Velocity should share an execution group")
	}

	sch2 := NewSchedule("scenario3b", r, pool, manager, threads, CommitScheduleEnd)
	var runs3, runs4 int
	s3 := &mutatingSystem{typ: position.ID(), runs: &runs3, mu: &mu}
	s4 := &mutatingSystem{typ: position.ID(), runs: &runs4, mu: &mu}
	if err := sch2.AddSystem(app, "s3", s3, ""); err != nil {
		t.Fatalf("AddSystem(s3) error = %v", err)
	}
	if err := sch2.AddSystem(app, "s4", s4, ""); err != nil {
		t.Fatalf("AddSystem(s4) error = %v", err)
	}
	if err := sch2.freeze(); err != nil {
		t.Fatalf("freeze() error = %v", err)
	}
	if groupOf(sch2, "s3") == groupOf(sch2, "s4") {
		t.Errorf("two mut Position systems must land in different execution groups")
	}
}

type mutatingSystem struct {
	typ  TypeID
	runs *int
	mu   *sync.Mutex
}

func (s *mutatingSystem) Initialize(app *App) error { return nil }
func (s *mutatingSystem) Configure(app *App) SystemDescriptor {
	return SystemDescriptor{All: []TypeID{s.typ}, Access: []AccessEntry{{Type: s.typ, ReadOnly: false}}}
}
func (s *mutatingSystem) Execute(app *App, matched []*Archetype, cmds *Commands) error {
	s.mu.Lock()
	*s.runs++
	s.mu.Unlock()
	return nil
}

type readingSystem struct {
	typ  TypeID
	runs *int
	mu   *sync.Mutex
}

func (s *readingSystem) Initialize(app *App) error { return nil }
func (s *readingSystem) Configure(app *App) SystemDescriptor {
	return SystemDescriptor{All: []TypeID{s.typ}, Access: []AccessEntry{{Type: s.typ, ReadOnly: true}}}
}
func (s *readingSystem) Execute(app *App, matched []*Archetype, cmds *Commands) error {
	s.mu.Lock()
	*s.runs++
	s.mu.Unlock()
	return nil
}

func groupOf(sch *Schedule, name string) int {
	idx, ok := sch.byName[name]
	if !ok {
		return -1
	}
	for gi, group := range sch.groups {
		for _, ni := range group {
			if ni == idx {
				return gi
			}
		}
	}
	return -1
}

// TestScenarioGenerationRecycling: create, remove, commit, create, commit.
// The second entity must compare unequal to the first, and the first must
// now be invalid.
func TestScenarioGenerationRecycling(t *testing.T) {
	_, pool, _ := newTestWorld()

	first := pool.Reserve()
	pool.CommitReserved(first, EntityInfo{})
	pool.MarkRemove(first)
	pool.CommitRemove(first)

	second := pool.Reserve()
	pool.CommitReserved(second, EntityInfo{})

	if first == second {
		t.Errorf("recycled slot should produce a distinct generational identity, got %+v == %+v", first, second)
	}
	if second.Generation < 1 {
		t.Errorf("second entity's generation = %d, want >= 1", second.Generation)
	}
	if pool.Valid(first) {
		t.Errorf("first entity should be invalid after being recycled")
	}
	if !pool.Valid(second) {
		t.Errorf("second entity should be valid")
	}
}

// TestScenarioArchetypeCacheInvalidation: a schedule runs once, a new
// archetype is then materialised, and the next tick's reconfiguration
// picks it up without a fresh schedule.
func TestScenarioArchetypeCacheInvalidation(t *testing.T) {
	r, pool, manager := newTestWorld()
	position := NewComponentType[Position](r)
	velocity := NewComponentType[Velocity](r)
	threads := NewThreadPool(1)
	defer threads.Close()
	app := &App{Registrar: r, Entities: pool, Archetypes: manager, Threads: threads}

	cmds := NewCommands(r, pool, manager)
	e1 := cmds.CreateEntity()
	AddComponent(cmds, e1, Position{})
	cmds.Commit()
	manager.Commit()

	sch := NewSchedule("scenario5", r, pool, manager, threads, CommitScheduleEnd)
	sys := &applyVelocity{position: position, velocity: velocity}
	if err := sch.AddSystem(app, "apply-velocity", sys, ""); err != nil {
		t.Fatalf("AddSystem() error = %v", err)
	}
	if err := sch.Execute(app); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}

	cmds2 := NewCommands(r, pool, manager)
	e2 := cmds2.CreateEntity()
	AddComponent(cmds2, e2, Position{X: 10, Y: 10})
	AddComponent(cmds2, e2, Velocity{X: 1, Y: 1})
	cmds2.Commit()
	manager.Commit()

	if err := sch.Execute(app); err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}

	got, ok := position.GetFromEntity(pool, manager, e2)
	if !ok || got.X != 11 || got.Y != 11 {
		t.Errorf("newly materialised archetype should be picked up by the next tick's reconfiguration, got %+v ok=%v", got, ok)
	}
}

// TestScenarioHoleCompaction: put 32 entities in one chunk, remove rows 5,
// 10, 20, commit, and expect 29 entities left with no holes.
func TestScenarioHoleCompaction(t *testing.T) {
	r, pool, manager := newTestWorld()
	position := NewComponentType[Position](r)

	cmds := NewCommands(r, pool, manager)
	entities := make([]Entity, 32)
	for i := 0; i < 32; i++ {
		e := cmds.CreateEntity()
		entities[i] = e
		AddComponent(cmds, e, Position{X: float64(i)})
	}
	cmds.Commit()
	manager.Commit()

	cmds2 := NewCommands(r, pool, manager)
	for _, idx := range []int{5, 10, 20} {
		cmds2.DestroyEntity(entities[idx])
	}
	cmds2.Commit()
	manager.Commit()

	q := NewQuery()
	node := q.And(position.ID())
	cursor := NewCursor(node, manager)
	if total := cursor.TotalMatched(); total != 29 {
		t.Fatalf("TotalMatched() = %d, want 29", total)
	}

	for i, e := range entities {
		switch i {
		case 5, 10, 20:
			if pool.Valid(e) {
				t.Errorf("entity %d should have been destroyed", i)
			}
		default:
			if !pool.Valid(e) {
				t.Errorf("entity %d should still be valid", i)
			}
		}
	}
}
