package ecs

import "testing"

func TestEntityOperationsQueueDefersWhileLocked(t *testing.T) {
	r, pool, manager := newTestWorld()
	cmds := NewCommands(r, pool, manager)
	q := &entityOperationsQueue{}

	q.Lock()
	if !q.Locked() {
		t.Fatalf("Locked() should be true after Lock()")
	}

	var created Entity
	if err := q.Enqueue(CreateEntityOp{Result: &created}, cmds); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if created != (Entity{}) {
		t.Fatalf("op should not have run while locked, got %+v", created)
	}

	if err := q.Unlock(cmds); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if q.Locked() {
		t.Fatalf("Locked() should be false after matching Unlock()")
	}
	cmds.Commit()
	manager.Commit()

	if created == (Entity{}) {
		t.Fatalf("op should have run once the lock released")
	}
	if !pool.Valid(created) {
		t.Fatalf("entity created via deferred op should be valid: %+v", created)
	}
}

func TestEntityOperationsQueueNestedLocks(t *testing.T) {
	r, pool, manager := newTestWorld()
	cmds := NewCommands(r, pool, manager)
	q := &entityOperationsQueue{}

	q.Lock()
	q.Lock()

	var created Entity
	q.Enqueue(CreateEntityOp{Result: &created}, cmds)

	if err := q.Unlock(cmds); err != nil {
		t.Fatalf("first Unlock() error = %v", err)
	}
	if created != (Entity{}) {
		t.Fatalf("op should still be deferred with one lock remaining")
	}

	if err := q.Unlock(cmds); err != nil {
		t.Fatalf("second Unlock() error = %v", err)
	}
	cmds.Commit()
	manager.Commit()
	if created == (Entity{}) {
		t.Fatalf("op should have run once every lock released")
	}
}

func TestEntityOperationsQueueAppliesImmediatelyWhenUnlocked(t *testing.T) {
	r, pool, manager := newTestWorld()
	cmds := NewCommands(r, pool, manager)
	q := &entityOperationsQueue{}

	var created Entity
	if err := q.Enqueue(CreateEntityOp{Result: &created}, cmds); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	cmds.Commit()
	manager.Commit()

	if created == (Entity{}) {
		t.Fatalf("op should have run immediately when unlocked")
	}
}

func TestDestroyEntityOpAndRemoveComponentsOp(t *testing.T) {
	r, pool, manager := newTestWorld()
	position := NewComponentType[Position](r)
	velocity := NewComponentType[Velocity](r)

	cmds := NewCommands(r, pool, manager)
	e := cmds.CreateEntity()
	AddComponent(cmds, e, Position{X: 1})
	AddComponent(cmds, e, Velocity{X: 2})
	cmds.Commit()
	manager.Commit()

	q := &entityOperationsQueue{}
	cmds2 := NewCommands(r, pool, manager)
	if err := q.Enqueue(RemoveComponentsOp{Entity: e, IDs: []TypeID{velocity.ID()}}, cmds2); err != nil {
		t.Fatalf("Enqueue(RemoveComponentsOp) error = %v", err)
	}
	cmds2.Commit()
	manager.Commit()

	if _, ok := velocity.GetFromEntity(pool, manager, e); ok {
		t.Fatalf("Velocity should have been removed")
	}
	if pos, ok := position.GetFromEntity(pool, manager, e); !ok || pos.X != 1 {
		t.Fatalf("Position should be unaffected, got %+v, ok=%v", pos, ok)
	}

	cmds3 := NewCommands(r, pool, manager)
	if err := q.Enqueue(DestroyEntityOp{Entity: e}, cmds3); err != nil {
		t.Fatalf("Enqueue(DestroyEntityOp) error = %v", err)
	}
	cmds3.Commit()
	manager.Commit()

	if pool.Valid(e) {
		t.Fatalf("entity should be invalid after DestroyEntityOp")
	}
}
