package ecs

import "testing"

type gameConfig struct {
	MaxPlayers int
	MapName    string
}

func TestResourcePoolAddGet(t *testing.T) {
	p := NewResourcePool()
	if err := AddResource(p, gameConfig{MaxPlayers: 4, MapName: "atrium"}); err != nil {
		t.Fatalf("AddResource() error = %v", err)
	}

	cfg, err := GetResource[gameConfig](p)
	if err != nil {
		t.Fatalf("GetResource() error = %v", err)
	}
	if cfg.MaxPlayers != 4 || cfg.MapName != "atrium" {
		t.Errorf("got %+v, want {4 atrium}", *cfg)
	}

	cfg.MaxPlayers = 8
	cfg2, _ := GetResource[gameConfig](p)
	if cfg2.MaxPlayers != 8 {
		t.Errorf("GetResource should return a stable pointer into pool storage, got MaxPlayers=%d", cfg2.MaxPlayers)
	}
}

func TestResourcePoolDuplicateAdd(t *testing.T) {
	p := NewResourcePool()
	if err := AddResource(p, gameConfig{}); err != nil {
		t.Fatalf("first AddResource() error = %v", err)
	}
	if err := AddResource(p, gameConfig{}); err == nil {
		t.Fatalf("second AddResource() of the same type should fail")
	}
}

func TestResourcePoolMissingGet(t *testing.T) {
	p := NewResourcePool()
	if _, err := GetResource[gameConfig](p); err == nil {
		t.Fatalf("GetResource() on an empty pool should fail")
	}
	if HasResource[gameConfig](p) {
		t.Fatalf("HasResource() should report false before AddResource")
	}
}

func TestEventQueueSwap(t *testing.T) {
	p := NewResourcePool()
	if err := AddEventQueue[int](p); err != nil {
		t.Fatalf("AddEventQueue() error = %v", err)
	}
	q, err := GetEventQueue[int](p)
	if err != nil {
		t.Fatalf("GetEventQueue() error = %v", err)
	}

	q.Write(1)
	q.Write(2)
	if len(q.Read()) != 0 {
		t.Fatalf("events should not be readable before Swap")
	}

	q.Swap()
	if got := q.Read(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Read() = %v, want [1 2]", got)
	}

	q.Write(3)
	q.Swap()
	if got := q.Read(); len(got) != 1 || got[0] != 3 {
		t.Errorf("Read() after second Swap = %v, want [3]", got)
	}
}

func TestHierarchyParentChild(t *testing.T) {
	_, pool, _ := newTestWorld()
	h := NewHierarchy(pool)

	parent := pool.Reserve()
	pool.CommitReserved(parent, EntityInfo{})
	child := pool.Reserve()
	pool.CommitReserved(child, EntityInfo{})

	destroyed := false
	if err := h.SetParent(child, parent, func(Entity) { destroyed = true }); err != nil {
		t.Fatalf("SetParent() error = %v", err)
	}

	got, ok := h.Parent(child)
	if !ok || got != parent {
		t.Fatalf("Parent() = %v, %v, want %v, true", got, ok, parent)
	}

	if err := h.SetParent(child, parent, nil); err == nil {
		t.Fatalf("SetParent() should refuse a child that already has a live parent")
	}

	h.Notify(parent)
	if !destroyed {
		t.Fatalf("destroy callback should have run")
	}
}
