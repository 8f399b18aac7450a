package ecs

// AccessKind distinguishes a per-entity component parameter from a
// whole-column span parameter (§4.7).
type AccessKind int

const (
	// AccessComponent is an owned-reference parameter (T / &T / &mut T).
	AccessComponent AccessKind = iota
	// AccessSpan is a whole-column span parameter ([]T / []T read-only).
	AccessSpan
)

// AccessEntry is one parameter's declared access: which component type,
// whether it's read-only, and whether it's per-entity or a column span.
type AccessEntry struct {
	Type     TypeID
	ReadOnly bool
	Kind     AccessKind
}

// SystemDescriptor is what Configure returns: the archetype filter plus
// the system's declared parameter access set (§4.7).
type SystemDescriptor struct {
	All, Any, None []TypeID
	GroupSize      int
	Access         []AccessEntry
}

// Disabled is a marker component: zero size, carries no per-entity data,
// and is used only as a filter entry. AddSystem/AddSystemGroup implicitly
// add it to every system's None filter unless the author already named it
// in All or Any, giving hosts a default way to pull an entity out of every
// system's matched set without touching its other components (§6).
type Disabled struct{}

func containsTypeID(ids []TypeID, id TypeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// validate rejects shapes the adapter contract calls ill-formed: mixing
// per-entity component parameters with a column span parameter, requiring
// and excluding the same component, or a zero-size component used as a
// per-entity parameter (it must be filter-only, §7/§8).
func (d SystemDescriptor) validate(name string, registrar *TypeRegistrar) error {
	hasComponent, hasSpan := false, false
	for _, a := range d.Access {
		switch a.Kind {
		case AccessComponent:
			hasComponent = true
			if info, ok := registrar.GetTypeInfo(a.Type); ok && info.Size == 0 {
				return SystemShapeError{System: name, Reason: "a zero-size component cannot be used as a per-entity parameter; it may only appear in a filter"}
			}
		case AccessSpan:
			hasSpan = true
		}
	}
	if hasComponent && hasSpan {
		return SystemShapeError{System: name, Reason: "per-entity component parameters and a column span parameter are mutually exclusive"}
	}
	for _, n := range d.None {
		for _, a := range d.All {
			if a == n {
				return SystemShapeError{System: name, Reason: "a component cannot be both required and excluded"}
			}
		}
	}
	return nil
}

// accessRequires collects the distinct component types named by a
// descriptor's Access entries, in first-seen order. This is the
// `type_requires` Schedule passes to ArchetypeManager.Match — derived
// automatically from the system's own declared parameters rather than
// relying on the author to mirror them into All, so an Access entry
// can never silently fall outside the archetype set actually iterated
// (§4.5).
func (d SystemDescriptor) accessRequires() []TypeID {
	if len(d.Access) == 0 {
		return nil
	}
	seen := make(map[TypeID]bool, len(d.Access))
	out := make([]TypeID, 0, len(d.Access))
	for _, a := range d.Access {
		if seen[a.Type] {
			continue
		}
		seen[a.Type] = true
		out = append(out, a.Type)
	}
	return out
}

// canRunParallel reports whether two descriptors' access sets may run
// concurrently: two reads of the same type never conflict, any write
// does (§4.8).
func canRunParallel(a, b SystemDescriptor) bool {
	for _, x := range a.Access {
		for _, y := range b.Access {
			if x.Type != y.Type {
				continue
			}
			if !(x.ReadOnly && y.ReadOnly) {
				return false
			}
		}
	}
	return true
}

// System is the adapter surface a schedule drives: initialize once,
// configure whenever the matched-archetype set may have changed, and
// execute once per schedule tick (§4.7).
type System interface {
	// Initialize registers the component/resource types this system
	// reads or writes and performs any one-time setup.
	Initialize(app *App) error

	// Configure returns the system's current filter and access set. The
	// schedule calls this again whenever a new archetype is created.
	Configure(app *App) SystemDescriptor

	// Execute runs the system body against its matched archetypes using
	// the Commands buffer bound to the calling worker.
	Execute(app *App, matched []*Archetype, cmds *Commands) error
}

// systemNode is a schedule's bookkeeping for one installed system.
type systemNode struct {
	name          string
	system        System
	descriptor    SystemDescriptor
	matched       []*Archetype
	parent        int // index into the schedule's node list, -1 for root
	configuredGen uint64
}
