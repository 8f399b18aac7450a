package ecs

// CommitPoint controls when a schedule drains its workers' Commands
// buffers into archetype storage (§4.8).
type CommitPoint int

const (
	// CommitSynchronization drains after every execution group.
	CommitSynchronization CommitPoint = iota
	// CommitScheduleEnd defers all draining to a single pass at the end.
	CommitScheduleEnd
)

// scheduleState is the per-schedule state machine of §4.8:
// Unfrozen -> Frozen -> {Executing -> Frozen}*.
type scheduleState int

const (
	stateUnfrozen scheduleState = iota
	stateFrozen
	stateExecuting
)

// Schedule owns a DAG of (system, access-set, filter) nodes with a
// synthetic root, batches it into parallel execution groups, and drives
// systems against a ThreadPool (§4.8).
type Schedule struct {
	Name string

	registrar *TypeRegistrar
	pool      *EntityPool
	manager   *ArchetypeManager
	threads   *ThreadPool

	commitPoint CommitPoint

	nodes    []*systemNode
	parentOf []int // parentOf[i]: index of i's parent, or -1 for root
	byName   map[string]int

	state  scheduleState
	groups [][]int // node indices, by batch

	buffers    []*Commands // one per worker
	lastGen    uint64
	configured bool
}

// NewSchedule creates an empty schedule bound to one world's state.
func NewSchedule(name string, registrar *TypeRegistrar, pool *EntityPool, manager *ArchetypeManager, threads *ThreadPool, commitPoint CommitPoint) *Schedule {
	workers := 1
	if threads != nil {
		workers = DefaultWorkerCount()
	}
	buffers := make([]*Commands, workers)
	for i := range buffers {
		buffers[i] = NewCommands(registrar, pool, manager)
	}
	return &Schedule{
		Name:        name,
		registrar:   registrar,
		pool:        pool,
		manager:     manager,
		threads:     threads,
		commitPoint: commitPoint,
		byName:      make(map[string]int),
		buffers:     buffers,
	}
}

// AddSystem appends a node for sys. If after is non-empty, the new node
// is made a child of the named node; otherwise the parent is chosen by
// scanning existing nodes in insertion order and taking the last one
// that cannot run in parallel with sys, or the root if none conflict
// (§4.8 add_system).
func (s *Schedule) AddSystem(app *App, name string, sys System, after string) error {
	if err := sys.Initialize(app); err != nil {
		return err
	}
	desc := sys.Configure(app)
	if err := desc.validate(name, s.registrar); err != nil {
		return err
	}
	s.excludeDisabledByDefault(&desc)

	parent := -1
	if after != "" {
		idx, ok := s.byName[after]
		if !ok {
			return AfterNotFoundError{Name: after}
		}
		parent = idx
	} else {
		for i, n := range s.nodes {
			if !canRunParallel(desc, n.descriptor) {
				parent = i
			}
		}
	}

	node := &systemNode{name: name, system: sys, descriptor: desc, parent: parent}
	idx := len(s.nodes)
	s.nodes = append(s.nodes, node)
	s.parentOf = append(s.parentOf, parent)
	s.byName[name] = idx

	s.state = stateUnfrozen
	return nil
}

// excludeDisabledByDefault adds the Disabled marker to desc.None unless
// the author already named it in All or Any, so a system never has to
// opt into ignoring disabled entities itself (§6).
func (s *Schedule) excludeDisabledByDefault(desc *SystemDescriptor) {
	disabled := RegisterComponent[Disabled](s.registrar, 0)
	if containsTypeID(desc.All, disabled) || containsTypeID(desc.Any, disabled) || containsTypeID(desc.None, disabled) {
		return
	}
	desc.None = append(desc.None, disabled)
}

// AddSystemGroup adds every system in sys as siblings under the same
// parent, the "nested tuple" sibling-group shape of §4.8's add_systems:
// outer calls run sequentially, one group's systems may run in parallel
// with each other.
func (s *Schedule) AddSystemGroup(app *App, names []string, sys []System, after string) error {
	if len(names) != len(sys) {
		return InvalidArgumentError{Reason: "AddSystemGroup: names and sys must be the same length"}
	}
	parent := -1
	if after != "" {
		idx, ok := s.byName[after]
		if !ok {
			return AfterNotFoundError{Name: after}
		}
		parent = idx
	} else {
		for i, n := range s.nodes {
			conflicts := false
			for _, sy := range sys {
				if !canRunParallel(sy.Configure(app), n.descriptor) {
					conflicts = true
					break
				}
			}
			if conflicts {
				parent = i
			}
		}
	}

	for i, sy := range sys {
		if err := sy.Initialize(app); err != nil {
			return err
		}
		desc := sy.Configure(app)
		if err := desc.validate(names[i], s.registrar); err != nil {
			return err
		}
		s.excludeDisabledByDefault(&desc)
		node := &systemNode{name: names[i], system: sy, descriptor: desc, parent: parent}
		idx := len(s.nodes)
		s.nodes = append(s.nodes, node)
		s.parentOf = append(s.parentOf, parent)
		s.byName[names[i]] = idx
	}
	s.state = stateUnfrozen
	return nil
}

// ClearSystems rebuilds the DAG with only the root.
func (s *Schedule) ClearSystems() {
	s.nodes = nil
	s.parentOf = nil
	s.byName = make(map[string]int)
	s.groups = nil
	s.state = stateUnfrozen
}

// freeze batches nodes into execution groups via Kahn's algorithm. Every
// node has exactly one incoming edge (from its parent), so this reduces
// to grouping by depth-from-root; a parent index always refers to an
// earlier-inserted node (or -1 for root), so this construction can never
// produce a cycle — GraphCycleError exists for the error catalog (§5)
// but freeze never actually returns it.
func (s *Schedule) freeze() error {
	depth := make([]int, len(s.nodes))
	maxDepth := 0
	for i := range s.nodes {
		if s.parentOf[i] < 0 {
			depth[i] = 0
		} else if s.parentOf[i] < i {
			depth[i] = depth[s.parentOf[i]] + 1
		} else {
			return GraphCycleError{Schedule: s.Name}
		}
		if depth[i] > maxDepth {
			maxDepth = depth[i]
		}
	}
	groups := make([][]int, maxDepth+1)
	for i := range s.nodes {
		groups[depth[i]] = append(groups[depth[i]], i)
	}
	s.groups = groups
	s.state = stateFrozen
	return nil
}

// reconfigureIfStale re-runs Configure for every node once the archetype
// manager's generation counter has advanced since the last check (§4.8).
func (s *Schedule) reconfigureIfStale(app *App) {
	gen := s.manager.Generation()
	if s.configured && gen == s.lastGen {
		return
	}
	for _, n := range s.nodes {
		desc := n.system.Configure(app)
		requires := desc.accessRequires()
		if len(requires) == 0 {
			// Component-less system: dispatched exactly once per tick with
			// no archetype iteration, per the resolved open question (§9).
			n.matched = nil
			continue
		}
		s.excludeDisabledByDefault(&desc)
		n.matched = s.manager.Match(desc.All, desc.Any, desc.None, requires)
	}
	s.lastGen = gen
	s.configured = true
}

// Execute runs one tick of the schedule: freezing on first use,
// reconfiguring stale matches, dispatching each batch either serially
// or across the thread pool, and draining Commands per the configured
// commit point (§4.8).
func (s *Schedule) Execute(app *App) error {
	if s.state == stateUnfrozen {
		if err := s.freeze(); err != nil {
			return err
		}
	}
	s.state = stateExecuting
	s.reconfigureIfStale(app)

	for _, group := range s.groups {
		if err := s.runGroup(app, group); err != nil {
			return err
		}
		if s.commitPoint == CommitSynchronization {
			s.commitAll()
		}
	}
	if s.commitPoint == CommitScheduleEnd {
		s.commitAll()
	}
	s.state = stateFrozen
	return nil
}

func (s *Schedule) runGroup(app *App, group []int) error {
	if len(group) == 0 {
		return nil
	}
	if s.threads == nil || len(group) == 1 {
		for _, idx := range group {
			n := s.nodes[idx]
			if err := n.system.Execute(app, n.matched, s.buffers[0]); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, len(group))
	for gi, idx := range group {
		n := s.nodes[idx]
		gi, n := gi, n
		s.threads.Dispatch(func(workerID int) {
			buf := s.buffers[workerID%len(s.buffers)]
			errs[gi] = n.system.Execute(app, n.matched, buf)
		})
	}
	s.threads.WaitAll()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Schedule) commitAll() {
	for _, buf := range s.buffers {
		buf.Commit()
	}
	s.manager.Commit()
}
