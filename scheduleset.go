package ecs

// ScheduleSet is an ordered sequence of schedules; each tick walks them
// in order, optionally stopping at a named schedule (§4.9). Name
// lookup reuses the teacher's SimpleCache pattern, the same O(1)
// name-to-slot trick cache.go gives archetype accessors.
type ScheduleSet struct {
	cache        *SimpleCache[*Schedule]
	order        []int // dense indices into cache, in run order
	clearPending bool
}

// NewScheduleSet creates a set that can hold at most capacity schedules.
func NewScheduleSet(capacity int) *ScheduleSet {
	return &ScheduleSet{cache: NewSimpleCache[*Schedule](capacity)}
}

// Add appends sch under name. If after is non-empty, sch is positioned
// immediately after the named schedule in run order instead of at the
// end (§4.9 "Adding supports after by name").
func (s *ScheduleSet) Add(name string, sch *Schedule, after string) error {
	if _, ok := s.cache.GetIndex(name); ok {
		return ScheduleExistsError{Name: name}
	}
	idx, err := s.cache.Register(name, sch)
	if err != nil {
		return err
	}
	if after == "" {
		s.order = append(s.order, idx)
		return nil
	}
	afterIdx, ok := s.cache.GetIndex(after)
	if !ok {
		return AfterNotFoundError{Name: after}
	}
	pos := -1
	for i, oi := range s.order {
		if oi == afterIdx {
			pos = i
			break
		}
	}
	if pos == -1 {
		return AfterNotFoundError{Name: after}
	}
	rest := append([]int{idx}, s.order[pos+1:]...)
	s.order = append(s.order[:pos+1], rest...)
	return nil
}

// Get returns the named schedule.
func (s *ScheduleSet) Get(name string) (*Schedule, bool) {
	idx, ok := s.cache.GetIndex(name)
	if !ok {
		return nil, false
	}
	return *s.cache.GetItem(idx), true
}

// Run walks every schedule in order.
func (s *ScheduleSet) Run(app *App) error {
	for _, idx := range s.order {
		if err := (*s.cache.GetItem(idx)).Execute(app); err != nil {
			return err
		}
	}
	s.afterTick()
	return nil
}

// RunUntil walks schedules in order, stopping after the named one runs.
func (s *ScheduleSet) RunUntil(app *App, stopAt string) error {
	stopIdx, ok := s.cache.GetIndex(stopAt)
	if !ok {
		return AfterNotFoundError{Name: stopAt}
	}
	for _, idx := range s.order {
		if err := (*s.cache.GetItem(idx)).Execute(app); err != nil {
			return err
		}
		if idx == stopIdx {
			break
		}
	}
	s.afterTick()
	return nil
}

// Clear requests the set be emptied; deferred until the current tick
// (any in-flight Run/RunUntil) finishes (§4.9).
func (s *ScheduleSet) Clear() {
	s.clearPending = true
}

func (s *ScheduleSet) afterTick() {
	if !s.clearPending {
		return
	}
	s.cache.Clear()
	s.order = nil
	s.clearPending = false
}
