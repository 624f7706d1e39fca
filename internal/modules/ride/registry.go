// README: Ride registry holding the active and history collections.
package ride

import "quickride/internal/types"

// Registry owns both ride collections, most recent first. It has no lock of
// its own: every call must happen inside a loop step.
type Registry struct {
	active  []*Ride
	history []*Ride
}

func NewRegistry() *Registry {
	return &Registry{}
}

// InsertActive puts ride at the head of the active collection.
func (r *Registry) InsertActive(ride *Ride) error {
	if r.contains(ride.ID) {
		return ErrDuplicateRide
	}
	r.active = prepend(r.active, ride)
	return nil
}

// SeedHistory puts ride at the head of the history collection without it
// ever having been active.
func (r *Registry) SeedHistory(ride *Ride) error {
	if r.contains(ride.ID) {
		return ErrDuplicateRide
	}
	r.history = prepend(r.history, ride)
	return nil
}

// Archive applies fn to the active ride with id and moves it to the head of
// the history collection in the same call. It reports false if id is not
// active.
func (r *Registry) Archive(id types.ID, fn func(*Ride)) bool {
	i := indexOf(r.active, id)
	if i < 0 {
		return false
	}
	ride := r.active[i]
	if fn != nil {
		fn(ride)
	}
	r.active = append(r.active[:i], r.active[i+1:]...)
	r.history = prepend(r.history, ride)
	return true
}

// UpdateByID applies fn to the ride with id inside collection c. Missing ids
// are a no-op.
func (r *Registry) UpdateByID(c Collection, id types.ID, fn func(*Ride)) bool {
	list := r.list(c)
	i := indexOf(list, id)
	if i < 0 {
		return false
	}
	fn(list[i])
	return true
}

// Update applies fn to the ride with id in whichever collection holds it.
func (r *Registry) Update(id types.ID, fn func(*Ride)) (Collection, bool) {
	for _, c := range []Collection{CollectionActive, CollectionHistory} {
		if r.UpdateByID(c, id, fn) {
			return c, true
		}
	}
	return 0, false
}

// RemoveByID deletes the ride from whichever collection holds it.
func (r *Registry) RemoveByID(id types.ID) (Collection, bool) {
	if i := indexOf(r.active, id); i >= 0 {
		r.active = append(r.active[:i], r.active[i+1:]...)
		return CollectionActive, true
	}
	if i := indexOf(r.history, id); i >= 0 {
		r.history = append(r.history[:i], r.history[i+1:]...)
		return CollectionHistory, true
	}
	return 0, false
}

// FindByID searches both collections and returns a copy of the ride.
func (r *Registry) FindByID(id types.ID) (Ride, Collection, bool) {
	if i := indexOf(r.active, id); i >= 0 {
		return r.active[i].Clone(), CollectionActive, true
	}
	if i := indexOf(r.history, id); i >= 0 {
		return r.history[i].Clone(), CollectionHistory, true
	}
	return Ride{}, 0, false
}

func (r *Registry) Active() []Ride {
	return snapshot(r.active)
}

func (r *Registry) History() []Ride {
	return snapshot(r.history)
}

func (r *Registry) Len() (active, history int) {
	return len(r.active), len(r.history)
}

func (r *Registry) contains(id types.ID) bool {
	return indexOf(r.active, id) >= 0 || indexOf(r.history, id) >= 0
}

func (r *Registry) list(c Collection) []*Ride {
	if c == CollectionHistory {
		return r.history
	}
	if c == CollectionActive {
		return r.active
	}
	return nil
}

func indexOf(list []*Ride, id types.ID) int {
	for i, ride := range list {
		if ride.ID == id {
			return i
		}
	}
	return -1
}

func prepend(list []*Ride, ride *Ride) []*Ride {
	list = append(list, nil)
	copy(list[1:], list)
	list[0] = ride
	return list
}

func snapshot(list []*Ride) []Ride {
	out := make([]Ride, len(list))
	for i, ride := range list {
		out[i] = ride.Clone()
	}
	return out
}
