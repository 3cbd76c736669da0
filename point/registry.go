package point

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry maps request paths to publishing points. At most one point
// exists per path at any time.
type Registry struct {
	points map[string]*PublishingPoint
	hooks  *Hooks
	mtx    *sync.RWMutex
	log    *logrus.Entry
}

// NewRegistry returns an empty registry. hooks are handed to every point the
// registry creates and may be nil.
func NewRegistry(hooks *Hooks) *Registry {
	return &Registry{
		points: make(map[string]*PublishingPoint),
		hooks:  hooks,
		mtx:    &sync.RWMutex{},
		log:    logrus.WithField("pkg", "point/registry"),
	}
}

// Create registers a new, not-ready point for path. ok is false (and the
// point nil) if path is already taken; the existing point is not returned
// so that a second publisher can never get hold of it.
func (r *Registry) Create(path string) (p *PublishingPoint, ok bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, exists := r.points[path]; exists {
		return nil, false
	}

	p = New(path, r.hooks)
	r.points[path] = p

	r.log.Debugf("created publishing point '%s'", path)

	return p, true
}

// Get returns the point registered under path
func (r *Registry) Get(path string) (*PublishingPoint, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	p, ok := r.points[path]

	return p, ok
}

// Remove deletes path from the registry. Removing an absent path is a no-op.
// The point itself is not closed.
func (r *Registry) Remove(path string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.points[path]; !ok {
		return
	}

	delete(r.points, path)

	r.log.Debugf("removed publishing point '%s'", path)
}

// Release removes p's path only while p is still the point registered under
// it, so a finished publisher cannot remove a successor's point.
func (r *Registry) Release(p *PublishingPoint) bool {
	if p == nil {
		return false
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if current, ok := r.points[p.path]; !ok || current != p {
		return false
	}

	delete(r.points, p.path)

	r.log.Debugf("released publishing point '%s'", p.path)

	return true
}

// List returns every registered point ordered by path
func (r *Registry) List() []*PublishingPoint {
	r.mtx.RLock()

	points := make([]*PublishingPoint, 0, len(r.points))

	for _, p := range r.points {
		points = append(points, p)
	}

	r.mtx.RUnlock()

	sort.Slice(points, func(i, j int) bool {
		return points[i].path < points[j].path
	})

	return points
}

func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	return len(r.points)
}

// CloseAll closes every registered point and empties the registry. Points
// are closed outside the registry lock so a slow subscriber on one point
// does not block lookups.
func (r *Registry) CloseAll() {
	r.mtx.Lock()

	points := make([]*PublishingPoint, 0, len(r.points))

	for path, p := range r.points {
		points = append(points, p)
		delete(r.points, path)
	}

	r.mtx.Unlock()

	for _, p := range points {
		p.Close()
	}

	r.log.Debugf("closed %d publishing point(s)", len(points))
}
