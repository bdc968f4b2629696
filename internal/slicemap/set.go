package slicemap

import (
	"fmt"

	"github.com/san-kum/vlsens/internal/state"
)

// Set holds the maps of every loaded entity, in kernel order.
type Set struct {
	surfNames []string
	bodyNames []string
	surfaces  map[string]*SurfaceMap
	bodies    map[string]*BodyMap
	mirrors   map[string]string
}

// Build maps every surface and body recorded in st. Entity names come from
// the title variables; images are recognised by a negative image flag.
func Build(st *state.Store) *Set {
	s := &Set{
		surfaces: make(map[string]*SurfaceMap),
		bodies:   make(map[string]*BodyMap),
		mirrors:  make(map[string]string),
	}
	nsurf := st.GetInt(state.NSurf)
	for i := 0; i < nsurf; i++ {
		name := st.GetString(state.SurfTitle, i)
		s.surfNames = append(s.surfNames, name)
		if st.GetInt(state.IMags, i) < 0 {
			s.mirrors[name] = st.GetString(state.SurfTitle, st.GetInt(state.ISurfD, i))
			continue
		}
		s.surfaces[name] = BuildSurface(st, name, i)
	}
	nbody := st.GetInt(state.NBody)
	for i := 0; i < nbody; i++ {
		name := st.GetString(state.BodyTitle, i)
		s.bodyNames = append(s.bodyNames, name)
		if st.GetInt(state.IMagB, i) < 0 {
			s.mirrors[name] = st.GetString(state.BodyTitle, st.GetInt(state.IBodyD, i))
			continue
		}
		s.bodies[name] = BuildBody(st, name, i)
	}
	return s
}

// Surface returns the map of an unmirrored surface.
func (s *Set) Surface(name string) (*SurfaceMap, error) {
	if m, ok := s.surfaces[name]; ok {
		return m, nil
	}
	if src, ok := s.mirrors[name]; ok {
		return nil, fmt.Errorf("%w: %q mirrors %q", ErrNotIndependentlySettable, name, src)
	}
	return nil, fmt.Errorf("%w: surface %q", ErrUnknownEntity, name)
}

// Body returns the map of an unmirrored body.
func (s *Set) Body(name string) (*BodyMap, error) {
	if m, ok := s.bodies[name]; ok {
		return m, nil
	}
	if src, ok := s.mirrors[name]; ok {
		return nil, fmt.Errorf("%w: %q mirrors %q", ErrNotIndependentlySettable, name, src)
	}
	return nil, fmt.Errorf("%w: body %q", ErrUnknownEntity, name)
}

// RebuildSurface remaps one surface after its section or attachment counts changed.
func (s *Set) RebuildSurface(st *state.Store, name string) (*SurfaceMap, error) {
	m, err := s.Surface(name)
	if err != nil {
		return nil, err
	}
	nm := BuildSurface(st, name, m.Index)
	s.surfaces[name] = nm
	return nm, nil
}

// SurfaceNames lists surfaces in kernel order; with unique set, images are left out.
func (s *Set) SurfaceNames(unique bool) []string {
	return s.names(s.surfNames, unique)
}

// BodyNames lists bodies in kernel order; with unique set, images are left out.
func (s *Set) BodyNames(unique bool) []string {
	return s.names(s.bodyNames, unique)
}

func (s *Set) names(all []string, unique bool) []string {
	out := make([]string, 0, len(all))
	for _, n := range all {
		if unique {
			if _, mirrored := s.mirrors[n]; mirrored {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// MirrorOf returns the source of a mirrored entity.
func (s *Set) MirrorOf(name string) (string, bool) {
	src, ok := s.mirrors[name]
	return src, ok
}

// SurfaceIndex returns the kernel index of any surface, images included.
func (s *Set) SurfaceIndex(name string) (int, bool) {
	for i, n := range s.surfNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}
