package refvlm

import (
	"fmt"
	"math"

	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/kernel"
	"github.com/san-kum/vlsens/internal/state"
)

// surfGeom is the differentiable geometry of one source surface, read from
// either the primal store or a seed store.
type surfGeom struct {
	le     [][3]float64
	chord  []float64
	ainc   []float64
	claf   []float64
	scale  [3]float64
	trans  [3]float64
	addinc float64
}

func readSurface(st *state.Store, src, nsec int) surfGeom {
	g := surfGeom{
		le:     make([][3]float64, nsec),
		chord:  make([]float64, nsec),
		ainc:   make([]float64, nsec),
		claf:   make([]float64, nsec),
		addinc: st.Get(state.AddInc, src),
	}
	for c := 0; c < 3; c++ {
		g.scale[c] = st.Get(state.XYZScal, src, c)
		g.trans[c] = st.Get(state.XYZTran, src, c)
	}
	for j := 0; j < nsec; j++ {
		for c := 0; c < 3; c++ {
			g.le[j][c] = st.Get(state.XYZLES, src, j, c)
		}
		g.chord[j] = st.Get(state.Chords, src, j)
		g.ainc[j] = st.Get(state.AIncs, src, j)
		g.claf[j] = st.Get(state.CLAF, src, j)
	}
	return g
}

// addSurface accumulates g into the seed store st.
func addSurface(st *state.Store, src int, g surfGeom) {
	add := func(v state.Var, x float64, idx ...int) {
		if x != 0 {
			st.Set(v, st.Get(v, idx...)+x, idx...)
		}
	}
	add(state.AddInc, g.addinc, src)
	for c := 0; c < 3; c++ {
		add(state.XYZScal, g.scale[c], src, c)
		add(state.XYZTran, g.trans[c], src, c)
	}
	for j := range g.chord {
		for c := 0; c < 3; c++ {
			add(state.XYZLES, g.le[j][c], src, j, c)
		}
		add(state.Chords, g.chord[j], src, j)
		add(state.AIncs, g.ainc[j], src, j)
		add(state.CLAF, g.claf[j], src, j)
	}
}

// point returns the placed leading edge of section j.
func (g surfGeom) point(j int) [3]float64 {
	var p [3]float64
	for c := 0; c < 3; c++ {
		p[c] = g.le[j][c]*g.scale[c] + g.trans[c]
	}
	return p
}

// pointDot is the tangent of point.
func pointDot(g, gd surfGeom, j int) [3]float64 {
	var p [3]float64
	for c := 0; c < 3; c++ {
		p[c] = gd.le[j][c]*g.scale[c] + g.le[j][c]*gd.scale[c] + gd.trans[c]
	}
	return p
}

// surfaceLayout describes where one surface's strips live.
type surfaceLayout struct {
	isurf, src int
	image      bool
	nsec       int
	first      int
}

func (k *Kernel) source(isurf int) int {
	if k.p.GetInt(state.IMags, isurf) < 0 {
		return k.p.GetInt(state.ISurfD, isurf)
	}
	return isurf
}

// layout assigns strip ranges to every committed surface.
func (k *Kernel) layout() ([]surfaceLayout, error) {
	p := k.p
	nsurf := p.GetInt(state.NSurf)
	if nsurf == 0 {
		return nil, kernel.ErrNoGeometry
	}
	out := make([]surfaceLayout, 0, nsurf)
	first := 0
	for i := 0; i < nsurf; i++ {
		src := k.source(i)
		nsec := p.GetInt(state.NSec, src)
		if nsec < 2 {
			return nil, fmt.Errorf("refvlm: surface %d has %d sections", i, nsec)
		}
		nj := nsec - 1
		if first+nj > state.NSMAX {
			return nil, fmt.Errorf("refvlm: %d strips exceed limit %d", first+nj, state.NSMAX)
		}
		p.Set(state.JFrst, float64(first), i)
		p.Set(state.NJ, float64(nj), i)
		out = append(out, surfaceLayout{isurf: i, src: src, image: src != i, nsec: nsec, first: first})
		first += nj
	}
	p.Set(state.NStrip, float64(first))
	p.Set(state.NVor, float64(first))
	return out, nil
}

// MakeSurface finalizes the surface at isurf from its section data.
func (k *Kernel) MakeSurface(isurf int) error {
	if isurf < 0 || isurf >= state.NFMAX {
		return fmt.Errorf("refvlm: surface index %d out of range", isurf)
	}
	k.p.Set(state.IMags, 1, isurf)
	k.p.Set(state.ISurfD, float64(isurf), isurf)
	return k.UpdateSurfaces()
}

// DuplicateSurface fills slot isurf+1 with the image of isurf about the
// plane y = ydup. The caller advances NSURF.
func (k *Kernel) DuplicateSurface(isurf int, ydup float64) error {
	p := k.p
	img := isurf + 1
	if img >= state.NFMAX {
		return fmt.Errorf("refvlm: no room for image of surface %d", isurf)
	}
	p.SetBool(state.LDupl, true, isurf)
	p.Set(state.YDupl, ydup, isurf)
	p.Set(state.IMags, -1, img)
	p.Set(state.ISurfD, float64(isurf), img)
	for _, v := range []state.Var{state.NSec, state.NVC, state.NVS, state.Component, state.AirfoilSpec} {
		p.Set(v, p.Get(v, isurf), img)
	}
	for _, v := range []state.Var{state.LFWake, state.LFAlbe, state.LFLoad} {
		p.Set(v, p.Get(v, isurf), img)
	}
	return nil
}

// UpdateSurfaces rebuilds every strip and the influence matrix.
func (k *Kernel) UpdateSurfaces() error {
	ls, err := k.layout()
	if err != nil {
		return err
	}
	for _, l := range ls {
		if err := k.surfaceStrips(l); err != nil {
			return err
		}
	}
	if err := k.buildInfluence(); err != nil {
		return err
	}
	k.p.SetBool(state.LGeo, true)
	return nil
}

func (k *Kernel) zeroLiftAngles(src, nsec int) []float64 {
	p := k.p
	out := make([]float64, nsec)
	for j := range out {
		n := p.GetInt(state.NASec, src, j)
		if n < 2 {
			continue
		}
		xs := make([]float64, n)
		ss := make([]float64, n)
		for i := 0; i < n; i++ {
			xs[i] = p.Get(state.XASec, src, j, i)
			ss[i] = p.Get(state.SASec, src, j, i)
		}
		out[j] = geom.ZeroLiftAngle(xs, ss)
	}
	return out
}

// flapEffectiveness is the thin-airfoil lift effectiveness of a plain
// flap hinged at chord fraction xh.
func flapEffectiveness(xh float64) float64 {
	xh = math.Max(0, math.Min(1, xh))
	theta := math.Acos(1 - 2*xh)
	return 1 - (theta-math.Sin(theta))/math.Pi
}

func (k *Kernel) surfaceStrips(l surfaceLayout) error {
	p := k.p
	g := readSurface(p, l.src, l.nsec)
	ydup := p.Get(state.YDupl, l.src)
	alpha0 := k.zeroLiftAngles(l.src, l.nsec)
	albe := p.Get(state.LFAlbe, l.src)
	load := p.Get(state.LFLoad, l.src)

	for j := 0; j < l.nsec-1; j++ {
		n := l.first + j
		p0, p1 := g.point(j), g.point(j+1)
		chord := 0.5 * (g.chord[j] + g.chord[j+1]) * g.scale[0]
		dy, dz := p1[1]-p0[1], p1[2]-p0[2]
		w := math.Hypot(dy, dz)
		if w == 0 {
			return fmt.Errorf("refvlm: strip %d of surface %d has zero span", j, l.isurf)
		}
		y := 0.5 * (p0[1] + p1[1])
		phi := dz / w
		if l.image {
			y = 2*ydup - y
			phi = -phi
		}
		acamb := -0.5 * (alpha0[j] + alpha0[j+1])

		p.Set(state.ChordS, chord, n)
		p.Set(state.WStrip, w, n)
		p.Set(state.XQC, 0.5*(p0[0]+p1[0])+0.25*chord, n)
		p.Set(state.YMid, y, n)
		p.Set(state.ZMid, 0.5*(p0[2]+p1[2]), n)
		p.Set(state.Phi, phi, n)
		p.Set(state.ACamb, acamb, n)
		p.Set(state.AInc, deg2rad*(0.5*(g.ainc[j]+g.ainc[j+1])+g.addinc)+acamb, n)
		p.Set(state.ClafS, 0.5*(g.claf[j]+g.claf[j+1]), n)
		p.Set(state.ISurfS, float64(l.isurf), n)
		p.Set(state.IAlbe, albe, n)
		p.Set(state.ILoad, load, n)

		for d := 0; d < state.NDMAX; d++ {
			p.Set(state.Gains, 0, n, d)
		}
		for _, js := range []int{j, j + 1} {
			for c := 0; c < p.GetInt(state.NSCon, l.src, js); c++ {
				d := p.GetInt(state.IContD, l.src, js, c)
				if d < 0 || d >= state.NDMAX {
					continue
				}
				gain := 0.5 * deg2rad * p.Get(state.GainD, l.src, js, c) * flapEffectiveness(p.Get(state.XHinged, l.src, js, c))
				if l.image {
					gain *= p.Get(state.RefLD, l.src, js, c)
				}
				p.Set(state.Gains, p.Get(state.Gains, n, d)+gain, n, d)
			}
		}
	}
	return nil
}

// UpdateSurfacesD propagates geometry seeds to strip seeds.
func (k *Kernel) UpdateSurfacesD() error {
	ls, err := k.layout()
	if err != nil {
		return err
	}
	p, f := k.p, k.fwd()
	sd := stripsOf(f)
	for _, l := range ls {
		g := readSurface(p, l.src, l.nsec)
		gd := readSurface(f, l.src, l.nsec)
		for j := 0; j < l.nsec-1; j++ {
			n := l.first + j
			p0, p1 := g.point(j), g.point(j+1)
			q0, q1 := pointDot(g, gd, j), pointDot(g, gd, j+1)
			dy, dz := p1[1]-p0[1], p1[2]-p0[2]
			ddy, ddz := q1[1]-q0[1], q1[2]-q0[2]
			w := math.Hypot(dy, dz)
			wd := (dy*ddy + dz*ddz) / w
			chordd := 0.5 * ((gd.chord[j]+gd.chord[j+1])*g.scale[0] + (g.chord[j]+g.chord[j+1])*gd.scale[0])
			yd := 0.5 * (q0[1] + q1[1])
			phid := ddz/w - dz*wd/(w*w)
			if l.image {
				yd, phid = -yd, -phid
			}
			sd.chord[n] = chordd
			sd.w[n] = wd
			sd.x[n] = 0.5*(q0[0]+q1[0]) + 0.25*chordd
			sd.y[n] = yd
			sd.z[n] = 0.5 * (q0[2] + q1[2])
			sd.phi[n] = phid
			sd.ainc[n] = deg2rad * (0.5*(gd.ainc[j]+gd.ainc[j+1]) + gd.addinc)
			sd.claf[n] = 0.5 * (gd.claf[j] + gd.claf[j+1])
		}
	}
	return nil
}

// UpdateSurfacesB accumulates strip adjoints into geometry adjoints.
func (k *Kernel) UpdateSurfacesB() error {
	ls, err := k.layout()
	if err != nil {
		return err
	}
	p, r := k.p, k.rev()
	sb := stripsOf(r)
	for _, l := range ls {
		g := readSurface(p, l.src, l.nsec)
		gb := surfGeom{
			le:    make([][3]float64, l.nsec),
			chord: make([]float64, l.nsec),
			ainc:  make([]float64, l.nsec),
			claf:  make([]float64, l.nsec),
		}
		pb := make([][3]float64, l.nsec)
		cb := make([]float64, l.nsec)
		for j := 0; j < l.nsec-1; j++ {
			n := l.first + j
			p0, p1 := g.point(j), g.point(j+1)
			dy, dz := p1[1]-p0[1], p1[2]-p0[2]
			w := math.Hypot(dy, dz)

			yb, phib := sb.y[n], sb.phi[n]
			if l.image {
				yb, phib = -yb, -phib
			}
			chordb := sb.chord[n] + 0.25*sb.x[n]
			wb := sb.w[n] - dz/(w*w)*phib
			dzb := phib/w + dz/w*wb
			dyb := dy / w * wb

			pb[j][0] += 0.5 * sb.x[n]
			pb[j+1][0] += 0.5 * sb.x[n]
			pb[j][1] += 0.5*yb - dyb
			pb[j+1][1] += 0.5*yb + dyb
			pb[j][2] += 0.5*sb.z[n] - dzb
			pb[j+1][2] += 0.5*sb.z[n] + dzb
			cb[j] += 0.5 * chordb
			cb[j+1] += 0.5 * chordb

			ab := deg2rad * sb.ainc[n]
			gb.ainc[j] += 0.5 * ab
			gb.ainc[j+1] += 0.5 * ab
			gb.addinc += ab
			gb.claf[j] += 0.5 * sb.claf[n]
			gb.claf[j+1] += 0.5 * sb.claf[n]
		}
		for j := 0; j < l.nsec; j++ {
			for c := 0; c < 3; c++ {
				gb.le[j][c] += g.scale[c] * pb[j][c]
				gb.scale[c] += g.le[j][c] * pb[j][c]
				gb.trans[c] += pb[j][c]
			}
			gb.chord[j] += g.scale[0] * cb[j]
			gb.scale[0] += g.chord[j] * cb[j]
		}
		addSurface(r, l.src, gb)
	}
	return nil
}

// MakeBody finalizes the body at ibody.
func (k *Kernel) MakeBody(ibody int) error {
	if ibody < 0 || ibody >= state.NBMAX {
		return fmt.Errorf("refvlm: body index %d out of range", ibody)
	}
	k.p.Set(state.IMagB, 1, ibody)
	k.p.Set(state.IBodyD, float64(ibody), ibody)
	return k.UpdateBodies()
}

// DuplicateBody fills slot ibody+1 with the image of ibody. The caller
// advances NBODY.
func (k *Kernel) DuplicateBody(ibody int, ydup float64) error {
	p := k.p
	img := ibody + 1
	if img >= state.NBMAX {
		return fmt.Errorf("refvlm: no room for image of body %d", ibody)
	}
	p.SetBool(state.LDuplB, true, ibody)
	p.Set(state.YDuplB, ydup, ibody)
	p.Set(state.IMagB, -1, img)
	p.Set(state.IBodyD, float64(ibody), img)
	p.Set(state.NVB, p.Get(state.NVB, ibody), img)
	p.Set(state.NBPts, p.Get(state.NBPts, ibody), img)
	return nil
}

// UpdateBodies recomputes body lengths. Bodies carry no load in this
// kernel.
func (k *Kernel) UpdateBodies() error {
	p := k.p
	for i := 0; i < p.GetInt(state.NBody); i++ {
		src := i
		if p.GetInt(state.IMagB, i) < 0 {
			src = p.GetInt(state.IBodyD, i)
		}
		n := p.GetInt(state.NBPts, src)
		if n == 0 {
			p.Set(state.ELBdy, 0, i)
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for j := 0; j < n; j++ {
			x := p.Get(state.XBod, src, j)
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
		p.Set(state.ELBdy, (hi-lo)*p.Get(state.XYZScalB, src, 0), i)
	}
	return nil
}
