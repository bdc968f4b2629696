package geom

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/san-kum/vlsens/internal/state"
)

// Warning reports an attribute the loader does not recognise. Unrecognised
// attributes are ignored.
type Warning struct {
	Path string
	Key  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: unrecognised key %q ignored", w.Path, w.Key)
}

// Report collects the non-fatal findings of Validate.
type Report struct {
	Warnings []Warning
}

func (r *Report) warnExtra(path string, extra map[string]any) {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Warnings = append(r.Warnings, Warning{Path: path, Key: k})
	}
}

// Log writes every warning to logger.
func (r *Report) Log(logger *slog.Logger) {
	for _, w := range r.Warnings {
		logger.Warn("unrecognised geometry key", slog.String("entity", w.Path), slog.String("key", w.Key))
	}
}

// Validate checks a description before anything is written to kernel state.
// It returns the first fatal error, or a report of warnings.
func Validate(a *Aircraft) (*Report, error) {
	r := &Report{}
	r.warnExtra("aircraft", a.Extra)

	if err := validateHeader(a); err != nil {
		return r, err
	}

	if err := checkNames(a); err != nil {
		return r, err
	}

	maxControl, maxDesign := -1, -1
	for _, e := range a.Surfaces {
		path := "surfaces." + e.Name
		s := e.Value
		r.warnExtra(path, s.Extra)
		if len(e.Name) > state.NameWidth {
			return r, invalid(path, "", ErrSizeMismatch, "name longer than %d characters", state.NameWidth)
		}
		if err := validateSurface(a, path, &s); err != nil {
			return r, err
		}
		for _, row := range s.IContD {
			for _, ic := range row {
				maxControl = max(maxControl, ic)
			}
		}
		for _, row := range s.IDesTD {
			for _, ig := range row {
				maxDesign = max(maxDesign, ig)
			}
		}
	}
	if len(a.DName) != maxControl+1 {
		return r, invalid("aircraft", "dname", ErrSizeMismatch,
			"%d control names for %d control variables", len(a.DName), maxControl+1)
	}
	if len(a.GName) != maxDesign+1 {
		return r, invalid("aircraft", "gname", ErrSizeMismatch,
			"%d design variable names for %d design variables", len(a.GName), maxDesign+1)
	}

	for _, e := range a.Bodies {
		path := "bodies." + e.Name
		b := e.Value
		if _, ok := b.Extra["num_sections"]; ok {
			return r, invalid(path, "num_sections", ErrUnsupported, "bodies are described by an outline, not sections")
		}
		r.warnExtra(path, b.Extra)
		if len(e.Name) > state.NameWidth {
			return r, invalid(path, "", ErrSizeMismatch, "name longer than %d characters", state.NameWidth)
		}
		if err := validateBody(a, path, &b); err != nil {
			return r, err
		}
	}
	return r, nil
}

func validateHeader(a *Aircraft) error {
	const path = "aircraft"
	if len(a.Title) > state.PathWidth {
		return invalid(path, "title", ErrSizeMismatch, "longer than %d characters", state.PathWidth)
	}
	for _, ref := range []struct {
		key string
		v   float64
	}{{"Sref", a.Sref}, {"Cref", a.Cref}, {"Bref", a.Bref}} {
		if ref.v <= 0 {
			return invalid(path, ref.key, ErrMissingRequired, "must be positive, got %g", ref.v)
		}
	}
	if a.XYZref != nil && len(a.XYZref) != 3 {
		return invalid(path, "XYZref", ErrSizeMismatch, "expected 3 components, got %d", len(a.XYZref))
	}
	if len(a.Surfaces) == 0 {
		return invalid(path, "surfaces", ErrMissingRequired, "at least one surface is required")
	}

	nsurf, nbody := a.Counts()
	if nsurf > state.NFMAX {
		return invalid(path, "surfaces", ErrCapacityExceeded, "%d surfaces with images, limit %d", nsurf, state.NFMAX)
	}
	if nbody > state.NBMAX {
		return invalid(path, "bodies", ErrCapacityExceeded, "%d bodies with images, limit %d", nbody, state.NBMAX)
	}
	if len(a.DName) > state.NDMAX {
		return invalid(path, "dname", ErrCapacityExceeded, "%d controls, limit %d", len(a.DName), state.NDMAX)
	}
	if len(a.GName) > state.NGMAX {
		return invalid(path, "gname", ErrCapacityExceeded, "%d design variables, limit %d", len(a.GName), state.NGMAX)
	}
	for _, names := range [][]string{a.DName, a.GName} {
		for _, n := range names {
			if len(n) > state.NameWidth {
				return invalid(path, n, ErrSizeMismatch, "name longer than %d characters", state.NameWidth)
			}
		}
	}
	return nil
}

// FreestreamNames are the constraint variables every configuration has.
// Control and design variables may not reuse them.
var FreestreamNames = []string{"alpha", "beta", "roll rate", "pitch rate", "yaw rate"}

// checkNames rejects entity names that collide with each other or with the
// images of mirrored entities, and variable names that collide with each
// other or with the freestream variables.
func checkNames(a *Aircraft) error {
	seen := make(map[string]string)
	claim := func(path, name string) error {
		if prev, ok := seen[name]; ok {
			return invalid(path, "", ErrDuplicateName, "%q is already used by %s", name, prev)
		}
		seen[name] = path
		return nil
	}
	for _, e := range a.Surfaces {
		path := "surfaces." + e.Name
		if err := claim(path, e.Name); err != nil {
			return err
		}
		if e.Value.Mirrored() {
			if err := claim(path, MirrorName(e.Name)); err != nil {
				return err
			}
		}
	}
	for _, e := range a.Bodies {
		path := "bodies." + e.Name
		if err := claim(path, e.Name); err != nil {
			return err
		}
		if e.Value.Mirrored() {
			if err := claim(path, MirrorName(e.Name)); err != nil {
				return err
			}
		}
	}

	for _, vars := range []struct {
		key   string
		names []string
	}{{"dname", a.DName}, {"gname", a.GName}} {
		used := make(map[string]bool, len(vars.names))
		for _, n := range vars.names {
			if slices.Contains(FreestreamNames, n) {
				return invalid("aircraft", vars.key, ErrDuplicateName, "%q is a freestream variable", n)
			}
			if used[n] {
				return invalid("aircraft", vars.key, ErrDuplicateName, "%q declared twice", n)
			}
			used[n] = true
		}
	}
	return nil
}

func checkSymmetry(a *Aircraft, path string, ydup *float64) error {
	if ydup != nil && a.IYSym != 0 && *ydup == 0 {
		return invalid(path, "yduplicate", ErrRedundantSymmetry,
			"iysym=%d already reflects about y=0", a.IYSym)
	}
	return nil
}

func checkVector(path, key string, v []float64, n int) error {
	if v != nil && len(v) != n {
		return invalid(path, key, ErrSizeMismatch, "expected %d components, got %d", n, len(v))
	}
	return nil
}

func checkLen(path, key string, n, want int) error {
	if n != want {
		return invalid(path, key, ErrSizeMismatch, "expected %d sections, got %d", want, n)
	}
	return nil
}

func checkRows[T any](path, key string, rows [][]T, nsec, width int) error {
	if rows == nil {
		return nil
	}
	if err := checkLen(path, key, len(rows), nsec); err != nil {
		return err
	}
	for j, row := range rows {
		if width >= 0 && len(row) != width {
			return invalid(path, key, ErrSizeMismatch, "section %d: expected %d values, got %d", j, width, len(row))
		}
	}
	return nil
}

// checkAttachments verifies per-section attachment rows against counts.
func checkAttachments[T any](path, key string, rows [][]T, counts []int) error {
	if rows == nil {
		return nil
	}
	if err := checkLen(path, key, len(rows), len(counts)); err != nil {
		return err
	}
	for j, row := range rows {
		if len(row) != counts[j] {
			return invalid(path, key, ErrSizeMismatch, "section %d: expected %d entries, got %d", j, counts[j], len(row))
		}
	}
	return nil
}

func validateSurface(a *Aircraft, path string, s *Surface) error {
	n := s.NumSections
	if n < 2 {
		return invalid(path, "num_sections", ErrSizeMismatch, "at least two sections are required, got %d", n)
	}
	if n > state.NSECMAX {
		return invalid(path, "num_sections", ErrCapacityExceeded, "%d sections, limit %d", n, state.NSECMAX)
	}
	if s.NChordwise <= 0 {
		return invalid(path, "nchordwise", ErrMissingRequired, "must be positive")
	}
	if err := checkSymmetry(a, path, s.YDuplicate); err != nil {
		return err
	}

	for _, f := range []struct {
		key string
		v   []float64
	}{{"xles", s.XLEs}, {"yles", s.YLEs}, {"zles", s.ZLEs}, {"chords", s.Chords}, {"aincs", s.AIncs}} {
		if f.v == nil {
			return invalid(path, f.key, ErrMissingRequired, "per-section values are required")
		}
		if err := checkLen(path, f.key, len(f.v), n); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		key string
		n   int
		ok  bool
	}{
		{"claf", len(s.CLAF), s.CLAF != nil},
		{"nspans", len(s.NSpans), s.NSpans != nil},
		{"sspaces", len(s.SSpaces), s.SSpaces != nil},
		{"naca", len(s.NACA), s.NACA != nil},
		{"afiles", len(s.AFiles), s.AFiles != nil},
		{"airfoils", len(s.Airfoils), s.Airfoils != nil},
		{"num_controls", len(s.NumControls), s.NumControls != nil},
		{"num_design_vars", len(s.NumDesignVars), s.NumDesignVars != nil},
	} {
		if f.ok {
			if err := checkLen(path, f.key, f.n, n); err != nil {
				return err
			}
		}
	}
	if err := checkVector(path, "scale", s.Scale, 3); err != nil {
		return err
	}
	if err := checkVector(path, "translate", s.Translate, 3); err != nil {
		return err
	}
	if err := checkVector(path, "clcd", s.CLCD, 6); err != nil {
		return err
	}
	if err := checkRows(path, "clcdsec", s.CLCDSec, n, 6); err != nil {
		return err
	}
	if err := checkRows(path, "xfminmax", s.XFMinMax, n, 2); err != nil {
		return err
	}
	for j, xf := range s.XFMinMax {
		if xf[0] < 0 || xf[1] > 1 || xf[0] >= xf[1] {
			return invalid(path, "xfminmax", ErrSizeMismatch, "section %d: range %v outside [0,1]", j, xf)
		}
	}

	if err := validateAirfoils(path, s); err != nil {
		return err
	}
	if err := validateControls(path, s); err != nil {
		return err
	}
	return validateDesignVars(path, s)
}

func validateAirfoils(path string, s *Surface) error {
	specs := s.airfoilSpecs()
	if len(specs) > 1 {
		return invalid(path, "", ErrConflictingSpecification, "airfoils given by %v; use one method per surface", specs)
	}
	for j, code := range s.NACA {
		if !isNACA4(code) {
			return invalid(path, "naca", ErrUnsupported, "section %d: %q is not a 4-digit NACA code", j, code)
		}
	}
	for j, xy := range s.Airfoils {
		if len(xy) != 2 || len(xy[0]) != len(xy[1]) {
			return invalid(path, "airfoils", ErrSizeMismatch, "section %d: expected [x, y] of equal length", j)
		}
		if len(xy[0]) < 3 || len(xy[0]) > state.IBX {
			return invalid(path, "airfoils", ErrSizeMismatch, "section %d: %d points, need 3 to %d", j, len(xy[0]), state.IBX)
		}
	}
	for j, f := range s.AFiles {
		if f == "" || len(f) > state.PathWidth {
			return invalid(path, "afiles", ErrSizeMismatch, "section %d: file name must be 1 to %d characters", j, state.PathWidth)
		}
	}
	if s.XASec == nil {
		return nil
	}
	manual := []struct {
		key  string
		rows [][]float64
	}{
		{"xasec", s.XASec}, {"sasec", s.SASec}, {"casec", s.CASec}, {"tasec", s.TASec},
		{"xuasec", s.XUASec}, {"xlasec", s.XLASec}, {"zuasec", s.ZUASec}, {"zlasec", s.ZLASec},
	}
	for _, m := range manual {
		if m.rows == nil {
			return invalid(path, m.key, ErrMissingRequired, "required when xasec is given")
		}
		if err := checkLen(path, m.key, len(m.rows), s.NumSections); err != nil {
			return err
		}
		for j, row := range m.rows {
			if len(row) != len(s.XASec[j]) || len(row) < 2 || len(row) > state.IBX {
				return invalid(path, m.key, ErrSizeMismatch, "section %d: %d samples, xasec has %d", j, len(row), len(s.XASec[j]))
			}
		}
	}
	return nil
}

func isNACA4(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func validateControls(path string, s *Surface) error {
	present := s.IContD != nil || s.XHinged != nil || s.VHinged != nil || s.GainD != nil || s.RefLD != nil
	if !present {
		for j, c := range s.NumControls {
			if c != 0 {
				return invalid(path, "icontd", ErrMissingRequired, "section %d declares %d controls", j, c)
			}
		}
		return nil
	}
	if s.NumControls == nil {
		return invalid(path, "num_controls", ErrMissingRequired, "required with control attachments")
	}
	for j, c := range s.NumControls {
		if c < 0 || c > state.ICONX {
			return invalid(path, "num_controls", ErrCapacityExceeded, "section %d: %d controls, limit %d", j, c, state.ICONX)
		}
	}
	if s.IContD == nil {
		return invalid(path, "icontd", ErrMissingRequired, "required with control attachments")
	}
	if err := checkAttachments(path, "icontd", s.IContD, s.NumControls); err != nil {
		return err
	}
	for _, rows := range []struct {
		key  string
		rows [][]float64
	}{{"xhinged", s.XHinged}, {"gaind", s.GainD}, {"refld", s.RefLD}} {
		if rows.rows == nil {
			return invalid(path, rows.key, ErrMissingRequired, "required with control attachments")
		}
		if err := checkAttachments(path, rows.key, rows.rows, s.NumControls); err != nil {
			return err
		}
	}
	if s.VHinged == nil {
		return invalid(path, "vhinged", ErrMissingRequired, "required with control attachments")
	}
	if err := checkAttachments(path, "vhinged", s.VHinged, s.NumControls); err != nil {
		return err
	}
	for j, sec := range s.VHinged {
		for k, v := range sec {
			if len(v) != 3 {
				return invalid(path, "vhinged", ErrSizeMismatch, "section %d control %d: expected 3 components", j, k)
			}
		}
	}
	for j, row := range s.IContD {
		for _, ic := range row {
			if ic < 0 {
				return invalid(path, "icontd", ErrSizeMismatch, "section %d: negative control index %d", j, ic)
			}
		}
	}
	return nil
}

func validateDesignVars(path string, s *Surface) error {
	if s.IDesTD == nil && s.GainG == nil {
		for j, c := range s.NumDesignVars {
			if c != 0 {
				return invalid(path, "idestd", ErrMissingRequired, "section %d declares %d design variables", j, c)
			}
		}
		return nil
	}
	if s.NumDesignVars == nil {
		return invalid(path, "num_design_vars", ErrMissingRequired, "required with design variable attachments")
	}
	for j, c := range s.NumDesignVars {
		if c < 0 || c > state.ICONX {
			return invalid(path, "num_design_vars", ErrCapacityExceeded, "section %d: %d design variables, limit %d", j, c, state.ICONX)
		}
	}
	if s.IDesTD == nil || s.GainG == nil {
		return invalid(path, "idestd", ErrMissingRequired, "idestd and gaing are given together")
	}
	if err := checkAttachments(path, "idestd", s.IDesTD, s.NumDesignVars); err != nil {
		return err
	}
	if err := checkAttachments(path, "gaing", s.GainG, s.NumDesignVars); err != nil {
		return err
	}
	for j, row := range s.IDesTD {
		for _, ig := range row {
			if ig < 0 {
				return invalid(path, "idestd", ErrSizeMismatch, "section %d: negative design variable index %d", j, ig)
			}
		}
	}
	return nil
}

func validateBody(a *Aircraft, path string, b *Body) error {
	if err := checkSymmetry(a, path, b.YDuplicate); err != nil {
		return err
	}
	if b.NVB <= 0 {
		return invalid(path, "nvb", ErrMissingRequired, "must be positive")
	}
	if err := checkVector(path, "scale", b.Scale, 3); err != nil {
		return err
	}
	if err := checkVector(path, "translate", b.Translate, 3); err != nil {
		return err
	}
	switch {
	case b.BodyOML != nil && b.BFile != "":
		return invalid(path, "", ErrConflictingSpecification, "give either body_oml or bfile, not both")
	case b.BodyOML == nil && b.BFile == "":
		return invalid(path, "body_oml", ErrMissingRequired, "a body needs body_oml or bfile")
	case b.BodyOML != nil:
		if len(b.BodyOML) != 2 || len(b.BodyOML[0]) != len(b.BodyOML[1]) {
			return invalid(path, "body_oml", ErrSizeMismatch, "expected [x, y] of equal length")
		}
		if len(b.BodyOML[0]) < 3 || len(b.BodyOML[0]) > state.IBX {
			return invalid(path, "body_oml", ErrSizeMismatch, "%d points, need 3 to %d", len(b.BodyOML[0]), state.IBX)
		}
	case len(b.BFile) > state.PathWidth:
		return invalid(path, "bfile", ErrSizeMismatch, "longer than %d characters", state.PathWidth)
	}
	return nil
}
