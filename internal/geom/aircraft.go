package geom

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Aircraft is the declarative description of a configuration: reference
// data, control and design-variable names, and the ordered surfaces and bodies.
type Aircraft struct {
	Title    string           `yaml:"title"`
	Mach     float64          `yaml:"mach"`
	IYSym    int              `yaml:"iysym"`
	IZSym    int              `yaml:"izsym"`
	ZSym     float64          `yaml:"zsym"`
	Sref     float64          `yaml:"Sref"`
	Cref     float64          `yaml:"Cref"`
	Bref     float64          `yaml:"Bref"`
	XYZref   []float64        `yaml:"XYZref,flow"`
	CDp      *float64         `yaml:"CDp,omitempty"`
	DName    []string         `yaml:"dname,omitempty,flow"`
	GName    []string         `yaml:"gname,omitempty,flow"`
	Surfaces Ordered[Surface] `yaml:"surfaces"`
	Bodies   Ordered[Body]    `yaml:"bodies,omitempty"`
	Extra    map[string]any   `yaml:",inline"`
}

// Surface describes one lifting surface as a list of sections.
type Surface struct {
	NumSections   int   `yaml:"num_sections"`
	NumControls   []int `yaml:"num_controls,omitempty,flow"`
	NumDesignVars []int `yaml:"num_design_vars,omitempty,flow"`

	Component  *int     `yaml:"component,omitempty"`
	YDuplicate *float64 `yaml:"yduplicate,omitempty"`
	Wake       *bool    `yaml:"wake,omitempty"`
	Albe       *bool    `yaml:"albe,omitempty"`
	Load       *bool    `yaml:"load,omitempty"`

	CLCDSec [][]float64 `yaml:"clcdsec,omitempty,flow"`
	CLCD    []float64   `yaml:"clcd,omitempty,flow"`
	CLAF    []float64   `yaml:"claf,omitempty,flow"`

	Scale     []float64 `yaml:"scale,omitempty,flow"`
	Translate []float64 `yaml:"translate,omitempty,flow"`
	Angle     *float64  `yaml:"angle,omitempty"`
	XLEs      []float64 `yaml:"xles,flow"`
	YLEs      []float64 `yaml:"yles,flow"`
	ZLEs      []float64 `yaml:"zles,flow"`
	Chords    []float64 `yaml:"chords,flow"`
	AIncs     []float64 `yaml:"aincs,flow"`

	XFMinMax [][]float64   `yaml:"xfminmax,omitempty,flow"`
	NACA     []string      `yaml:"naca,omitempty,flow"`
	Airfoils [][][]float64 `yaml:"airfoils,omitempty,flow"`
	AFiles   []string      `yaml:"afiles,omitempty,flow"`
	XASec    [][]float64   `yaml:"xasec,omitempty,flow"`
	SASec    [][]float64   `yaml:"sasec,omitempty,flow"`
	CASec    [][]float64   `yaml:"casec,omitempty,flow"`
	TASec    [][]float64   `yaml:"tasec,omitempty,flow"`
	XUASec   [][]float64   `yaml:"xuasec,omitempty,flow"`
	XLASec   [][]float64   `yaml:"xlasec,omitempty,flow"`
	ZUASec   [][]float64   `yaml:"zuasec,omitempty,flow"`
	ZLASec   [][]float64   `yaml:"zlasec,omitempty,flow"`

	NChordwise        int       `yaml:"nchordwise"`
	CSpace            float64   `yaml:"cspace"`
	NSpan             *int      `yaml:"nspan,omitempty"`
	SSpace            *float64  `yaml:"sspace,omitempty"`
	NSpans            []int     `yaml:"nspans,omitempty,flow"`
	SSpaces           []float64 `yaml:"sspaces,omitempty,flow"`
	UseSurfaceSpacing *bool     `yaml:"use surface spacing,omitempty"`

	IContD  [][]int       `yaml:"icontd,omitempty,flow"`
	XHinged [][]float64   `yaml:"xhinged,omitempty,flow"`
	VHinged [][][]float64 `yaml:"vhinged,omitempty,flow"`
	GainD   [][]float64   `yaml:"gaind,omitempty,flow"`
	RefLD   [][]float64   `yaml:"refld,omitempty,flow"`
	IDesTD  [][]int       `yaml:"idestd,omitempty,flow"`
	GainG   [][]float64   `yaml:"gaing,omitempty,flow"`

	Extra map[string]any `yaml:",inline"`
}

// Body describes a slender body by its outline.
type Body struct {
	NVB        int            `yaml:"nvb"`
	BSpace     float64        `yaml:"bspace"`
	YDuplicate *float64       `yaml:"yduplicate,omitempty"`
	Scale      []float64      `yaml:"scale,omitempty,flow"`
	Translate  []float64      `yaml:"translate,omitempty,flow"`
	BodyOML    [][]float64    `yaml:"body_oml,omitempty,flow"`
	BFile      string         `yaml:"bfile,omitempty"`
	Extra      map[string]any `yaml:",inline"`
}

// Named is one entry of an Ordered map.
type Named[T any] struct {
	Name  string
	Value T
}

// Ordered is a YAML mapping that keeps declaration order.
type Ordered[T any] []Named[T]

// Get returns the entry called name.
func (o Ordered[T]) Get(name string) (T, bool) {
	for _, e := range o {
		if e.Name == name {
			return e.Value, true
		}
	}
	var zero T
	return zero, false
}

// Names lists the entry names in order.
func (o Ordered[T]) Names() []string {
	out := make([]string, len(o))
	for i, e := range o {
		out[i] = e.Name
	}
	return out
}

func (o *Ordered[T]) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	out := make(Ordered[T], 0, len(n.Content)/2)
	seen := make(map[string]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		if line, ok := seen[name]; ok {
			return fmt.Errorf("line %d: %w: %q already defined at line %d",
				n.Content[i].Line, ErrDuplicateName, name, line)
		}
		seen[name] = n.Content[i].Line
		var v T
		if err := n.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, Named[T]{Name: name, Value: v})
	}
	*o = out
	return nil
}

func (o Ordered[T]) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range o {
		var v yaml.Node
		if err := v.Encode(e.Value); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: e.Name}, &v)
	}
	return n, nil
}

// Decode reads a description from YAML.
func Decode(r io.Reader) (*Aircraft, error) {
	var a Aircraft
	if err := yaml.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode aircraft: %w", err)
	}
	return &a, nil
}

// Encode writes a description as YAML.
func Encode(w io.Writer, a *Aircraft) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode aircraft: %w", err)
	}
	return enc.Close()
}

// LoadFile reads a description from disk. Relative airfoil and body files
// are resolved against the description's directory.
func LoadFile(path string) (*Aircraft, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.resolvePaths(filepath.Dir(path))
	return a, nil
}

// SaveFile writes a description to disk.
func SaveFile(path string, a *Aircraft) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Encode(f, a)
}

func (a *Aircraft) resolvePaths(dir string) {
	rel := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i := range a.Surfaces {
		for j, f := range a.Surfaces[i].Value.AFiles {
			a.Surfaces[i].Value.AFiles[j] = rel(f)
		}
	}
	for i := range a.Bodies {
		a.Bodies[i].Value.BFile = rel(a.Bodies[i].Value.BFile)
	}
}

// AirfoilSpec identifies how a surface's section airfoils are given.
type AirfoilSpec int

const (
	AirfoilNone AirfoilSpec = iota
	AirfoilNACA
	AirfoilCoordinates
	AirfoilFiles
	AirfoilManual
)

func (s AirfoilSpec) String() string {
	switch s {
	case AirfoilNACA:
		return "naca"
	case AirfoilCoordinates:
		return "airfoils"
	case AirfoilFiles:
		return "afiles"
	case AirfoilManual:
		return "xasec"
	default:
		return "none"
	}
}

// airfoilSpecs lists every airfoil method present on the surface.
func (s *Surface) airfoilSpecs() []AirfoilSpec {
	var out []AirfoilSpec
	if s.NACA != nil {
		out = append(out, AirfoilNACA)
	}
	if s.Airfoils != nil {
		out = append(out, AirfoilCoordinates)
	}
	if s.AFiles != nil {
		out = append(out, AirfoilFiles)
	}
	if s.XASec != nil {
		out = append(out, AirfoilManual)
	}
	return out
}

// AirfoilSpec returns the surface's airfoil method. Validate rejects
// surfaces with more than one.
func (s *Surface) AirfoilSpec() AirfoilSpec {
	specs := s.airfoilSpecs()
	if len(specs) == 0 {
		return AirfoilNone
	}
	return specs[0]
}

// Mirrored reports whether the surface is duplicated about a y plane.
func (s *Surface) Mirrored() bool { return s.YDuplicate != nil }

// Mirrored reports whether the body is duplicated about a y plane.
func (b *Body) Mirrored() bool { return b.YDuplicate != nil }

// MirrorName is the name given to the image of a duplicated entity.
func MirrorName(name string) string { return name + " (YDUP)" }

// Counts returns the number of surfaces and bodies including mirrored images.
func (a *Aircraft) Counts() (surfaces, bodies int) {
	for _, e := range a.Surfaces {
		surfaces++
		if e.Value.Mirrored() {
			surfaces++
		}
	}
	for _, e := range a.Bodies {
		bodies++
		if e.Value.Mirrored() {
			bodies++
		}
	}
	return surfaces, bodies
}
