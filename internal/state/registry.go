package state

import (
	"fmt"
	"sort"
)

// Kind is the element kind of a variable.
type Kind uint8

const (
	KindReal Kind = iota
	KindInt
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindReal:
		return "real"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Block names group variables the way the kernel's common blocks do.
const (
	BlockCaseC     = "CASE_C"
	BlockCaseI     = "CASE_I"
	BlockCaseL     = "CASE_L"
	BlockCaseR     = "CASE_R"
	BlockSurfGeomI = "SURF_GEOM_I"
	BlockSurfGeomR = "SURF_GEOM_R"
	BlockSurfGeomL = "SURF_GEOM_L"
	BlockSurfI     = "SURF_I"
	BlockSurfL     = "SURF_L"
	BlockSurfR     = "SURF_R"
	BlockBodyGeomI = "BODY_GEOM_I"
	BlockBodyGeomR = "BODY_GEOM_R"
	BlockBodyGeomL = "BODY_GEOM_L"
	BlockStrpR     = "STRP_R"
	BlockStrpI     = "STRP_I"
	BlockVrtxR     = "VRTX_R"
)

// Descriptor declares one variable. Shape is the maximum shape in row-major
// order; an empty shape is a scalar.
type Descriptor struct {
	Block string
	Name  string
	Shape []int
	Kind  Kind
	Width int // maximum string length, KindString only
	Diff  bool
}

// Size is the number of elements at maximum shape.
func (d Descriptor) Size() int {
	n := 1
	for _, s := range d.Shape {
		n *= s
	}
	return n
}

// Offset maps a row-major index to its column-major storage position.
func (d Descriptor) Offset(idx ...int) int {
	off := 0
	stride := 1
	for i, s := range d.Shape {
		off += idx[i] * stride
		stride *= s
	}
	return off
}

// Var names a declared variable.
type Var int

const (
	// CASE_C
	Title Var = iota
	SurfTitle
	BodyTitle
	ControlName
	DesignName
	NACACode
	AirfoilFile
	BodyFile

	// CASE_I
	NSurf
	NBody
	NControl
	NDesign
	NVor
	NStrip
	IYSym
	IZSym
	ConTarget
	NIter

	// CASE_L
	LGeo
	LSol
	LVisc

	// CASE_R
	Mach
	YSym
	ZSym
	Sref
	Cref
	Bref
	XYZRef
	CDRef
	ConVal
	ConTargetVal
	ParVal
	CLTot
	CDTot
	CDiTot
	CMTot
	CRTot
	CLTotU
	CDTotU
	CMTotU
	CRTotU
	CLTotD
	CDTotD
	CMTotD
	CRTotD

	// SURF_GEOM_I
	NSec
	NSCon
	NSDes
	NASec
	NRawAf
	NVC
	NVS
	NSpans
	IContD
	IDesTD
	AirfoilSpec
	Component

	// SURF_GEOM_R
	XYZScal
	XYZTran
	AddInc
	XYZLES
	Chords
	AIncs
	CLAF
	CLCDSec
	CLCDSrf
	CSpace
	SSpace
	SSpaces
	YDupl
	XHinged
	VHinged
	GainD
	RefLD
	GainG
	XASec
	SASec
	TASec
	CASec
	XUASec
	XLASec
	ZUASec
	ZLASec
	XFMinMax
	RawAfX
	RawAfY

	// SURF_GEOM_L
	LDupl
	LSurfSpacing

	// SURF_I
	IMags
	ISurfD
	JFrst
	NJ

	// SURF_L
	LFWake
	LFAlbe
	LFLoad

	// SURF_R
	CLSurf
	CMSurf

	// BODY_GEOM_I
	NVB
	NBPts
	IMagB
	IBodyD

	// BODY_GEOM_R
	XYZScalB
	XYZTranB
	BSpace
	YDuplB
	XBod
	YBod
	ELBdy

	// BODY_GEOM_L
	LDuplB

	// STRP_R
	ChordS
	WStrip
	XQC
	YMid
	ZMid
	Phi
	AInc
	ClafS
	ACamb
	Gains
	Load
	LoadU
	LoadD

	// STRP_I
	ISurfS
	IAlbe
	ILoad

	// VRTX_R
	Gam
	GamU
	GamD
	Res
	ResU
	ResD
	AICN

	numVars
)

func sh(dims ...int) []int { return dims }

var table = [numVars]Descriptor{
	Title:       {Block: BlockCaseC, Name: "TITLE", Kind: KindString, Width: PathWidth},
	SurfTitle:   {Block: BlockCaseC, Name: "STITLE", Shape: sh(NFMAX), Kind: KindString, Width: NameWidth},
	BodyTitle:   {Block: BlockCaseC, Name: "BTITLE", Shape: sh(NBMAX), Kind: KindString, Width: NameWidth},
	ControlName: {Block: BlockCaseC, Name: "DNAME", Shape: sh(NDMAX), Kind: KindString, Width: NameWidth},
	DesignName:  {Block: BlockCaseC, Name: "GNAME", Shape: sh(NGMAX), Kind: KindString, Width: NameWidth},
	NACACode:    {Block: BlockCaseC, Name: "NACA", Shape: sh(NFMAX, NSECMAX), Kind: KindString, Width: 4},
	AirfoilFile: {Block: BlockCaseC, Name: "AFILES", Shape: sh(NFMAX, NSECMAX), Kind: KindString, Width: PathWidth},
	BodyFile:    {Block: BlockCaseC, Name: "BFILES", Shape: sh(NBMAX), Kind: KindString, Width: PathWidth},

	NSurf:     {Block: BlockCaseI, Name: "NSURF", Kind: KindInt},
	NBody:     {Block: BlockCaseI, Name: "NBODY", Kind: KindInt},
	NControl:  {Block: BlockCaseI, Name: "NCONTROL", Kind: KindInt},
	NDesign:   {Block: BlockCaseI, Name: "NDESIGN", Kind: KindInt},
	NVor:      {Block: BlockCaseI, Name: "NVOR", Kind: KindInt},
	NStrip:    {Block: BlockCaseI, Name: "NSTRIP", Kind: KindInt},
	IYSym:     {Block: BlockCaseI, Name: "IYSYM", Kind: KindInt},
	IZSym:     {Block: BlockCaseI, Name: "IZSYM", Kind: KindInt},
	ConTarget: {Block: BlockCaseI, Name: "ICON", Shape: sh(NCMAX), Kind: KindInt},
	NIter:     {Block: BlockCaseI, Name: "NITER", Kind: KindInt},

	LGeo:  {Block: BlockCaseL, Name: "LGEO", Kind: KindBool},
	LSol:  {Block: BlockCaseL, Name: "LSOL", Kind: KindBool},
	LVisc: {Block: BlockCaseL, Name: "LVISC", Kind: KindBool},

	Mach:         {Block: BlockCaseR, Name: "MACH0", Kind: KindReal},
	YSym:         {Block: BlockCaseR, Name: "YSYM", Kind: KindReal},
	ZSym:         {Block: BlockCaseR, Name: "ZSYM", Kind: KindReal},
	Sref:         {Block: BlockCaseR, Name: "SREF", Kind: KindReal, Diff: true},
	Cref:         {Block: BlockCaseR, Name: "CREF", Kind: KindReal, Diff: true},
	Bref:         {Block: BlockCaseR, Name: "BREF", Kind: KindReal, Diff: true},
	XYZRef:       {Block: BlockCaseR, Name: "XYZREF", Shape: sh(3), Kind: KindReal},
	CDRef:        {Block: BlockCaseR, Name: "CDREF0", Kind: KindReal},
	ConVal:       {Block: BlockCaseR, Name: "CONVAL", Shape: sh(NCMAX), Kind: KindReal, Diff: true},
	ConTargetVal: {Block: BlockCaseR, Name: "CONTGT", Shape: sh(NCMAX), Kind: KindReal},
	ParVal:       {Block: BlockCaseR, Name: "PARVAL", Shape: sh(NPMAX), Kind: KindReal, Diff: true},
	CLTot:        {Block: BlockCaseR, Name: "CLTOT", Kind: KindReal, Diff: true},
	CDTot:        {Block: BlockCaseR, Name: "CDTOT", Kind: KindReal, Diff: true},
	CDiTot:       {Block: BlockCaseR, Name: "CDFF", Kind: KindReal, Diff: true},
	CMTot:        {Block: BlockCaseR, Name: "CMTOT", Kind: KindReal, Diff: true},
	CRTot:        {Block: BlockCaseR, Name: "CRTOT", Kind: KindReal, Diff: true},
	CLTotU:       {Block: BlockCaseR, Name: "CLTOT_U", Shape: sh(NUMAX), Kind: KindReal, Diff: true},
	CDTotU:       {Block: BlockCaseR, Name: "CDTOT_U", Shape: sh(NUMAX), Kind: KindReal, Diff: true},
	CMTotU:       {Block: BlockCaseR, Name: "CMTOT_U", Shape: sh(NUMAX), Kind: KindReal, Diff: true},
	CRTotU:       {Block: BlockCaseR, Name: "CRTOT_U", Shape: sh(NUMAX), Kind: KindReal, Diff: true},
	CLTotD:       {Block: BlockCaseR, Name: "CLTOT_D", Shape: sh(NDMAX), Kind: KindReal, Diff: true},
	CDTotD:       {Block: BlockCaseR, Name: "CDTOT_D", Shape: sh(NDMAX), Kind: KindReal, Diff: true},
	CMTotD:       {Block: BlockCaseR, Name: "CMTOT_D", Shape: sh(NDMAX), Kind: KindReal, Diff: true},
	CRTotD:       {Block: BlockCaseR, Name: "CRTOT_D", Shape: sh(NDMAX), Kind: KindReal, Diff: true},

	NSec:        {Block: BlockSurfGeomI, Name: "NSEC", Shape: sh(NFMAX), Kind: KindInt},
	NSCon:       {Block: BlockSurfGeomI, Name: "NSCON", Shape: sh(NFMAX, NSECMAX), Kind: KindInt},
	NSDes:       {Block: BlockSurfGeomI, Name: "NSDES", Shape: sh(NFMAX, NSECMAX), Kind: KindInt},
	NASec:       {Block: BlockSurfGeomI, Name: "NASEC", Shape: sh(NFMAX, NSECMAX), Kind: KindInt},
	NRawAf:      {Block: BlockSurfGeomI, Name: "NRAWAF", Shape: sh(NFMAX, NSECMAX), Kind: KindInt},
	NVC:         {Block: BlockSurfGeomI, Name: "NVC", Shape: sh(NFMAX), Kind: KindInt},
	NVS:         {Block: BlockSurfGeomI, Name: "NVS", Shape: sh(NFMAX), Kind: KindInt},
	NSpans:      {Block: BlockSurfGeomI, Name: "NSPANS", Shape: sh(NFMAX, NSECMAX), Kind: KindInt},
	IContD:      {Block: BlockSurfGeomI, Name: "ICONTD", Shape: sh(NFMAX, NSECMAX, ICONX), Kind: KindInt},
	IDesTD:      {Block: BlockSurfGeomI, Name: "IDESTD", Shape: sh(NFMAX, NSECMAX, ICONX), Kind: KindInt},
	AirfoilSpec: {Block: BlockSurfGeomI, Name: "IAFSPEC", Shape: sh(NFMAX), Kind: KindInt},
	Component:   {Block: BlockSurfGeomI, Name: "LSCOMP", Shape: sh(NFMAX), Kind: KindInt},

	XYZScal:  {Block: BlockSurfGeomR, Name: "XYZSCAL", Shape: sh(NFMAX, 3), Kind: KindReal, Diff: true},
	XYZTran:  {Block: BlockSurfGeomR, Name: "XYZTRAN", Shape: sh(NFMAX, 3), Kind: KindReal, Diff: true},
	AddInc:   {Block: BlockSurfGeomR, Name: "ADDINC", Shape: sh(NFMAX), Kind: KindReal, Diff: true},
	XYZLES:   {Block: BlockSurfGeomR, Name: "XYZLES", Shape: sh(NFMAX, NSECMAX, 3), Kind: KindReal, Diff: true},
	Chords:   {Block: BlockSurfGeomR, Name: "CHORDS", Shape: sh(NFMAX, NSECMAX), Kind: KindReal, Diff: true},
	AIncs:    {Block: BlockSurfGeomR, Name: "AINCS", Shape: sh(NFMAX, NSECMAX), Kind: KindReal, Diff: true},
	CLAF:     {Block: BlockSurfGeomR, Name: "CLAF", Shape: sh(NFMAX, NSECMAX), Kind: KindReal, Diff: true},
	CLCDSec:  {Block: BlockSurfGeomR, Name: "CLCDSEC", Shape: sh(NFMAX, NSECMAX, 6), Kind: KindReal, Diff: true},
	CLCDSrf:  {Block: BlockSurfGeomR, Name: "CLCDSRF", Shape: sh(NFMAX, 6), Kind: KindReal, Diff: true},
	CSpace:   {Block: BlockSurfGeomR, Name: "CSPACE", Shape: sh(NFMAX), Kind: KindReal},
	SSpace:   {Block: BlockSurfGeomR, Name: "SSPACE", Shape: sh(NFMAX), Kind: KindReal},
	SSpaces:  {Block: BlockSurfGeomR, Name: "SSPACES", Shape: sh(NFMAX, NSECMAX), Kind: KindReal},
	YDupl:    {Block: BlockSurfGeomR, Name: "YDUPL", Shape: sh(NFMAX), Kind: KindReal},
	XHinged:  {Block: BlockSurfGeomR, Name: "XHINGED", Shape: sh(NFMAX, NSECMAX, ICONX), Kind: KindReal},
	VHinged:  {Block: BlockSurfGeomR, Name: "VHINGED", Shape: sh(NFMAX, NSECMAX, ICONX, 3), Kind: KindReal},
	GainD:    {Block: BlockSurfGeomR, Name: "GAIND", Shape: sh(NFMAX, NSECMAX, ICONX), Kind: KindReal},
	RefLD:    {Block: BlockSurfGeomR, Name: "REFLD", Shape: sh(NFMAX, NSECMAX, ICONX), Kind: KindReal},
	GainG:    {Block: BlockSurfGeomR, Name: "GAING", Shape: sh(NFMAX, NSECMAX, ICONX), Kind: KindReal},
	XASec:    {Block: BlockSurfGeomR, Name: "XASEC", Shape: sh(NFMAX, NSECMAX, IBX), Kind: KindReal},
	SASec:    {Block: BlockSurfGeomR, Name: "SASEC", Shape: sh(NFMAX, NSECMAX, IBX), Kind: KindReal},
	TASec:    {Block: BlockSurfGeomR, Name: "TASEC", Shape: sh(NFMAX, NSECMAX, IBX), Kind: KindReal},
	CASec:    {Block: BlockSurfGeomR, Name: "CASEC", Shape: sh(NFMAX, NSECMAX, IBX), Kind: KindReal},
	XUASec:   {Block: BlockSurfGeomR, Name: "XUASEC", Shape: sh(NFMAX, NSECMAX, IBX), Kind: KindReal},
	XLASec:   {Block: BlockSurfGeomR, Name: "XLASEC", Shape: sh(NFMAX, NSECMAX, IBX), Kind: KindReal},
	ZUASec:   {Block: BlockSurfGeomR, Name: "ZUASEC", Shape: sh(NFMAX, NSECMAX, IBX), Kind: KindReal},
	ZLASec:   {Block: BlockSurfGeomR, Name: "ZLASEC", Shape: sh(NFMAX, NSECMAX, IBX), Kind: KindReal},
	XFMinMax: {Block: BlockSurfGeomR, Name: "XFMINMAX", Shape: sh(NFMAX, NSECMAX, 2), Kind: KindReal},
	RawAfX:   {Block: BlockSurfGeomR, Name: "XRAWAF", Shape: sh(NFMAX, NSECMAX, IBX), Kind: KindReal},
	RawAfY:   {Block: BlockSurfGeomR, Name: "YRAWAF", Shape: sh(NFMAX, NSECMAX, IBX), Kind: KindReal},

	LDupl:        {Block: BlockSurfGeomL, Name: "LDUPL", Shape: sh(NFMAX), Kind: KindBool},
	LSurfSpacing: {Block: BlockSurfGeomL, Name: "LSURFSPACING", Shape: sh(NFMAX), Kind: KindBool},

	IMags:  {Block: BlockSurfI, Name: "IMAGS", Shape: sh(NFMAX), Kind: KindInt},
	ISurfD: {Block: BlockSurfI, Name: "ISURFD", Shape: sh(NFMAX), Kind: KindInt},
	JFrst:  {Block: BlockSurfI, Name: "JFRST", Shape: sh(NFMAX), Kind: KindInt},
	NJ:     {Block: BlockSurfI, Name: "NJ", Shape: sh(NFMAX), Kind: KindInt},

	LFWake: {Block: BlockSurfL, Name: "LFWAKE", Shape: sh(NFMAX), Kind: KindBool},
	LFAlbe: {Block: BlockSurfL, Name: "LFALBE", Shape: sh(NFMAX), Kind: KindBool},
	LFLoad: {Block: BlockSurfL, Name: "LFLOAD", Shape: sh(NFMAX), Kind: KindBool},

	CLSurf: {Block: BlockSurfR, Name: "CLSURF", Shape: sh(NFMAX), Kind: KindReal},
	CMSurf: {Block: BlockSurfR, Name: "CMSURF", Shape: sh(NFMAX), Kind: KindReal},

	NVB:    {Block: BlockBodyGeomI, Name: "NVB", Shape: sh(NBMAX), Kind: KindInt},
	NBPts:  {Block: BlockBodyGeomI, Name: "NBPTS", Shape: sh(NBMAX), Kind: KindInt},
	IMagB:  {Block: BlockBodyGeomI, Name: "IMAGB", Shape: sh(NBMAX), Kind: KindInt},
	IBodyD: {Block: BlockBodyGeomI, Name: "IBODYD", Shape: sh(NBMAX), Kind: KindInt},

	XYZScalB: {Block: BlockBodyGeomR, Name: "XYZSCAL_B", Shape: sh(NBMAX, 3), Kind: KindReal},
	XYZTranB: {Block: BlockBodyGeomR, Name: "XYZTRAN_B", Shape: sh(NBMAX, 3), Kind: KindReal},
	BSpace:   {Block: BlockBodyGeomR, Name: "BSPACE", Shape: sh(NBMAX), Kind: KindReal},
	YDuplB:   {Block: BlockBodyGeomR, Name: "YDUPL_B", Shape: sh(NBMAX), Kind: KindReal},
	XBod:     {Block: BlockBodyGeomR, Name: "XBOD", Shape: sh(NBMAX, IBX), Kind: KindReal},
	YBod:     {Block: BlockBodyGeomR, Name: "YBOD", Shape: sh(NBMAX, IBX), Kind: KindReal},
	ELBdy:    {Block: BlockBodyGeomR, Name: "ELBDY", Shape: sh(NBMAX), Kind: KindReal},

	LDuplB: {Block: BlockBodyGeomL, Name: "LDUPL_B", Shape: sh(NBMAX), Kind: KindBool},

	ChordS: {Block: BlockStrpR, Name: "CHORD", Shape: sh(NSMAX), Kind: KindReal, Diff: true},
	WStrip: {Block: BlockStrpR, Name: "WSTRIP", Shape: sh(NSMAX), Kind: KindReal, Diff: true},
	XQC:    {Block: BlockStrpR, Name: "XQC", Shape: sh(NSMAX), Kind: KindReal, Diff: true},
	YMid:   {Block: BlockStrpR, Name: "YMID", Shape: sh(NSMAX), Kind: KindReal, Diff: true},
	ZMid:   {Block: BlockStrpR, Name: "ZMID", Shape: sh(NSMAX), Kind: KindReal, Diff: true},
	Phi:    {Block: BlockStrpR, Name: "PHISTRP", Shape: sh(NSMAX), Kind: KindReal, Diff: true},
	AInc:   {Block: BlockStrpR, Name: "AINC", Shape: sh(NSMAX), Kind: KindReal, Diff: true},
	ClafS:  {Block: BlockStrpR, Name: "CLAFS", Shape: sh(NSMAX), Kind: KindReal, Diff: true},
	ACamb:  {Block: BlockStrpR, Name: "ACAMB", Shape: sh(NSMAX), Kind: KindReal},
	Gains:  {Block: BlockStrpR, Name: "GAINDA", Shape: sh(NSMAX, NDMAX), Kind: KindReal},
	Load:   {Block: BlockStrpR, Name: "LSTRP", Shape: sh(NSMAX), Kind: KindReal, Diff: true},
	LoadU:  {Block: BlockStrpR, Name: "LSTRP_U", Shape: sh(NUMAX, NSMAX), Kind: KindReal, Diff: true},
	LoadD:  {Block: BlockStrpR, Name: "LSTRP_D", Shape: sh(NDMAX, NSMAX), Kind: KindReal, Diff: true},

	ISurfS: {Block: BlockStrpI, Name: "LSSURF", Shape: sh(NSMAX), Kind: KindInt},
	IAlbe:  {Block: BlockStrpI, Name: "IALBE", Shape: sh(NSMAX), Kind: KindInt},
	ILoad:  {Block: BlockStrpI, Name: "ILOAD", Shape: sh(NSMAX), Kind: KindInt},

	Gam:  {Block: BlockVrtxR, Name: "GAM", Shape: sh(NVMAX), Kind: KindReal, Diff: true},
	GamU: {Block: BlockVrtxR, Name: "GAM_U", Shape: sh(NUMAX, NVMAX), Kind: KindReal, Diff: true},
	GamD: {Block: BlockVrtxR, Name: "GAM_D", Shape: sh(NDMAX, NVMAX), Kind: KindReal, Diff: true},
	Res:  {Block: BlockVrtxR, Name: "RES", Shape: sh(NVMAX), Kind: KindReal, Diff: true},
	ResU: {Block: BlockVrtxR, Name: "RES_U", Shape: sh(NUMAX, NVMAX), Kind: KindReal, Diff: true},
	ResD: {Block: BlockVrtxR, Name: "RES_D", Shape: sh(NDMAX, NVMAX), Kind: KindReal, Diff: true},
	AICN: {Block: BlockVrtxR, Name: "AICN", Shape: sh(NVMAX, NVMAX), Kind: KindReal},
}

type blockName struct {
	block string
	name  string
}

var index map[blockName]Var

func init() {
	index = make(map[blockName]Var, numVars)
	for v := Var(0); v < numVars; v++ {
		d := table[v]
		if d.Name == "" {
			panic(fmt.Sprintf("state: variable %d has no descriptor", v))
		}
		index[blockName{d.Block, d.Name}] = v
	}
}

// Describe returns the descriptor of v.
func Describe(v Var) (Descriptor, error) {
	if !v.Valid() {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownVariable, v)
	}
	return table[v], nil
}

// Lookup is like Describe but panics on an undeclared variable.
func Lookup(v Var) Descriptor {
	d, err := Describe(v)
	if err != nil {
		panic(err)
	}
	return d
}

// Resolve maps a (block, name) pair to its variable.
func Resolve(block, name string) (Var, error) {
	v, ok := index[blockName{block, name}]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownVariable, block, name)
	}
	return v, nil
}

// Vars lists every declared variable in declaration order.
func Vars() []Var {
	out := make([]Var, numVars)
	for i := range out {
		out[i] = Var(i)
	}
	return out
}

// Blocks lists the block names in sorted order.
func Blocks() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range table {
		if !seen[d.Block] {
			seen[d.Block] = true
			out = append(out, d.Block)
		}
	}
	sort.Strings(out)
	return out
}

func (v Var) String() string {
	if v < 0 || v >= numVars {
		return fmt.Sprintf("var(%d)", int(v))
	}
	return table[v].Block + "." + table[v].Name
}

// Valid reports whether v is a declared variable.
func (v Var) Valid() bool {
	return v >= 0 && v < numVars
}
