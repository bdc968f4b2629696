package solver

import (
	"fmt"
	"slices"

	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/state"
)

// Force and moment coefficients exposed as outputs.
var FuncNames = []string{"CL", "CD", "CDi", "CM", "CR"}

var funcVars = map[string]state.Var{
	"CL":  state.CLTot,
	"CD":  state.CDTot,
	"CDi": state.CDiTot,
	"CM":  state.CMTot,
	"CR":  state.CRTot,
}

// Coefficients with stability and control derivatives, and the variables
// holding those derivatives.
var derivFuncs = []string{"CL", "CD", "CM", "CR"}

var derivVars = map[string][2]state.Var{
	"CL": {state.CLTotU, state.CLTotD},
	"CD": {state.CDTotU, state.CDTotD},
	"CM": {state.CMTotU, state.CMTotD},
	"CR": {state.CRTotU, state.CRTotD},
}

// FreestreamNames are the constraint variables with stability derivatives,
// in CONVAL order.
var FreestreamNames = geom.FreestreamNames

// ReferenceNames are the differentiable reference quantities.
var ReferenceNames = []string{"Sref", "Cref", "Bref"}

var referenceVars = map[string]state.Var{
	"Sref": state.Sref,
	"Cref": state.Cref,
	"Bref": state.Bref,
}

// ParameterNames are the run-case parameters in PARVAL order.
var ParameterNames = []string{
	"alpha", "beta", "pb/2V", "qc/2V", "rb/2V", "CL", "CD0",
	"bank", "elevation", "heading", "Mach", "velocity", "density",
	"grav.acc.", "turn_rad.", "load_fac.", "X cg", "Y cg", "Z cg", "mass",
	"Ixx", "Iyy", "Izz", "Ixy", "Iyz", "Izx",
	"visc CL_a", "visc CL_u", "visc CM_a", "visc CM_u",
}

// StabDerivName names the derivative of fn with respect to a freestream variable.
func StabDerivName(fn, v string) string { return "d" + fn + "/d" + v }

func parameterIndex(name string) (int, error) {
	if i := slices.Index(ParameterNames, name); i >= 0 {
		return i, nil
	}
	return 0, fmt.Errorf("%w: parameter %q", ErrUnknownName, name)
}

// constraintSlot maps a constraint name to its CONVAL slot.
func (i *Instance) constraintSlot(name string) (int, error) {
	if k := slices.Index(FreestreamNames, name); k >= 0 {
		return k, nil
	}
	if k := slices.Index(i.ControlNames(), name); k >= 0 {
		return state.NUMAX + k, nil
	}
	return 0, fmt.Errorf("%w: constraint %q", ErrUnknownName, name)
}

// ConstraintNames lists the freestream variables followed by the controls.
func (i *Instance) ConstraintNames() []string {
	return append(slices.Clone(FreestreamNames), i.ControlNames()...)
}

// derivRef resolves a stability or control derivative name such as
// "dCL/dalpha" or "dCM/delevator".
func (i *Instance) derivRef(name string) (state.Var, state.Slice, bool, error) {
	for _, fn := range derivFuncs {
		vars := derivVars[fn]
		for k, v := range FreestreamNames {
			if name == StabDerivName(fn, v) {
				return vars[0], state.Index(k), true, nil
			}
		}
		for k, c := range i.ControlNames() {
			if name == StabDerivName(fn, c) {
				return vars[1], state.Index(k), false, nil
			}
		}
	}
	return 0, nil, false, fmt.Errorf("%w: derivative %q", ErrUnknownName, name)
}

// StabDerivNames lists every stability derivative name.
func StabDerivNames() []string {
	var out []string
	for _, fn := range derivFuncs {
		for _, v := range FreestreamNames {
			out = append(out, StabDerivName(fn, v))
		}
	}
	return out
}

// ControlDerivNames lists every control derivative name of the instance.
func (i *Instance) ControlDerivNames() []string {
	var out []string
	for _, fn := range derivFuncs {
		for _, c := range i.ControlNames() {
			out = append(out, StabDerivName(fn, c))
		}
	}
	return out
}
