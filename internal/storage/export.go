package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/vlsens/internal/solver"
)

type ExportData struct {
	Title         string                         `json:"title"`
	Kernel        string                         `json:"kernel"`
	Forces        map[string]float64             `json:"forces"`
	StabDerivs    map[string]float64             `json:"stability_derivatives,omitempty"`
	ControlDerivs map[string]float64             `json:"control_derivatives,omitempty"`
	Surfaces      map[string]solver.SurfaceForce `json:"surfaces,omitempty"`
	Strips        []solver.Strip                 `json:"strips,omitempty"`
	Sensitivities []Row                          `json:"sensitivities,omitempty"`
}

// Collect gathers the results of a solved instance, plus res when non-nil.
func Collect(inst *solver.Instance, title string, res solver.Result) (*ExportData, error) {
	forces, err := inst.TotalForces()
	if err != nil {
		return nil, err
	}
	stab, err := inst.StabilityDerivs()
	if err != nil {
		return nil, err
	}
	ctrl, err := inst.ControlDerivs()
	if err != nil {
		return nil, err
	}
	surfs, err := inst.SurfaceForces()
	if err != nil {
		return nil, err
	}
	strips, err := inst.StripData()
	if err != nil {
		return nil, err
	}
	data := &ExportData{
		Title:         title,
		Kernel:        inst.KernelName(),
		Forces:        forces,
		StabDerivs:    stab,
		ControlDerivs: ctrl,
		Surfaces:      surfs,
		Strips:        strips,
	}
	if res != nil {
		data.Sensitivities = Flatten(res)
	}
	return data, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, data)
}
