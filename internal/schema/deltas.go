package schema

import "github.com/superdarn/borealisio/pkg/types"

// Version deltas. Each function mutates a freshly built base format,
// mirroring the field changes the radar software made at that release.

// v0.5 added slice bookkeeping fields to all products and moved
// blanked_samples from shared to unshared, which requires the
// num_blanked_samples counter in array files.

func applyRawacfV05(f *Format) {
	addScalars(f, map[string]types.DType{
		"slice_id":            types.Uint32,
		"slice_interfacing":   types.String,
		"scheduling_mode":     types.String,
		"averaging_method":    types.String,
		"num_blanked_samples": types.Uint32,
	})
	f.Shared = append(f.Shared, "slice_id", "scheduling_mode", "averaging_method")
	removeShared(f, "blanked_samples")
	addBlankedSamplesDims(f)
}

func applyBfiqV05(f *Format) {
	addScalars(f, map[string]types.DType{
		"slice_id":            types.Uint32,
		"slice_interfacing":   types.String,
		"scheduling_mode":     types.String,
		"num_blanked_samples": types.Uint32,
	})
	f.Shared = append(f.Shared, "slice_id", "scheduling_mode")
	removeShared(f, "blanked_samples")
	addBlankedSamplesDims(f)
}

func applyAntennasIQV05(f *Format) {
	addScalars(f, map[string]types.DType{
		"slice_id":            types.Uint32,
		"slice_interfacing":   types.String,
		"scheduling_mode":     types.String,
		"num_blanked_samples": types.Uint32,
	})
	f.TensorTypes["blanked_samples"] = types.Uint32
	f.Shared = append(f.Shared, "slice_id", "scheduling_mode")
	addBlankedSamplesDims(f)
}

func applyRawrfV05(f *Format) {
	f.ScalarTypes["scheduling_mode"] = types.String
	f.TensorTypes["blanked_samples"] = types.Uint32
}

// v0.6 added transmitter and GPS health fields to all products,
// narrowed experiment_id to 16 bits for wire format compatibility, and
// made pulse_phase_offset per-record in the iq products.

func applyV06Health(f *Format) {
	addScalars(f, map[string]types.DType{
		"agc_status_word":         types.Uint32,
		"lp_status_word":          types.Uint32,
		"gps_locked":              types.Bool,
		"gps_to_system_time_diff": types.Float64,
	})
	f.ScalarTypes["experiment_id"] = types.Int16
	if !f.Restructureable {
		return
	}
	for _, field := range []string{"agc_status_word", "lp_status_word", "gps_locked", "gps_to_system_time_diff"} {
		f.DimsArray[field] = []ArrayDimFn{}
		f.DimsSite[field] = []SiteDimFn{}
	}
}

func applyPPOUnshared(f *Format) {
	removeShared(f, "pulse_phase_offset")
	f.DimsArray["pulse_phase_offset"] = []ArrayDimFn{maxPulsePhaseOffset}
	f.DimsSite["pulse_phase_offset"] = []SiteDimFn{ppoSiteDim()}
}

func addBlankedSamplesDims(f *Format) {
	f.DimsArray["blanked_samples"] = []ArrayDimFn{maxFieldLen("blanked_samples")}
	f.DimsArray["slice_interfacing"] = []ArrayDimFn{}
	f.DimsSite["blanked_samples"] = []SiteDimFn{counterDim("num_blanked_samples")}
	f.DimsSite["slice_interfacing"] = []SiteDimFn{}
	f.ArrayGen["num_blanked_samples"] = genFieldLens("blanked_samples")
	f.ArrayGenIter["num_blanked_samples"] = iterFieldLen("blanked_samples")
}

func addScalars(f *Format, fields map[string]types.DType) {
	for name, d := range fields {
		f.ScalarTypes[name] = d
	}
}

func removeShared(f *Format, name string) {
	for i, s := range f.Shared {
		if s == name {
			f.Shared = append(f.Shared[:i], f.Shared[i+1:]...)
			return
		}
	}
}
