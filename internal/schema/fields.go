package schema

import "github.com/superdarn/borealisio/pkg/types"

// Base field tables for radar software v0.4, which also serve v0.2 and
// v0.3 files. Later versions apply the deltas in deltas.go on top.

func rawacfBase() *Format {
	return &Format{
		FileType:        Rawacf,
		Restructureable: true,
		ScalarTypes: map[string]types.DType{
			"borealis_git_hash":         types.String,
			"experiment_id":             types.Int64,
			"experiment_name":           types.String,
			"experiment_comment":        types.String,
			"slice_comment":             types.String,
			"num_slices":                types.Int64,
			"station":                   types.String,
			"num_sequences":             types.Int64,
			"range_sep":                 types.Float32,
			"first_range_rtt":           types.Float32,
			"first_range":               types.Float32,
			"rx_sample_rate":            types.Float64,
			"scan_start_marker":         types.Bool,
			"int_time":                  types.Float32,
			"tx_pulse_len":              types.Uint32,
			"tau_spacing":               types.Uint32,
			"main_antenna_count":        types.Uint32,
			"intf_antenna_count":        types.Uint32,
			"freq":                      types.Uint32,
			"samples_data_type":         types.String,
			"data_normalization_factor": types.Float64,
			"num_beams":                 types.Uint32,
		},
		TensorTypes: map[string]types.DType{
			"pulses":                  types.Uint32,
			"lags":                    types.Uint32,
			"blanked_samples":         types.Uint32,
			"sqn_timestamps":          types.Float64,
			"beam_nums":               types.Uint32,
			"beam_azms":               types.Float64,
			"noise_at_freq":           types.Float64,
			"correlation_descriptors": types.String,
			"correlation_dimensions":  types.Uint32,
			"main_acfs":               types.Complex64,
			"intf_acfs":               types.Complex64,
			"xcfs":                    types.Complex64,
		},
		Shared: []string{
			"blanked_samples", "borealis_git_hash",
			"data_normalization_factor", "experiment_comment",
			"experiment_id", "experiment_name", "first_range",
			"first_range_rtt", "freq", "intf_antenna_count", "lags",
			"main_antenna_count", "pulses", "range_sep",
			"rx_sample_rate", "samples_data_type", "slice_comment",
			"station", "tau_spacing", "tx_pulse_len",
		},
		DimsArray: map[string][]ArrayDimFn{
			"num_sequences":     {},
			"int_time":          {},
			"sqn_timestamps":    {maxSequences},
			"noise_at_freq":     {maxSequences},
			"main_acfs":         {maxBeams, firstRecordElem("correlation_dimensions", 1), firstRecordElem("correlation_dimensions", 2)},
			"intf_acfs":         {maxBeams, firstRecordElem("correlation_dimensions", 1), firstRecordElem("correlation_dimensions", 2)},
			"xcfs":              {maxBeams, firstRecordElem("correlation_dimensions", 1), firstRecordElem("correlation_dimensions", 2)},
			"scan_start_marker": {},
			"beam_nums":         {maxBeams},
			"beam_azms":         {maxBeams},
			"num_slices":        {},
		},
		DimsSite: map[string][]SiteDimFn{
			"num_sequences":     {},
			"int_time":          {},
			"sqn_timestamps":    {counterDim("num_sequences")},
			"noise_at_freq":     {counterDim("num_sequences")},
			"main_acfs":         {counterDim("num_beams"), shapeDim("main_acfs", 2), shapeDim("main_acfs", 3)},
			"intf_acfs":         {counterDim("num_beams"), shapeDim("main_acfs", 2), shapeDim("main_acfs", 3)},
			"xcfs":              {counterDim("num_beams"), shapeDim("main_acfs", 2), shapeDim("main_acfs", 3)},
			"scan_start_marker": {},
			"beam_nums":         {counterDim("num_beams")},
			"beam_azms":         {counterDim("num_beams")},
			"num_slices":        {},
		},
		ArrayGen: map[string]ArrayGenFn{
			"num_beams":               genNumBeams,
			"correlation_descriptors": genDescriptors("num_records", "max_num_beams", "num_ranges", "num_lags"),
		},
		ArrayGenIter: map[string]RecordGenFn{
			"num_beams": iterFieldLen("beam_nums"),
		},
		SiteGen: map[string]SiteGenFn{
			"correlation_descriptors": genSiteDescriptors("num_beams", "num_ranges", "num_lags"),
			"correlation_dimensions": genDimsVector(
				counterDim("num_beams"), shapeDim("main_acfs", 2), shapeDim("main_acfs", 3)),
		},
		FlattenedFields: []string{"main_acfs", "intf_acfs", "xcfs"},
		DimsSource:      "correlation_dimensions",
	}
}

func bfiqBase() *Format {
	return &Format{
		FileType:        Bfiq,
		Restructureable: true,
		ScalarTypes: map[string]types.DType{
			"borealis_git_hash":         types.String,
			"experiment_id":             types.Int64,
			"experiment_name":           types.String,
			"experiment_comment":        types.String,
			"slice_comment":             types.String,
			"num_slices":                types.Int64,
			"station":                   types.String,
			"num_sequences":             types.Int64,
			"rx_sample_rate":            types.Float64,
			"scan_start_marker":         types.Bool,
			"int_time":                  types.Float32,
			"tx_pulse_len":              types.Uint32,
			"tau_spacing":               types.Uint32,
			"main_antenna_count":        types.Uint32,
			"intf_antenna_count":        types.Uint32,
			"freq":                      types.Uint32,
			"samples_data_type":         types.String,
			"num_samps":                 types.Uint32,
			"range_sep":                 types.Float32,
			"first_range_rtt":           types.Float32,
			"first_range":               types.Float32,
			"num_ranges":                types.Uint32,
			"data_normalization_factor": types.Float64,
			"num_beams":                 types.Uint32,
		},
		TensorTypes: map[string]types.DType{
			"pulses":               types.Uint32,
			"lags":                 types.Uint32,
			"blanked_samples":      types.Uint32,
			"pulse_phase_offset":   types.Float32,
			"sqn_timestamps":       types.Float64,
			"beam_nums":            types.Uint32,
			"beam_azms":            types.Float64,
			"noise_at_freq":        types.Float64,
			"antenna_arrays_order": types.String,
			"data_descriptors":     types.String,
			"data_dimensions":      types.Uint32,
			"data":                 types.Complex64,
		},
		Shared: []string{
			"antenna_arrays_order", "blanked_samples",
			"borealis_git_hash", "data_normalization_factor",
			"experiment_comment", "experiment_id", "experiment_name",
			"first_range", "first_range_rtt", "freq",
			"intf_antenna_count", "lags", "main_antenna_count",
			"num_ranges", "num_samps", "pulse_phase_offset", "pulses",
			"range_sep", "rx_sample_rate", "samples_data_type",
			"slice_comment", "station", "tau_spacing", "tx_pulse_len",
		},
		DimsArray: map[string][]ArrayDimFn{
			"num_sequences":     {},
			"int_time":          {},
			"sqn_timestamps":    {maxSequences},
			"noise_at_freq":     {maxSequences},
			"data":              {firstRecordElem("data_dimensions", 0), maxSequences, maxBeams, firstRecordElem("data_dimensions", 3)},
			"scan_start_marker": {},
			"beam_nums":         {maxBeams},
			"beam_azms":         {maxBeams},
			"num_slices":        {},
		},
		DimsSite: map[string][]SiteDimFn{
			"num_sequences":     {},
			"int_time":          {},
			"sqn_timestamps":    {counterDim("num_sequences")},
			"noise_at_freq":     {counterDim("num_sequences")},
			"data":              {shapeDim("data", 1), counterDim("num_sequences"), counterDim("num_beams"), shapeDim("data", 4)},
			"scan_start_marker": {},
			"beam_nums":         {counterDim("num_beams")},
			"beam_azms":         {counterDim("num_beams")},
			"num_slices":        {},
		},
		ArrayGen: map[string]ArrayGenFn{
			"num_beams":        genNumBeams,
			"data_descriptors": genDescriptors("num_records", "num_antenna_arrays", "max_num_sequences", "max_num_beams", "num_samps"),
		},
		ArrayGenIter: map[string]RecordGenFn{
			"num_beams": iterFieldLen("beam_nums"),
		},
		SiteGen: map[string]SiteGenFn{
			"data_descriptors": genSiteDescriptors("num_antenna_arrays", "num_sequences", "num_beams", "num_samps"),
			"data_dimensions": genDimsVector(
				shapeDim("data", 1), counterDim("num_sequences"),
				counterDim("num_beams"), shapeDim("data", 4)),
		},
		FlattenedFields: []string{"data"},
		DimsSource:      "data_dimensions",
	}
}

func antennasIQBase() *Format {
	return &Format{
		FileType:        AntennasIQ,
		Restructureable: true,
		ScalarTypes: map[string]types.DType{
			"borealis_git_hash":         types.String,
			"experiment_id":             types.Int64,
			"experiment_name":           types.String,
			"experiment_comment":        types.String,
			"slice_comment":             types.String,
			"num_slices":                types.Int64,
			"station":                   types.String,
			"num_sequences":             types.Int64,
			"rx_sample_rate":            types.Float64,
			"scan_start_marker":         types.Bool,
			"int_time":                  types.Float32,
			"tx_pulse_len":              types.Uint32,
			"tau_spacing":               types.Uint32,
			"main_antenna_count":        types.Uint32,
			"intf_antenna_count":        types.Uint32,
			"freq":                      types.Uint32,
			"samples_data_type":         types.String,
			"num_samps":                 types.Uint32,
			"data_normalization_factor": types.Float64,
			"num_beams":                 types.Uint32,
		},
		TensorTypes: map[string]types.DType{
			"pulses":               types.Uint32,
			"pulse_phase_offset":   types.Float32,
			"sqn_timestamps":       types.Float64,
			"beam_nums":            types.Uint32,
			"beam_azms":            types.Float64,
			"noise_at_freq":        types.Float64,
			"antenna_arrays_order": types.String,
			"data_descriptors":     types.String,
			"data_dimensions":      types.Uint32,
			"data":                 types.Complex64,
		},
		Shared: []string{
			"antenna_arrays_order", "borealis_git_hash",
			"data_normalization_factor", "experiment_comment",
			"experiment_id", "experiment_name", "freq",
			"intf_antenna_count", "main_antenna_count", "num_samps",
			"pulse_phase_offset", "pulses", "rx_sample_rate",
			"samples_data_type", "slice_comment", "station",
			"tau_spacing", "tx_pulse_len",
		},
		DimsArray: map[string][]ArrayDimFn{
			"num_sequences":     {},
			"int_time":          {},
			"sqn_timestamps":    {maxSequences},
			"noise_at_freq":     {maxSequences},
			"data":              {firstRecordElem("data_dimensions", 0), maxSequences, firstRecordElem("data_dimensions", 2)},
			"scan_start_marker": {},
			"beam_nums":         {maxBeams},
			"beam_azms":         {maxBeams},
			"num_slices":        {},
		},
		DimsSite: map[string][]SiteDimFn{
			"num_sequences":     {},
			"int_time":          {},
			"sqn_timestamps":    {counterDim("num_sequences")},
			"noise_at_freq":     {counterDim("num_sequences")},
			"data":              {shapeDim("data", 1), counterDim("num_sequences"), shapeDim("data", 3)},
			"scan_start_marker": {},
			"beam_nums":         {counterDim("num_beams")},
			"beam_azms":         {counterDim("num_beams")},
			"num_slices":        {},
		},
		ArrayGen: map[string]ArrayGenFn{
			"num_beams":        genNumBeams,
			"data_descriptors": genDescriptors("num_records", "num_antennas", "max_num_sequences", "num_samps"),
		},
		ArrayGenIter: map[string]RecordGenFn{
			"num_beams": iterFieldLen("beam_nums"),
		},
		SiteGen: map[string]SiteGenFn{
			"data_descriptors": genSiteDescriptors("num_antennas", "num_sequences", "num_samps"),
			"data_dimensions": genDimsVector(
				shapeDim("data", 1), counterDim("num_sequences"), shapeDim("data", 3)),
		},
		FlattenedFields: []string{"data"},
		DimsSource:      "data_dimensions",
	}
}

func rawrfBase() *Format {
	return &Format{
		FileType:        Rawrf,
		Restructureable: false,
		ScalarTypes: map[string]types.DType{
			"borealis_git_hash":  types.String,
			"experiment_id":      types.Int64,
			"experiment_name":    types.String,
			"experiment_comment": types.String,
			"num_slices":         types.Int64,
			"station":            types.String,
			"num_sequences":      types.Int64,
			"rx_sample_rate":     types.Float64,
			"scan_start_marker":  types.Bool,
			"int_time":           types.Float32,
			"main_antenna_count": types.Uint32,
			"intf_antenna_count": types.Uint32,
			"samples_data_type":  types.String,
			"rx_center_freq":     types.Float64,
			"num_samps":          types.Uint32,
		},
		TensorTypes: map[string]types.DType{
			"sqn_timestamps":   types.Float64,
			"data_descriptors": types.String,
			"data_dimensions":  types.Uint32,
			"data":             types.Complex64,
		},
		FlattenedFields: []string{"data"},
		DimsSource:      "data_dimensions",
	}
}
