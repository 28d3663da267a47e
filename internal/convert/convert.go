// Package convert turns borealis voltage and correlation records into
// the legacy per-beam SDARN wire records: bfiq becomes iqdat and rawacf
// becomes legacy rawacf. Every borealis record fans out into one wire
// record per beam.
package convert

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/superdarn/borealisio/internal/dmap"
	"github.com/superdarn/borealisio/internal/errs"
	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/pkg/types"
)

const (
	int16Max = 32767
	int16Min = -32768

	// origin.code value marking borealis-produced data.
	originCode = int8(100)
)

// Convert dispatches a record set to the wire format its file type maps
// to and returns the produced records with their schema.
func Convert(rs *types.RecordSet, fileType schema.FileType, sliceID int, origin string, scaling float64) ([]*dmap.WireRecord, *dmap.Schema, error) {
	switch fileType {
	case schema.Bfiq:
		recs, err := ToIQDAT(rs, sliceID, origin, scaling)
		return recs, dmap.IQDAT, err
	case schema.Rawacf:
		recs, err := ToRawacf(rs, sliceID, origin, scaling)
		return recs, dmap.Rawacf, err
	}
	return nil, nil, &errs.ConversionTypesError{Source: string(fileType), Target: "iqdat or rawacf"}
}

// ToIQDAT converts bfiq records to per-beam iqdat wire records. The
// sliceID is used as the channel identifier when the records predate
// the slice_id field; pass a negative value to require the field.
func ToIQDAT(rs *types.RecordSet, sliceID int, origin string, scaling float64) ([]*dmap.WireRecord, error) {
	if err := checkConvertible(rs, true); err != nil {
		return nil, err
	}
	var out []*dmap.WireRecord
	err := rs.Range(func(key string, rec types.Record) error {
		recs, err := bfiqRecordToIQDAT(key, rec, sliceID, origin, scaling)
		if err != nil {
			return fmt.Errorf("record %s: %w", key, err)
		}
		out = append(out, recs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToRawacf converts borealis rawacf records to per-beam legacy rawacf
// wire records.
func ToRawacf(rs *types.RecordSet, sliceID int, origin string, scaling float64) ([]*dmap.WireRecord, error) {
	if err := checkConvertible(rs, false); err != nil {
		return nil, err
	}
	var out []*dmap.WireRecord
	err := rs.Range(func(key string, rec types.Record) error {
		recs, err := rawacfRecordToRawacf(key, rec, sliceID, origin, scaling)
		if err != nil {
			return fmt.Errorf("record %s: %w", key, err)
		}
		out = append(out, recs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkConvertible gates the conversion: blanked_samples must be
// reproducible from the pulse table, and for iqdat every
// pulse_phase_offset must be zero. All records are checked before any
// output is produced.
func checkConvertible(rs *types.RecordSet, iqdat bool) error {
	return rs.Range(func(key string, rec types.Record) error {
		major, minor := radarRevision(rec)
		if err := checkBlankedSamples(key, rec, major, minor); err != nil {
			return err
		}
		if !iqdat {
			return nil
		}
		ppo := rec.Tensor("pulse_phase_offset")
		if ppo == nil {
			return nil
		}
		for i := 0; i < ppo.Len(); i++ {
			v, err := ppo.Float64At(i)
			if err != nil || v != 0 {
				return &errs.ConversionPreconditionError{
					RecordName: key,
					Field:      "pulse_phase_offset",
					Detail:     "contains non-zero values",
				}
			}
		}
		return nil
	})
}

func checkBlankedSamples(key string, rec types.Record, major, minor int) error {
	fail := func(detail string) error {
		return &errs.ConversionPreconditionError{
			RecordName: key,
			Field:      "blanked_samples",
			Detail:     detail,
		}
	}
	pulsesT := rec.Tensor("pulses")
	if pulsesT == nil {
		return fail("pulses field missing")
	}
	pulses, err := pulsesT.Uint32s()
	if err != nil {
		return fail(err.Error())
	}
	blankedT := rec.Tensor("blanked_samples")
	if blankedT == nil {
		return fail("field missing")
	}
	blanked, err := blankedT.Uint32s()
	if err != nil {
		return fail(err.Error())
	}
	tau, err := uintScalar(rec, "tau_spacing")
	if err != nil {
		return err
	}
	txpl, err := uintScalar(rec, "tx_pulse_len")
	if err != nil {
		return err
	}
	spacing := tau / txpl

	spaced := make([]uint32, len(pulses))
	for i, p := range pulses {
		spaced[i] = p * spacing
	}
	if uint32sEqual(blanked, spaced) {
		return nil
	}
	if major == 0 && minor <= 5 {
		return fail("not the pulse table scaled to sample numbers")
	}
	// Newer radar software also blanks the sample after each pulse.
	withNext := make([]uint32, 0, 2*len(spaced))
	for _, s := range spaced {
		withNext = append(withNext, s, s+1)
	}
	sort.Slice(withNext, func(i, j int) bool { return withNext[i] < withNext[j] })
	if uint32sEqual(blanked, withNext) {
		return nil
	}
	return fail("not the pulse table scaled to sample numbers")
}

func uint32sEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// radarRevision reads the radar software revision from the provenance
// tag. Untagged builds report 255.255, which wraps to -1 in the int8
// wire fields just as the legacy tools expect.
func radarRevision(rec types.Record) (major, minor int) {
	hash, _ := rec["borealis_git_hash"].(string)
	if !strings.HasPrefix(hash, "v") {
		return 255, 255
	}
	parts := strings.Split(strings.SplitN(hash, "-", 2)[0], ".")
	if len(parts) < 2 {
		return 255, 255
	}
	major, errMajor := strconv.Atoi(strings.TrimPrefix(parts[0], "v"))
	minor, errMinor := strconv.Atoi(parts[1])
	if errMajor != nil || errMinor != nil {
		return 255, 255
	}
	return major, minor
}

// channelID resolves the channel identifier: the record's slice_id when
// present, the caller-supplied value otherwise.
func channelID(key string, rec types.Record, sliceID int) (int16, error) {
	if v, ok := rec["slice_id"]; ok {
		if id, ok := v.(uint32); ok {
			return int16(id), nil
		}
	}
	if sliceID < 0 {
		return 0, &errs.ConversionPreconditionError{
			RecordName: key,
			Field:      "slice_id",
			Detail:     "records predate the slice_id field and no channel was supplied",
		}
	}
	return int16(sliceID), nil
}

func saturate(v float64) int16 {
	if v > int16Max {
		return int16Max
	}
	if v < int16Min {
		return int16Min
	}
	return int16(v)
}

// builder collects field writes so one error check covers the whole
// record assembly.
type builder struct {
	rec *dmap.WireRecord
	err error
}

func newBuilder() *builder {
	return &builder{rec: dmap.NewRecord()}
}

func (b *builder) scalar(name string, t dmap.Type, v any) {
	if b.err == nil {
		b.err = b.rec.SetScalar(name, t, v)
	}
}

func (b *builder) vector(name string, t dmap.Type, dims []int32, v any) {
	if b.err == nil {
		b.err = b.rec.SetVector(name, t, dims, v)
	}
}

// meta holds the per-record values common to both target formats.
type meta struct {
	major, minor int
	channel      int16
	stid         int16
	ts           time.Time
	numSequences int
	intTime      float64
	noise        []float64
	pulses       []uint32
	beamNums     []uint32
	beamAzms     []float64
	lagDim       int
	lags         []uint32
	timestamps   []float64
	agc, lopwr   int16
}

func metaOf(key string, rec types.Record, sliceID int) (*meta, error) {
	m := &meta{}
	m.major, m.minor = radarRevision(rec)

	var err error
	if m.channel, err = channelID(key, rec, sliceID); err != nil {
		return nil, err
	}
	station, _ := rec["station"].(string)
	if m.stid, err = Stid(station); err != nil {
		return nil, err
	}
	if m.timestamps, err = rec.Tensor("sqn_timestamps").Float64s(); err != nil {
		return nil, fmt.Errorf("sqn_timestamps: %w", err)
	}
	first := m.timestamps[0]
	sec := math.Floor(first)
	m.ts = time.Unix(int64(sec), int64((first-sec)*1e9)).UTC()

	nseq, err := intScalar(rec, "num_sequences")
	if err != nil {
		return nil, err
	}
	m.numSequences = int(nseq)
	m.intTime, err = floatScalar(rec, "int_time")
	if err != nil {
		return nil, err
	}
	if m.noise, err = rec.Tensor("noise_at_freq").Float64s(); err != nil {
		return nil, fmt.Errorf("noise_at_freq: %w", err)
	}
	if m.pulses, err = rec.Tensor("pulses").Uint32s(); err != nil {
		return nil, fmt.Errorf("pulses: %w", err)
	}
	if m.beamNums, err = rec.Tensor("beam_nums").Uint32s(); err != nil {
		return nil, fmt.Errorf("beam_nums: %w", err)
	}
	if m.beamAzms, err = rec.Tensor("beam_azms").Float64s(); err != nil {
		return nil, fmt.Errorf("beam_azms: %w", err)
	}
	lags := rec.Tensor("lags")
	m.lagDim = lags.Dim(0)
	if m.lags, err = lags.Uint32s(); err != nil {
		return nil, fmt.Errorf("lags: %w", err)
	}
	m.agc = optionalStatusWord(rec, "agc_status_word")
	m.lopwr = optionalStatusWord(rec, "lp_status_word")
	return m, nil
}

// optionalStatusWord reads a transmitter health word, zero for records
// written before the health fields existed.
func optionalStatusWord(rec types.Record, name string) int16 {
	if v, ok := rec[name].(uint32); ok {
		return int16(v)
	}
	return 0
}

// writeCommon emits the fields shared by both wire formats, in the
// legacy order up to the channel block.
func writeCommon(b *builder, m *meta, rec types.Record, txpow int16) {
	hash, _ := rec["borealis_git_hash"].(string)
	experimentName, _ := rec["experiment_name"].(string)

	b.scalar("radar.revision.major", dmap.Char, int8(uint8(m.major)))
	b.scalar("radar.revision.minor", dmap.Char, int8(uint8(m.minor)))
	b.scalar("origin.code", dmap.Char, originCode)
	b.scalar("origin.time", dmap.String, m.ts.Format(time.ANSIC))
	b.scalar("origin.command", dmap.String, "Borealis "+hash+" "+experimentName)

	cp, _ := intScalar(rec, "experiment_id")
	b.scalar("cp", dmap.Short, int16(cp))
	b.scalar("stid", dmap.Short, m.stid)
	b.scalar("time.yr", dmap.Short, int16(m.ts.Year()))
	b.scalar("time.mo", dmap.Short, int16(m.ts.Month()))
	b.scalar("time.dy", dmap.Short, int16(m.ts.Day()))
	b.scalar("time.hr", dmap.Short, int16(m.ts.Hour()))
	b.scalar("time.mt", dmap.Short, int16(m.ts.Minute()))
	b.scalar("time.sc", dmap.Short, int16(m.ts.Second()))
	b.scalar("time.us", dmap.Int, int32(m.ts.Nanosecond()/1000))
	b.scalar("txpow", dmap.Short, txpow)
	b.scalar("nave", dmap.Short, int16(m.numSequences))
	b.scalar("atten", dmap.Short, int16(0))

	firstRangeRTT, _ := floatScalar(rec, "first_range_rtt")
	b.scalar("lagfr", dmap.Short, int16(firstRangeRTT))
	rxRate, _ := floatScalar(rec, "rx_sample_rate")
	b.scalar("smsep", dmap.Short, int16(1e6/rxRate))
	b.scalar("ercod", dmap.Short, int16(0))
	b.scalar("stat.agc", dmap.Short, m.agc)
	b.scalar("stat.lopwr", dmap.Short, m.lopwr)
	b.scalar("noise.search", dmap.Float, float32(m.noise[0]))
	b.scalar("noise.mean", dmap.Float, float32(0))
	b.scalar("channel", dmap.Short, m.channel)
}

// writeBeamAndTiming emits the per-beam and integration-time fields
// shared by both formats.
func writeBeamAndTiming(b *builder, m *meta, rec types.Record, beam uint32, beamIdx int) {
	b.scalar("bmnum", dmap.Short, int16(beam))
	b.scalar("bmazm", dmap.Float, float32(m.beamAzms[beamIdx]))
	scan := int16(0)
	if marker, _ := rec["scan_start_marker"].(bool); marker {
		scan = 1
	}
	b.scalar("scan", dmap.Short, scan)
	b.scalar("offset", dmap.Short, int16(0))
	b.scalar("rxrise", dmap.Short, int16(0))
	b.scalar("intt.sc", dmap.Short, int16(math.Floor(m.intTime)))
	b.scalar("intt.us", dmap.Int, int32(math.Mod(m.intTime, 1.0)*1e6))

	txpl, _ := uintScalar(rec, "tx_pulse_len")
	b.scalar("txpl", dmap.Short, int16(txpl))
	tau, _ := uintScalar(rec, "tau_spacing")
	b.scalar("mpinc", dmap.Short, int16(tau))
	b.scalar("mppul", dmap.Short, int16(len(m.pulses)))
	// borealis keeps an alternate lag zero as the last lag
	b.scalar("mplgs", dmap.Short, int16(m.lagDim-1))
}

func combf(origin, key string, scaling float64, numBeams int, rec types.Record) string {
	experimentComment, _ := rec["experiment_comment"].(string)
	sliceComment, _ := rec["slice_comment"].(string)
	return fmt.Sprintf(
		"Converted from Borealis file: %s record %s with scaling factor = %v ; Number of beams in record: %d ; %s ; %s",
		origin, key, scaling, numBeams, experimentComment, sliceComment)
}

func pulseTables(m *meta) (ptab []int16, ptabDims []int32, ltab []int16, ltabDims []int32) {
	ptab = make([]int16, len(m.pulses))
	for i, p := range m.pulses {
		ptab[i] = int16(p)
	}
	ptabDims = []int32{int32(len(ptab))}
	ltab = make([]int16, len(m.lags))
	for i, l := range m.lags {
		ltab[i] = int16(l)
	}
	ltabDims = []int32{int32(m.lagDim), 2}
	return ptab, ptabDims, ltab, ltabDims
}

func intScalar(rec types.Record, name string) (int64, error) {
	switch v := rec[name].(type) {
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint32:
		return int64(v), nil
	}
	return 0, fmt.Errorf("field %s is not an integer scalar", name)
}

func uintScalar(rec types.Record, name string) (uint32, error) {
	if v, ok := rec[name].(uint32); ok {
		return v, nil
	}
	return 0, fmt.Errorf("field %s is not a uint32 scalar", name)
}

func floatScalar(rec types.Record, name string) (float64, error) {
	switch v := rec[name].(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, fmt.Errorf("field %s is not a float scalar", name)
}
