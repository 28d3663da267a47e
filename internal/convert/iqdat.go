package convert

import (
	"fmt"
	"math"

	"github.com/superdarn/borealisio/internal/dmap"
	"github.com/superdarn/borealisio/pkg/types"
)

// bfiqRecordToIQDAT fans one bfiq record out into one iqdat wire record
// per beam. Samples are ordered sequence-major, then antenna array,
// then sample, with real and imaginary parts interleaved, as specified
// by SuperDARN RFC 0027.
func bfiqRecordToIQDAT(key string, rec types.Record, sliceID int, origin string, scaling float64) ([]*dmap.WireRecord, error) {
	m, err := metaOf(key, rec, sliceID)
	if err != nil {
		return nil, err
	}
	dims, err := rec.Tensor("data_dimensions").Ints()
	if err != nil {
		return nil, fmt.Errorf("data_dimensions: %w", err)
	}
	if len(dims) != 4 {
		return nil, fmt.Errorf("data_dimensions has %d entries, want 4", len(dims))
	}
	numArrays, numSeq, numBeams, numSamps := dims[0], dims[1], dims[2], dims[3]
	if numBeams != len(m.beamNums) {
		return nil, fmt.Errorf("data holds %d beams but beam_nums lists %d", numBeams, len(m.beamNums))
	}
	data, err := rec.Tensor("data").Complex64s()
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	if len(data) != numArrays*numSeq*numBeams*numSamps {
		return nil, fmt.Errorf("data length %d does not match dimensions %v", len(data), dims)
	}
	arrayOrder, err := rec.Tensor("antenna_arrays_order").Strings()
	if err != nil {
		return nil, fmt.Errorf("antenna_arrays_order: %w", err)
	}
	norm, err := floatScalar(rec, "data_normalization_factor")
	if err != nil {
		return nil, err
	}
	scale := int16Max * scaling / norm

	numRanges, err := uintScalar(rec, "num_ranges")
	if err != nil {
		return nil, err
	}
	firstRange, _ := floatScalar(rec, "first_range")
	rangeSep, _ := floatScalar(rec, "range_sep")
	freq, _ := uintScalar(rec, "freq")

	xcf := int16(0)
	for _, name := range arrayOrder {
		if name == "intf" {
			xcf = 1
		}
	}

	// per-sequence byte offset of one sequence's interleaved samples
	offset := 2 * numArrays * numSamps

	tsc := make([]int32, numSeq)
	tus := make([]int32, numSeq)
	for i, ts := range m.timestamps[:numSeq] {
		tsc[i] = int32(math.Floor(ts / 1e3))
		tus[i] = int32(math.Mod(ts, 1000.0) * 1e3)
	}
	tatten := make([]int16, numSeq)
	tnoise := make([]float32, numSeq)
	for i, n := range m.noise[:numSeq] {
		tnoise[i] = float32(n)
	}
	toff := make([]int32, numSeq)
	tsze := make([]int32, numSeq)
	for i := range toff {
		toff[i] = int32(i * offset)
		tsze[i] = int32(offset)
	}
	ptab, ptabDims, ltab, ltabDims := pulseTables(m)

	out := make([]*dmap.WireRecord, 0, len(m.beamNums))
	for beamIdx, beam := range m.beamNums {
		intData := make([]int16, 2*numSeq*numArrays*numSamps)
		pos := 0
		for s := 0; s < numSeq; s++ {
			for a := 0; a < numArrays; a++ {
				base := ((a*numSeq+s)*numBeams + beamIdx) * numSamps
				for samp := 0; samp < numSamps; samp++ {
					c := data[base+samp]
					intData[pos] = saturate(float64(real(c)) * scale)
					intData[pos+1] = saturate(float64(imag(c)) * scale)
					pos += 2
				}
			}
		}

		b := newBuilder()
		writeCommon(b, m, rec, -1)
		writeBeamAndTiming(b, m, rec, beam, beamIdx)
		b.scalar("nrang", dmap.Short, int16(numRanges))
		b.scalar("frang", dmap.Short, int16(math.Round(firstRange)))
		b.scalar("rsep", dmap.Short, int16(math.Round(rangeSep)))
		b.scalar("xcf", dmap.Short, xcf)
		b.scalar("tfreq", dmap.Short, int16(freq))
		b.scalar("mxpwr", dmap.Int, int32(-1))
		b.scalar("lvmax", dmap.Int, int32(20000))
		b.scalar("iqdata.revision.major", dmap.Int, int32(1))
		b.scalar("iqdata.revision.minor", dmap.Int, int32(0))
		b.scalar("combf", dmap.String, combf(origin, key, scaling, len(m.beamNums), rec))
		b.scalar("seqnum", dmap.Int, int32(numSeq))
		b.scalar("chnnum", dmap.Int, int32(len(arrayOrder)))
		b.scalar("smpnum", dmap.Int, int32(numSamps))
		b.scalar("skpnum", dmap.Int, int32(firstRange/rangeSep))
		b.vector("ptab", dmap.Short, ptabDims, ptab)
		b.vector("ltab", dmap.Short, ltabDims, ltab)
		b.vector("tsc", dmap.Int, []int32{int32(numSeq)}, tsc)
		b.vector("tus", dmap.Int, []int32{int32(numSeq)}, tus)
		b.vector("tatten", dmap.Short, []int32{int32(numSeq)}, tatten)
		b.vector("tnoise", dmap.Float, []int32{int32(numSeq)}, tnoise)
		b.vector("toff", dmap.Int, []int32{int32(numSeq)}, toff)
		b.vector("tsze", dmap.Int, []int32{int32(numSeq)}, tsze)
		b.vector("data", dmap.Short, []int32{int32(len(intData))}, intData)
		if b.err != nil {
			return nil, b.err
		}
		if err := dmap.IQDAT.Check(b.rec); err != nil {
			return nil, err
		}
		out = append(out, b.rec)
	}
	return out, nil
}
