package convert

import (
	"fmt"
	"math"

	"github.com/superdarn/borealisio/internal/dmap"
	"github.com/superdarn/borealisio/pkg/types"
)

// rawacfRecordToRawacf fans one borealis rawacf record out into one
// legacy rawacf wire record per beam. Correlations are rescaled by the
// squared integer maximum over the squared normalization factor,
// matching the multiply in the correlation itself, and the alternate
// lag zero kept as the last borealis lag is dropped.
func rawacfRecordToRawacf(key string, rec types.Record, sliceID int, origin string, scaling float64) ([]*dmap.WireRecord, error) {
	m, err := metaOf(key, rec, sliceID)
	if err != nil {
		return nil, err
	}
	dims, err := rec.Tensor("correlation_dimensions").Ints()
	if err != nil {
		return nil, fmt.Errorf("correlation_dimensions: %w", err)
	}
	if len(dims) != 3 {
		return nil, fmt.Errorf("correlation_dimensions has %d entries, want 3", len(dims))
	}
	numBeams, numRanges, numLags := dims[0], dims[1], dims[2]
	if numBeams != len(m.beamNums) {
		return nil, fmt.Errorf("correlations hold %d beams but beam_nums lists %d", numBeams, len(m.beamNums))
	}
	main, err := rec.Tensor("main_acfs").Complex64s()
	if err != nil {
		return nil, fmt.Errorf("main_acfs: %w", err)
	}
	xcfs, err := rec.Tensor("xcfs").Complex64s()
	if err != nil {
		return nil, fmt.Errorf("xcfs: %w", err)
	}
	want := numBeams * numRanges * numLags
	if len(main) != want || len(xcfs) != want {
		return nil, fmt.Errorf("correlation length does not match dimensions %v", dims)
	}
	norm, err := floatScalar(rec, "data_normalization_factor")
	if err != nil {
		return nil, err
	}
	scale := float64(int16Max) * float64(int16Max) * scaling / (norm * norm)

	firstRange, _ := floatScalar(rec, "first_range")
	rangeSep, _ := floatScalar(rec, "range_sep")
	freq, _ := uintScalar(rec, "freq")

	slist := make([]int16, numRanges)
	for i := range slist {
		slist[i] = int16(i)
	}
	ptab, ptabDims, ltab, ltabDims := pulseTables(m)

	out := make([]*dmap.WireRecord, 0, len(m.beamNums))
	for beamIdx, beam := range m.beamNums {
		pwr0 := make([]float32, numRanges)
		for r := 0; r < numRanges; r++ {
			c := main[(beamIdx*numRanges+r)*numLags]
			re := float64(real(c)) * scale
			im := float64(imag(c)) * scale
			pwr0[r] = float32(math.Sqrt(re*re + im*im))
		}
		acfd := dropAlternateLagZero(main, beamIdx, numRanges, numLags, scale)
		xcfd := dropAlternateLagZero(xcfs, beamIdx, numRanges, numLags, scale)
		corrDims := []int32{int32(numRanges), int32(numLags - 1), 2}

		b := newBuilder()
		writeCommon(b, m, rec, -1)
		writeBeamAndTiming(b, m, rec, beam, beamIdx)
		b.scalar("nrang", dmap.Short, int16(numRanges))
		b.scalar("frang", dmap.Short, int16(math.Round(firstRange)))
		b.scalar("rsep", dmap.Short, int16(math.Round(rangeSep)))
		b.scalar("xcf", dmap.Short, int16(1))
		b.scalar("tfreq", dmap.Short, int16(freq))
		b.scalar("mxpwr", dmap.Int, int32(-1))
		b.scalar("lvmax", dmap.Int, int32(20000))
		b.scalar("rawacf.revision.major", dmap.Int, int32(1))
		b.scalar("rawacf.revision.minor", dmap.Int, int32(0))
		b.scalar("combf", dmap.String, combf(origin, key, scaling, len(m.beamNums), rec))
		b.scalar("thr", dmap.Float, float32(0))
		b.vector("ptab", dmap.Short, ptabDims, ptab)
		b.vector("ltab", dmap.Short, ltabDims, ltab)
		b.vector("pwr0", dmap.Float, []int32{int32(numRanges)}, pwr0)
		b.vector("slist", dmap.Short, []int32{int32(numRanges)}, slist)
		b.vector("acfd", dmap.Float, corrDims, acfd)
		b.vector("xcfd", dmap.Float, corrDims, xcfd)
		if b.err != nil {
			return nil, b.err
		}
		if err := dmap.Rawacf.Check(b.rec); err != nil {
			return nil, err
		}
		out = append(out, b.rec)
	}
	return out, nil
}

// dropAlternateLagZero extracts one beam's correlations with the last
// lag removed, interleaving real and imaginary parts.
func dropAlternateLagZero(corr []complex64, beamIdx, numRanges, numLags int, scale float64) []float32 {
	out := make([]float32, 2*numRanges*(numLags-1))
	pos := 0
	for r := 0; r < numRanges; r++ {
		base := (beamIdx*numRanges + r) * numLags
		for l := 0; l < numLags-1; l++ {
			c := corr[base+l]
			out[pos] = float32(float64(real(c)) * scale)
			out[pos+1] = float32(float64(imag(c)) * scale)
			pos += 2
		}
	}
	return out
}
