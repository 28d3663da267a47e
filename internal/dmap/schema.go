package dmap

import (
	"fmt"
	"sort"
)

// Schema declares the scalar and vector fields a wire record must carry
// for one legacy product.
type Schema struct {
	Name    string
	Scalars map[string]Type
	Vectors map[string]Type
}

// IQDAT is the wire schema for per-beam IQ sample records.
var IQDAT = &Schema{
	Name: "iqdat",
	Scalars: map[string]Type{
		"radar.revision.major":  Char,
		"radar.revision.minor":  Char,
		"origin.code":           Char,
		"origin.time":           String,
		"origin.command":        String,
		"cp":                    Short,
		"stid":                  Short,
		"time.yr":               Short,
		"time.mo":               Short,
		"time.dy":               Short,
		"time.hr":               Short,
		"time.mt":               Short,
		"time.sc":               Short,
		"time.us":               Int,
		"txpow":                 Short,
		"nave":                  Short,
		"atten":                 Short,
		"lagfr":                 Short,
		"smsep":                 Short,
		"ercod":                 Short,
		"stat.agc":              Short,
		"stat.lopwr":            Short,
		"noise.search":          Float,
		"noise.mean":            Float,
		"channel":               Short,
		"bmnum":                 Short,
		"bmazm":                 Float,
		"scan":                  Short,
		"offset":                Short,
		"rxrise":                Short,
		"intt.sc":               Short,
		"intt.us":               Int,
		"txpl":                  Short,
		"mpinc":                 Short,
		"mppul":                 Short,
		"mplgs":                 Short,
		"nrang":                 Short,
		"frang":                 Short,
		"rsep":                  Short,
		"xcf":                   Short,
		"tfreq":                 Short,
		"mxpwr":                 Int,
		"lvmax":                 Int,
		"iqdata.revision.major": Int,
		"iqdata.revision.minor": Int,
		"combf":                 String,
		"seqnum":                Int,
		"chnnum":                Int,
		"smpnum":                Int,
		"skpnum":                Int,
	},
	Vectors: map[string]Type{
		"ptab":   Short,
		"ltab":   Short,
		"tsc":    Int,
		"tus":    Int,
		"tatten": Short,
		"tnoise": Float,
		"toff":   Int,
		"tsze":   Int,
		"data":   Short,
	},
}

// Rawacf is the wire schema for per-beam correlation records.
var Rawacf = &Schema{
	Name: "rawacf",
	Scalars: map[string]Type{
		"radar.revision.major": Char,
		"radar.revision.minor": Char,
		"origin.code":          Char,
		"origin.time":          String,
		"origin.command":       String,
		"cp":                   Short,
		"stid":                 Short,
		"time.yr":              Short,
		"time.mo":              Short,
		"time.dy":              Short,
		"time.hr":              Short,
		"time.mt":              Short,
		"time.sc":              Short,
		"time.us":              Int,
		"txpow":                Short,
		"nave":                 Short,
		"atten":                Short,
		"lagfr":                Short,
		"smsep":                Short,
		"ercod":                Short,
		"stat.agc":             Short,
		"stat.lopwr":           Short,
		"noise.search":         Float,
		"noise.mean":           Float,
		"channel":              Short,
		"bmnum":                Short,
		"bmazm":                Float,
		"scan":                 Short,
		"offset":               Short,
		"rxrise":               Short,
		"intt.sc":              Short,
		"intt.us":              Int,
		"txpl":                 Short,
		"mpinc":                Short,
		"mppul":                Short,
		"mplgs":                Short,
		"nrang":                Short,
		"frang":                Short,
		"rsep":                 Short,
		"xcf":                  Short,
		"tfreq":                Short,
		"mxpwr":                Int,
		"lvmax":                Int,
		"rawacf.revision.major": Int,
		"rawacf.revision.minor": Int,
		"combf":                 String,
		"thr":                   Float,
	},
	Vectors: map[string]Type{
		"ptab":  Short,
		"ltab":  Short,
		"pwr0":  Float,
		"slist": Short,
		"acfd":  Float,
		"xcfd":  Float,
	},
}

// Check verifies a wire record carries exactly the schema's fields with
// the declared type codes and kinds.
func (s *Schema) Check(rec *WireRecord) error {
	var problems []string
	seen := make(map[string]bool, rec.Len())
	for _, f := range rec.Fields() {
		seen[f.Name] = true
		if want, ok := s.Scalars[f.Name]; ok {
			if f.Vector {
				problems = append(problems, fmt.Sprintf("%s is a vector, schema wants %s scalar", f.Name, want))
			} else if f.Type != want {
				problems = append(problems, fmt.Sprintf("%s is %s, schema wants %s", f.Name, f.Type, want))
			}
			continue
		}
		if want, ok := s.Vectors[f.Name]; ok {
			if !f.Vector {
				problems = append(problems, fmt.Sprintf("%s is a scalar, schema wants %s vector", f.Name, want))
			} else if f.Type != want {
				problems = append(problems, fmt.Sprintf("%s is %s, schema wants %s", f.Name, f.Type, want))
			}
			continue
		}
		problems = append(problems, fmt.Sprintf("%s is not a %s field", f.Name, s.Name))
	}
	for name := range s.Scalars {
		if !seen[name] {
			problems = append(problems, fmt.Sprintf("missing scalar %s", name))
		}
	}
	for name := range s.Vectors {
		if !seen[name] {
			problems = append(problems, fmt.Sprintf("missing vector %s", name))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("record does not conform to %s schema: %v", s.Name, problems)
}
