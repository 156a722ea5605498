package fluview

import "strings"

// National is the region code of the nationwide series.
const National = "nat"

// wILI baselines for the 2023-2024 season, percent weighted ILI.
// Updated once per season from the CDC FluView overview.
var baselines = map[string]float64{
	"al": 3.3, "ak": 1.0, "az": 3.6, "ar": 3.7, "ca": 3.6,
	"co": 3.2, "ct": 1.9, "de": 2.4, "fl": 3.3, "ga": 3.3,
	"hi": 3.6, "id": 1.9, "il": 2.3, "in": 2.3, "ia": 2.0,
	"ks": 2.0, "ky": 3.3, "la": 3.7, "me": 1.9, "md": 2.4,
	"ma": 1.9, "mi": 2.3, "mn": 2.3, "ms": 3.3, "mo": 2.0,
	"mt": 3.2, "ne": 2.0, "nv": 3.6, "nh": 1.9, "nj": 4.2,
	"nm": 3.7, "ny": 4.2, "nc": 3.3, "nd": 3.2, "oh": 2.3,
	"ok": 3.7, "or": 1.9, "pa": 2.4, "ri": 1.9, "sc": 3.3,
	"sd": 3.2, "tn": 3.3, "tx": 3.7, "ut": 3.2, "vt": 1.9,
	"va": 2.4, "wa": 1.9, "wv": 2.4, "wi": 2.3, "wy": 3.2,
}

const nationalBaseline = 2.9

// NormalizeRegion lower-cases a region code and reports whether it is
// "nat" or one of the fifty states.
func NormalizeRegion(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == National {
		return code, true
	}
	_, ok := baselines[code]
	return code, ok
}

// IsState reports whether code is one of the fifty two-letter state codes,
// in any case.
func IsState(code string) bool {
	_, ok := baselines[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// BaselineFor returns the seasonal wILI baseline of a region.
func BaselineFor(region string) (float64, bool) {
	region, ok := NormalizeRegion(region)
	if !ok {
		return 0, false
	}
	if region == National {
		return nationalBaseline, true
	}
	return baselines[region], true
}
