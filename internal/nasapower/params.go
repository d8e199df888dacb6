package nasapower

// ParameterSet names a curated subset of NASA POWER variables validated
// for GEOS-IT PV modeling. The enumeration is fixed at build time.
type ParameterSet string

const (
	ParameterSetEssential  ParameterSet = "essential"
	ParameterSetImportant  ParameterSet = "important"
	ParameterSetAdditional ParameterSet = "additional"
	ParameterSetAll        ParameterSet = "all"
)

var parameterSets = map[ParameterSet][]string{
	ParameterSetEssential: {
		"ALLSKY_SFC_SW_DWN", // Global Horizontal Irradiance
		"CLRSKY_SFC_SW_DWN", // Clear Sky GHI
		"T2M_MAX",
		"T2M_MIN",
		"ALLSKY_KT", // Clearness Index
		"CLOUD_AMT",
		"AOD_55", // Aerosol Optical Depth 0.55 Microns
		"WS2M",
	},
	ParameterSetImportant: {
		"T2M",
		"T2M_MAX",
		"T2M_MIN",
		"WS2M",
		"PRECTOTCORR",
		"RH2M",
		"ALLSKY_KT",
		"ALLSKY_SFC_SW_DNI",
		"CLRSKY_SFC_SW_DNI",
		"ALLSKY_SFC_SW_DIFF",
		"CLRSKY_SFC_SW_DIFF",
		"ALLSKY_SFC_SW_DWN",
		"CLRSKY_SFC_SW_DWN",
		"ALLSKY_SFC_LW_DWN",
		"CLRSKY_SFC_LW_DWN",
		"ALLSKY_SFC_LW_UP",
		"CLRSKY_SFC_LW_UP",
	},
	ParameterSetAdditional: {
		"WD2M",
		"WS10M",
		"T10M",
		"PRECTOTCORR",
		"QV2M",
		"ALLSKY_SFC_SW_DNI",
		"CLRSKY_SFC_SW_DNI",
		"SZA", // Solar Zenith Angle
	},
}

// Valid reports whether s is a recognized parameter set name.
func (s ParameterSet) Valid() bool {
	if s == ParameterSetAll {
		return true
	}
	_, ok := parameterSets[s]
	return ok
}

// Parameters returns the variable identifiers for the given set.
// Unknown sets fall back to the essential set.
func Parameters(set ParameterSet) []string {
	if set == ParameterSetAll {
		return AllParameters()
	}
	params, ok := parameterSets[set]
	if !ok {
		params = parameterSets[ParameterSetEssential]
	}
	out := make([]string, len(params))
	copy(out, params)
	return out
}

// AllParameters returns the union of every parameter set with duplicates
// removed, preserving first-seen order.
func AllParameters() []string {
	order := []ParameterSet{ParameterSetEssential, ParameterSetImportant, ParameterSetAdditional}
	seen := make(map[string]bool)
	var all []string
	for _, set := range order {
		for _, p := range parameterSets[set] {
			if !seen[p] {
				seen[p] = true
				all = append(all, p)
			}
		}
	}
	return all
}
