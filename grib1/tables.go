package grib1

import "fmt"

// parameterEntry describes one row of a GRIB1 parameter table.
type parameterEntry struct {
	Abbrev string
	Name   string
	Units  string
}

// wmoTable2 is the WMO standard parameter table (versions 1-3).
var wmoTable2 = map[uint8]parameterEntry{
	1:  {"PRES", "Pressure", "Pa"},
	2:  {"PRMSL", "Pressure reduced to MSL", "Pa"},
	6:  {"Z", "Geopotential", "m2/s2"},
	7:  {"GH", "Geopotential height", "gpm"},
	8:  {"DIST", "Geometric height", "m"},
	11: {"TMP", "Temperature", "K"},
	12: {"VTMP", "Virtual temperature", "K"},
	13: {"POT", "Potential temperature", "K"},
	15: {"TMAX", "Maximum temperature", "K"},
	16: {"TMIN", "Minimum temperature", "K"},
	17: {"DPT", "Dew point temperature", "K"},
	33: {"UGRD", "u-component of wind", "m/s"},
	34: {"VGRD", "v-component of wind", "m/s"},
	39: {"VVEL", "Vertical velocity (pressure)", "Pa/s"},
	40: {"DZDT", "Vertical velocity (geometric)", "m/s"},
	41: {"ABSV", "Absolute vorticity", "1/s"},
	51: {"SPFH", "Specific humidity", "kg/kg"},
	52: {"RH", "Relative humidity", "%"},
	54: {"PWAT", "Precipitable water", "kg/m2"},
	59: {"PRATE", "Precipitation rate", "kg/m2/s"},
	61: {"APCP", "Total precipitation", "kg/m2"},
	65: {"WEASD", "Water equivalent of snow depth", "kg/m2"},
	66: {"SNOD", "Snow depth", "m"},
	71: {"TCDC", "Total cloud cover", "%"},
	80: {"WTMP", "Water temperature", "K"},
	81: {"LAND", "Land cover", "fraction"},
	84: {"ALBDO", "Albedo", "%"},
	85: {"TSOIL", "Soil temperature", "K"},
	86: {"SOILM", "Soil moisture content", "kg/m2"},
}

// ecmwfTable128 is ECMWF's local table 128, the table ERA5 products are
// published against.
var ecmwfTable128 = map[uint8]parameterEntry{
	31:  {"CI", "Sea ice area fraction", "(0-1)"},
	34:  {"SSTK", "Sea surface temperature", "K"},
	39:  {"SWVL1", "Volumetric soil water layer 1", "m3/m3"},
	40:  {"SWVL2", "Volumetric soil water layer 2", "m3/m3"},
	41:  {"SWVL3", "Volumetric soil water layer 3", "m3/m3"},
	42:  {"SWVL4", "Volumetric soil water layer 4", "m3/m3"},
	129: {"Z", "Geopotential", "m2/s2"},
	130: {"T", "Temperature", "K"},
	131: {"U", "u-component of wind", "m/s"},
	132: {"V", "v-component of wind", "m/s"},
	133: {"Q", "Specific humidity", "kg/kg"},
	134: {"SP", "Surface pressure", "Pa"},
	135: {"W", "Vertical velocity", "Pa/s"},
	139: {"STL1", "Soil temperature level 1", "K"},
	141: {"SD", "Snow depth", "m of water equivalent"},
	151: {"MSL", "Mean sea level pressure", "Pa"},
	157: {"R", "Relative humidity", "%"},
	165: {"10U", "10 metre u-component of wind", "m/s"},
	166: {"10V", "10 metre v-component of wind", "m/s"},
	167: {"2T", "2 metre temperature", "K"},
	168: {"2D", "2 metre dewpoint temperature", "K"},
	170: {"STL2", "Soil temperature level 2", "K"},
	183: {"STL3", "Soil temperature level 3", "K"},
	228: {"TP", "Total precipitation", "m"},
	236: {"STL4", "Soil temperature level 4", "K"},
}

// parameterLookup resolves a (table version, parameter number) pair.
func parameterLookup(tableVersion, param uint8) (parameterEntry, bool) {
	if tableVersion >= 128 {
		// Local tables; 128 is the only one carried here (ECMWF/ERA5).
		if tableVersion == 128 {
			entry, ok := ecmwfTable128[param]
			return entry, ok
		}
		return parameterEntry{}, false
	}
	entry, ok := wmoTable2[param]
	return entry, ok
}

// ParameterShortName returns the abbreviation for a parameter, or a
// parenthesized placeholder when the (table, parameter) pair is unknown.
// The placeholder form marks the identity as unresolved for dataset
// grouping.
func ParameterShortName(tableVersion, param uint8) string {
	if entry, ok := parameterLookup(tableVersion, param); ok {
		return entry.Abbrev
	}
	return fmt.Sprintf("(table%d-%d)", tableVersion, param)
}

// ParameterName returns the descriptive name for a parameter, or "Unknown".
func ParameterName(tableVersion, param uint8) string {
	if entry, ok := parameterLookup(tableVersion, param); ok {
		return entry.Name
	}
	return "Unknown"
}

// ParameterUnits returns the units string for a parameter, or "".
func ParameterUnits(tableVersion, param uint8) string {
	if entry, ok := parameterLookup(tableVersion, param); ok {
		return entry.Units
	}
	return ""
}

// levelTable3 maps Table 3 level types to names.
var levelTable3 = map[uint8]string{
	1:   "surface",
	2:   "cloudBase",
	3:   "cloudTop",
	4:   "isothermZero",
	100: "isobaricInhPa",
	101: "isobaricLayer",
	102: "meanSea",
	103: "heightAboveSea",
	105: "heightAboveGround",
	106: "heightAboveGroundLayer",
	107: "sigma",
	109: "hybrid",
	111: "depthBelowLand",
	112: "depthBelowLandLayer",
	200: "entireAtmosphere",
	201: "entireOcean",
}

// LevelName returns the name of a Table 3 level type, or a numeric
// placeholder for types outside the table.
func LevelName(levelType uint8) string {
	if name, ok := levelTable3[levelType]; ok {
		return name
	}
	return fmt.Sprintf("level%d", levelType)
}

// centerNames maps common code table C-1 originating centers.
var centerNames = map[uint8]string{
	7:  "NCEP",
	8:  "NWSTG",
	34: "JMA",
	54: "CMC",
	74: "UK Met Office",
	78: "DWD",
	84: "Meteo-France",
	85: "Meteo-France",
	98: "ECMWF",
}

// CenterName returns the name of an originating center, or a numeric
// placeholder.
func CenterName(center uint8) string {
	if name, ok := centerNames[center]; ok {
		return name
	}
	return fmt.Sprintf("center %d", center)
}
