package grib

// DatasetOption configures BuildDataset.
type DatasetOption func(*datasetConfig)

// datasetConfig holds configuration for dataset assembly.
type datasetConfig struct {
	include            map[string]bool // nil means "no include filter"
	exclude            map[string]bool
	preserveDimensions map[string]bool
	matchVariable      func(name string) bool
	matchMessage       func(*Message) bool
	latLonDimNames     bool   // compatibility mode: "latitude"/"longitude" instead of "y"/"x"
	valuesDType        string // advisory dtype hint recorded on every Variable's attributes
}

func defaultDatasetConfig() datasetConfig {
	return datasetConfig{
		preserveDimensions: map[string]bool{},
	}
}

// includes reports whether a variable abbreviation passes the
// include/exclude filters.
func (c datasetConfig) includes(abbrev string) bool {
	name := lowerASCII(abbrev)
	if c.exclude != nil && c.exclude[name] {
		return false
	}
	if c.include != nil && !c.include[name] {
		return false
	}
	return true
}

// variableMatches reports whether a fully-resolved variable name (which
// may carry a level/statistical suffix the raw abbreviation doesn't)
// passes the custom attribute matcher, if one was configured.
func (c datasetConfig) variableMatches(name string) bool {
	if c.matchVariable == nil {
		return true
	}
	return c.matchVariable(name)
}

// WithIncludeVariables restricts BuildDataset to the named variables
// (matched against the lowercased WMO short name, before any
// level/statistical disambiguation suffix is appended).
//
// Example:
//
//	ds, _, _ := grib.BuildDataset(data, grib.WithIncludeVariables("tmp", "ugrd", "vgrd"))
func WithIncludeVariables(names ...string) DatasetOption {
	return func(c *datasetConfig) {
		if c.include == nil {
			c.include = make(map[string]bool)
		}
		for _, n := range names {
			c.include[lowerASCII(n)] = true
		}
	}
}

// WithExcludeVariables drops the named variables from the assembled
// dataset.
func WithExcludeVariables(names ...string) DatasetOption {
	return func(c *datasetConfig) {
		if c.exclude == nil {
			c.exclude = make(map[string]bool)
		}
		for _, n := range names {
			c.exclude[lowerASCII(n)] = true
		}
	}
}

// WithPreserveDimensions keeps the named dimensions ("time", "level",
// "ensemble") as length-1 axes even when a variable only has a single
// distinct value for them, instead of collapsing them to scalar
// coordinates. Useful when downstream tooling expects a fixed-rank array
// across an entire collection of datasets.
func WithPreserveDimensions(names ...string) DatasetOption {
	return func(c *datasetConfig) {
		for _, n := range names {
			c.preserveDimensions[n] = true
		}
	}
}

// WithMatchVariableAttributes applies a custom predicate over each
// variable's final (possibly suffixed) name, after grouping but before
// it's added to the Dataset.
func WithMatchVariableAttributes(match func(name string) bool) DatasetOption {
	return func(c *datasetConfig) {
		c.matchVariable = match
	}
}

// WithMatchAttributes applies a custom predicate over each source message
// before grouping, the dataset-assembly analogue of ReadOption's
// WithFilter. A message that fails the predicate never contributes to any
// variable.
//
// Example:
//
//	// Only messages from NCEP (center 7).
//	ds, _, _ := grib.BuildDataset(data, grib.WithMatchAttributes(func(m *grib.Message) bool {
//	    return m.Section1 != nil && m.Section1.OriginatingCenter == 7
//	}))
func WithMatchAttributes(match func(*Message) bool) DatasetOption {
	return func(c *datasetConfig) {
		c.matchMessage = match
	}
}

// WithCompatibilityMode renames a variable's spatial dimensions from the
// default "y"/"x" to "latitude"/"longitude", matching the convention used
// by tools that expect CF-style coordinate names for a regular lat/lon
// grid.
func WithCompatibilityMode(enabled bool) DatasetOption {
	return func(c *datasetConfig) {
		c.latLonDimNames = enabled
	}
}

// WithValuesDType records the dtype a caller intends to decode member
// values into ("float32" or "float64"). BuildDataset itself never decodes
// data (members stay lazy per the byte-offset manifest), so this is
// advisory metadata surfaced on Variable.Attributes["values_dtype"] for
// whatever code performs the actual decode.
func WithValuesDType(dtype string) DatasetOption {
	return func(c *datasetConfig) {
		c.valuesDType = dtype
	}
}
