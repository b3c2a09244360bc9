package grib

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/wxmesh/grib/grib1"
	"github.com/wxmesh/grib/grid"
	"github.com/wxmesh/grib/internal/diag"
)

// VariableKey groups messages that belong in the same dataset variable:
// same parameter, same level type, same statistical treatment, and the
// same grid geometry (so a variable's members can share one coordinate
// set). GridFingerprint is a hash of the grid's full projection
// description rather than just its point counts, so two grids of
// identical size but different origin or orientation land in different
// variables instead of being silently merged.
type VariableKey struct {
	Discipline      uint8
	Category        uint8
	Number          uint8
	LevelType       uint8
	StatQualifier   uint8
	HasStatQualifier bool
	Ensemble        bool
	GridFingerprint uint64
}

// ensembleMember is implemented (via promotion) by the ensemble and
// derived-forecast product templates.
type ensembleMember interface {
	EnsembleMember() (int, bool)
}

// statisticalQualifier is implemented (via promotion) by the
// statistically-processed product templates.
type statisticalQualifier interface {
	StatisticalQualifier() (uint8, bool)
}

// forecastDurationer is implemented (via promotion) by every product
// template, since they all embed Template40.
type forecastDurationer interface {
	ForecastDuration() time.Duration
}

// datasetMember is one message's contribution to a Variable: its
// non-spatial coordinate values and where its decoded bytes live. Exactly
// one of msg (edition 2) and g1 (edition 1) is set.
type datasetMember struct {
	msg           *Message
	g1            *grib1.Message
	validTime     time.Time
	levelValue    float64
	ensembleValue int
	byteOffset    int64
	byteLength    int64
}

// ByteRange locates one member's bytes inside the source buffer, for
// lazy re-decoding through DecodeValues.
type ByteRange struct {
	Offset int64
	Length int64
}

// Warning records a recoverable condition encountered while assembling a
// dataset: a message that failed to parse, an unresolvable parameter, or a
// member dropped because another message already claimed its slot.
type Warning struct {
	Offset int64
	Err    error
}

func (w Warning) String() string {
	return fmt.Sprintf("offset %d: %v", w.Offset, w.Err)
}

// Variable is one named field in a Dataset: a logical array whose shape
// is the cross product of its non-spatial dimensions and the grid's
// spatial dimensions.
type Variable struct {
	Name       string
	Dims       []string
	Shape      []int
	Attributes map[string]string

	TimeValues     []time.Time // present iff "time" is in Dims or preserved
	LevelValues    []float64   // present iff "level" is in Dims or preserved
	EnsembleValues []int       // present iff "ensemble" is in Dims or preserved

	Latitudes  []float32
	Longitudes []float32

	members []datasetMember // sorted in (time, level, ensemble) order
}

// Members returns the underlying edition-2 messages in the variable's
// row-major order. Edition-1 members appear as nil entries; use Manifest
// to address members uniformly across editions.
func (v *Variable) Members() []*Message {
	msgs := make([]*Message, len(v.members))
	for i, m := range v.members {
		msgs[i] = m.msg
	}
	return msgs
}

// Manifest returns the byte extent of each member in the variable's
// row-major order. Feeding an entry's offset to DecodeValues against the
// same source buffer materializes that member's array; the manifest itself
// never pins the buffer.
func (v *Variable) Manifest() []ByteRange {
	ranges := make([]ByteRange, len(v.members))
	for i, m := range v.members {
		ranges[i] = ByteRange{Offset: m.byteOffset, Length: m.byteLength}
	}
	return ranges
}

// Dataset is a collection of named Variables assembled from otherwise
// independent GRIB2 messages, grouped by parameter/level/grid identity
// the way xarray groups a directory of files into one object.
type Dataset struct {
	Variables         []*Variable
	GlobalAttributes  map[string]string
	DroppedMessages   int // messages dropped by filtering or parse/grouping failure
}

// Variable looks up a variable by name, or returns nil.
func (d *Dataset) Variable(name string) *Variable {
	for _, v := range d.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// variableKeyFor derives a VariableKey and a display abbreviation for a
// message, or ok=false if the message's parameter or grid can't be
// resolved to a stable identity.
func variableKeyFor(msg *Message) (VariableKey, string, bool) {
	if msg.Section0 == nil || msg.Section4 == nil || msg.Section4.Product == nil ||
		msg.Section3 == nil || msg.Section3.Grid == nil {
		return VariableKey{}, "", false
	}

	prod := msg.Section4.Product
	param := ParameterID{
		Discipline: msg.Section0.Discipline,
		Category:   prod.GetParameterCategory(),
		Number:     prod.GetParameterNumber(),
	}

	abbrev := param.ShortName()
	if abbrev == "" {
		// No standard abbreviation: mark unresolved per the "(" convention
		// and let the caller drop it during filtering.
		return VariableKey{}, fmt.Sprintf("(%d.%d.%d)", param.Discipline, param.Category, param.Number), false
	}

	var levelType uint8
	if leveler, ok := prod.(surfaceLeveler); ok {
		levelType, _ = leveler.SurfaceLevel()
	}

	var statQualifier uint8
	var hasStat bool
	if sq, ok := prod.(statisticalQualifier); ok {
		statQualifier, hasStat = sq.StatisticalQualifier()
	}

	_, isEnsemble := prod.(ensembleMember)

	key := VariableKey{
		Discipline:       param.Discipline,
		Category:         param.Category,
		Number:           param.Number,
		LevelType:        levelType,
		StatQualifier:    statQualifier,
		HasStatQualifier: hasStat,
		Ensemble:         isEnsemble,
		GridFingerprint:  xxhash.Sum64String(msg.Section3.Grid.String()),
	}

	return key, abbrev, true
}

// variableKeyForGRIB1 derives a VariableKey and a display abbreviation for
// an edition-1 message. Edition 1 has no discipline octet; 255 marks the
// key as edition-1 and the (table version, parameter) pair takes the
// category/number slots.
func variableKeyForGRIB1(msg *grib1.Message) (VariableKey, string, bool) {
	if msg.PDS == nil || msg.GDS == nil || msg.GDS.Grid == nil {
		return VariableKey{}, "", false
	}

	abbrev := msg.ParameterShortName()
	if abbrev == "" || abbrev[0] == '(' {
		return VariableKey{}, abbrev, false
	}

	key := VariableKey{
		Discipline:      255,
		Category:        msg.PDS.TableVersion,
		Number:          msg.PDS.Parameter,
		LevelType:       msg.PDS.LevelType,
		GridFingerprint: xxhash.Sum64String(msg.GDS.Grid.String()),
	}
	return key, abbrev, true
}

// variableName composes the dataset variable name for a key:
// lower(abbrev), plus a level/qualifier suffix only when needed to
// disambiguate a parameter that appears at more than one level type or
// statistical treatment within the dataset being built. The suffix is
// built from short tokens ("tmp_isobar_ens"), never the abbreviation
// itself.
func variableName(abbrev string, key VariableKey, needsSuffix bool) string {
	name := lowerASCII(abbrev)
	if !needsSuffix {
		return name
	}

	suffix := levelToken(key)
	if key.Ensemble {
		suffix += "_ens"
	} else if key.HasStatQualifier {
		suffix += "_" + statToken(key.StatQualifier)
	}
	return name + "_" + suffix
}

// levelToken maps a key's level type to the short token used in
// disambiguation suffixes. Edition-1 keys (marked by discipline 255) use
// the edition-1 level numbering, which differs from the edition-2 table.
func levelToken(key VariableKey) string {
	if key.Discipline == 255 {
		switch key.LevelType {
		case 1:
			return "sfc"
		case 100:
			return "isobar"
		case 102:
			return "msl"
		case 103:
			return "hasl"
		case 105:
			return "hag"
		case 111:
			return "dbl"
		case 112:
			return "dbll"
		case 200:
			return "atm"
		}
		return fmt.Sprintf("l%d", key.LevelType)
	}

	switch key.LevelType {
	case 1:
		return "sfc"
	case 2:
		return "cloudbase"
	case 3:
		return "cloudtop"
	case 100:
		return "isobar"
	case 101:
		return "msl"
	case 102:
		return "hasl"
	case 103:
		return "hag"
	case 104:
		return "sigma"
	case 106:
		return "dbl"
	case 108:
		return "presdiff"
	case 200:
		return "atm"
	}
	return fmt.Sprintf("l%d", key.LevelType)
}

// statToken maps a statistical-processing code (Table 4.10) to a short
// suffix token.
func statToken(qualifier uint8) string {
	switch qualifier {
	case 0:
		return "avg"
	case 1:
		return "accum"
	case 2:
		return "max"
	case 3:
		return "min"
	default:
		return fmt.Sprintf("stat%d", qualifier)
	}
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// datasetBuilder accumulates messages into per-variable groups, then
// resolves names, dimensions, and coordinates in finish.
type datasetBuilder struct {
	cfg      datasetConfig
	groups   map[VariableKey]*variableGroup
	order    []VariableKey
	dropped  int
	warnings []Warning
}

type variableGroup struct {
	key     VariableKey
	abbrev  string
	members []datasetMember
}

func newDatasetBuilder(opts []DatasetOption) *datasetBuilder {
	cfg := defaultDatasetConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.include != nil {
		names := maps.Keys(cfg.include)
		slices.Sort(names)
		diag.Infof("restricting dataset to variables: %v", names)
	}

	return &datasetBuilder{
		cfg:    cfg,
		groups: make(map[VariableKey]*variableGroup),
	}
}

func (b *datasetBuilder) warn(offset int64, err error) {
	diag.Warningf("dataset assembly: offset %d: %v", offset, err)
	b.warnings = append(b.warnings, Warning{Offset: offset, Err: err})
}

func (b *datasetBuilder) addToGroup(key VariableKey, abbrev string, member datasetMember) {
	g, exists := b.groups[key]
	if !exists {
		g = &variableGroup{key: key, abbrev: abbrev}
		b.groups[key] = g
		b.order = append(b.order, key)
	}
	g.members = append(g.members, member)
}

// addMessage ingests one edition-2 message located at (offset, length) in
// the source buffer.
func (b *datasetBuilder) addMessage(msg *Message, offset, length int64) {
	if b.cfg.matchMessage != nil && !b.cfg.matchMessage(msg) {
		return
	}

	key, abbrev, ok := variableKeyFor(msg)
	if !ok {
		b.warn(offset, fmt.Errorf("unresolved variable identity (%s)", abbrev))
		b.dropped++
		return
	}
	if !b.cfg.includes(abbrev) {
		return
	}

	validTime := time.Time{}
	if msg.Section1 != nil {
		validTime = msg.Section1.ReferenceTime
		if fd, ok := msg.Section4.Product.(forecastDurationer); ok {
			validTime = validTime.Add(fd.ForecastDuration())
		}
	}

	var levelValue float64
	if leveler, ok := msg.Section4.Product.(surfaceLeveler); ok {
		_, levelValue = leveler.SurfaceLevel()
	}

	ensembleValue := 0
	if em, ok := msg.Section4.Product.(ensembleMember); ok {
		ensembleValue, _ = em.EnsembleMember()
	}

	if length == 0 {
		length = int64(len(msg.RawData))
	}
	b.addToGroup(key, abbrev, datasetMember{
		msg:           msg,
		validTime:     validTime,
		levelValue:    levelValue,
		ensembleValue: ensembleValue,
		byteOffset:    offset,
		byteLength:    length,
	})
}

// addGRIB1Message ingests one edition-1 message located at (offset,
// length) in the source buffer.
func (b *datasetBuilder) addGRIB1Message(msg *grib1.Message, offset, length int64) {
	key, abbrev, ok := variableKeyForGRIB1(msg)
	if !ok {
		b.warn(offset, fmt.Errorf("unresolved variable identity (%s)", abbrev))
		b.dropped++
		return
	}
	if !b.cfg.includes(abbrev) {
		return
	}

	if length == 0 {
		length = int64(len(msg.RawData))
	}
	b.addToGroup(key, abbrev, datasetMember{
		g1:            msg,
		validTime:     msg.ValidTime(),
		levelValue:    msg.PDS.LevelValue(),
		ensembleValue: 0,
		byteOffset:    offset,
		byteLength:    length,
	})
}

// finish resolves names, builds each variable, and assembles the Dataset.
func (b *datasetBuilder) finish() (*Dataset, error) {
	// A parameter needs a disambiguating suffix only if it appears under
	// more than one (level type, statistical qualifier) combination.
	identityCount := make(map[string]map[VariableKey]bool)
	for _, key := range b.order {
		g := b.groups[key]
		if identityCount[g.abbrev] == nil {
			identityCount[g.abbrev] = make(map[VariableKey]bool)
		}
		identityCount[g.abbrev][key] = true
	}

	seenNames := make(map[string]bool)
	variables := make([]*Variable, 0, len(b.order))
	for _, key := range b.order {
		g := b.groups[key]
		needsSuffix := len(identityCount[g.abbrev]) > 1
		name := variableName(g.abbrev, key, needsSuffix)

		if !b.cfg.variableMatches(name) {
			continue
		}
		if seenNames[name] {
			b.warn(0, &DatasetConflictError{Variable: name})
			b.dropped += len(g.members)
			continue
		}
		seenNames[name] = true

		v, err := b.buildVariable(name, g.members)
		if err != nil {
			b.warn(0, fmt.Errorf("dropping variable %q: %w", name, err))
			b.dropped += len(g.members)
			continue
		}
		variables = append(variables, v)
	}

	// Variables stay in the order their first message was seen.
	return &Dataset{
		Variables:        variables,
		GlobalAttributes: map[string]string{"source": "decoded GRIB messages"},
		DroppedMessages:  b.dropped,
	}, nil
}

// BuildDataset walks a byte buffer and groups its parseable messages into
// named Variables. A single malformed or unidentifiable message is dropped
// with a warning rather than failing the whole assembly; the returned
// warning list records every such drop alongside its byte offset.
func BuildDataset(data []byte, opts ...DatasetOption) (*Dataset, []Warning, error) {
	b := newDatasetBuilder(opts)

	it := NewMessageIterator(data)
	for {
		rec, ok := it.Next()
		if !ok {
			break
		}
		switch {
		case rec.Err != nil:
			b.warn(rec.Offset, rec.Err)
			b.dropped++
		case rec.Message != nil:
			b.addMessage(rec.Message, rec.Offset, rec.Length)
		case rec.GRIB1 != nil:
			b.addGRIB1Message(rec.GRIB1, rec.Offset, rec.Length)
		}
	}

	ds, err := b.finish()
	return ds, b.warnings, err
}

// BuildDatasetFromMessages groups already-parsed edition-2 messages, for
// callers coming off the stream/parallel parse path where the original
// byte offsets are no longer known.
func BuildDatasetFromMessages(messages []*Message, opts ...DatasetOption) (*Dataset, error) {
	b := newDatasetBuilder(opts)
	for _, msg := range messages {
		b.addMessage(msg, 0, 0)
	}
	return b.finish()
}

// buildVariable infers dimensions, sorts members, and resolves
// coordinates and attributes for one group of same-identity messages.
func (b *datasetBuilder) buildVariable(name string, members []datasetMember) (*Variable, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("variable %q has no members", name)
	}

	slices.SortFunc(members, func(a, b datasetMember) int {
		if !a.validTime.Equal(b.validTime) {
			if a.validTime.Before(b.validTime) {
				return -1
			}
			return 1
		}
		if a.levelValue != b.levelValue {
			if a.levelValue < b.levelValue {
				return -1
			}
			return 1
		}
		return a.ensembleValue - b.ensembleValue
	})

	// Two members with the same (time, level, ensemble) tuple claim the
	// same slot of the array; keep the first and drop the rest.
	deduped := members[:1]
	for _, m := range members[1:] {
		prev := deduped[len(deduped)-1]
		if m.validTime.Equal(prev.validTime) && m.levelValue == prev.levelValue && m.ensembleValue == prev.ensembleValue {
			b.warn(m.byteOffset, &DatasetConflictError{Variable: name})
			b.dropped++
			continue
		}
		deduped = append(deduped, m)
	}
	members = deduped

	distinctTimes := distinctTimeValues(members)
	distinctLevels := distinctFloatValues(members, func(m datasetMember) float64 { return m.levelValue })
	distinctEnsembles := distinctIntValues(members, func(m datasetMember) int { return m.ensembleValue })

	v := &Variable{Name: name, Attributes: map[string]string{}, members: members}

	addDim := func(dimName string, n int) {
		if n > 1 || b.cfg.preserveDimensions[dimName] {
			v.Dims = append(v.Dims, dimName)
			v.Shape = append(v.Shape, maxInt(n, 1))
		}
	}
	addDim("time", len(distinctTimes))
	addDim("level", len(distinctLevels))
	addDim("ensemble", len(distinctEnsembles))

	if contains(v.Dims, "time") {
		v.TimeValues = distinctTimes
	}
	if contains(v.Dims, "level") {
		v.LevelValues = distinctLevels
	}
	if contains(v.Dims, "ensemble") {
		v.EnsembleValues = distinctEnsembles
	}

	if members[0].g1 != nil {
		return b.finishGRIB1Variable(v, members[0].g1, name)
	}

	first := members[0].msg
	if first.Section3 != nil && first.Section3.Grid != nil {
		if u, ok := first.Section3.Grid.(*grid.UnstructuredGrid); ok {
			// Unstructured meshes have one flat point dimension and no
			// in-message coordinates.
			v.Dims = append(v.Dims, "values")
			v.Shape = append(v.Shape, u.NumPoints())
		} else {
			lats, lons, err := first.Coordinates()
			if err != nil {
				return nil, fmt.Errorf("failed to compute grid coordinates: %w", err)
			}
			v.Latitudes, v.Longitudes = toFloat32Slice(lats), toFloat32Slice(lons)
			yName, xName := "y", "x"
			if b.cfg.latLonDimNames {
				yName, xName = "latitude", "longitude"
			}
			v.Dims = append(v.Dims, yName, xName)
			ni, nj := gridDimensions(first.Section3.Grid)
			v.Shape = append(v.Shape, nj, ni)
		}
	}

	if first.Section0 != nil {
		v.Attributes["discipline"] = first.Section0.DisciplineName()
	}
	if leveler, ok := first.Section4.Product.(surfaceLeveler); ok {
		levelType, _ := leveler.SurfaceLevel()
		v.Attributes["level_type"] = fmt.Sprintf("%d", levelType)
	}
	param := ParameterID{
		Discipline: first.Section0.Discipline,
		Category:   first.Section4.Product.GetParameterCategory(),
		Number:     first.Section4.Product.GetParameterNumber(),
	}
	v.Attributes["long_name"] = param.String()
	v.Attributes["standard_name"] = name
	v.Attributes["grib_parameter"] = fmt.Sprintf("%d.%d.%d", param.Discipline, param.Category, param.Number)
	if b.cfg.valuesDType != "" {
		v.Attributes["values_dtype"] = b.cfg.valuesDType
	}

	return v, nil
}

// finishGRIB1Variable fills the grid dimensions, coordinates, and
// attributes of a variable whose members are edition-1 messages.
func (b *datasetBuilder) finishGRIB1Variable(v *Variable, first *grib1.Message, name string) (*Variable, error) {
	if first.GDS == nil || first.GDS.Grid == nil {
		return nil, fmt.Errorf("variable %q references a predefined grid with no GDS", name)
	}

	grid := first.GDS.Grid
	lats, lons := grid.Coordinates()
	v.Latitudes, v.Longitudes = toFloat32Slice(lats), toFloat32Slice(lons)

	yName, xName := "y", "x"
	if b.cfg.latLonDimNames {
		yName, xName = "latitude", "longitude"
	}
	v.Dims = append(v.Dims, yName, xName)
	ni, nj := grid.Dimensions()
	v.Shape = append(v.Shape, nj, ni)

	pds := first.PDS
	v.Attributes["centre"] = grib1.CenterName(pds.Center)
	v.Attributes["level_type"] = grib1.LevelName(pds.LevelType)
	v.Attributes["long_name"] = grib1.ParameterName(pds.TableVersion, pds.Parameter)
	if units := grib1.ParameterUnits(pds.TableVersion, pds.Parameter); units != "" {
		v.Attributes["units"] = units
	}
	v.Attributes["standard_name"] = name
	v.Attributes["grib_parameter"] = fmt.Sprintf("1.%d.%d", pds.TableVersion, pds.Parameter)
	if b.cfg.valuesDType != "" {
		v.Attributes["values_dtype"] = b.cfg.valuesDType
	}

	return v, nil
}

func distinctTimeValues(members []datasetMember) []time.Time {
	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, m := range members {
		if !seen[m.validTime] {
			seen[m.validTime] = true
			out = append(out, m.validTime)
		}
	}
	slices.SortFunc(out, func(a, b time.Time) int {
		switch {
		case a.Before(b):
			return -1
		case a.After(b):
			return 1
		default:
			return 0
		}
	})
	return out
}

func distinctFloatValues(members []datasetMember, f func(datasetMember) float64) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, m := range members {
		v := f(m)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

func distinctIntValues(members []datasetMember, f func(datasetMember) int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range members {
		v := f(m)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

func contains(dims []string, name string) bool {
	for _, d := range dims {
		if d == name {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
