package grib

import (
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/wxmesh/grib/grid"
	"github.com/wxmesh/grib/internal/diag"
	"github.com/wxmesh/grib/tables"
)

// surfaceLeveler is implemented (via promotion) by every product template
// built on Template40: analysis/forecast, ensemble, derived, and the
// statistically-processed variants that embed one of those.
type surfaceLeveler interface {
	SurfaceLevel() (uint8, float64)
}

// GRIB2 represents a single meteorological field from a GRIB2 message.
//
// This is the main public type returned by the Read function. It contains
// all the information needed to work with GRIB2 data: values, coordinates,
// and metadata.
type GRIB2 struct {
	// Data values in grid scan order
	Data []float32

	// Latitudes for each grid point (same length as Data)
	Latitudes []float32

	// Longitudes for each grid point (same length as Data)
	Longitudes []float32

	// Metadata from the message
	Discipline       string    // Meteorological, Hydrological, etc.
	Center           string    // Originating center (NCEP, ECMWF, etc.)
	ReferenceTime    time.Time // Reference time of the data
	ProductionStatus string    // Operational, Test, etc.
	DataType         string    // Forecast, Analysis, etc.

	// Parameter information
	Parameter ParameterID // WMO standard parameter identifier (D.C.P)

	// Level/surface information
	Level      string  // Type of level (isobaric, surface, etc.)
	LevelValue float32 // Value of the level (e.g., 500 for 500 hPa)

	// Grid information
	GridType  string // Grid definition template, as "Template N" (e.g. "Template 0" for lat/lon)
	GridNi    int    // Number of points in i direction
	GridNj    int    // Number of points in j direction
	NumPoints int    // Total number of grid points

	// Raw message for advanced users
	message *Message
}

// Read parses GRIB2 messages from an io.ReadSeeker.
//
// This is the main entry point for the library. It parses all GRIB2 messages
// in the input stream and returns them as GRIB2 structs with decoded data and
// coordinates.
//
// Messages are parsed in parallel for performance. Every message is read
// into memory before parsing starts, so memory use grows with the input size.
// Use ReadWithOptions to control parallelism or apply filters.
//
// Example:
//
//	file, _ := os.Open("forecast.grib2")
//	defer file.Close()
//	fields, err := grib.Read(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, field := range fields {
//	    fmt.Printf("%s at %s: %d points\n",
//	        field.Parameter, field.Level, field.NumPoints)
//	}
func Read(r io.ReadSeeker) ([]*GRIB2, error) {
	return ReadWithOptions(r)
}

// gridKey uniquely identifies a grid configuration for coordinate caching.
//
// geometry is a fingerprint of every field that distinguishes two grids of
// the same type and point count (origin, orientation, pole location, ...),
// taken from the grid's own String() representation and folded with xxhash.
// nx/ny are kept alongside it purely for readability in logs/debugging.
type gridKey struct {
	templateNumber uint16
	numDataPoints  uint32
	nx, ny         uint32
	geometry       uint64
}

// createGridKey creates a unique key for a grid
func createGridKey(msg *Message) (gridKey, bool) {
	if msg.Section3 == nil || msg.Section3.Grid == nil {
		return gridKey{}, false
	}

	nx, ny := gridDimensions(msg.Section3.Grid)
	if nx == 0 && ny == 0 {
		return gridKey{}, false
	}

	return gridKey{
		templateNumber: msg.Section3.TemplateNumber,
		numDataPoints:  msg.Section3.NumDataPoints,
		nx:             uint32(nx),
		ny:             uint32(ny),
		geometry:       xxhash.Sum64String(msg.Section3.Grid.String()),
	}, true
}

// gridDimensions returns the i/j (or x/y) point counts for a grid, used
// for display metadata. Unrecognized grid types report 0 for both.
func gridDimensions(g grid.Grid) (ni, nj int) {
	switch t := g.(type) {
	case *grid.LambertConformalGrid:
		return int(t.Nx), int(t.Ny)
	case *grid.LatLonGrid:
		return int(t.Ni), int(t.Nj)
	case *grid.RotatedLatLonGrid:
		return int(t.Ni), int(t.Nj)
	case *grid.MercatorGrid:
		return int(t.Ni), int(t.Nj)
	case *grid.PolarStereographicGrid:
		return int(t.Nx), int(t.Ny)
	case *grid.GaussianGrid:
		return int(t.Ni), int(t.Nj)
	case *grid.UnstructuredGrid:
		// No separable axes; report the flat point count.
		return t.NumPoints(), 1
	default:
		return 0, 0
	}
}

// coordinateCache stores pre-computed coordinates for unique grids
type coordinateCache struct {
	latitudes  []float32
	longitudes []float32
}

// toFloat32Slice narrows a grid's float64 coordinates (precise enough for
// geometry math) to the float32 values exposed on GRIB2 and Variable.
func toFloat32Slice(vals []float64) []float32 {
	out := make([]float32, len(vals))
	for i, v := range vals {
		out[i] = float32(v)
	}
	return out
}

// ReadWithOptions parses GRIB2 messages with configuration options.
//
// Options can control parallelism, apply filters, or configure other
// behavior. See ReadOption for available options.
//
// Example:
//
//	file, _ := os.Open("forecast.grib2")
//	defer file.Close()
//	fields, err := grib.ReadWithOptions(file,
//	    WithWorkers(4),
//	    WithParameterCategory(0), // temperature
//	)
func ReadWithOptions(r io.ReadSeeker, opts ...ReadOption) ([]*GRIB2, error) {
	// Apply options
	config := defaultReadConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Parse messages
	var messages []*Message
	var err error

	if config.sequential {
		if config.skipErrors {
			messages, err = ParseMessagesFromStreamSequentialSkipErrors(r)
		} else {
			messages, err = ParseMessagesFromStreamSequential(r)
		}
	} else if config.ctx != nil {
		messages, err = ParseMessagesFromStreamWithContext(config.ctx, r, config.workers)
	} else {
		messages, err = ParseMessagesFromStreamWithWorkers(r, config.workers)
	}

	if err != nil && !config.skipErrors {
		return nil, err
	}

	// Phase 1: Identify unique grids
	gridToMessages := make(map[gridKey][]*Message)
	uniqueGrids := make(map[gridKey]*Message) // Keep one example of each grid

	for _, msg := range messages {
		// Apply filters first
		if !config.filter(msg) {
			continue
		}

		key, ok := createGridKey(msg)
		if !ok {
			diag.Warningf("skipping message with unrecognized or missing grid definition")
			continue
		}

		gridToMessages[key] = append(gridToMessages[key], msg)
		if _, exists := uniqueGrids[key]; !exists {
			uniqueGrids[key] = msg
		}
	}

	// Phase 2: Compute coordinates for unique grids in parallel
	coordCache := make(map[gridKey]*coordinateCache)
	var cacheMutex sync.Mutex
	var wg sync.WaitGroup

	for key, exampleMsg := range uniqueGrids {
		wg.Add(1)
		go func(k gridKey, msg *Message) {
			defer wg.Done()

			lats, lons, err := msg.Coordinates()
			if err != nil {
				diag.Warningf("skipping grid %+v: failed to compute coordinates: %v", k, err)
				return
			}
			diag.Infof("computed coordinates for grid %+v (%d points)", k, len(lats))

			cacheMutex.Lock()
			coordCache[k] = &coordinateCache{
				latitudes:  toFloat32Slice(lats),
				longitudes: toFloat32Slice(lons),
			}
			cacheMutex.Unlock()
		}(key, exampleMsg)
	}
	wg.Wait()

	// Phase 3: Convert messages to GRIB2 structs using cached coordinates (in parallel)
	type result struct {
		field *GRIB2
		err   error
		index int
	}

	// Count total messages to process
	totalMessages := 0
	for _, msgs := range gridToMessages {
		totalMessages += len(msgs)
	}

	resultChan := make(chan result, totalMessages)
	var decodeWg sync.WaitGroup

	// Limit parallelism to 2 * NumCPU to reduce memory pressure
	maxWorkers := runtime.NumCPU() * 2
	semaphore := make(chan struct{}, maxWorkers)

	// Process all messages with bounded parallelism
	messageIndex := 0
	for key, msgs := range gridToMessages {
		cache, ok := coordCache[key]
		if !ok {
			// Coordinates failed for this grid, skip these messages
			messageIndex += len(msgs)
			continue
		}

		for _, msg := range msgs {
			decodeWg.Add(1)
			idx := messageIndex
			messageIndex++

			// Acquire semaphore slot (blocks if maxWorkers goroutines are active)
			semaphore <- struct{}{}

			go func(m *Message, lats, lons []float32, i int) {
				defer decodeWg.Done()
				defer func() { <-semaphore }() // Release semaphore slot
				field, err := messageToGRIB2WithCoords(m, lats, lons)
				resultChan <- result{field: field, err: err, index: i}
			}(msg, cache.latitudes, cache.longitudes, idx)
		}
	}

	// Wait for all decoding to complete
	go func() {
		decodeWg.Wait()
		close(resultChan)
	}()

	// Collect results maintaining order
	results := make([]*result, totalMessages)
	for res := range resultChan {
		if res.err != nil {
			if !config.skipErrors {
				return nil, fmt.Errorf("failed to convert message: %w", res.err)
			}
			continue
		}
		results[res.index] = &res
	}

	// Build final slice in order, skipping nils (errors that were skipped)
	fields := make([]*GRIB2, 0, totalMessages)
	for _, res := range results {
		if res != nil && res.field != nil {
			fields = append(fields, res.field)
		}
	}

	return fields, nil
}

// messageToGRIB2WithCoords converts a Message to GRIB2 using pre-computed coordinates
func messageToGRIB2WithCoords(msg *Message, lats, lons []float32) (*GRIB2, error) {
	// Decode data
	data, err := msg.DecodeData()
	if err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}

	// Build GRIB2 struct using provided coordinates
	g2 := &GRIB2{
		Data:       toFloat32Slice(data),
		Latitudes:  lats,
		Longitudes: lons,
		NumPoints:  len(data),
		message:    msg,
	}

	return populateMetadata(g2, msg), nil
}

// populateMetadata extracts metadata from a Message into a GRIB2 struct
func populateMetadata(g2 *GRIB2, msg *Message) *GRIB2 {
	// Extract metadata
	if msg.Section0 != nil {
		g2.Discipline = msg.Section0.DisciplineName()
	}

	if msg.Section1 != nil {
		g2.Center = msg.Section1.CenterName()
		g2.ReferenceTime = msg.Section1.ReferenceTime
		g2.ProductionStatus = msg.Section1.ProductionStatusName()
		g2.DataType = msg.Section1.DataTypeName()
	}

	if msg.Section3 != nil && msg.Section3.Grid != nil {
		g2.GridType = fmt.Sprintf("Template %d", msg.Section3.Grid.TemplateNumber())
		g2.GridNi, g2.GridNj = gridDimensions(msg.Section3.Grid)
	}

	if msg.Section4 != nil && msg.Section4.Product != nil {
		discipline := msg.Section0.Discipline
		category := msg.Section4.Product.GetParameterCategory()
		number := msg.Section4.Product.GetParameterNumber()

		// Store WMO parameter identifier
		g2.Parameter = ParameterID{
			Discipline: discipline,
			Category:   category,
			Number:     number,
		}

		// Extract level information. SurfaceLevel is promoted from Template40
		// onto every template built on top of it (ensemble, derived,
		// statistically processed, ...), so one type assertion covers them all.
		if leveler, ok := msg.Section4.Product.(surfaceLeveler); ok {
			levelType, levelValue := leveler.SurfaceLevel()
			g2.Level = tables.GetLevelName(int(levelType))
			g2.LevelValue = float32(levelValue)

			if levelValue != 0 {
				g2.Level = fmt.Sprintf("%s %g", g2.Level, g2.LevelValue)
			}
		}
	}

	return g2
}

// String returns a human-readable summary of the field.
func (g *GRIB2) String() string {
	return fmt.Sprintf("GRIB2: %s from %s, %d points, ref time %s",
		g.Parameter, g.Center, g.NumPoints, g.ReferenceTime.Format(time.RFC3339))
}

// MinValue returns the minimum data value in the field, ignoring
// missing (NaN) points.
func (g *GRIB2) MinValue() float32 {
	found := false
	var minVal float32
	for _, val := range g.Data {
		if math.IsNaN(float64(val)) {
			continue
		}
		if !found || val < minVal {
			minVal = val
			found = true
		}
	}
	return minVal
}

// MaxValue returns the maximum data value in the field, ignoring
// missing (NaN) points.
func (g *GRIB2) MaxValue() float32 {
	found := false
	var maxVal float32
	for _, val := range g.Data {
		if math.IsNaN(float64(val)) {
			continue
		}
		if !found || val > maxVal {
			maxVal = val
			found = true
		}
	}
	return maxVal
}

// CountValid returns the number of valid (non-missing) data values.
func (g *GRIB2) CountValid() int {
	count := 0
	for _, val := range g.Data {
		if !math.IsNaN(float64(val)) {
			count++
		}
	}
	return count
}

// GetMessage returns the underlying parsed message for advanced users.
//
// This provides access to the raw section data and allows for custom
// processing beyond what the GRIB2 struct provides.
func (g *GRIB2) GetMessage() *Message {
	return g.message
}
