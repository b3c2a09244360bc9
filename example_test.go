package grib_test

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/wxmesh/grib"
)

// Example_basic demonstrates basic usage of the GRIB library.
func Example_basic() {
	// data, _ := os.ReadFile("forecast.grib2")
	data := []byte{} // placeholder for example

	fields, err := grib.Read(bytes.NewReader(data))
	if err != nil {
		log.Fatal(err)
	}

	for _, field := range fields {
		fmt.Printf("Parameter: %s\n", field.Parameter)
		fmt.Printf("Center: %s\n", field.Center)
		fmt.Printf("Time: %s\n", field.ReferenceTime)
		fmt.Printf("Grid points: %d\n", field.NumPoints)
		fmt.Printf("Data range: %.2f to %.2f\n", field.MinValue(), field.MaxValue())
		fmt.Println()
	}
}

// Example_parallel demonstrates parallel parsing with a custom worker count.
func Example_parallel() {
	data := []byte{} // placeholder

	fields, err := grib.ReadWithOptions(bytes.NewReader(data),
		grib.WithWorkers(4),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Parsed %d fields with 4 workers\n", len(fields))
}

// Example_filtering demonstrates filtering messages by parameter category.
func Example_filtering() {
	data := []byte{} // placeholder

	fields, err := grib.ReadWithOptions(bytes.NewReader(data),
		grib.WithParameterCategory(0),
	)
	if err != nil {
		log.Fatal(err)
	}

	for _, field := range fields {
		fmt.Printf("Temperature field: %s\n", field.Parameter)
	}
}

// Example_context demonstrates using a context for timeout/cancellation.
func Example_context() {
	data := []byte{} // placeholder

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fields, err := grib.ReadWithOptions(bytes.NewReader(data),
		grib.WithContext(ctx),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Parsed %d fields within timeout\n", len(fields))
}

// Example_coordinates demonstrates accessing lat/lon coordinates.
func Example_coordinates() {
	data := []byte{} // placeholder

	fields, err := grib.Read(bytes.NewReader(data))
	if err != nil {
		log.Fatal(err)
	}

	if len(fields) == 0 {
		return
	}

	field := fields[0]

	for i := 0; i < field.NumPoints; i++ {
		lat := field.Latitudes[i]
		lon := field.Longitudes[i]
		value := field.Data[i]

		if math.IsNaN(float64(value)) {
			continue
		}

		fmt.Printf("Point %d: %.2f°N, %.2f°E = %.2f\n", i, lat, lon, value)

		if i >= 5 {
			break
		}
	}
}

// Example_customFilter demonstrates using a custom message filter function.
func Example_customFilter() {
	data := []byte{} // placeholder

	// Custom filter: only operational forecasts from NCEP.
	filter := func(msg *grib.Message) bool {
		if msg.Section1 == nil {
			return false
		}
		if msg.Section1.OriginatingCenter != 7 {
			return false
		}
		if msg.Section1.ProductionStatus != 0 {
			return false
		}
		return true
	}

	fields, err := grib.ReadWithOptions(bytes.NewReader(data),
		grib.WithFilter(filter),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Found %d operational NCEP fields\n", len(fields))
}

// Example_multipleOptions demonstrates combining multiple options.
func Example_multipleOptions() {
	data := []byte{} // placeholder

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fields, err := grib.ReadWithOptions(bytes.NewReader(data),
		grib.WithWorkers(8),
		grib.WithContext(ctx),
		grib.WithParameterCategory(0), // Temperature
		grib.WithDiscipline(0),        // Meteorological
		grib.WithCenter(7),            // NCEP
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Found %d temperature fields from NCEP\n", len(fields))
}
