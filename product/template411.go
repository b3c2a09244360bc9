package product

import (
	"fmt"

	"github.com/wxmesh/grib/internal"
)

// statisticalTail holds the fields common to the "with time interval"
// product templates (4.8, 4.11, 4.12), i.e. everything Template 4.0
// doesn't already cover.
type statisticalTail struct {
	EndYear                    uint16
	EndMonth                   uint8
	EndDay                     uint8
	EndHour                    uint8
	EndMinute                  uint8
	EndSecond                  uint8
	NumberOfTimeRanges         uint8
	NumberMissingInStatProcess uint32
	TimeRanges                 []StatisticalTimeRange
}

// parseStatisticalTail reads the 12-byte header plus 12 bytes per time
// range shared by Templates 4.8, 4.11 and 4.12.
func parseStatisticalTail(data []byte) (*statisticalTail, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("statistical processing tail requires at least 12 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	endYear, _ := r.Uint16()
	endMonth, _ := r.Uint8()
	endDay, _ := r.Uint8()
	endHour, _ := r.Uint8()
	endMinute, _ := r.Uint8()
	endSecond, _ := r.Uint8()
	numTimeRanges, _ := r.Uint8()
	numMissing, _ := r.Uint32()

	expectedLen := 12 + int(numTimeRanges)*12
	if len(data) < expectedLen {
		return nil, fmt.Errorf("statistical processing tail with %d time ranges requires %d bytes, got %d",
			numTimeRanges, expectedLen, len(data))
	}

	timeRanges := make([]StatisticalTimeRange, numTimeRanges)
	for i := uint8(0); i < numTimeRanges; i++ {
		statProcess, _ := r.Uint8()
		timeIncrType, _ := r.Uint8()
		timeRangeUnit, _ := r.Uint8()
		timeRangeLen, _ := r.Uint32()
		timeIncrUnit, _ := r.Uint8()
		timeIncr, _ := r.Uint32()

		timeRanges[i] = StatisticalTimeRange{
			StatisticalProcess: statProcess,
			TimeIncrementType:  timeIncrType,
			TimeRangeUnit:      timeRangeUnit,
			TimeRangeLength:    timeRangeLen,
			TimeIncrementUnit:  timeIncrUnit,
			TimeIncrement:      timeIncr,
		}
	}

	return &statisticalTail{
		EndYear:                    endYear,
		EndMonth:                   endMonth,
		EndDay:                     endDay,
		EndHour:                    endHour,
		EndMinute:                  endMinute,
		EndSecond:                  endSecond,
		NumberOfTimeRanges:         numTimeRanges,
		NumberMissingInStatProcess: numMissing,
		TimeRanges:                 timeRanges,
	}, nil
}

// StatisticalQualifier reports the statistical process (Table 4.10, e.g.
// average, accumulation, maximum) applied over the first declared time
// range. Promoted onto Template411 and Template412 (Template48 has its own
// method of the same name), it lets a
// dataset distinguish "6-hour accumulated precipitation" from "6-hour
// average precipitation" at the same level without a type switch.
func (s *statisticalTail) StatisticalQualifier() (uint8, bool) {
	if len(s.TimeRanges) == 0 {
		return 0, false
	}
	return s.TimeRanges[0].StatisticalProcess, true
}

// Template411 represents Product Definition Template 4.11: Individual
// ensemble forecast, control and perturbed, at a horizontal level or
// layer in a continuous or non-continuous time interval.
type Template411 struct {
	Template41
	statisticalTail
}

// ParseTemplate411 parses Product Definition Template 4.11.
func ParseTemplate411(data []byte) (*Template411, error) {
	if len(data) < 40 {
		return nil, fmt.Errorf("template 4.11 requires at least 40 bytes, got %d", len(data))
	}

	base, err := ParseTemplate41(data[:28])
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template 4.1: %w", err)
	}

	tail, err := parseStatisticalTail(data[28:])
	if err != nil {
		return nil, fmt.Errorf("failed to parse statistical tail: %w", err)
	}

	return &Template411{Template41: *base, statisticalTail: *tail}, nil
}

// TemplateNumber returns 11 for Template 4.11.
func (t *Template411) TemplateNumber() int {
	return 11
}

// String returns a human-readable description.
func (t *Template411) String() string {
	return fmt.Sprintf("Template 4.11: Category=%d, Parameter=%d, Perturbation=%d/%d, Time Ranges=%d",
		t.ParameterCategory, t.ParameterNumber, t.PerturbationNumber, t.NumberInEnsemble, t.NumberOfTimeRanges)
}
