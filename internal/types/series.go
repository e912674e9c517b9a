package types

import (
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Number is the set of value types a Series can carry.
type Number interface {
	~float64 | ~int
}

// Series is a column of values indexed by strictly increasing dates.
// Dates[i] is the date of Values[i]. Date identity is the UTC instant.
type Series[T Number] struct {
	Dates  []time.Time
	Values []T
}

// PriceSeries holds adjusted close prices. NaN marks a missing observation.
type PriceSeries = Series[float64]

// PositionSeries holds the long/flat position (0 or 1) held during each day.
type PositionSeries = Series[int]

// RiskFreeSeries holds annualized risk-free rates in percent (3.0 means 3%/year).
type RiskFreeSeries = Series[float64]

// NewSeries validates and copies dates and values into a new Series.
func NewSeries[T Number](dates []time.Time, values []T) (Series[T], error) {
	s := Series[T]{
		Dates:  append([]time.Time{}, dates...),
		Values: append([]T{}, values...),
	}

	if err := s.Validate(); err != nil {
		return Series[T]{}, err
	}

	return s, nil
}

// EmptySeries returns a series with no dates.
func EmptySeries[T Number]() Series[T] {
	return Series[T]{Dates: []time.Time{}, Values: []T{}}
}

// Len returns the number of observations.
func (s Series[T]) Len() int {
	return len(s.Values)
}

// IsEmpty reports whether the series has no observations.
func (s Series[T]) IsEmpty() bool {
	return len(s.Values) == 0
}

// Validate checks the shape of the series: one date per value and dates
// strictly increasing. Violations are reported as ErrCodeInvalidInputType.
func (s Series[T]) Validate() error {
	if len(s.Dates) != len(s.Values) {
		return errors.Newf(errors.ErrCodeInvalidInputType,
			"series has %d dates but %d values", len(s.Dates), len(s.Values))
	}

	for i := 1; i < len(s.Dates); i++ {
		if !s.Dates[i].After(s.Dates[i-1]) {
			return errors.Newf(errors.ErrCodeInvalidInputType,
				"series dates must be strictly increasing: %s is not after %s",
				s.Dates[i].Format(time.RFC3339), s.Dates[i-1].Format(time.RFC3339))
		}
	}

	return nil
}

// First returns the first date and value. ok is false for an empty series.
func (s Series[T]) First() (date time.Time, value T, ok bool) {
	if s.IsEmpty() {
		return time.Time{}, value, false
	}

	return s.Dates[0], s.Values[0], true
}

// Last returns the last date and value. ok is false for an empty series.
func (s Series[T]) Last() (date time.Time, value T, ok bool) {
	if s.IsEmpty() {
		return time.Time{}, value, false
	}

	n := len(s.Values) - 1

	return s.Dates[n], s.Values[n], true
}

// IndexOf maps every date (as a UTC instant) to its position in the series.
func (s Series[T]) IndexOf() map[time.Time]int {
	index := make(map[time.Time]int, len(s.Dates))
	for i, d := range s.Dates {
		index[d.UTC()] = i
	}

	return index
}

// Restrict returns a new series holding only the given dates, in the order given.
// Every date must be present in s.
func (s Series[T]) Restrict(dates []time.Time) Series[T] {
	index := s.IndexOf()
	out := Series[T]{
		Dates:  make([]time.Time, 0, len(dates)),
		Values: make([]T, 0, len(dates)),
	}

	for _, d := range dates {
		i, ok := index[d.UTC()]
		if !ok {
			continue
		}

		out.Dates = append(out.Dates, s.Dates[i])
		out.Values = append(out.Values, s.Values[i])
	}

	return out
}

// Slice returns the observations with start <= date <= end. Zero bounds are open.
func (s Series[T]) Slice(start, end time.Time) Series[T] {
	out := Series[T]{Dates: []time.Time{}, Values: []T{}}

	for i, d := range s.Dates {
		if !start.IsZero() && d.Before(start) {
			continue
		}

		if !end.IsZero() && d.After(end) {
			break
		}

		out.Dates = append(out.Dates, d)
		out.Values = append(out.Values, s.Values[i])
	}

	return out
}
