package booking

// =============================================================================
// PERIOD - Half-open stay interval [Start, End)
// =============================================================================

// Period is a stay interval. Start is the first night, End the departure day.
// A period that starts on another's End does not overlap it.
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if d is one of the nights of the period.
func (p Period) Contains(d Date) bool {
	return p.Start.BeforeOrEqual(d) && d.Before(p.End)
}

// Overlaps is strict half-open interval intersection.
func (p Period) Overlaps(o Period) bool {
	return Overlaps(p.Start, p.End, o.Start, o.End)
}

// Nights is End - Start in days.
func (p Period) Nights() int {
	return DaysBetween(p.Start, p.End)
}

// Validate rejects empty and inverted periods.
func (p Period) Validate() error {
	_, err := Nights(p.Start, p.End)
	return err
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + ")"
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share a night.
func Overlaps(aStart, aEnd, bStart, bEnd Date) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
