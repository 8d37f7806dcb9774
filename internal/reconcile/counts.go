package reconcile

// Counts accumulates per-outcome record counts for one file.
// Kept + Flipped + Dropped() == Total() always holds.
type Counts struct {
	Kept           int
	Flipped        int
	DroppedMendel  int
	DroppedNoMatch int
}

// Add counts one record with the given outcome.
func (c *Counts) Add(o Outcome) {
	switch o {
	case Kept:
		c.Kept++
	case Flipped:
		c.Flipped++
	case DroppedMendel:
		c.DroppedMendel++
	case DroppedNoMatch:
		c.DroppedNoMatch++
	}
}

// Dropped returns the number of records removed for any reason.
func (c Counts) Dropped() int {
	return c.DroppedMendel + c.DroppedNoMatch
}

// Total returns the number of data records seen.
func (c Counts) Total() int {
	return c.Kept + c.Flipped + c.Dropped()
}

// Retained returns the number of records written to the output.
func (c Counts) Retained() int {
	return c.Kept + c.Flipped
}

// Percent returns n as a percentage of Total, or 0 for an empty file.
func (c Counts) Percent(n int) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
