package worker

// Counters is the per-worker accounting a run reports. Each request cycle
// increments Issued and exactly one of the four category counts, so the
// category sum equals Issued continuously, not just at the end of a run.
type Counters struct {
	Executed   int64 `json:"executed"`
	Backoff    int64 `json:"backoff"`
	Suppressed int64 `json:"suppressed"`
	Fallback   int64 `json:"fallback"`

	SuccessfulRetries int64 `json:"successful_retries"`
	ExhaustedRetries  int64 `json:"exhausted_retries"`

	Issued int64 `json:"issued"`
}

// CategoryTotal sums the four mutually exclusive request categories.
func (c Counters) CategoryTotal() int64 {
	return c.Executed + c.Backoff + c.Suppressed + c.Fallback
}

// Consistent reports whether the category counts account for every issued
// request.
func (c Counters) Consistent() bool {
	return c.CategoryTotal() == c.Issued
}

// Add returns the element-wise sum of two counter sets.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Executed:          c.Executed + o.Executed,
		Backoff:           c.Backoff + o.Backoff,
		Suppressed:        c.Suppressed + o.Suppressed,
		Fallback:          c.Fallback + o.Fallback,
		SuccessfulRetries: c.SuccessfulRetries + o.SuccessfulRetries,
		ExhaustedRetries:  c.ExhaustedRetries + o.ExhaustedRetries,
		Issued:            c.Issued + o.Issued,
	}
}
