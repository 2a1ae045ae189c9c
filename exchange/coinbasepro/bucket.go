package coinbasepro

import "time"

//
// bucket is a slice of a candle range that is small enough to be served by a single request. Both
// ends are inclusive. The zero bucket stands for "no range at all".
//
type bucket struct {
	start time.Time
	end   time.Time
}

func (o bucket) contains(t time.Time) bool {
	if o.start.IsZero() {
		return true
	}

	return !t.Before(o.start) && !t.After(o.end)
}

//
// buckets splits the inclusive range [start, end] into consecutive buckets holding at most
// MaxCandlesPerRequest candles of the provided granularity each.
//
func buckets(start time.Time, end time.Time, granularity Granularity) []bucket {
	width := granularity.Duration()
	span := width * MaxCandlesPerRequest

	ret := make([]bucket, 0, int(end.Sub(start)/span)+1)

	for s := start; !s.After(end); s = s.Add(span) {
		e := s.Add(span - width)
		if e.After(end) {
			e = end
		}

		ret = append(ret, bucket{start: s, end: e})
	}

	return ret
}
