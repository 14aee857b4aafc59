package placement

// State is how full a bucket looks.
type State string

const (
	StateEmpty        State = "empty"
	StatePartial      State = "partial"
	StateNearCapacity State = "near-capacity"
	StateFull         State = "full"
)

// nearCapacityRatio is the fill ratio from which a bucket is near capacity.
const nearCapacityRatio = 0.8

// BucketState classifies b by roster size against capacity.
func BucketState(b Bucket) State {
	n := len(b.Students)
	switch {
	case n == 0:
		return StateEmpty
	case b.Capacity <= 0 || n >= b.Capacity:
		return StateFull
	case float64(n)/float64(b.Capacity) >= nearCapacityRatio:
		return StateNearCapacity
	default:
		return StatePartial
	}
}

// Seats reports filled and total seats across buckets.
func Seats(buckets []Bucket) (filled, total int) {
	for _, b := range buckets {
		filled += len(b.Students)
		total += b.Capacity
	}
	return filled, total
}
