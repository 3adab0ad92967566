package pipeline

// Bucket is an ordinal rental-count category.
type Bucket int

const (
	// BucketNone holds zero-count rows, which fall below the first bin.
	BucketNone Bucket = iota
	BucketLow
	BucketMedium
	BucketHigh
	BucketVeryHigh
)

var bucketLabels = [...]string{
	BucketNone:     "None",
	BucketLow:      "Low",
	BucketMedium:   "Medium",
	BucketHigh:     "High",
	BucketVeryHigh: "Very High",
}

// Upper bounds of the right-closed bins: Low=(0,100], Medium=(100,300], High=(300,500].
// Everything above 500 is Very High, including counts past 1000.
const (
	lowCeiling    = 100
	mediumCeiling = 300
	highCeiling   = 500
)

// Label returns the display name of the bucket.
func (b Bucket) Label() string {
	if b < BucketNone || b > BucketVeryHigh {
		return bucketLabels[BucketNone]
	}
	return bucketLabels[b]
}

func (b Bucket) String() string {
	return b.Label()
}

// BucketOf categorizes a rental count.
func BucketOf(count int) Bucket {
	switch {
	case count <= 0:
		return BucketNone
	case count <= lowCeiling:
		return BucketLow
	case count <= mediumCeiling:
		return BucketMedium
	case count <= highCeiling:
		return BucketHigh
	default:
		return BucketVeryHigh
	}
}
