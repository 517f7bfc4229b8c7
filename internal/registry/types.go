package registry

// SizeBucket is a categorical revenue-size tier
type SizeBucket string

const (
	SizeMicro   SizeBucket = "Micro"
	SizeSmall   SizeBucket = "Small"
	SizeMedium  SizeBucket = "Medium"
	SizeLarge   SizeBucket = "Large"
	SizeMajor   SizeBucket = "Major"
	SizeUnknown SizeBucket = "Unknown"
)

// Size bucket revenue thresholds
const (
	sizeSmallFloor  = 50_000
	sizeMediumFloor = 250_000
	sizeLargeFloor  = 1_000_000
	sizeMajorFloor  = 10_000_000
)

// SizeBucketFor maps an annual income figure to its size bucket.
// A missing figure resolves to SizeUnknown.
func SizeBucketFor(income *float64) SizeBucket {
	if income == nil {
		return SizeUnknown
	}
	switch {
	case *income < sizeSmallFloor:
		return SizeMicro
	case *income < sizeMediumFloor:
		return SizeSmall
	case *income < sizeLargeFloor:
		return SizeMedium
	case *income < sizeMajorFloor:
		return SizeLarge
	default:
		return SizeMajor
	}
}

// IsValid reports whether the bucket is one of the closed set
func (s SizeBucket) IsValid() bool {
	switch s {
	case SizeMicro, SizeSmall, SizeMedium, SizeLarge, SizeMajor, SizeUnknown:
		return true
	}
	return false
}

// Organization is one row of the registry extract, enriched with the
// derived sector label and size bucket after classification.
type Organization struct {
	EIN      string `json:"ein"`
	Name     string `json:"name"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZIP      string `json:"zip"`
	NTEECode string `json:"ntee_code"`

	Income  *float64 `json:"income,omitempty"`
	Assets  *float64 `json:"assets,omitempty"`
	Revenue *float64 `json:"revenue,omitempty"`

	Sector     string     `json:"sector,omitempty"`
	SizeBucket SizeBucket `json:"size_bucket,omitempty"`
}
