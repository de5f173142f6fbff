package thumbnail

import "strings"

// Aspect ratios of common video players, used by both the validator's loose
// rejection rule and the scorer's bonus.
var preferredRatios = []float64{16.0 / 9.0, 4.0 / 3.0, 3.0 / 2.0, 1.85, 2.35}

func nearPreferredRatio(ratio, tolerance float64) bool {
	for _, p := range preferredRatios {
		if ratio >= p-tolerance && ratio <= p+tolerance {
			return true
		}
	}
	return false
}

// score recomputes the final confidence from the extractor's base value.
// Bonuses only; a bad candidate is rejected by the validator, never scored
// down. The result is capped at 1.0.
func score(c Candidate) float64 {
	conf := c.Confidence

	area := c.Width * c.Height
	if area > 500000 {
		conf += 0.1
	} else if area > 200000 {
		conf += 0.05
	}

	if ar := c.AspectRatio(); ar > 0 && nearPreferredRatio(ar, 0.1) {
		conf += 0.1
	}

	src := strings.ToLower(c.Source)
	if strings.Contains(src, "video") || strings.Contains(src, "poster") {
		conf += 0.1
	}

	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
