package classifier

import "math"

// InkCheck rejects blank, noisy or low-contrast images before inference.
// Values are normalized luminance, so ink is dark and paper is close to 1.
type InkCheck struct {
	Enabled       bool
	DarkLevel     float32
	MinForeground float32
	MaxForeground float32
	MinStdDev     float32
}

func DefaultInkCheck() InkCheck {
	return InkCheck{
		DarkLevel:     0.85,
		MinForeground: 0.02,
		MaxForeground: 0.60,
		MinStdDev:     0.05,
	}
}

// Evaluate returns a rejection reason, or "" when the image looks like a symbol.
func (k InkCheck) Evaluate(data []float32) string {
	if !k.Enabled || len(data) == 0 {
		return ""
	}

	var dark int
	var sum float64
	for _, v := range data {
		if v < k.DarkLevel {
			dark++
		}
		sum += float64(v)
	}
	n := float64(len(data))
	mean := sum / n

	var variance float64
	for _, v := range data {
		d := float64(v) - mean
		variance += d * d
	}
	stdDev := math.Sqrt(variance / n)
	foreground := float64(dark) / n

	switch {
	case stdDev < float64(k.MinStdDev):
		return ReasonLowContrast
	case foreground < float64(k.MinForeground):
		return ReasonNoInk
	case foreground > float64(k.MaxForeground):
		return ReasonTooMuchInk
	}
	return ""
}
