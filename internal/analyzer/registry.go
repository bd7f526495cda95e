package analyzer

import "fmt"

// NewExtractor creates an extractor for the named energy measure.
func NewExtractor(variant string, fallbackDuration float64) (Extractor, error) {
	switch variant {
	case "mean-abs", "":
		return NewMeanAbsExtractor(fallbackDuration), nil
	case "rms":
		return NewRMSExtractor(fallbackDuration), nil
	default:
		return nil, fmt.Errorf("unknown energy mode: %s", variant)
	}
}
