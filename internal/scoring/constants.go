package scoring

const (
	// DefaultSustainability is the PROSA-C compensation coefficient applied to
	// every criterion when the caller does not provide one.
	DefaultSustainability = 0.3

	// default PROSA-C thresholds as multiples of each column's standard deviation
	PreferenceDeviationFactor   = 2.0
	IndifferenceDeviationFactor = 0.5

	DefaultMethod = MethodProsaC
)

func DefaultEngineConfig() Engine {
	return Engine{
		Method:                DefaultMethod,
		DefaultSustainability: DefaultSustainability,
	}
}
