package query

// YieldPolicy controls whether a running plan relinquishes its locks and
// storage snapshot periodically during execution
type YieldPolicy int

const (
	// YieldAuto yields periodically, the default for user operations
	YieldAuto YieldPolicy = iota
	// YieldManual leaves yield points to the caller
	YieldManual
	// NoYield never yields; reserved for privileged operations that must
	// not relinquish control mid-scan
	NoYield
)

func (p YieldPolicy) String() string {
	switch p {
	case YieldAuto:
		return "YIELD_AUTO"
	case YieldManual:
		return "YIELD_MANUAL"
	case NoYield:
		return "NO_YIELD"
	default:
		return "YIELD_UNKNOWN"
	}
}
