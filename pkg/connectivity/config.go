package connectivity

import (
	"fmt"
	"math"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// DefaultTolerance is the distance in millimetres under which a trace endpoint
// and a port are considered to be at the same place.
const DefaultTolerance = 0.001

// Config controls the behavior of the connectivity check.
type Config struct {
	// Geometric matching
	Tolerance float64 // Maximum endpoint-to-port distance (default: 0.001)

	// Reporting
	ReportDanglingReferences bool // Report explicit references to missing ports (default: false)
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Tolerance:                DefaultTolerance,
		ReportDanglingReferences: false,
	}
}

// Validate checks the configuration for errors. A zero tolerance is replaced
// with DefaultTolerance.
func (c *Config) Validate() error {
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}

	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("tolerance must be a positive distance, got %v", c.Tolerance))
	}

	return nil
}
