package gpu

import (
	"github.com/openfluke/kernelrun/logging"
)

// Debug enables per-stage tracing through Log.
var Debug = false

var logger = logging.For("gpu")

// Log writes a debug trace line. Callers guard it with Debug so the
// arguments are not formatted on the hot path.
func Log(format string, args ...any) {
	logger.Debugf(format, args...)
}
