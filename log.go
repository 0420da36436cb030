package zmachine

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("zmachine")

// DebugPrintf traces interpreter internals. Output only appears when the
// embedding program has configured a commonlog backend at debug verbosity.
func DebugPrintf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}
