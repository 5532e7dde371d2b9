package manifest

import (
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// ConfigureLogging applies the manifest's logging section to the process
// logger. With no manifest (nil), logging stays at the backend default.
func ConfigureLogging(m *Manifest) {
	if m == nil {
		return
	}
	var path *string
	if m.Logging.Path != "" {
		path = &m.Logging.Path
	}
	commonlog.Configure(m.Logging.Verbosity, path)
}
