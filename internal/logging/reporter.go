package logging

import "github.com/mfulz/scenerelay/interfaces"

// Reporter writes execution outcomes to the global logger.
type Reporter struct{}

func (Reporter) Report(o interfaces.Outcome) {
	if o.Success {
		Log.Infow("command executed", "command", o.Label, "id", o.ID, "result", o.Message)
		return
	}
	Log.Errorw("command failed", "command", o.Label, "id", o.ID, "error", o.Message)
}
