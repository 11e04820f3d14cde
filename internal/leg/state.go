package leg

// State is a Leg's position in the state machine from spec §4.1:
//
//	Preparing ─ setSize ─▶ Active ─ write(overflow) ─▶ Stalled
//	                         ▲                              │
//	                         └──────────── onDrain ──────────┘
//	Active/Stalled ─ finalize ─▶ Finalizing ─ http-done ─▶ DoneSuccess
//	any-live       ─ abort/timer/http-err ─▶ DoneError
type State int

const (
	Preparing State = iota
	Active
	Stalled
	Finalizing
	DoneSuccess
	DoneError
)

func (s State) String() string {
	switch s {
	case Preparing:
		return "preparing"
	case Active:
		return "active"
	case Stalled:
		return "stalled"
	case Finalizing:
		return "finalizing"
	case DoneSuccess:
		return "done(success)"
	case DoneError:
		return "done(error)"
	default:
		return "unknown"
	}
}

// alive reports whether the state still participates in the pipeline:
// it can still receive writes, be finalized, or be aborted.
func (s State) alive() bool {
	switch s {
	case Preparing, Active, Stalled, Finalizing:
		return true
	default:
		return false
	}
}
