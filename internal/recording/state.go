package recording

// State is the lifecycle phase of the recording session.
type State string

// Session states. Transitions run Idle → Starting → Active → Stopping →
// Finalizing → Idle; every transition happens under the service mutex.
const (
	StateIdle       State = "idle"       // No session, writer closed
	StateStarting   State = "starting"   // Opening the output writer
	StateActive     State = "active"     // Accepting frames
	StateStopping   State = "stopping"   // Closing the writer
	StateFinalizing State = "finalizing" // Post-processing the finished file
)

// Busy reports whether a session holds the recording slot in this state.
func (s State) Busy() bool {
	return s != StateIdle
}
