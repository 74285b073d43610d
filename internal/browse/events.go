package browse

// EventKind identifies which observable property changed, or which one-shot
// signal fired.
type EventKind int

const (
	// EventMessage fires when the dynamic display message changed.
	EventMessage EventKind = iota

	// EventThings fires when the query result list changed.
	EventThings

	// EventFromCollection fires when the from-collection state changed.
	EventFromCollection

	// EventUserName fires when the configured user name changed.
	EventUserName

	// EventQuerying fires when the querying state changed.
	EventQuerying

	// EventActiveThing fires when the active thing changed.
	EventActiveThing

	// EventActiveThingFiles fires when the active thing's file list changed.
	EventActiveThingFiles

	// EventDownloading fires when a file started or stopped downloading.
	EventDownloading

	// EventError is a one-shot failure notification carrying Err.
	EventError

	// EventSettingsRequested asks the front end to open the settings view.
	EventSettingsRequested
)

// Event is a single observer notification from the browse service.
type Event struct {
	Kind EventKind
	Err  error
}
