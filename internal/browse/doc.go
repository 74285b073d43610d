// Package browse holds the view-model service between the Thingiverse
// client and a front end.
//
// The Service owns three slices of state: the query session (current
// query string, page counter, accumulated results), the detail pane
// (active thing plus its filtered file list), and the download flag.
// Every command is non-blocking; completions mutate state under the
// service mutex and emit exactly one typed Event per changed property on
// the Events channel. Remote failures surface as one-shot EventError
// notifications and always return the service to idle; nothing is
// retried.
//
// Host integration points are injected as small interfaces: Preferences
// (user name storage with change notification), FileSink (opening a
// downloaded file), and FileTypes (the importable extension set used to
// filter thing files).
package browse
