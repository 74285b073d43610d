package browse

import (
	"context"
	"errors"
	"log"
	"path"
	"strings"
	"sync"

	"github.com/tbeke/thingscout/internal/thingiverse"
)

// Preferences is the host preference store holding the Thingiverse user
// name. External changes propagate through Subscribe.
type Preferences interface {
	UserName() string
	SetUserName(name string) error
	Subscribe(fn func())
}

// FileSink receives downloaded file bytes and hands them to the host for
// opening or importing.
type FileSink interface {
	Open(name string, data []byte) error
}

// FileTypes reports the file extensions the host can import, without dots.
type FileTypes interface {
	SupportedExtensions() []string
}

// SettingUserName is the setting name accepted by SetSetting.
const SettingUserName = "username"

const eventBufferSize = 64

// Service serves Thingiverse content to a front end. It owns the query,
// detail, and download state and notifies observers of every change
// through its event channel. All operations are non-blocking; network
// calls run in background goroutines and mutate state under one mutex.
type Service struct {
	api   thingiverse.API
	prefs Preferences
	sink  FileSink
	types FileTypes

	ctx    context.Context
	events chan Event

	mu             sync.Mutex
	message        string
	things         []thingiverse.Thing
	query          string
	page           int
	generation     int
	fromCollection bool
	querying       bool
	userName       string
	activeThing    *thingiverse.Thing
	activeFiles    []thingiverse.ThingFile
	downloading    bool
	supported      map[string]struct{}
}

// New builds a Service around its collaborators. The context bounds all
// outgoing requests.
func New(ctx context.Context, api thingiverse.API, prefs Preferences, sink FileSink, types FileTypes) *Service {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Service{
		api:       api,
		prefs:     prefs,
		sink:      sink,
		types:     types,
		ctx:       ctx,
		events:    make(chan Event, eventBufferSize),
		page:      1,
		supported: make(map[string]struct{}),
	}
	if prefs != nil {
		s.userName = strings.TrimSpace(prefs.UserName())
		prefs.Subscribe(s.onPreferencesChanged)
	}
	return s
}

// Events exposes the observer notification stream. The channel is
// buffered; when a consumer stalls the oldest notifications are dropped.
func (s *Service) Events() <-chan Event {
	return s.events
}

// Observable properties.

// Message returns the dynamic display message.
func (s *Service) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Things returns a copy of the accumulated query results.
func (s *Service) Things() []thingiverse.Thing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneThings(s.things)
}

// IsFromCollection reports whether the current results came from drilling
// into a collection.
func (s *Service) IsFromCollection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fromCollection
}

// UserName returns the configured user name for user-scoped queries.
func (s *Service) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userName
}

// IsQuerying reports whether a listing request is in flight.
func (s *Service) IsQuerying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.querying
}

// ActiveThing returns the thing currently shown in the detail pane.
func (s *Service) ActiveThing() (thingiverse.Thing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeThing == nil {
		return thingiverse.Thing{}, false
	}
	return *s.activeThing, true
}

// HasActiveThing reports whether a detail pane is active.
func (s *Service) HasActiveThing() bool {
	_, ok := s.ActiveThing()
	return ok
}

// ActiveThingFiles returns the active thing's files, already filtered to
// the host's supported types.
func (s *Service) ActiveThingFiles() []thingiverse.ThingFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneFiles(s.activeFiles)
}

// IsDownloading reports whether a file download is in flight.
func (s *Service) IsDownloading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloading
}

// Commands.

// Search starts a new query session for things matching a search term.
func (s *Service) Search(term string) {
	s.runQuery(thingiverse.SearchQuery(term), false)
}

// GetLiked lists the configured user's liked things.
func (s *Service) GetLiked() {
	s.userQuery(thingiverse.LikesQuery)
}

// GetCollections lists the configured user's collections.
func (s *Service) GetCollections() {
	s.userQuery(thingiverse.CollectionsQuery)
}

// GetMyThings lists the configured user's published things.
func (s *Service) GetMyThings() {
	s.userQuery(thingiverse.ThingsByUserQuery)
}

// GetMakes lists the configured user's made things.
func (s *Service) GetMakes() {
	s.userQuery(thingiverse.MakesQuery)
}

// GetPopular lists the most popular things.
func (s *Service) GetPopular() {
	s.runQuery(thingiverse.PopularQuery(), false)
}

// GetFeatured lists the staff-featured things.
func (s *Service) GetFeatured() {
	s.runQuery(thingiverse.FeaturedQuery(), false)
}

// GetNewest lists the newest things.
func (s *Service) GetNewest() {
	s.runQuery(thingiverse.NewestQuery(), false)
}

// ShowCollectionDetails lists the things inside one of the configured
// user's collections.
func (s *Service) ShowCollectionDetails(collectionID int) {
	user := s.UserName()
	if user == "" {
		s.emit(Event{Kind: EventSettingsRequested})
		return
	}
	s.runQuery(thingiverse.CollectionThingsQuery(user, collectionID), true)
}

// AddPage appends the next page of results to the current query session.
// A page request already in flight makes this a no-op; pages are fetched
// one at a time.
func (s *Service) AddPage() {
	s.mu.Lock()
	if s.querying || s.query == "" {
		s.mu.Unlock()
		return
	}
	s.page++
	s.querying = true
	query, page, gen := s.query, s.page, s.generation
	s.mu.Unlock()

	s.emit(Event{Kind: EventQuerying})
	go s.fetchPage(query, page, gen)
}

// ShowThingDetails fetches the details and the file listing of a thing.
// The two requests run concurrently and each updates its own slice of
// state, in whichever order they complete.
func (s *Service) ShowThingDetails(thingID int) {
	go func() {
		thing, err := s.api.Thing(s.ctx, thingID)
		if err != nil {
			s.fail(err)
			return
		}
		s.mu.Lock()
		s.activeThing = &thing
		s.mu.Unlock()
		s.emit(Event{Kind: EventActiveThing})
	}()
	go func() {
		files, err := s.api.ThingFiles(s.ctx, thingID)
		if err != nil {
			s.fail(err)
			return
		}
		filtered := s.filterFiles(files)
		s.mu.Lock()
		s.activeFiles = filtered
		s.mu.Unlock()
		s.emit(Event{Kind: EventActiveThingFiles})
	}()
}

// HideThingDetails clears the detail pane. Calling it with no active
// thing is a no-op apart from the notifications.
func (s *Service) HideThingDetails() {
	s.mu.Lock()
	s.activeThing = nil
	s.activeFiles = nil
	s.mu.Unlock()
	s.emit(Event{Kind: EventActiveThing})
	s.emit(Event{Kind: EventActiveThingFiles})
}

// DownloadThingFile downloads a thing file and hands the bytes to the
// file sink under the suggested name. Only one download runs at a time; a
// second request while one is in flight is rejected.
func (s *Service) DownloadThingFile(fileID int, fileName string) {
	s.mu.Lock()
	if s.downloading {
		s.mu.Unlock()
		s.fail(errors.New("a download is already in progress"))
		return
	}
	s.downloading = true
	s.mu.Unlock()
	s.emit(Event{Kind: EventDownloading})

	go func() {
		data, err := s.api.Download(s.ctx, fileID)
		if err == nil {
			err = s.sink.Open(fileName, data)
		}
		s.mu.Lock()
		s.downloading = false
		s.mu.Unlock()
		if err != nil {
			s.fail(err)
		}
		s.emit(Event{Kind: EventDownloading})
	}()
}

// OpenSettings asks the front end to show the settings view.
func (s *Service) OpenSettings() {
	s.emit(Event{Kind: EventSettingsRequested})
}

// SetSetting changes the value of a named setting. Unknown names are
// ignored.
func (s *Service) SetSetting(name, value string) {
	switch name {
	case SettingUserName:
		if err := s.prefs.SetUserName(value); err != nil {
			s.fail(err)
		}
	}
}

// LoadMessage fetches the dynamic display message once. Failures are not
// surfaced to the user; the banner simply stays empty.
func (s *Service) LoadMessage() {
	go func() {
		msg, err := s.api.Message(s.ctx)
		if err != nil {
			log.Printf("load display message failed: %v", err)
			return
		}
		s.mu.Lock()
		s.message = msg.Message
		s.mu.Unlock()
		s.emit(Event{Kind: EventMessage})
	}()
}

// RefreshSupportedTypes re-reads the host's importable file extensions.
// Triggered when the front end window is opened.
func (s *Service) RefreshSupportedTypes() {
	set := make(map[string]struct{})
	if s.types != nil {
		for _, ext := range s.types.SupportedExtensions() {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext != "" {
				set[ext] = struct{}{}
			}
		}
	}
	s.mu.Lock()
	s.supported = set
	s.mu.Unlock()
}

// userQuery runs a user-scoped listing, redirecting to settings when no
// user name is configured.
func (s *Service) userQuery(build func(string) string) {
	user := s.UserName()
	if user == "" {
		s.emit(Event{Kind: EventSettingsRequested})
		return
	}
	s.runQuery(build(user), false)
}

// runQuery starts a new query session: results and detail state are
// cleared and the page counter resets to 1.
func (s *Service) runQuery(query string, fromCollection bool) {
	s.mu.Lock()
	s.query = query
	s.page = 1
	s.generation++
	s.things = nil
	s.activeThing = nil
	s.activeFiles = nil
	collectionChanged := s.fromCollection != fromCollection
	s.fromCollection = fromCollection
	s.querying = true
	gen := s.generation
	s.mu.Unlock()

	s.emit(Event{Kind: EventThings})
	s.emit(Event{Kind: EventActiveThing})
	s.emit(Event{Kind: EventActiveThingFiles})
	if collectionChanged {
		s.emit(Event{Kind: EventFromCollection})
	}
	s.emit(Event{Kind: EventQuerying})

	go s.fetchPage(query, 1, gen)
}

func (s *Service) fetchPage(query string, page, gen int) {
	things, err := s.api.Things(s.ctx, query, page)

	s.mu.Lock()
	if gen != s.generation {
		// A newer query session superseded this request.
		s.mu.Unlock()
		return
	}
	s.querying = false
	if err == nil {
		s.things = append(s.things, things...)
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventQuerying})
	if err != nil {
		s.fail(err)
		return
	}
	s.emit(Event{Kind: EventThings})
}

// filterFiles drops files whose extension the host cannot import. The
// match is case-insensitive; original names are preserved.
func (s *Service) filterFiles(files []thingiverse.ThingFile) []thingiverse.ThingFile {
	s.mu.Lock()
	supported := s.supported
	s.mu.Unlock()

	var out []thingiverse.ThingFile
	for _, f := range files {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(f.Name), "."))
		if _, ok := supported[ext]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (s *Service) fail(err error) {
	s.emit(Event{Kind: EventError, Err: err})
}

func (s *Service) onPreferencesChanged() {
	name := strings.TrimSpace(s.prefs.UserName())
	s.mu.Lock()
	changed := name != s.userName
	s.userName = name
	s.mu.Unlock()
	if changed {
		s.emit(Event{Kind: EventUserName})
	}
}

// emit delivers an event without ever blocking a service goroutine. When
// the buffer is full the oldest notification is dropped; consumers always
// re-read current state from the getters, so a dropped event at worst
// coalesces with a later one.
func (s *Service) emit(e Event) {
	select {
	case s.events <- e:
		return
	default:
	}
	select {
	case <-s.events:
	default:
	}
	select {
	case s.events <- e:
	default:
	}
}

func cloneThings(items []thingiverse.Thing) []thingiverse.Thing {
	if len(items) == 0 {
		return nil
	}
	dup := make([]thingiverse.Thing, len(items))
	copy(dup, items)
	return dup
}

func cloneFiles(items []thingiverse.ThingFile) []thingiverse.ThingFile {
	if len(items) == 0 {
		return nil
	}
	dup := make([]thingiverse.ThingFile, len(items))
	copy(dup, items)
	return dup
}
