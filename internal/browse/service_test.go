package browse

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tbeke/thingscout/internal/thingiverse"
)

// fakeAPI implements thingiverse.API with per-call hooks and call
// recording.
type fakeAPI struct {
	mu          sync.Mutex
	thingsCalls []struct {
		Query string
		Page  int
	}
	downloadCalls int

	thingsFn   func(query string, page int) ([]thingiverse.Thing, error)
	thingFn    func(id int) (thingiverse.Thing, error)
	filesFn    func(id int) ([]thingiverse.ThingFile, error)
	downloadFn func(id int) ([]byte, error)
	messageFn  func() (thingiverse.Message, error)
}

func (f *fakeAPI) Things(_ context.Context, query string, page int) ([]thingiverse.Thing, error) {
	f.mu.Lock()
	f.thingsCalls = append(f.thingsCalls, struct {
		Query string
		Page  int
	}{query, page})
	fn := f.thingsFn
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(query, page)
}

func (f *fakeAPI) Thing(_ context.Context, id int) (thingiverse.Thing, error) {
	if f.thingFn == nil {
		return thingiverse.Thing{ID: id}, nil
	}
	return f.thingFn(id)
}

func (f *fakeAPI) ThingFiles(_ context.Context, id int) ([]thingiverse.ThingFile, error) {
	if f.filesFn == nil {
		return nil, nil
	}
	return f.filesFn(id)
}

func (f *fakeAPI) Collections(_ context.Context, user string) ([]thingiverse.Collection, error) {
	return nil, nil
}

func (f *fakeAPI) Download(_ context.Context, id int) ([]byte, error) {
	f.mu.Lock()
	f.downloadCalls++
	fn := f.downloadFn
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(id)
}

func (f *fakeAPI) Message(_ context.Context) (thingiverse.Message, error) {
	if f.messageFn == nil {
		return thingiverse.Message{}, nil
	}
	return f.messageFn()
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.thingsCalls)
}

func (f *fakeAPI) lastCall() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.thingsCalls) == 0 {
		return "", 0
	}
	last := f.thingsCalls[len(f.thingsCalls)-1]
	return last.Query, last.Page
}

type fakePrefs struct {
	mu   sync.Mutex
	name string
	subs []func()
}

func (p *fakePrefs) UserName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *fakePrefs) SetUserName(name string) error {
	p.mu.Lock()
	p.name = name
	subs := append([]func(){}, p.subs...)
	p.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
	return nil
}

func (p *fakePrefs) Subscribe(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

type fakeSink struct {
	mu     sync.Mutex
	name   string
	data   []byte
	onOpen func()
}

func (s *fakeSink) Open(name string, data []byte) error {
	s.mu.Lock()
	s.name = name
	s.data = append([]byte(nil), data...)
	fn := s.onOpen
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (s *fakeSink) received() (string, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, s.data
}

type fakeTypes struct {
	exts []string
}

func (f *fakeTypes) SupportedExtensions() []string {
	return f.exts
}

func pagedThings(query string, page int) ([]thingiverse.Thing, error) {
	base := (page - 1) * 2
	return []thingiverse.Thing{
		{ID: base + 1, Name: fmt.Sprintf("%s-%d", query, base+1)},
		{ID: base + 2, Name: fmt.Sprintf("%s-%d", query, base+2)},
	}, nil
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func waitEvent(t *testing.T, events <-chan Event, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Kind == kind {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

func TestSearch_PopulatesResults(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{thingsFn: pagedThings}
	s := New(context.Background(), api, &fakePrefs{}, &fakeSink{}, &fakeTypes{})

	s.Search("benchy")

	eventually(t, func() bool { return len(s.Things()) == 2 }, "results never arrived")
	eventually(t, func() bool { return !s.IsQuerying() }, "querying flag never cleared")

	query, page := api.lastCall()
	if query != "search/benchy" {
		t.Fatalf("query = %q, want search/benchy", query)
	}
	if page != 1 {
		t.Fatalf("page = %d, want 1", page)
	}
}

func TestAddPage_AppendsAndNewQueryClears(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{thingsFn: pagedThings}
	s := New(context.Background(), api, &fakePrefs{}, &fakeSink{}, &fakeTypes{})

	s.Search("gear")
	eventually(t, func() bool { return len(s.Things()) == 2 }, "first page never arrived")

	s.AddPage()
	eventually(t, func() bool { return len(s.Things()) == 4 }, "second page was not appended")

	things := s.Things()
	for i, want := range []int{1, 2, 3, 4} {
		if things[i].ID != want {
			t.Fatalf("things[%d].ID = %d, want %d (append must preserve order)", i, things[i].ID, want)
		}
	}
	if _, page := api.lastCall(); page != 2 {
		t.Fatalf("page = %d, want 2", page)
	}

	// A query-changing operation clears results and resets the page.
	s.GetPopular()
	eventually(t, func() bool {
		query, page := api.lastCall()
		return query == "popular" && page == 1
	}, "new query did not reset to page 1")
	eventually(t, func() bool {
		things := s.Things()
		return len(things) == 2 && things[0].Name == "popular-1"
	}, "new query did not replace results")
}

func TestAddPage_WhileQueryingIsNoOp(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	api := &fakeAPI{thingsFn: func(query string, page int) ([]thingiverse.Thing, error) {
		<-gate
		return pagedThings(query, page)
	}}
	s := New(context.Background(), api, &fakePrefs{}, &fakeSink{}, &fakeTypes{})

	s.Search("slow")
	eventually(t, func() bool { return s.IsQuerying() }, "querying flag never set")

	s.AddPage()
	s.AddPage()
	close(gate)

	eventually(t, func() bool { return !s.IsQuerying() }, "querying flag never cleared")
	if got := api.callCount(); got != 1 {
		t.Fatalf("listing calls = %d, want 1 (no pipelined pages)", got)
	}
}

func TestAddPage_WithoutQueryIsNoOp(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	s := New(context.Background(), api, &fakePrefs{}, &fakeSink{}, &fakeTypes{})

	s.AddPage()
	time.Sleep(20 * time.Millisecond)
	if got := api.callCount(); got != 0 {
		t.Fatalf("listing calls = %d, want 0", got)
	}
}

func TestUserScopedQueries_RequireConfiguredUserName(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	s := New(context.Background(), api, &fakePrefs{}, &fakeSink{}, &fakeTypes{})

	ops := map[string]func(){
		"GetLiked":       s.GetLiked,
		"GetCollections": s.GetCollections,
		"GetMyThings":    s.GetMyThings,
		"GetMakes":       s.GetMakes,
	}
	for name, op := range ops {
		op()
		waitEvent(t, s.Events(), EventSettingsRequested)
		if got := api.callCount(); got != 0 {
			t.Fatalf("%s issued %d network calls with empty user name, want 0", name, got)
		}
		if s.IsQuerying() {
			t.Fatalf("%s entered querying state with empty user name", name)
		}
	}
}

func TestUserScopedQueries_UseConfiguredName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		op   func(*Service)
		want string
	}{
		{(*Service).GetLiked, "users/alice/likes"},
		{(*Service).GetCollections, "users/alice/collections"},
		{(*Service).GetMyThings, "users/alice/things"},
		{(*Service).GetMakes, "users/alice/copies"},
	}

	for _, tc := range cases {
		api := &fakeAPI{thingsFn: pagedThings}
		s := New(context.Background(), api, &fakePrefs{name: "alice"}, &fakeSink{}, &fakeTypes{})
		tc.op(s)
		eventually(t, func() bool {
			query, _ := api.lastCall()
			return query == tc.want
		}, "query never issued: "+tc.want)
	}
}

func TestShowCollectionDetails_SetsFromCollection(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{thingsFn: pagedThings}
	s := New(context.Background(), api, &fakePrefs{name: "alice"}, &fakeSink{}, &fakeTypes{})

	s.ShowCollectionDetails(7)
	eventually(t, func() bool {
		query, _ := api.lastCall()
		return query == "users/alice/collections/7/things"
	}, "collection things query never issued")
	if !s.IsFromCollection() {
		t.Fatal("IsFromCollection = false, want true inside a collection")
	}

	s.GetNewest()
	eventually(t, func() bool { return !s.IsFromCollection() }, "IsFromCollection never reset")
}

func TestShowThingDetails_FiltersUnsupportedFiles(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		thingFn: func(id int) (thingiverse.Thing, error) {
			return thingiverse.Thing{ID: id, Name: "Benchy"}, nil
		},
		filesFn: func(id int) ([]thingiverse.ThingFile, error) {
			return []thingiverse.ThingFile{
				{ID: 1, Name: "a.STL"},
				{ID: 2, Name: "b.gcode"},
				{ID: 3, Name: "c.obj"},
			}, nil
		},
	}
	s := New(context.Background(), api, &fakePrefs{}, &fakeSink{}, &fakeTypes{exts: []string{"stl", "obj"}})
	s.RefreshSupportedTypes()

	s.ShowThingDetails(42)

	eventually(t, func() bool { return s.HasActiveThing() }, "active thing never arrived")
	eventually(t, func() bool { return len(s.ActiveThingFiles()) == 2 }, "filtered files never arrived")

	files := s.ActiveThingFiles()
	if files[0].Name != "a.STL" || files[1].Name != "c.obj" {
		t.Fatalf("files = %v, want [a.STL c.obj] with original casing", files)
	}
}

func TestHideThingDetails_ClearsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		filesFn: func(id int) ([]thingiverse.ThingFile, error) {
			return []thingiverse.ThingFile{{ID: 1, Name: "a.stl"}}, nil
		},
	}
	s := New(context.Background(), api, &fakePrefs{}, &fakeSink{}, &fakeTypes{exts: []string{"stl"}})
	s.RefreshSupportedTypes()

	s.ShowThingDetails(42)
	eventually(t, func() bool { return s.HasActiveThing() }, "active thing never arrived")

	s.HideThingDetails()
	waitEvent(t, s.Events(), EventActiveThing)
	if s.HasActiveThing() {
		t.Fatal("HasActiveThing = true after HideThingDetails")
	}
	if got := s.ActiveThingFiles(); len(got) != 0 {
		t.Fatalf("ActiveThingFiles = %v, want empty", got)
	}

	// Calling again with nothing active still fires the notification.
	s.HideThingDetails()
	waitEvent(t, s.Events(), EventActiveThing)
}

func TestDownloadFlow(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	payload := []byte("solid part")
	api := &fakeAPI{downloadFn: func(id int) ([]byte, error) {
		<-gate
		return payload, nil
	}}
	snk := &fakeSink{}
	s := New(context.Background(), api, &fakePrefs{}, snk, &fakeTypes{})

	var downloadingAtDelivery bool
	snk.onOpen = func() { downloadingAtDelivery = s.IsDownloading() }

	s.DownloadThingFile(42, "part.stl")
	if !s.IsDownloading() {
		t.Fatal("IsDownloading = false immediately after DownloadThingFile")
	}

	close(gate)
	eventually(t, func() bool { return !s.IsDownloading() }, "downloading flag never cleared")

	name, data := snk.received()
	if name != "part.stl" {
		t.Fatalf("sink name = %q, want part.stl", name)
	}
	if string(data) != string(payload) {
		t.Fatalf("sink data = %q, want download payload", data)
	}
	if !downloadingAtDelivery {
		t.Fatal("IsDownloading = false at sink delivery, want true until delivery completes")
	}
}

func TestDownload_SecondRequestRejected(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	api := &fakeAPI{downloadFn: func(id int) ([]byte, error) {
		<-gate
		return nil, nil
	}}
	s := New(context.Background(), api, &fakePrefs{}, &fakeSink{}, &fakeTypes{})

	s.DownloadThingFile(1, "a.stl")
	s.DownloadThingFile(2, "b.stl")

	e := waitEvent(t, s.Events(), EventError)
	if e.Err == nil || e.Err.Error() == "" {
		t.Fatalf("error event = %#v, want non-empty message", e)
	}
	close(gate)

	eventually(t, func() bool { return !s.IsDownloading() }, "downloading flag never cleared")
	api.mu.Lock()
	calls := api.downloadCalls
	api.mu.Unlock()
	if calls != 1 {
		t.Fatalf("download calls = %d, want 1 (second download rejected)", calls)
	}
}

func TestQueryFailure_ReturnsToIdleWithOneError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{thingsFn: func(query string, page int) ([]thingiverse.Thing, error) {
		return nil, &thingiverse.APIError{StatusCode: 503, Message: "overloaded"}
	}}
	s := New(context.Background(), api, &fakePrefs{}, &fakeSink{}, &fakeTypes{})

	s.Search("benchy")

	e := waitEvent(t, s.Events(), EventError)
	if e.Err == nil || e.Err.Error() == "" {
		t.Fatalf("error event = %#v, want non-empty message", e)
	}
	if s.IsQuerying() {
		t.Fatal("IsQuerying = true after failure, want idle")
	}

	// Exactly one failure notification per failed request.
	extra := 0
	timeout := time.After(100 * time.Millisecond)
	for done := false; !done; {
		select {
		case e := <-s.Events():
			if e.Kind == EventError {
				extra++
			}
		case <-timeout:
			done = true
		}
	}
	if extra != 0 {
		t.Fatalf("extra error events = %d, want 0", extra)
	}
}

func TestSetSetting_PropagatesUserNameChange(t *testing.T) {
	t.Parallel()

	prefs := &fakePrefs{}
	s := New(context.Background(), &fakeAPI{}, prefs, &fakeSink{}, &fakeTypes{})

	s.SetSetting(SettingUserName, "alice")

	waitEvent(t, s.Events(), EventUserName)
	if s.UserName() != "alice" {
		t.Fatalf("UserName = %q, want alice", s.UserName())
	}
	if prefs.UserName() != "alice" {
		t.Fatalf("prefs user name = %q, want alice", prefs.UserName())
	}
}

func TestLoadMessage_SetsBanner(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{messageFn: func() (thingiverse.Message, error) {
		return thingiverse.Message{Message: "welcome"}, nil
	}}
	s := New(context.Background(), api, &fakePrefs{}, &fakeSink{}, &fakeTypes{})

	s.LoadMessage()
	waitEvent(t, s.Events(), EventMessage)
	if s.Message() != "welcome" {
		t.Fatalf("Message = %q, want welcome", s.Message())
	}
}
