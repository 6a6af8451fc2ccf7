package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

// fakeLibrary serves items from a map and records the fetch order, which
// doubles as the observed playlist traversal order in tests.
type fakeLibrary struct {
	mu      sync.Mutex
	items   map[string]*models.PlayableItem
	fetched []string
	getErr  error

	sniffMime  string
	sniffErr   error
	sniffCalls int
}

func newFakeLibrary(items ...*models.PlayableItem) *fakeLibrary {
	f := &fakeLibrary{items: make(map[string]*models.PlayableItem)}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeLibrary) GetItem(_ context.Context, itemID string) (*models.PlayableItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	it, ok := f.items[itemID]
	if !ok {
		return nil, fmt.Errorf("no such item %s", itemID)
	}
	f.fetched = append(f.fetched, itemID)
	cp := *it
	return &cp, nil
}

func (f *fakeLibrary) StreamURL(itemID string) string {
	return "http://library/items/" + itemID + "/stream"
}

func (f *fakeLibrary) SniffMime(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sniffCalls++
	if f.sniffErr != nil {
		return "", f.sniffErr
	}
	if f.sniffMime != "" {
		return f.sniffMime, nil
	}
	return "video/mp4", nil
}

func (f *fakeLibrary) fetchedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// fakeTranscoder hands out sequential session ids and records lifecycle
// calls.
type fakeTranscoder struct {
	mu       sync.Mutex
	next     int
	created  []string
	released []string
	pinged   []string
	err      error
}

func (f *fakeTranscoder) CreateSession(_ context.Context, itemID string, quality models.QualityLevel) (*models.TranscodeSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.next++
	f.created = append(f.created, itemID+"|"+string(quality))
	id := fmt.Sprintf("ts-%d", f.next)
	return &models.TranscodeSession{ID: id, ManifestURL: "http://transcoder/" + id + "/index.m3u8"}, nil
}

func (f *fakeTranscoder) KeepAlive(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pinged = append(f.pinged, sessionID)
	return nil
}

func (f *fakeTranscoder) Release(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, sessionID)
	return nil
}

func (f *fakeTranscoder) createdCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.created...)
}

func (f *fakeTranscoder) releasedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

func (f *fakeTranscoder) pingedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pinged...)
}

type progressWrite struct {
	itemID   string
	position float64
	duration float64
}

// fakeHistory is an in-memory HistoryStore.
type fakeHistory struct {
	mu       sync.Mutex
	resume   map[string]models.ResumeInfo
	saves    []progressWrite
	counts   map[string]int
	reported map[string]models.QualityLevel
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		resume:   make(map[string]models.ResumeInfo),
		counts:   make(map[string]int),
		reported: make(map[string]models.QualityLevel),
	}
}

func (f *fakeHistory) GetResumeState(_ context.Context, itemID string) (models.ResumeInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resume[itemID], nil
}

func (f *fakeHistory) SaveProgress(_ context.Context, itemID string, position, duration float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, progressWrite{itemID: itemID, position: position, duration: duration})
	return nil
}

func (f *fakeHistory) IncrementPlayCount(_ context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[itemID]++
	return nil
}

func (f *fakeHistory) ReportQualityUsed(_ context.Context, itemID string, quality models.QualityLevel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reported[itemID] = quality
	return nil
}

func (f *fakeHistory) savesFor(itemID string) []progressWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []progressWrite
	for _, w := range f.saves {
		if w.itemID == itemID {
			out = append(out, w)
		}
	}
	return out
}

func (f *fakeHistory) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeHistory) playCount(itemID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[itemID]
}

func (f *fakeHistory) reportedQuality(itemID string) models.QualityLevel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reported[itemID]
}

// fakePlayerState records volume writes.
type fakePlayerState struct {
	mu    sync.Mutex
	state models.PlayerState
	sets  int
}

func (f *fakePlayerState) Get() models.PlayerState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakePlayerState) Set(state models.PlayerState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.sets++
	return nil
}

type testEnv struct {
	m     *Manager
	lib   *fakeLibrary
	tc    *fakeTranscoder
	hist  *fakeHistory
	state *fakePlayerState
}

func newTestEnv(t *testing.T, items ...*models.PlayableItem) *testEnv {
	t.Helper()
	env := &testEnv{
		lib:   newFakeLibrary(items...),
		tc:    &fakeTranscoder{},
		hist:  newFakeHistory(),
		state: &fakePlayerState{state: models.PlayerState{Volume: 1}},
	}
	env.m = NewManager(env.lib, env.tc, env.hist, env.state, Config{
		FallbackQuality:        models.Quality480p,
		SessionIdleTimeout:     time.Hour,
		CleanupInterval:        time.Hour,
		ProgressWriteInterval:  50 * time.Millisecond,
		PlayedThresholdPercent: 90,
		PrefetchThreshold:      30 * time.Second,
		PrefetchWorkers:        1,
	})
	t.Cleanup(env.m.Close)
	return env
}

func testItem(id string, duration float64) *models.PlayableItem {
	return &models.PlayableItem{
		ID:       id,
		Title:    "Item " + id,
		Duration: duration,
		Width:    1920,
		Height:   1080,
		Files: []models.MediaFile{{
			ID:         id + "-file",
			Format:     "mp4",
			VideoCodec: "h264",
			AudioCodec: "aac",
			Width:      1920,
			Height:     1080,
			Duration:   duration,
		}},
	}
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

// waitSource polls until the session's background load has produced a
// source.
func (e *testEnv) waitSource(t *testing.T, sessionID string) *models.SessionStatus {
	t.Helper()
	var st *models.SessionStatus
	waitFor(t, "source to resolve", func() bool {
		var err error
		st, err = e.m.Status(sessionID)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		return st.Source != nil
	})
	return st
}

func (e *testEnv) event(t *testing.T, sessionID string, evt models.PlayerEvent) *models.SessionStatus {
	t.Helper()
	st, err := e.m.HandleEvent(sessionID, evt)
	if err != nil {
		t.Fatalf("handle %s event: %v", evt.Type, err)
	}
	return st
}

func (e *testEnv) drain(t *testing.T, sessionID string) []models.PlayerCommand {
	t.Helper()
	cmds, err := e.m.DrainCommands(sessionID)
	if err != nil {
		t.Fatalf("drain commands: %v", err)
	}
	return cmds
}

func commandTypes(cmds []models.PlayerCommand) []models.CommandType {
	out := make([]models.CommandType, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Type)
	}
	return out
}

func TestCreateSessionValidation(t *testing.T) {
	env := newTestEnv(t, testItem("a", 600))

	cases := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"empty playlist", CreateRequest{}, ErrEmptyPlaylist},
		{"start index past end", CreateRequest{ItemIDs: []string{"a"}, StartIndex: 1}, ErrInvalidStartIndex},
		{"negative start index", CreateRequest{ItemIDs: []string{"a"}, StartIndex: -1}, ErrInvalidStartIndex},
		{"unknown quality", CreateRequest{ItemIDs: []string{"a"}, Quality: "8k"}, ErrInvalidQuality},
		{"unknown repeat mode", CreateRequest{ItemIDs: []string{"a"}, RepeatMode: "sometimes"}, ErrInvalidRepeatMode},
	}
	for _, tc := range cases {
		if _, err := env.m.CreateSession(tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestCreateSessionLoadsFirstItemInBackground(t *testing.T) {
	env := newTestEnv(t, testItem("a", 600))

	st, err := env.m.CreateSession(CreateRequest{ItemIDs: []string{"a"}, Autoplay: true})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if st.SessionID == "" {
		t.Fatal("expected a session id")
	}

	st = env.waitSource(t, st.SessionID)
	if st.Source.URL != "http://library/items/a/stream" {
		t.Fatalf("unexpected direct url %q", st.Source.URL)
	}
	if st.Source.MimeType != "video/mp4" {
		t.Fatalf("unexpected mime type %q", st.Source.MimeType)
	}
	if st.Quality != models.QualityDirect {
		t.Fatalf("expected direct quality, got %s", st.Quality)
	}
	if st.AspectRatio != "1920:1080" {
		t.Fatalf("expected aspect ratio from item dimensions, got %q", st.AspectRatio)
	}

	cmds := env.drain(t, st.SessionID)
	if len(cmds) != 1 || cmds[0].Type != models.CommandSetSource {
		t.Fatalf("expected a single setSource command, got %v", commandTypes(cmds))
	}
	if cmds[0].Source == nil || cmds[0].Source.URL != st.Source.URL {
		t.Fatalf("setSource command carries wrong source: %+v", cmds[0].Source)
	}

	st = env.event(t, st.SessionID, models.PlayerEvent{Type: models.EventLoadedMetadata, Duration: 600})
	if !st.Playing || st.State != models.SessionStatePlaying {
		t.Fatalf("expected autoplay after metadata, got playing=%v state=%s", st.Playing, st.State)
	}
	cmds = env.drain(t, st.SessionID)
	if len(cmds) != 1 || cmds[0].Type != models.CommandPlay {
		t.Fatalf("expected a play command, got %v", commandTypes(cmds))
	}
}

func TestCreateSessionWithoutAutoplayWaitsInReady(t *testing.T) {
	env := newTestEnv(t, testItem("a", 600))

	st, err := env.m.CreateSession(CreateRequest{ItemIDs: []string{"a"}})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	env.waitSource(t, st.SessionID)

	got := env.event(t, st.SessionID, models.PlayerEvent{Type: models.EventLoadedMetadata, Duration: 600})
	if got.Playing || got.State != models.SessionStateReady {
		t.Fatalf("expected ready without autoplay, got playing=%v state=%s", got.Playing, got.State)
	}
	if !got.IsReady || got.IsInitializing {
		t.Fatalf("expected isReady and initialization finished, got %+v", got)
	}
}

func TestLoadFailureMarksSessionFailed(t *testing.T) {
	env := newTestEnv(t) // no items

	st, err := env.m.CreateSession(CreateRequest{ItemIDs: []string{"missing"}})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	waitFor(t, "failed state", func() bool {
		got, err := env.m.Status(st.SessionID)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		return got.State == models.SessionStateFailed
	})
	got, _ := env.m.Status(st.SessionID)
	if got.Notice == nil || got.Notice.Code != "loadFailed" {
		t.Fatalf("expected loadFailed notice, got %+v", got.Notice)
	}
}

func TestDrainCommandsDeliversExactlyOnce(t *testing.T) {
	env := newTestEnv(t, testItem("a", 600))

	st, _ := env.m.CreateSession(CreateRequest{ItemIDs: []string{"a"}})
	env.waitSource(t, st.SessionID)

	if cmds := env.drain(t, st.SessionID); len(cmds) == 0 {
		t.Fatal("expected queued commands after load")
	}
	if cmds := env.drain(t, st.SessionID); len(cmds) != 0 {
		t.Fatalf("second drain must be empty, got %v", commandTypes(cmds))
	}
}

func TestDisposeReleasesTranscodeSession(t *testing.T) {
	env := newTestEnv(t, testItem("a", 600))

	st, err := env.m.CreateSession(CreateRequest{ItemIDs: []string{"a"}, Quality: models.Quality720p})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	got := env.waitSource(t, st.SessionID)
	if got.Source.MimeType != "application/vnd.apple.mpegurl" {
		t.Fatalf("expected an HLS manifest for a transcoded tier, got %q", got.Source.MimeType)
	}
	if calls := env.tc.createdCalls(); len(calls) != 1 || calls[0] != "a|720p" {
		t.Fatalf("unexpected transcoder calls %v", calls)
	}

	if err := env.m.Dispose(st.SessionID); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	waitFor(t, "transcode release", func() bool {
		ids := env.tc.releasedIDs()
		return len(ids) == 1 && ids[0] == "ts-1"
	})

	if _, err := env.m.Status(st.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("status after dispose: got %v, want %v", err, ErrSessionNotFound)
	}
	if err := env.m.Dispose(st.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second dispose: got %v, want %v", err, ErrSessionNotFound)
	}
}

func TestKeepAliveForwardsOnlyForTranscodedSessions(t *testing.T) {
	env := newTestEnv(t, testItem("a", 600), testItem("b", 600))

	direct, _ := env.m.CreateSession(CreateRequest{ItemIDs: []string{"a"}})
	env.waitSource(t, direct.SessionID)
	if err := env.m.KeepAlive(context.Background(), direct.SessionID); err != nil {
		t.Fatalf("keepalive direct: %v", err)
	}
	if pings := env.tc.pingedIDs(); len(pings) != 0 {
		t.Fatalf("direct sessions must not ping the transcoder, got %v", pings)
	}

	trans, _ := env.m.CreateSession(CreateRequest{ItemIDs: []string{"b"}, Quality: models.Quality480p})
	env.waitSource(t, trans.SessionID)
	if err := env.m.KeepAlive(context.Background(), trans.SessionID); err != nil {
		t.Fatalf("keepalive transcoded: %v", err)
	}
	if pings := env.tc.pingedIDs(); len(pings) != 1 || pings[0] != "ts-1" {
		t.Fatalf("expected one keepalive for ts-1, got %v", pings)
	}
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	lib := newFakeLibrary(testItem("a", 600))
	tc := &fakeTranscoder{}
	m := NewManager(lib, tc, newFakeHistory(), &fakePlayerState{}, Config{
		SessionIdleTimeout: 30 * time.Millisecond,
		CleanupInterval:    10 * time.Millisecond,
	})
	defer m.Close()

	st, err := m.CreateSession(CreateRequest{ItemIDs: []string{"a"}, Quality: models.Quality720p})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	waitFor(t, "eviction", func() bool {
		_, err := m.Status(st.SessionID)
		return errors.Is(err, ErrSessionNotFound)
	})
	waitFor(t, "transcode release on eviction", func() bool {
		return len(tc.releasedIDs()) == 1
	})
}

func TestListSessionsNewestFirst(t *testing.T) {
	env := newTestEnv(t, testItem("a", 600), testItem("b", 600))

	first, _ := env.m.CreateSession(CreateRequest{ItemIDs: []string{"a"}})
	time.Sleep(5 * time.Millisecond)
	second, _ := env.m.CreateSession(CreateRequest{ItemIDs: []string{"b"}})

	list := env.m.ListSessions()
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].SessionID != second.SessionID || list[1].SessionID != first.SessionID {
		t.Fatalf("expected newest first, got %s then %s", list[0].SessionID, list[1].SessionID)
	}
}

func TestSetPlaylistModeTogglesAndClearsShuffleHistory(t *testing.T) {
	env := newTestEnv(t, testItem("a", 10), testItem("b", 10), testItem("c", 10))

	st, _ := env.m.CreateSession(CreateRequest{
		ItemIDs:      []string{"a", "b", "c"},
		Shuffle:      true,
		RepeatMode:   models.RepeatAll,
		AutoplayNext: true,
		Autoplay:     true,
	})
	id := st.SessionID
	env.waitSource(t, id)
	env.event(t, id, models.PlayerEvent{Type: models.EventLoadedMetadata, Duration: 10})

	// Finish one item so the shuffle history has an entry.
	env.event(t, id, models.PlayerEvent{Type: models.EventEnded})
	waitFor(t, "second item load", func() bool { return len(env.lib.fetchedIDs()) == 2 })

	off := false
	on := true
	if _, err := env.m.SetPlaylistMode(id, PlaylistModeRequest{Shuffle: &off}); err != nil {
		t.Fatalf("shuffle off: %v", err)
	}
	got, err := env.m.SetPlaylistMode(id, PlaylistModeRequest{Shuffle: &on})
	if err != nil {
		t.Fatalf("shuffle on: %v", err)
	}
	if !got.Playlist.Shuffle {
		t.Fatal("expected shuffle enabled")
	}

	// The toggle wiped the history, so previous has nothing to retrace.
	before, _ := env.m.Status(id)
	after, err := env.m.NavigatePrevious(id)
	if err != nil {
		t.Fatalf("previous: %v", err)
	}
	if after.Playlist.CurrentIndex != before.Playlist.CurrentIndex {
		t.Fatalf("previous should be a no-op after history reset, moved %d -> %d",
			before.Playlist.CurrentIndex, after.Playlist.CurrentIndex)
	}

	repeat := models.RepeatOne
	got, err = env.m.SetPlaylistMode(id, PlaylistModeRequest{RepeatMode: &repeat})
	if err != nil {
		t.Fatalf("set repeat: %v", err)
	}
	if got.Playlist.RepeatMode != models.RepeatOne {
		t.Fatalf("expected repeat one, got %s", got.Playlist.RepeatMode)
	}

	bad := models.RepeatMode("backwards")
	if _, err := env.m.SetPlaylistMode(id, PlaylistModeRequest{RepeatMode: &bad}); !errors.Is(err, ErrInvalidRepeatMode) {
		t.Fatalf("expected ErrInvalidRepeatMode, got %v", err)
	}
}

func TestManagerCloseStopsBackgroundWork(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	lib := newFakeLibrary(testItem("a", 600))
	tc := &fakeTranscoder{}
	m := NewManager(lib, tc, newFakeHistory(), &fakePlayerState{}, Config{})

	st, err := m.CreateSession(CreateRequest{ItemIDs: []string{"a"}, Quality: models.Quality720p, Autoplay: true})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	waitFor(t, "source to resolve", func() bool {
		got, err := m.Status(st.SessionID)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		return got.Source != nil
	})

	m.Close()

	if ids := tc.releasedIDs(); len(ids) != 1 {
		t.Fatalf("expected the transcode session to be released on close, got %v", ids)
	}
}
