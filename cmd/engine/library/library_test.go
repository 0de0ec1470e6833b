package library

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/spf13/afero"
)

// memStore round-trips values through JSON like the file-backed store does.
type memStore struct {
	data   map[string][]byte
	writes int
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Get(key string, v any) (bool, error) {
	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (s *memStore) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.data[key] = raw
	s.writes++
	return nil
}

type fakeProber map[string]Metadata

func (p fakeProber) Probe(path string) (Metadata, error) {
	m, ok := p[path]
	if !ok {
		return Metadata{}, errors.New("no metadata")
	}
	return m, nil
}

func newTestLibrary(t *testing.T, files ...string) (*Library, afero.Fs, *memStore) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		if err := afero.WriteFile(fs, f, []byte("audio-bytes"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	store := newMemStore()
	prober := fakeProber{
		"/music/a.mp3": {Title: "Alpha", Artist: "Band", Album: "First", Duration: 185 * time.Second},
	}
	lib, err := Open(fs, store, prober)
	if err != nil {
		t.Fatal(err)
	}
	return lib, fs, store
}

func TestCreate_RejectsDuplicateNamesCaseInsensitively(t *testing.T) {
	lib, _, _ := newTestLibrary(t)

	if _, err := lib.Create("Evening", ""); err != nil {
		t.Fatal(err)
	}
	_, err := lib.Create("  evening ", "")
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	_, err = lib.Create("   ", "")
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error for blank name, got %v", err)
	}
	if len(lib.List()) != 1 {
		t.Errorf("expected 1 playlist, got %d", len(lib.List()))
	}
}

func TestAddTracks(t *testing.T) {
	lib, _, store := newTestLibrary(t,
		"/music/a.mp3",
		"/music/album/02 b.wav",
		"/music/album/01 c.mp3",
		"/music/album/cover.jpg",
		"/music/notes.txt",
	)
	p, _ := lib.Create("Mix", "")

	p, res, err := lib.AddTracks(p.ID, []string{"/music/a.mp3", "/music/album", "/music/notes.txt", "/music/missing.mp3"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Added != 3 {
		t.Fatalf("expected 3 added, got %d", res.Added)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("expected notes.txt and missing.mp3 skipped, got %v", res.Skipped)
	}

	expected := []string{"/music/a.mp3", "/music/album/01 c.mp3", "/music/album/02 b.wav"}
	for i, want := range expected {
		if p.Tracks[i].Path != want {
			t.Errorf("track %d = %s, want %s", i, p.Tracks[i].Path, want)
		}
	}

	a := p.Tracks[0]
	if a.Title != "Alpha" || a.Artist != "Band" || a.Album != "First" || a.Duration != "3:05" {
		t.Errorf("probed metadata not applied: %+v", a)
	}
	c := p.Tracks[1]
	if c.Title != "01 c" || c.Artist != UnknownArtist || c.Duration != UnknownDuration {
		t.Errorf("fallback metadata wrong: %+v", c)
	}
	if c.Size != int64(len("audio-bytes")) {
		t.Errorf("size = %d", c.Size)
	}

	_, res, _ = lib.AddTracks(p.ID, []string{"/music/a.mp3"})
	if res.Added != 0 || res.Duplicates != 1 {
		t.Errorf("duplicate path should be skipped: %+v", res)
	}

	reopened, err := Open(afero.NewMemMapFs(), store, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := reopened.Get(p.ID); len(got.Tracks) != 3 {
		t.Errorf("tracks not persisted, got %d", len(got.Tracks))
	}
}

func TestRemoveAndMoveTrack(t *testing.T) {
	lib, _, _ := newTestLibrary(t, "/m/1.mp3", "/m/2.mp3", "/m/3.mp3")
	p, _ := lib.Create("Order", "")
	p, _, _ = lib.AddTracks(p.ID, []string{"/m/1.mp3", "/m/2.mp3", "/m/3.mp3"})

	p, err := lib.MoveTrack(p.ID, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	paths := []string{p.Tracks[0].Path, p.Tracks[1].Path, p.Tracks[2].Path}
	if strings.Join(paths, ",") != "/m/2.mp3,/m/3.mp3,/m/1.mp3" {
		t.Errorf("unexpected order after move: %v", paths)
	}

	p, err = lib.RemoveTrack(p.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Tracks) != 2 || p.Tracks[1].Path != "/m/1.mp3" {
		t.Errorf("unexpected tracks after remove: %+v", p.Tracks)
	}

	if _, err := lib.RemoveTrack(p.ID, 5); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := lib.MoveTrack(p.ID, -1, 0); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRenameAndDelete(t *testing.T) {
	lib, _, _ := newTestLibrary(t)
	a, _ := lib.Create("A", "")
	b, _ := lib.Create("B", "")

	if _, err := lib.Rename(b.ID, "a", ""); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("rename onto an existing name should fail, got %v", err)
	}
	if _, err := lib.Rename(a.ID, "a", "lowercase now"); err != nil {
		t.Errorf("renaming to a case variant of itself should work: %v", err)
	}
	if err := lib.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := lib.Get(a.ID); ok {
		t.Error("deleted playlist still present")
	}
	if p, ok := lib.Resolve("1"); !ok || p.ID != b.ID {
		t.Error("Resolve by position failed")
	}
	if p, ok := lib.Resolve("b"); !ok || p.ID != b.ID {
		t.Error("Resolve by name failed")
	}
}

func TestValidate_DropsMissingFiles(t *testing.T) {
	lib, fs, _ := newTestLibrary(t, "/music/a.mp3", "/music/b.mp3")
	p, _ := lib.Create("V", "")
	lib.AddTracks(p.ID, []string{"/music/a.mp3", "/music/b.mp3"})

	fs.Remove("/music/b.mp3")
	res, err := lib.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Missing) != 1 || res.Missing[0].Path != "/music/b.mp3" {
		t.Errorf("unexpected missing: %+v", res.Missing)
	}
	if got, _ := lib.Get(p.ID); len(got.Tracks) != 1 {
		t.Errorf("expected 1 track left, got %d", len(got.Tracks))
	}
	if !strings.HasPrefix(res.Summary(), "1 missing track(s) removed") {
		t.Errorf("summary = %q", res.Summary())
	}

	res, _ = lib.Validate()
	if res.Summary() != "All tracks validated successfully." {
		t.Errorf("second pass summary = %q", res.Summary())
	}
}

func TestExportImport_SkipsMissingTrack(t *testing.T) {
	lib, fs, _ := newTestLibrary(t, "/music/a.mp3", "/music/b.mp3")
	p, _ := lib.Create("Road Trip", "summer")
	lib.AddTracks(p.ID, []string{"/music/a.mp3", "/music/b.mp3"})

	vol, xf, bad := 0.4, true, -2.0
	def := p.ID
	var buf bytes.Buffer
	n, err := lib.Export(&buf, ExportSettings{
		Volume:            &vol,
		CrossfadeEnabled:  &xf,
		CrossfadeDuration: &bad,
		DefaultPlaylistID: &def,
	}, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || n != 1 {
		t.Fatalf("export: n=%d err=%v", n, err)
	}
	if !strings.Contains(buf.String(), `"version": "1.0"`) {
		t.Errorf("export missing version: %s", buf.String())
	}

	fs.Remove("/music/b.mp3")
	res, err := lib.Import(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Summary(); got != "Imported 1 playlist successfully (1 missing track skipped)" {
		t.Errorf("summary = %q", got)
	}

	imported := res.Playlists[0]
	if imported.Name != "Road Trip (1)" {
		t.Errorf("name collision not resolved: %q", imported.Name)
	}
	if imported.ID == p.ID || len(imported.Tracks) != 1 {
		t.Errorf("unexpected imported playlist: %+v", imported)
	}
	if tr := imported.Tracks[0]; tr.Title != "Alpha" || tr.Artist != UnknownArtist {
		t.Errorf("track not rebuilt as expected: %+v", tr)
	}
	if len(lib.List()) != 2 {
		t.Errorf("expected 2 playlists after import, got %d", len(lib.List()))
	}

	s := res.Settings
	if s.Volume == nil || *s.Volume != 0.4 {
		t.Error("valid volume not imported")
	}
	if s.CrossfadeDuration != nil {
		t.Error("negative crossfade duration should be rejected")
	}
	if s.DefaultPlaylistID != imported.ID {
		t.Errorf("default playlist not remapped: %q", s.DefaultPlaylistID)
	}
}

func TestImport_DefaultPlaylistDroppedWithItsPlaylist(t *testing.T) {
	lib, fs, _ := newTestLibrary(t, "/music/a.mp3", "/music/b.mp3")
	keep, _ := lib.Create("Keep", "")
	lib.AddTracks(keep.ID, []string{"/music/a.mp3"})
	gone, _ := lib.Create("Gone", "")
	lib.AddTracks(gone.ID, []string{"/music/b.mp3"})

	def := gone.ID
	var buf bytes.Buffer
	if _, err := lib.Export(&buf, ExportSettings{DefaultPlaylistID: &def}, time.Now()); err != nil {
		t.Fatal(err)
	}
	fs.Remove("/music/b.mp3")

	res, err := lib.Import(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Playlists) != 1 || res.Playlists[0].Name != "Keep (1)" {
		t.Fatalf("imported %+v", res.Playlists)
	}
	if res.Settings.DefaultPlaylistID != "" {
		t.Errorf("default points at a dropped playlist: %q", res.Settings.DefaultPlaylistID)
	}
}

func TestImport_RejectsMalformedFiles(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"not json", `{{{`, errs.ErrImportFormat},
		{"no playlists", `{"version":"1.0"}`, errs.ErrImportFormat},
		{"playlists not array", `{"playlists":{"a":1}}`, errs.ErrImportFormat},
		{"nothing survives", `{"playlists":[{"name":"x","tracks":[{"path":"/gone.mp3"}]}]}`, errs.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, _, store := newTestLibrary(t)
			_, err := lib.Import(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if store.writes != 0 {
				t.Error("a rejected import must not write")
			}
		})
	}
}

func TestImport_RejectsOversizedFile(t *testing.T) {
	orig := maxImportSize
	maxImportSize = 64
	t.Cleanup(func() { maxImportSize = orig })

	lib, _, store := newTestLibrary(t)
	doc := `{"playlists":[{"name":"` + strings.Repeat("x", 100) + `","tracks":[]}]}`
	_, err := lib.Import(strings.NewReader(doc))
	if !errors.Is(err, errs.ErrImportFormat) {
		t.Errorf("expected ErrImportFormat, got %v", err)
	}
	if store.writes != 0 {
		t.Error("an oversized import must not write")
	}
}

func TestExport_EmptyLibrary(t *testing.T) {
	lib, _, _ := newTestLibrary(t)
	var buf bytes.Buffer
	if _, err := lib.Export(&buf, ExportSettings{}, time.Now()); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUniqueName(t *testing.T) {
	taken := map[string]struct{}{"jazz": {}, "jazz (1)": {}}
	if got := uniqueName("Jazz", taken); got != "Jazz (2)" {
		t.Errorf("uniqueName = %q", got)
	}
	if got := uniqueName("Rock", taken); got != "Rock" {
		t.Errorf("uniqueName = %q", got)
	}
}
