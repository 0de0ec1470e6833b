package playlist

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common/config"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/spf13/afero"
)

func newApp(t *testing.T, files ...string) *app.App {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, p := range files {
		if err := afero.WriteFile(fs, p, []byte("audio"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.DefaultConfig()
	cfg.StorePath = "/data/store.json"
	a, err := app.Open(fs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestNewAddShow(t *testing.T) {
	a := newApp(t, "/music/one.mp3", "/music/two.flac", "/music/cover.jpg")
	var out bytes.Buffer

	if err := RunNew(a, &NewParams{Name: "Road trip"}, &out); err != nil {
		t.Fatal(err)
	}
	if err := RunAdd(a, &AddParams{Playlist: "road trip", Paths: []string{"/music"}}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Added 2 track(s)") {
		t.Errorf("add output = %q", out.String())
	}

	out.Reset()
	if err := RunShow(a, &ShowParams{Playlist: "1"}, &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Road trip (2 tracks)", "one", "two", "Unknown Artist"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("show output missing %q:\n%s", want, out.String())
		}
	}
}

func TestAdd_DuplicatesSkipped(t *testing.T) {
	a := newApp(t, "/music/one.mp3")
	var out bytes.Buffer
	RunNew(a, &NewParams{Name: "Mix"}, &out)
	RunAdd(a, &AddParams{Playlist: "Mix", Paths: []string{"/music/one.mp3"}}, &out)

	out.Reset()
	if err := RunAdd(a, &AddParams{Playlist: "Mix", Paths: []string{"/music/one.mp3"}}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Added 0 track(s)") || !strings.Contains(out.String(), "1 already in the playlist") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRemoveAndMove_RangeChecked(t *testing.T) {
	a := newApp(t, "/music/a.mp3", "/music/b.mp3", "/music/c.mp3")
	var out bytes.Buffer
	RunNew(a, &NewParams{Name: "Mix"}, &out)
	RunAdd(a, &AddParams{Playlist: "Mix", Paths: []string{"/music"}}, &out)

	tests := []struct {
		name string
		run  func() error
	}{
		{"remove zero", func() error { return RunRemove(a, &RemoveParams{Playlist: "Mix", Track: 0}, &out) }},
		{"remove past end", func() error { return RunRemove(a, &RemoveParams{Playlist: "Mix", Track: 4}, &out) }},
		{"move from past end", func() error { return RunMove(a, &MoveParams{Playlist: "Mix", From: 9, To: 1}, &out) }},
		{"move to zero", func() error { return RunMove(a, &MoveParams{Playlist: "Mix", From: 1, To: 0}, &out) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, errs.ErrValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}

	if err := RunMove(a, &MoveParams{Playlist: "Mix", From: 3, To: 1}, &out); err != nil {
		t.Fatal(err)
	}
	if err := RunRemove(a, &RemoveParams{Playlist: "Mix", Track: 2}, &out); err != nil {
		t.Fatal(err)
	}
	p, _ := a.Library.FindByName("Mix")
	if len(p.Tracks) != 2 || p.Tracks[0].Title != "c" || p.Tracks[1].Title != "b" {
		t.Errorf("tracks = %+v", p.Tracks)
	}
}

func TestRename_KeepsDescriptionUnlessSet(t *testing.T) {
	a := newApp(t)
	var out bytes.Buffer
	RunNew(a, &NewParams{Name: "Old", Description: "keep me"}, &out)

	if err := RunRename(a, &RenameParams{Playlist: "Old", Name: "New"}, false, &out); err != nil {
		t.Fatal(err)
	}
	p, ok := a.Library.FindByName("New")
	if !ok || p.Description != "keep me" {
		t.Fatalf("after rename: %+v, %v", p, ok)
	}

	if err := RunRename(a, &RenameParams{Playlist: "New", Name: "New"}, true, &out); err != nil {
		t.Fatal(err)
	}
	p, _ = a.Library.FindByName("New")
	if p.Description != "" {
		t.Errorf("description = %q, want cleared", p.Description)
	}
}

func TestDefault(t *testing.T) {
	a := newApp(t)
	var out bytes.Buffer
	RunNew(a, &NewParams{Name: "Evening"}, &out)

	out.Reset()
	RunDefault(a, &DefaultParams{}, &out)
	if !strings.Contains(out.String(), "No default playlist") {
		t.Errorf("output = %q", out.String())
	}

	if err := RunDefault(a, &DefaultParams{Playlist: "evening"}, &out); err != nil {
		t.Fatal(err)
	}
	p, _ := a.Library.FindByName("Evening")
	if got := a.Session.DefaultPlaylistID(); got != p.ID {
		t.Errorf("default = %q, want %q", got, p.ID)
	}

	if err := RunDelete(a, &DeleteParams{Playlist: "Evening"}, &out); err != nil {
		t.Fatal(err)
	}
	if got := a.Session.DefaultPlaylistID(); got != "" {
		t.Errorf("default after delete = %q", got)
	}
}

func TestSafeMode_BlocksEdits(t *testing.T) {
	a := newApp(t, "/music/a.mp3")
	var out bytes.Buffer
	RunNew(a, &NewParams{Name: "Mix"}, &out)
	a.Session.SetSafeMode(true)

	if err := RunNew(a, &NewParams{Name: "Other"}, &out); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("new: err = %v", err)
	}
	if err := RunAdd(a, &AddParams{Playlist: "Mix", Paths: []string{"/music"}}, &out); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("add: err = %v", err)
	}
	if err := RunClear(a, &ClearParams{Playlist: "Mix"}, &out); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("clear: err = %v", err)
	}
	if err := RunList(a, &out); err != nil {
		t.Errorf("ls should stay available: %v", err)
	}
}

func TestValidate_DropsMissing(t *testing.T) {
	a := newApp(t, "/music/a.mp3", "/music/b.mp3")
	var out bytes.Buffer
	RunNew(a, &NewParams{Name: "Mix"}, &out)
	RunAdd(a, &AddParams{Playlist: "Mix", Paths: []string{"/music"}}, &out)
	a.FS.Remove("/music/b.mp3")

	out.Reset()
	if err := RunValidate(a, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "/music/b.mp3") || !strings.Contains(out.String(), "1 missing track(s) removed") {
		t.Errorf("output = %q", out.String())
	}
}
