package whiteboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/storage"
)

// pngBytes is a PNG signature followed by an IHDR chunk header.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

var gifBytes = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return New(fs, nil)
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestSaveDataURL(t *testing.T) {
	r := newRegistry(t)
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	img, err := r.SaveDataURL(dataURL("image/png", pngBytes))
	if err != nil {
		t.Fatalf("SaveDataURL: %v", err)
	}
	if !strings.HasPrefix(img.Filename, "whiteboard_1700000000_") || !strings.HasSuffix(img.Filename, ".png") {
		t.Errorf("filename = %q", img.Filename)
	}
	if img.URL != URLPrefix+img.Filename {
		t.Errorf("url = %q", img.URL)
	}

	abs, err := r.Path(img.Filename)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	got, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, pngBytes) {
		t.Error("stored bytes differ")
	}
}

func TestSaveDataURLRejects(t *testing.T) {
	r := newRegistry(t)
	cases := map[string]string{
		"empty":       "",
		"not data":    "hello",
		"no base64":   "data:image/png,abc",
		"bad mime":    dataURL("text/plain", []byte("hi")),
		"bad base64":  "data:image/png;base64,!!!",
		"mismatch":    dataURL("image/png", gifBytes),
		"empty image": "data:image/png;base64,",
	}
	for name, in := range cases {
		_, err := r.SaveDataURL(in)
		var verr *apperr.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: err = %v, want ValidationError", name, err)
			continue
		}
		if len(verr.Fields) != 1 || verr.Fields[0] != "imageData" {
			t.Errorf("%s: fields = %v", name, verr.Fields)
		}
	}
	list, _ := r.List()
	if len(list) != 0 {
		t.Errorf("rejected saves left %d files", len(list))
	}
}

func TestUpload(t *testing.T) {
	r := newRegistry(t)

	img, err := r.Upload("../../My Sketch.gif", bytes.NewReader(gifBytes))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if img.Filename != "My_Sketch.gif" {
		t.Errorf("filename = %q", img.Filename)
	}

	dup, err := r.Upload("My Sketch.gif", bytes.NewReader(gifBytes))
	if err != nil {
		t.Fatalf("Upload duplicate: %v", err)
	}
	if dup.Filename == img.Filename {
		t.Error("duplicate upload overwrote the first file")
	}

	mixed, err := r.Upload("Photo.Png", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("Upload mixed-case extension: %v", err)
	}
	if mixed.Filename != "Photo.png" {
		t.Errorf("mixed-case filename = %q, want Photo.png", mixed.Filename)
	}

	list, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	found := false
	for _, img := range list {
		if img.Filename == mixed.Filename {
			found = true
		}
	}
	if !found {
		t.Errorf("List does not include %q", mixed.Filename)
	}
}

func TestUploadRejects(t *testing.T) {
	r := newRegistry(t)
	if _, err := r.Upload("notes.txt", strings.NewReader("text")); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("txt: err = %v", err)
	}
	if _, err := r.Upload("fake.png", strings.NewReader("not a png at all")); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("fake png: err = %v", err)
	}
	big := append(append([]byte{}, pngBytes...), make([]byte, MaxImageSize)...)
	if _, err := r.Upload("big.png", bytes.NewReader(big)); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("big: err = %v", err)
	}
}

func TestListSortedAndFiltered(t *testing.T) {
	r := newRegistry(t)
	fs := r.store
	_ = fs.Write("whiteboard/b.png", pngBytes)
	_ = fs.Write("whiteboard/a.gif", gifBytes)
	_ = fs.Write("whiteboard/readme.txt", []byte("x"))
	_ = fs.Write("elsewhere/c.png", pngBytes)

	list, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Filename != "a.gif" || list[1].Filename != "b.png" {
		t.Errorf("list = %+v", list)
	}
}

func TestListEmptyWithoutDir(t *testing.T) {
	list, err := newRegistry(t).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("list = %v, want empty", list)
	}
}

func TestDelete(t *testing.T) {
	r := newRegistry(t)
	img, err := r.SaveDataURL(dataURL("image/png", pngBytes))
	if err != nil {
		t.Fatalf("SaveDataURL: %v", err)
	}

	ok, err := r.Delete(img.Filename)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	ok, err = r.Delete(img.Filename)
	if err != nil || ok {
		t.Errorf("second Delete = %v, %v; want false, nil", ok, err)
	}
	if _, err := r.Path(img.Filename); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Path after delete: %v", err)
	}
}

func TestRejectsUnsafeNames(t *testing.T) {
	r := newRegistry(t)
	for _, name := range []string{"../secret.png", "a/b.png", "notes.txt", "", ".hidden.png"} {
		if _, err := r.Delete(name); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Delete(%q) err = %v", name, err)
		}
		if _, err := r.Path(name); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Path(%q) err = %v", name, err)
		}
	}
}

func TestWatchReportsChanges(t *testing.T) {
	r := newRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 16)
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, func(e Event) { events <- e }) }()

	dir, _ := r.Dir()
	// Wait for the watcher to create and register the directory.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watch dir never created")
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	img, err := r.SaveDataURL(dataURL("image/png", pngBytes))
	if err != nil {
		t.Fatalf("SaveDataURL: %v", err)
	}
	waitFor(t, events, Event{Op: "created", Filename: img.Filename})

	if err := os.Remove(filepath.Join(dir, img.Filename)); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	waitFor(t, events, Event{Op: "deleted", Filename: img.Filename})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not stop after cancel")
	}
}

func waitFor(t *testing.T, events <-chan Event, want Event) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case e := <-events:
			if e == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %+v", want)
		}
	}
}
