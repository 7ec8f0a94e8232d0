package image_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	imagestd "image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"resize-server/internal/config"
	domain "resize-server/internal/domain/image"
	repo "resize-server/internal/infrastructure/repository/imageindex"
	"resize-server/internal/infrastructure/storage"
	"resize-server/internal/infrastructure/transform"
)

// pngBytes renders a solid-color PNG so uploads pass MIME detection. Distinct
// colors yield distinct byte sequences and therefore distinct content IDs.
func pngBytes(t *testing.T, width, height int, c color.RGBA) []byte {
	t.Helper()
	img := imagestd.NewRGBA(imagestd.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture png: %v", err)
	}
	return buf.Bytes()
}

type testEnv struct {
	svc   *domain.Service
	index *repo.InMemoryIndex
	root  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		MaxImageBytes: 10 * 1024 * 1024,
		BlobRoot:      root,
	}
	blobs, err := storage.NewLocalStorage(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	index := repo.NewInMemoryIndex()
	resizer := transform.NewResizer(zerolog.Nop())
	svc := domain.NewService(cfg, index, blobs, resizer, zerolog.Nop())
	return &testEnv{svc: svc, index: index, root: root}
}

func TestAddOrigin_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 8, 8, color.RGBA{R: 200, A: 255})

	imageID, err := env.svc.AddOrigin(ctx, "alice", data)
	if err != nil {
		t.Fatalf("AddOrigin() error = %v", err)
	}
	if imageID != domain.ContentID("alice", data) {
		t.Errorf("AddOrigin() id = %s, want content hash of payload", imageID)
	}

	got, err := env.svc.GetOrigin(ctx, "alice", imageID)
	if err != nil {
		t.Fatalf("GetOrigin() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("GetOrigin() returned %d bytes, want the original %d bytes unchanged", len(got), len(data))
	}
}

func TestAddOrigin_RejectsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 8, 8, color.RGBA{G: 120, A: 255})

	if _, err := env.svc.AddOrigin(ctx, "alice", data); err != nil {
		t.Fatalf("first AddOrigin() error = %v", err)
	}
	_, err := env.svc.AddOrigin(ctx, "alice", data)
	if !errors.Is(err, domain.ErrDuplicateImage) {
		t.Errorf("second AddOrigin() error = %v, want ErrDuplicateImage", err)
	}
}

func TestAddOrigin_NamespaceIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 8, 8, color.RGBA{B: 90, A: 255})

	aliceID, err := env.svc.AddOrigin(ctx, "alice", data)
	if err != nil {
		t.Fatalf("AddOrigin(alice) error = %v", err)
	}
	bobID, err := env.svc.AddOrigin(ctx, "bob", data)
	if err != nil {
		t.Fatalf("AddOrigin(bob) error = %v", err)
	}
	if aliceID != bobID {
		t.Errorf("same bytes produced different ids across users: %s != %s", aliceID, bobID)
	}

	for _, user := range []string{"alice", "bob"} {
		if _, err := env.svc.GetOrigin(ctx, user, aliceID); err != nil {
			t.Errorf("GetOrigin(%s) error = %v", user, err)
		}
	}

	if err := env.svc.RemoveOrigin(ctx, "alice", aliceID); err != nil {
		t.Fatalf("RemoveOrigin(alice) error = %v", err)
	}
	if _, err := env.svc.GetOrigin(ctx, "bob", bobID); err != nil {
		t.Errorf("bob's copy gone after alice's delete: %v", err)
	}
}

func TestAddOrigin_RejectsInvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not an image", []byte("just some text, definitely not pixels")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.AddOrigin(ctx, "alice", tc.data)
			if !errors.Is(err, domain.ErrInvalidImage) {
				t.Errorf("AddOrigin() error = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestAddSubimage_RequiresOrigin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 4, 4, color.RGBA{R: 10, A: 255})

	missingID := domain.ContentID("alice", []byte("never uploaded"))
	_, err := env.svc.AddSubimage(ctx, "alice", missingID, data, nil)
	if !errors.Is(err, domain.ErrOriginNotFound) {
		t.Fatalf("AddSubimage() error = %v, want ErrOriginNotFound", err)
	}

	// The failed operation must leave no files behind.
	if _, err := os.Stat(filepath.Join(env.root, "alice")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("user directory exists after rejected subimage write")
	}
}

func TestResizeNew_StoresOriginAndSubimage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 100, 120, color.RGBA{R: 30, G: 60, B: 90, A: 255})

	res, err := env.svc.ResizeNew(ctx, "alice", data, 50, 60)
	if err != nil {
		t.Fatalf("ResizeNew() error = %v", err)
	}
	if res.Width != 50 || res.Height != 60 {
		t.Errorf("ResizeNew() dims = %dx%d, want 50x60", res.Width, res.Height)
	}

	resized, err := env.svc.GetSubimage(ctx, "alice", res.ImageID, res.SubimageID)
	if err != nil {
		t.Fatalf("GetSubimage() error = %v", err)
	}
	if res.SubimageID != domain.ContentID("alice", resized) {
		t.Errorf("subimage id %s is not the content hash of the stored bytes", res.SubimageID)
	}

	decoded, _, err := imagestd.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("decode resized bytes: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 60 {
		t.Errorf("stored subimage is %dx%d, want 50x60", bounds.Dx(), bounds.Dy())
	}

	subs, err := env.svc.ListSubimages(ctx, "alice", res.ImageID)
	if err != nil {
		t.Fatalf("ListSubimages() error = %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("ListSubimages() returned %d records, want 1", len(subs))
	}
	if w := subs[0].Meta.Width(); w != 50 {
		t.Errorf("subimage meta width = %d, want 50", w)
	}
	if h := subs[0].Meta.Height(); h != 60 {
		t.Errorf("subimage meta height = %d, want 60", h)
	}
}

func TestResizeExisting_RejectsDuplicateVariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 100, 100, color.RGBA{G: 200, A: 255})

	res, err := env.svc.ResizeNew(ctx, "alice", data, 40, 40)
	if err != nil {
		t.Fatalf("ResizeNew() error = %v", err)
	}

	// Resizing the same origin to the same dimensions produces identical
	// bytes, so the second variant collides on its content ID.
	_, err = env.svc.ResizeExisting(ctx, "alice", res.ImageID, 40, 40)
	if !errors.Is(err, domain.ErrDuplicateImage) {
		t.Errorf("ResizeExisting() error = %v, want ErrDuplicateImage", err)
	}

	if _, err := env.svc.ResizeExisting(ctx, "alice", res.ImageID, 30, 30); err != nil {
		t.Errorf("ResizeExisting() with new dims error = %v", err)
	}
}

func TestResize_RejectsInvalidDimensions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 100, 100, color.RGBA{B: 40, A: 255})

	imageID, err := env.svc.AddOrigin(ctx, "alice", data)
	if err != nil {
		t.Fatalf("AddOrigin() error = %v", err)
	}

	for _, dims := range [][2]int{{0, 50}, {50, 0}, {1, 50}, {-3, 50}, {50, 1}} {
		_, err := env.svc.ResizeExisting(ctx, "alice", imageID, dims[0], dims[1])
		if !errors.Is(err, domain.ErrInvalidDimensions) {
			t.Errorf("ResizeExisting(%dx%d) error = %v, want ErrInvalidDimensions", dims[0], dims[1], err)
		}
	}
}

func TestRemoveOrigin_CascadesToSubimages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 100, 100, color.RGBA{R: 77, G: 77, A: 255})

	res, err := env.svc.ResizeNew(ctx, "alice", data, 50, 50)
	if err != nil {
		t.Fatalf("ResizeNew() error = %v", err)
	}

	if err := env.svc.RemoveOrigin(ctx, "alice", res.ImageID); err != nil {
		t.Fatalf("RemoveOrigin() error = %v", err)
	}

	if _, err := env.svc.GetOrigin(ctx, "alice", res.ImageID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetOrigin() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.GetSubimage(ctx, "alice", res.ImageID, res.SubimageID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetSubimage() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(filepath.Join(env.root, "alice", res.ImageID)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("image directory survived cascading delete")
	}
}

func TestRemoveOrigin_NotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.svc.RemoveOrigin(ctx, "alice", domain.ContentID("alice", []byte("ghost")))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("RemoveOrigin() error = %v, want ErrNotFound", err)
	}
}

func TestRemoveSubimage_LeavesOriginIntact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 100, 100, color.RGBA{B: 180, A: 255})

	res, err := env.svc.ResizeNew(ctx, "alice", data, 25, 25)
	if err != nil {
		t.Fatalf("ResizeNew() error = %v", err)
	}

	if err := env.svc.RemoveSubimage(ctx, "alice", res.ImageID, res.SubimageID); err != nil {
		t.Fatalf("RemoveSubimage() error = %v", err)
	}
	if _, err := env.svc.GetSubimage(ctx, "alice", res.ImageID, res.SubimageID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetSubimage() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.GetOrigin(ctx, "alice", res.ImageID); err != nil {
		t.Errorf("origin unreachable after subimage delete: %v", err)
	}

	ghost := domain.ContentID("alice", []byte("no such variant"))
	if err := env.svc.RemoveSubimage(ctx, "alice", res.ImageID, ghost); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("RemoveSubimage(ghost) error = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.GetOrigin(ctx, "alice", res.ImageID); err != nil {
		t.Errorf("origin damaged by failed subimage delete: %v", err)
	}
}

func TestRemoveUser_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 16, 16, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	if _, err := env.svc.AddOrigin(ctx, "alice", data); err != nil {
		t.Fatalf("AddOrigin() error = %v", err)
	}
	if err := env.svc.RemoveUser(ctx, "alice"); err != nil {
		t.Fatalf("RemoveUser() error = %v", err)
	}
	origins, err := env.svc.ListOrigins(ctx, "alice")
	if err != nil {
		t.Fatalf("ListOrigins() error = %v", err)
	}
	if len(origins) != 0 {
		t.Errorf("ListOrigins() returned %d records after user delete", len(origins))
	}

	// Deleting a user with no data is still a success.
	if err := env.svc.RemoveUser(ctx, "alice"); err != nil {
		t.Errorf("second RemoveUser() error = %v", err)
	}
	if err := env.svc.RemoveUser(ctx, "nobody"); err != nil {
		t.Errorf("RemoveUser(nobody) error = %v", err)
	}
}

func TestListOrigins_ReflectsUploads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	want := map[string]bool{}
	for i := 0; i < 3; i++ {
		data := pngBytes(t, 8, 8, color.RGBA{R: uint8(50 * (i + 1)), A: 255})
		id, err := env.svc.AddOrigin(ctx, "alice", data)
		if err != nil {
			t.Fatalf("AddOrigin(#%d) error = %v", i, err)
		}
		want[id] = true
	}
	// An upload in another namespace must not leak into alice's listing.
	if _, err := env.svc.AddOrigin(ctx, "bob", pngBytes(t, 8, 8, color.RGBA{G: 9, A: 255})); err != nil {
		t.Fatalf("AddOrigin(bob) error = %v", err)
	}

	origins, err := env.svc.ListOrigins(ctx, "alice")
	if err != nil {
		t.Fatalf("ListOrigins() error = %v", err)
	}
	if len(origins) != len(want) {
		t.Fatalf("ListOrigins() returned %d records, want %d", len(origins), len(want))
	}
	for _, rec := range origins {
		if !want[rec.ImageID] {
			t.Errorf("ListOrigins() returned unexpected id %s", rec.ImageID)
		}
		if !rec.Origin {
			t.Errorf("ListOrigins() returned non-origin record %s", rec.ImageID)
		}
	}
}

func TestGetOrigin_MissingFileIsConsistencyFault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 8, 8, color.RGBA{R: 240, G: 240, A: 255})

	imageID, err := env.svc.AddOrigin(ctx, "alice", data)
	if err != nil {
		t.Fatalf("AddOrigin() error = %v", err)
	}

	// Pull the file out from under the index.
	if err := os.RemoveAll(filepath.Join(env.root, "alice", imageID)); err != nil {
		t.Fatalf("remove image dir: %v", err)
	}

	_, err = env.svc.GetOrigin(ctx, "alice", imageID)
	if !errors.Is(err, domain.ErrConsistency) {
		t.Errorf("GetOrigin() error = %v, want ErrConsistency", err)
	}
}

// brokenIndex fails every insert, driving the compensation path.
type brokenIndex struct {
	domain.Index
}

func (brokenIndex) Insert(ctx context.Context, rec domain.Record) error {
	return fmt.Errorf("index unavailable")
}

func TestAddOrigin_CompensatesFailedInsert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 8, 8, color.RGBA{B: 250, A: 255})

	cfg := &config.Config{MaxImageBytes: 10 * 1024 * 1024, BlobRoot: env.root}
	blobs, err := storage.NewLocalStorage(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	svc := domain.NewService(cfg, brokenIndex{Index: env.index}, blobs, transform.NewResizer(zerolog.Nop()), zerolog.Nop())

	if _, err := svc.AddOrigin(ctx, "alice", data); err == nil {
		t.Fatal("AddOrigin() succeeded with a broken index")
	}

	// The compensating delete must have removed the orphan directory, so a
	// retry against a healthy index succeeds.
	imageID := domain.ContentID("alice", data)
	if _, err := os.Stat(filepath.Join(env.root, "alice", imageID)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("orphan image directory left behind after failed insert")
	}
	if _, err := env.svc.AddOrigin(ctx, "alice", data); err != nil {
		t.Errorf("retry after compensation error = %v", err)
	}
}
