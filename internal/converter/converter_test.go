package converter

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"sync"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seolyze/imageaudit/internal/entities"
)

type fakeFetcher struct {
	data map[string][]byte
}

func (f *fakeFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	data, ok := f.data[ref]
	if !ok {
		return nil, errors.New("unreachable: " + ref)
	}
	return data, nil
}

type memBlobStore struct {
	mu    sync.Mutex
	saved map[string][]byte
	fail  bool
}

func (s *memBlobStore) Save(_ context.Context, key, _ string, payload []byte) (string, error) {
	if s.fail {
		return "", errors.New("bucket unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[key] = payload
	return "https://cdn.example.com/" + key, nil
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func jpegRecord(ref string, data []byte, w, h int) entities.ImageRecord {
	return entities.ImageRecord{
		Reference: ref,
		Width:     w,
		Height:    h,
		SizeKB:    float64(len(data)) / 1024,
		Format:    "jpeg",
	}
}

func TestConvert_SkipFast(t *testing.T) {
	conv := New(&fakeFetcher{}, &memBlobStore{})

	rec := entities.ImageRecord{
		Reference: "https://site.test/small.webp",
		Width:     800,
		Height:    600,
		SizeKB:    50,
		Format:    "webp",
	}

	res := conv.Convert(context.Background(), rec, entities.ConversionOptions{}.WithDefaults())

	assert.Equal(t, rec.Reference, res.OptimizedReference, "no re-encode performed")
	assert.Equal(t, rec.SizeKB, res.OptimizedSizeKB)
	assert.Zero(t, res.SavingsKB)
	assert.Zero(t, res.SavingsPercent)
}

func TestConvert_SkipFastNotTakenWhenTooLarge(t *testing.T) {
	data := encodeJPEG(t, 400, 300)
	blobs := &memBlobStore{}
	conv := New(&fakeFetcher{data: map[string][]byte{"big.webp": data}}, blobs)

	// webp format and within width, but over the 100KB skip threshold.
	rec := entities.ImageRecord{Reference: "big.webp", Width: 400, Height: 300, SizeKB: 150, Format: "webp"}

	res := conv.Convert(context.Background(), rec, entities.ConversionOptions{}.WithDefaults())

	assert.NotEqual(t, rec.Reference, res.OptimizedReference)
	assert.Len(t, blobs.saved, 1)
}

func TestConvert_ReencodesAndScalesDown(t *testing.T) {
	data := encodeJPEG(t, 2560, 1440)
	blobs := &memBlobStore{}
	conv := New(&fakeFetcher{data: map[string][]byte{"wide.jpg": data}}, blobs)

	rec := jpegRecord("wide.jpg", data, 2560, 1440)
	opts := entities.ConversionOptions{Quality: 80, MaxWidthPx: 1280}

	res := conv.Convert(context.Background(), rec, opts)

	require.Len(t, blobs.saved, 1)
	for key, payload := range blobs.saved {
		assert.Equal(t, "https://cdn.example.com/"+key, res.OptimizedReference)

		out, err := webp.Decode(bytes.NewReader(payload))
		require.NoError(t, err)
		assert.Equal(t, 1280, out.Bounds().Dx(), "longer side capped at maxWidthPx")
		assert.Equal(t, 720, out.Bounds().Dy(), "aspect ratio preserved")

		assert.InDelta(t, float64(len(payload))/1024, res.OptimizedSizeKB, 0.001)
	}

	assert.InDelta(t, rec.SizeKB-res.OptimizedSizeKB, res.SavingsKB, 0.001)
	if rec.SizeKB > 0 {
		assert.InDelta(t, res.SavingsKB/rec.SizeKB*100, res.SavingsPercent, 0.001)
	}
}

func TestConvert_NeverUpscales(t *testing.T) {
	data := encodeJPEG(t, 320, 240)
	blobs := &memBlobStore{}
	conv := New(&fakeFetcher{data: map[string][]byte{"tiny.jpg": data}}, blobs)

	rec := jpegRecord("tiny.jpg", data, 320, 240)

	_ = conv.Convert(context.Background(), rec, entities.ConversionOptions{Quality: 80, MaxWidthPx: 1280})

	require.Len(t, blobs.saved, 1)
	for _, payload := range blobs.saved {
		out, err := webp.Decode(bytes.NewReader(payload))
		require.NoError(t, err)
		assert.Equal(t, 320, out.Bounds().Dx())
		assert.Equal(t, 240, out.Bounds().Dy())
	}
}

func TestConvert_UnreachableSourceDegrades(t *testing.T) {
	conv := New(&fakeFetcher{}, &memBlobStore{})

	rec := jpegRecord("https://site.test/gone.jpg", make([]byte, 10240), 500, 500)

	res := conv.Convert(context.Background(), rec, entities.ConversionOptions{}.WithDefaults())

	assert.Equal(t, rec.Reference, res.OptimizedReference)
	assert.Equal(t, rec.SizeKB, res.OptimizedSizeKB)
	assert.Zero(t, res.SavingsKB)
	assert.Zero(t, res.SavingsPercent)
}

func TestConvert_CorruptBytesDegrade(t *testing.T) {
	conv := New(&fakeFetcher{data: map[string][]byte{"bad.jpg": []byte("junk")}}, &memBlobStore{})

	rec := jpegRecord("bad.jpg", []byte("junk"), 100, 100)

	res := conv.Convert(context.Background(), rec, entities.ConversionOptions{}.WithDefaults())

	assert.Equal(t, rec.Reference, res.OptimizedReference)
	assert.Zero(t, res.SavingsPercent)
}

func TestConvert_PersistFailureDegrades(t *testing.T) {
	data := encodeJPEG(t, 1600, 900)
	conv := New(&fakeFetcher{data: map[string][]byte{"img.jpg": data}}, &memBlobStore{fail: true})

	rec := jpegRecord("img.jpg", data, 1600, 900)

	res := conv.Convert(context.Background(), rec, entities.ConversionOptions{}.WithDefaults())

	assert.Equal(t, rec.Reference, res.OptimizedReference)
	assert.Zero(t, res.SavingsKB)
}
