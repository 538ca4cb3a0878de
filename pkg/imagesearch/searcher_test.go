package imagesearch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// imageServer serves PNG files by name with the given dimensions.
func imageServer(t *testing.T, sizes map[string][2]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		size, ok := sizes[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes(t, size[0], size[1]))
	}))
}

func searchPage(imageURLs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, u := range imageURLs {
		fmt.Fprintf(&b, `<a class="iusc" m='{"murl":"%s"}'>result</a>`, u)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestSearchReturnsValidatedURLs(t *testing.T) {
	images := imageServer(t, map[string][2]int{
		"big.png":   {800, 600},
		"small.png": {100, 100},
		"other.png": {400, 400},
	})
	defer images.Close()

	bing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ipad pro", r.URL.Query().Get("q"))
		fmt.Fprint(w, searchPage(
			images.URL+"/big.png",
			images.URL+"/small.png",
			images.URL+"/missing.png",
			images.URL+"/other.png",
		))
	}))
	defer bing.Close()

	searcher := NewSearcher(Config{BaseURL: bing.URL, MaxResults: 3})
	urls, err := searcher.Search(context.Background(), "ipad pro")
	require.NoError(t, err)

	// small.png is below the minimum dimensions and missing.png 404s.
	assert.Equal(t, []string{images.URL + "/big.png", images.URL + "/other.png"}, urls)
}

func TestSearchCapsResults(t *testing.T) {
	images := imageServer(t, map[string][2]int{
		"a.png": {500, 500},
		"b.png": {500, 500},
		"c.png": {500, 500},
	})
	defer images.Close()

	bing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchPage(images.URL+"/a.png", images.URL+"/b.png", images.URL+"/c.png"))
	}))
	defer bing.Close()

	searcher := NewSearcher(Config{BaseURL: bing.URL, MaxResults: 2})
	urls, err := searcher.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestSearchDeduplicatesCandidates(t *testing.T) {
	images := imageServer(t, map[string][2]int{"a.png": {500, 500}})
	defer images.Close()

	bing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchPage(images.URL+"/a.png", images.URL+"/a.png"))
	}))
	defer bing.Close()

	searcher := NewSearcher(Config{BaseURL: bing.URL, MaxResults: 5})
	urls, err := searcher.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, []string{images.URL + "/a.png"}, urls)
}

func TestSearchNoResults(t *testing.T) {
	bing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>nothing here</body></html>")
	}))
	defer bing.Close()

	searcher := NewSearcher(Config{BaseURL: bing.URL})
	urls, err := searcher.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestValidatorRejectsLongURL(t *testing.T) {
	v := NewValidator(nil)
	long := "http://example.com/" + strings.Repeat("a", maxURLLength)
	err := v.Validate(context.Background(), long)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "longer")
}

func TestValidatorRejectsBadScheme(t *testing.T) {
	v := NewValidator(nil)
	err := v.Validate(context.Background(), "ftp://example.com/image.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme")
}

func TestValidatorRejectsWrongContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html></html>")
	}))
	defer server.Close()

	v := NewValidator(server.Client())
	err := v.Validate(context.Background(), server.URL+"/page")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content type")
}

func TestValidatorRejectsOversizedImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", "16777216")
		if r.Method == http.MethodHead {
			return
		}
	}))
	defer server.Close()

	v := NewValidator(server.Client())
	err := v.Validate(context.Background(), server.URL+"/huge.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestValidatorAcceptsContentTypeWithParams(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 400, 400))))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png; charset=binary")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	v := NewValidator(server.Client())
	assert.NoError(t, v.Validate(context.Background(), server.URL+"/a.png"))
}
