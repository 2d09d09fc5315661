package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title> Hippo's Lab </title><style>body{color:red}</style></head>
<body>
  <h1>Welcome</h1>
  <script>var tracking = 1;</script>
  <p>We build <b>things</b>.</p>
  <img src="x.png" alt="logo"><input value="search">
  <a href="/about">About</a>
  <a href="https://example.com/careers">Careers</a>
  <a href="">empty</a>
  <a>no href</a>
</body></html>`

func TestParse(t *testing.T) {
	w, err := Parse("https://example.com", []byte(page))
	require.NoError(t, err)

	assert.Equal(t, "Hippo's Lab", w.Title)
	assert.Equal(t, "Welcome\nWe build\nthings\n.\nAbout\nCareers\nempty\nno href", w.Text)
	assert.NotContains(t, w.Text, "tracking")
	assert.NotContains(t, w.Text, "color:red")
	assert.Equal(t, []string{"/about", "https://example.com/careers"}, w.Links)
}

func TestParse_NoTitleNoBody(t *testing.T) {
	w, err := Parse("https://example.com", []byte(`<frameset></frameset>`))
	require.NoError(t, err)
	assert.Equal(t, noTitle, w.Title)
	assert.Empty(t, w.Text)
}

func TestContents(t *testing.T) {
	w := &Website{Title: "T", Text: "body"}
	assert.Equal(t, "Webpage Title: \nT\nWebpage Contents:\nbody\n\n", w.Contents())
}

func TestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	w, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Hippo's Lab", w.Title)
	assert.Equal(t, userAgent, gotUA)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "")
	assert.Error(t, err)
}
