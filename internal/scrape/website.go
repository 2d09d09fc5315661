// Package scrape fetches a web page and reduces it to title, readable text
// and outgoing links.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

const noTitle = "No title found"

type Website struct {
	URL   string
	Title string
	Text  string
	Links []string
}

// Contents renders the page the way it is fed to the model.
func (w *Website) Contents() string {
	return fmt.Sprintf("Webpage Title: \n%s\nWebpage Contents:\n%s\n\n", w.Title, w.Text)
}

type Fetcher struct {
	client *resty.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,text/plain")
	return &Fetcher{client: client}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*Website, error) {
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode())
	}
	return Parse(url, resp.Body())
}

// Parse extracts the title, the body text (without script, style, img and
// input elements) and every non-empty link href.
func Parse(url string, body []byte) (*Website, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	w := &Website{URL: url, Title: noTitle}
	if title := doc.Find("title").First(); title.Length() > 0 {
		w.Title = strings.TrimSpace(title.Text())
	}

	if b := doc.Find("body"); b.Length() > 0 {
		b.Find("script, style, img, input").Remove()
		var lines []string
		collectText(b, &lines)
		w.Text = strings.Join(lines, "\n")
	}

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			w.Links = append(w.Links, href)
		}
	})
	return w, nil
}

func collectText(sel *goquery.Selection, lines *[]string) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			if t := strings.TrimSpace(s.Text()); t != "" {
				*lines = append(*lines, t)
			}
			return
		}
		collectText(s, lines)
	})
}
