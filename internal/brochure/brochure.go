// Package brochure builds a short markdown brochure about a company from its
// website: the model first picks relevant links, then writes the brochure
// from the landing page and those pages.
package brochure

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"strings"

	"github.com/chris/flightai/internal/chat"
	"github.com/chris/flightai/internal/llm"
	"github.com/chris/flightai/internal/scrape"
)

// MaxPromptChars caps the brochure user prompt.
const MaxPromptChars = 5000

const linkSystemPrompt = `You are provided with a list of links found on a webpage. You are able to decide which of the links would be most relevant to include in a brochure about the company, such as links to an About page, or a Company page, or Careers/Jobs pages.
You should respond in JSON as in this example. Do not include markdown formatting like triple backticks.
{
    "links": [
        {"type": "about page", "url": "https://full.url/goes/here/about"},
        {"type": "careers page", "url": "https://another.full.url/careers"}
    ]
}
`

const SystemPrompt = "You are an assistant that analyzes the contents of several relevant pages from a company website " +
	"and creates a short brochure about the company for prospective customers, investors and recruits. Respond in markdown. " +
	"Include details of company culture, customers and careers/jobs if you have the information."

type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type linkList struct {
	Links []Link `json:"links"`
}

// PageFetcher is satisfied by *scrape.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*scrape.Website, error)
}

type Generator struct {
	client  llm.Client
	fetcher PageFetcher
}

func New(client llm.Client, fetcher PageFetcher) *Generator {
	return &Generator{client: client, fetcher: fetcher}
}

func linksUserPrompt(site *scrape.Website) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the list of links on the website of %s - ", site.URL)
	b.WriteString("please decide which of these are relevant web links for a brochure about the company, respond with the full https URL in JSON format. ")
	b.WriteString("Do not include Terms of Service, Privacy, email links.\n")
	b.WriteString("Links (some might be relative links):\n")
	b.WriteString(strings.Join(site.Links, "\n"))
	return b.String()
}

// SelectLinks asks the model which of the page's links belong in a brochure.
func (g *Generator) SelectLinks(ctx context.Context, site *scrape.Website) ([]Link, error) {
	text, err := llm.Complete(ctx, g.client, []llm.Message{
		{Role: llm.RoleSystem, Content: linkSystemPrompt},
		{Role: llm.RoleUser, Content: linksUserPrompt(site)},
	})
	if err != nil {
		return nil, fmt.Errorf("selecting links: %w", err)
	}

	var out linkList
	if err := json.Unmarshal([]byte(stripFences(text)), &out); err != nil {
		return nil, fmt.Errorf("decoding link selection: %w", err)
	}
	return out.Links, nil
}

// stripFences removes a surrounding ```json ... ``` block some models add
// despite being told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// AllDetails gathers the landing page and every selected page. Pages that
// fail to load are skipped.
func (g *Generator) AllDetails(ctx context.Context, landingURL string) (string, error) {
	site, err := g.fetcher.Fetch(ctx, landingURL)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Landing page:\n")
	b.WriteString(site.Contents())

	links, err := g.SelectLinks(ctx, site)
	if err != nil {
		return "", err
	}
	slog.Info("brochure links selected", "url", landingURL, "links", len(links))

	for _, link := range links {
		target := resolve(landingURL, link.URL)
		page, err := g.fetcher.Fetch(ctx, target)
		if err != nil {
			slog.Warn("skipping brochure page", "url", target, "err", err)
			continue
		}
		fmt.Fprintf(&b, "\n\n%s\n", link.Type)
		b.WriteString(page.Contents())
	}
	return b.String(), nil
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// UserPrompt builds the brochure request, truncated to MaxPromptChars.
func UserPrompt(company, details string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are looking at a company called: %s\n", company)
	b.WriteString("Here are the contents of its landing page and other relevant pages; use this information to build a short brochure of the company in markdown.\n")
	b.WriteString(details)
	return truncateRunes(b.String(), MaxPromptChars)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Generate yields the brochure text. In stream mode every value is the
// brochure so far; otherwise the complete brochure is yielded once.
func (g *Generator) Generate(ctx context.Context, company, landingURL string, stream bool) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		details, err := g.AllDetails(ctx, landingURL)
		if err != nil {
			yield("", err)
			return
		}
		messages := []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: UserPrompt(company, details)},
		}

		if !stream {
			text, err := llm.Complete(ctx, g.client, messages)
			if err != nil {
				yield("", fmt.Errorf("writing brochure: %w", err))
				return
			}
			yield(text, nil)
			return
		}

		for text, err := range chat.Accumulate(g.client.Stream(ctx, messages)) {
			if err != nil {
				yield(text, fmt.Errorf("writing brochure: %w", err))
				return
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
