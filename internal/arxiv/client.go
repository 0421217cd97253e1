// Package arxiv fetches paper metadata from the arXiv export API and knows
// the announcement calendar that decides which date to fetch.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/daydayarxiv/daydayarxiv/internal/domain"
)

// DefaultBaseURL is the arXiv Atom export endpoint.
const DefaultBaseURL = "http://export.arxiv.org/api/query"

// ErrFetchFailed is returned when the export API could not be queried after
// all retries. Callers must treat it as a batch failure, never as an empty
// result.
var ErrFetchFailed = errors.New("arxiv fetch failed")

// entryDateLayout renders entry timestamps for storage, always in UTC.
const entryDateLayout = "2006-01-02 15:04:05 MST"

// Fetcher retrieves the raw papers submitted on a UTC date in a category.
type Fetcher interface {
	FetchPapers(ctx context.Context, category, date string, maxResults int) ([]domain.RawPaper, error)
}

// Client is the HTTP Fetcher against the arXiv export API.
type Client struct {
	baseURL     string
	http        *http.Client
	logger      *slog.Logger
	retryDelays []time.Duration
}

// NewClient creates a Client against DefaultBaseURL with the standard fixed
// retry schedule.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		baseURL:     DefaultBaseURL,
		http:        &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
		retryDelays: []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second},
	}
}

// NewClientWithBaseURL is NewClient with a custom endpoint and no retry
// delays, for tests.
func NewClientWithBaseURL(baseURL string, logger *slog.Logger) *Client {
	c := NewClient(logger)
	c.baseURL = baseURL
	c.retryDelays = nil
	return c
}

// FetchPapers queries papers submitted on the given UTC date (YYYY-MM-DD) in
// the category, newest first. The query is retried on a fixed schedule;
// exhausting the retries returns ErrFetchFailed.
func (c *Client) FetchPapers(ctx context.Context, category, date string, maxResults int) ([]domain.RawPaper, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	compact := day.Format("20060102")
	query := fmt.Sprintf("submittedDate:[%s000000 TO %s235959]", compact, compact)
	if category != "" {
		query = fmt.Sprintf("cat:%s AND %s", category, query)
	}
	c.logger.Info("querying arxiv", "query", query, "max_results", maxResults)

	var lastErr error
	for attempt := 0; ; attempt++ {
		papers, err := c.query(ctx, query, maxResults)
		if err == nil {
			c.logger.Info("arxiv query returned", "papers", len(papers))
			return papers, nil
		}
		lastErr = err
		if attempt >= len(c.retryDelays) {
			break
		}
		delay := c.retryDelays[attempt]
		c.logger.Warn("arxiv query failed, retrying",
			"attempt", attempt+1,
			"delay", delay,
			"error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, ctx.Err())
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrFetchFailed, lastErr)
}

func (c *Client) query(ctx context.Context, query string, maxResults int) ([]domain.RawPaper, error) {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	papers := make([]domain.RawPaper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		papers = append(papers, entry.toRawPaper())
	}
	return papers, nil
}

// atomFeed is the subset of the arXiv Atom response we consume.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string         `xml:"id"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Published       string         `xml:"published"`
	Updated         string         `xml:"updated"`
	Authors         []atomAuthor   `xml:"author"`
	Categories      []atomCategory `xml:"category"`
	PrimaryCategory atomCategory   `xml:"primary_category"`
	Comment         string         `xml:"comment"`
	Links           []atomLink     `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}

func (e atomEntry) toRawPaper() domain.RawPaper {
	arxivID := e.ID
	if idx := strings.LastIndex(arxivID, "/"); idx >= 0 {
		arxivID = arxivID[idx+1:]
	}

	authors := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		authors = append(authors, strings.TrimSpace(a.Name))
	}
	categories := make([]string, 0, len(e.Categories))
	for _, c := range e.Categories {
		categories = append(categories, c.Term)
	}

	pdfURL := ""
	for _, link := range e.Links {
		if link.Title == "pdf" {
			pdfURL = link.Href
			break
		}
	}
	if pdfURL == "" {
		pdfURL = domain.DefaultPDFURL(arxivID)
	}

	return domain.RawPaper{
		ArxivID:         arxivID,
		Title:           cleanText(e.Title),
		Authors:         authors,
		Abstract:        cleanText(e.Summary),
		Categories:      categories,
		PrimaryCategory: e.PrimaryCategory.Term,
		Comment:         cleanText(e.Comment),
		PDFURL:          pdfURL,
		PublishedDate:   formatEntryDate(e.Published),
		UpdatedDate:     formatEntryDate(e.Updated),
	}
}

// cleanText collapses the newline-plus-indent wrapping the Atom feed applies
// to long fields.
func cleanText(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// formatEntryDate converts an Atom RFC3339 timestamp to the stored layout in
// UTC. Unparseable values pass through unchanged rather than losing data.
func formatEntryDate(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.UTC().Format(entryDateLayout)
}
