// Package fetch retrieves candidate papers from the arXiv Atom API.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/paper"
)

const arxivAPIURL = "http://export.arxiv.org/api/query"

// ArxivFetcher queries arXiv for the newest submissions in a set of
// categories.
type ArxivFetcher struct {
	categories []string
	maxResults int
	parser     *gofeed.Parser
	logger     *zap.Logger
}

func NewArxivFetcher(categories []string, maxResults int, logger *zap.Logger) *ArxivFetcher {
	return &ArxivFetcher{
		categories: categories,
		maxResults: maxResults,
		parser:     gofeed.NewParser(),
		logger:     logger,
	}
}

// Fetch returns the latest papers across the configured categories,
// newest first.
func (f *ArxivFetcher) Fetch(ctx context.Context) ([]paper.Paper, error) {
	if len(f.categories) == 0 {
		return nil, fmt.Errorf("fetch: no arxiv categories configured")
	}

	terms := make([]string, len(f.categories))
	for i, c := range f.categories {
		terms[i] = "cat:" + c
	}

	q := url.Values{}
	q.Set("search_query", strings.Join(terms, " OR "))
	q.Set("start", "0")
	q.Set("max_results", fmt.Sprintf("%d", f.maxResults))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")

	feedURL := arxivAPIURL + "?" + q.Encode()
	f.logger.Debug("querying arxiv", zap.String("url", feedURL))

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: arxiv query failed: %w", err)
	}

	papers := make([]paper.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		papers = append(papers, itemToPaper(item))
	}

	f.logger.Info("fetched arxiv feed",
		zap.Strings("categories", f.categories),
		zap.Int("papers", len(papers)))
	return papers, nil
}

func itemToPaper(item *gofeed.Item) paper.Paper {
	p := paper.Paper{
		// Atom entry IDs look like http://arxiv.org/abs/2401.01234v1;
		// the last path segment is the stable arXiv identifier.
		ID:         lastSegment(item.GUID),
		Title:      collapse(item.Title),
		Summary:    collapse(item.Description),
		Link:       item.Link,
		Categories: item.Categories,
	}
	if item.PublishedParsed != nil {
		p.Published = *item.PublishedParsed
	}
	for _, a := range item.Authors {
		p.Authors = append(p.Authors, a.Name)
	}
	for _, l := range item.Links {
		if strings.Contains(l, "/pdf/") {
			p.PDFLink = l
			break
		}
	}
	return p
}

func lastSegment(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

func collapse(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
