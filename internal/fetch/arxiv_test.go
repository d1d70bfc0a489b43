package fetch

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
)

func TestItemToPaper(t *testing.T) {
	published := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	item := &gofeed.Item{
		GUID:        "http://arxiv.org/abs/2601.01234v1",
		Title:       "Scaling  Distributed\n Training",
		Description: "We present a method\nfor large-scale  training.",
		Link:        "http://arxiv.org/abs/2601.01234v1",
		Links: []string{
			"http://arxiv.org/abs/2601.01234v1",
			"http://arxiv.org/pdf/2601.01234v1",
		},
		Authors: []*gofeed.Person{
			{Name: "Ada Lovelace"},
			{Name: "Charles Babbage"},
		},
		Categories:      []string{"cs.DC", "cs.LG"},
		PublishedParsed: &published,
	}

	p := itemToPaper(item)
	assert.Equal(t, "2601.01234v1", p.ID)
	assert.Equal(t, "Scaling Distributed Training", p.Title)
	assert.Equal(t, "We present a method for large-scale training.", p.Summary)
	assert.Equal(t, "http://arxiv.org/pdf/2601.01234v1", p.PDFLink)
	assert.Equal(t, []string{"Ada Lovelace", "Charles Babbage"}, p.Authors)
	assert.Equal(t, []string{"cs.DC", "cs.LG"}, p.Categories)
	assert.Equal(t, published, p.Published)
}

func TestItemToPaper_MinimalEntry(t *testing.T) {
	p := itemToPaper(&gofeed.Item{GUID: "2601.99999", Title: "Bare"})
	assert.Equal(t, "2601.99999", p.ID)
	assert.Empty(t, p.PDFLink)
	assert.Empty(t, p.Authors)
	assert.True(t, p.Published.IsZero())
}
