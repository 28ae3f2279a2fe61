package catalog

import (
	"context"
	"errors"
)

// MaxPages bounds Pager.All against an API that never runs out of pages.
const MaxPages = 100

// ErrTooManyPages is returned by Pager.All once MaxPages pages were fetched
// without reaching the end of the catalog.
var ErrTooManyPages = errors.New("catalog: too many pages")

// Pager accumulates catalog pages the way an infinite list does: each call
// to Next fetches the following page and appends it.
type Pager struct {
	client *Client
	page   int
	plants []Plant
	done   bool
}

// NewPager starts before the first page.
func NewPager(client *Client) *Pager {
	return &Pager{client: client}
}

// Next fetches the next page and returns only its plants. A page shorter
// than the client's page size is the last one; after it Done reports true
// and Next returns nil without a request.
func (p *Pager) Next(ctx context.Context) ([]Plant, error) {
	if p.done {
		return nil, nil
	}
	page, err := p.client.ListPlants(ctx, p.page+1)
	if err != nil {
		return nil, err
	}
	p.page++
	if len(page) == 0 {
		p.done = true
		return nil, nil
	}
	if len(page) < p.client.PageSize() {
		p.done = true
	}
	p.plants = append(p.plants, page...)
	return page, nil
}

// Done reports whether the last page has been reached.
func (p *Pager) Done() bool { return p.done }

// Page returns the number of pages fetched so far.
func (p *Pager) Page() int { return p.page }

// Plants returns everything fetched so far.
func (p *Pager) Plants() []Plant { return p.plants }

// All fetches every remaining page, giving up with ErrTooManyPages after
// MaxPages.
func (p *Pager) All(ctx context.Context) ([]Plant, error) {
	for !p.done {
		if p.page >= MaxPages {
			return p.plants, ErrTooManyPages
		}
		if _, err := p.Next(ctx); err != nil {
			return p.plants, err
		}
	}
	return p.plants, nil
}
