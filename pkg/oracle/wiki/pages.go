package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
)

type title struct {
	Title string `json:"title"`
}

type page struct {
	Title   string  `json:"title"`
	Missing bool    `json:"missing"`
	Invalid bool    `json:"invalid"`
	Links   []title `json:"links"`
}

type redirect struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type queryResponse struct {
	Continue map[string]string `json:"continue"`
	Query    *struct {
		Pages     []page     `json:"pages"`
		Redirects []redirect `json:"redirects"`
		Backlinks []title    `json:"backlinks"`
	} `json:"query"`
}

type parseResponse struct {
	Parse *struct {
		Title    string `json:"title"`
		Wikitext string `json:"wikitext"`
	} `json:"parse"`
}

// pageLinks returns every link of title after following redirects. exists
// is false when the page is missing.
func (c *Client) pageLinks(ctx context.Context, pageTitle string, limit string) ([]string, bool, error) {
	params := url.Values{}
	params.Set("prop", "links")
	params.Set("titles", pageTitle)
	params.Set("pllimit", limit)
	params.Set("redirects", "1")

	var out []string
	exists := false
	cont := ""
	used := map[string]struct{}{"": {}}
	for {
		if cont != "" {
			params.Set("plcontinue", cont)
		}
		resp, err := query[queryResponse](ctx, c, params)
		if errors.Is(err, errMissing) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if resp.Query == nil {
			return nil, false, fmt.Errorf("%w: no query in links response for %q", oracle.ErrMalformed, pageTitle)
		}
		for _, p := range resp.Query.Pages {
			if p.Missing || p.Invalid {
				continue
			}
			exists = true
			for _, l := range p.Links {
				out = append(out, l.Title)
			}
		}

		next := resp.Continue["plcontinue"]
		if _, again := used[next]; again {
			break
		}
		used[next] = struct{}{}
		cont = next
	}
	return out, exists, nil
}

// OutgoingLinks returns every title the page links to. A missing page has
// no links.
func (c *Client) OutgoingLinks(ctx context.Context, pageTitle string) (oracle.LinkSet, error) {
	links, _, err := c.pageLinks(ctx, pageTitle, "max")
	if err != nil {
		return nil, err
	}
	return oracle.NewLinkSet(links...), nil
}

// BacklinkPage returns the number of pages on one backlink page of title.
func (c *Client) BacklinkPage(ctx context.Context, pageTitle string, continuation string) (oracle.BacklinkPage, error) {
	params := url.Values{}
	params.Set("list", "backlinks")
	params.Set("bltitle", pageTitle)
	params.Set("bllimit", strconv.Itoa(oracle.BacklinkPageSize))
	if continuation != "" {
		params.Set("blcontinue", continuation)
	}

	resp, err := query[queryResponse](ctx, c, params)
	if errors.Is(err, errMissing) {
		return oracle.BacklinkPage{}, nil
	}
	if err != nil {
		return oracle.BacklinkPage{}, err
	}
	if resp.Query == nil {
		return oracle.BacklinkPage{}, fmt.Errorf("%w: no query in backlinks response for %q", oracle.ErrMalformed, pageTitle)
	}
	return oracle.BacklinkPage{
		Count: len(resp.Query.Backlinks),
		Next:  resp.Continue["blcontinue"],
	}, nil
}

// GetCandidates proposes titles for mention. If "<mention> (disambiguation)"
// exists, its links containing the mention (case-insensitive) are the
// candidates, excluding other disambiguation pages. Otherwise the page the
// mention redirects to, or the page of that exact title, is the only
// candidate. A mention matching nothing has no candidates.
func (c *Client) GetCandidates(ctx context.Context, mention string) ([]string, error) {
	links, exists, err := c.pageLinks(ctx, mention+" (disambiguation)", strconv.Itoa(oracle.BacklinkPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read disambiguation page: %w", err)
	}
	if exists {
		target := strings.ToLower(mention)
		var out []string
		for _, l := range links {
			lower := strings.ToLower(l)
			if strings.Contains(lower, target) && !strings.Contains(lower, "disambiguation") {
				out = append(out, l)
			}
		}
		logger.Debug("[Wiki] Candidates from disambiguation page", "mention", mention, "candidates", len(out))
		return common.Dedupe(out), nil
	}

	params := url.Values{}
	params.Set("titles", mention)
	params.Set("redirects", "1")
	resp, err := query[queryResponse](ctx, c, params)
	if errors.Is(err, errMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve title: %w", err)
	}
	if resp.Query == nil {
		return nil, fmt.Errorf("%w: no query in title response for %q", oracle.ErrMalformed, mention)
	}
	for _, p := range resp.Query.Pages {
		if !p.Missing && !p.Invalid && p.Title != "" {
			return []string{p.Title}, nil
		}
	}
	return nil, nil
}

// Wikitext returns the source text of an article. A missing article has
// empty text.
func (c *Client) Wikitext(ctx context.Context, pageTitle string) (string, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", pageTitle)
	params.Set("prop", "wikitext")
	params.Set("redirects", "1")

	resp, err := query[parseResponse](ctx, c, params)
	if errors.Is(err, errMissing) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if resp.Parse == nil {
		return "", fmt.Errorf("%w: no parse in response for %q", oracle.ErrMalformed, pageTitle)
	}
	return resp.Parse.Wikitext, nil
}
