// Package rxnav looks up drug name candidates from the National Library of
// Medicine RxNorm API. Responses are cached on disk because the vocabulary
// changes at most monthly.
//
// https://lhncbc.nlm.nih.gov/RxNav/APIs/api-RxNorm.getApproximateMatch.html
package rxnav

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
)

const defaultMaxEntries = 5

// Candidate is one approximate match returned by RxNorm.
type Candidate struct {
	RxCUI string `json:"rxcui"`
	Name  string `json:"name"`
	Score string `json:"score"`
	Rank  string `json:"rank"`
}

// ScoreValue parses the candidate score, which RxNorm serves as a string.
func (c Candidate) ScoreValue() float64 {
	score, err := strconv.ParseFloat(c.Score, 64)
	if err != nil {
		return 0
	}
	return score
}

type approximateTermResponse struct {
	ApproximateGroup struct {
		Candidate []Candidate `json:"candidate"`
	} `json:"approximateGroup"`
}

type Client struct {
	httpClient *resty.Client
	fileCache  *FileCache
}

// NewClient creates an RxNorm client. cacheDirectory may be empty to disable
// the on-disk response cache.
func NewClient(baseURL string, cacheDirectory string) *Client {
	client := &Client{
		httpClient: resty.New().SetBaseURL(baseURL),
	}
	if cacheDirectory != "" {
		client.fileCache = NewFileCache(cacheDirectory)
	}
	return client
}

func (c *Client) lookupAPI(ctx context.Context, term string) ([]byte, error) {
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("term", term).
		SetQueryParam("maxEntries", strconv.Itoa(defaultMaxEntries)).
		Get("/approximateTerm.json")
	if err != nil {
		return nil, fmt.Errorf("client.R.Get > %w, response %s", err, string(res.Body()))
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status code: %d, body: %s", res.StatusCode(), string(res.Body()))
	}
	return res.Body(), nil
}

// ApproximateMatch returns RxNorm candidates for a free-text drug name,
// ordered by descending score.
func (c *Client) ApproximateMatch(ctx context.Context, term string) ([]Candidate, error) {
	lookup := func() ([]byte, error) {
		body, err := c.lookupAPI(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("c.lookupAPI > %w", err)
		}
		return body, nil
	}

	var contents []byte
	var err error
	if c.fileCache != nil {
		contents, err = c.fileCache.cache(term, lookup)
		if err != nil {
			return nil, fmt.Errorf("c.fileCache.cache > %w", err)
		}
	} else {
		contents, err = lookup()
		if err != nil {
			return nil, err
		}
	}

	var resp approximateTermResponse
	if err := json.Unmarshal(contents, &resp); err != nil {
		return nil, fmt.Errorf("json.Unmarshal > %w", err)
	}
	return resp.ApproximateGroup.Candidate, nil
}
