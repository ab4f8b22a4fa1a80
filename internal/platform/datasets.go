package platform

import (
	"context"
	"strconv"
)

const datasetsPath = "/data-sets"

type DatasetQuery struct {
	InstrumentType string
	Region         string
	Delay          int
	Universe       string
	Theme          bool
	Limit          int
	Offset         int
}

func DefaultDatasetQuery() DatasetQuery {
	return DatasetQuery{
		InstrumentType: "EQUITY",
		Region:         "USA",
		Delay:          1,
		Universe:       "TOP3000",
		Theme:          false,
	}
}

func (q DatasetQuery) params() map[string]string {
	params := map[string]string{
		"instrumentType": q.InstrumentType,
		"region":         q.Region,
		"delay":          strconv.Itoa(q.Delay),
		"universe":       q.Universe,
		"theme":          strconv.FormatBool(q.Theme),
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}
	if q.Offset > 0 {
		params["offset"] = strconv.Itoa(q.Offset)
	}
	return params
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Dataset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Subcategory Category `json:"subcategory"`
	Region      string   `json:"region"`
	Delay       int      `json:"delay"`
	Universe    string   `json:"universe"`
	Coverage    float64  `json:"coverage"`
	ValueScore  float64  `json:"valueScore"`
	UserCount   int      `json:"userCount"`
	AlphaCount  int      `json:"alphaCount"`
	FieldCount  int      `json:"fieldCount"`
}

type DatasetPage struct {
	Count   int       `json:"count"`
	Results []Dataset `json:"results"`
}

// ListDatasets returns the datasets available for the given instrument
// type, region, delay and universe.
func (c *Client) ListDatasets(ctx context.Context, query DatasetQuery) (*DatasetPage, error) {
	var page DatasetPage
	if err := c.Get(ctx, datasetsPath, query.params(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}
