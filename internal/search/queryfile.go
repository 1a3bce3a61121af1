// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// QueryFile is the on-disk representation of a search and the records each
// source returned. A saved search can be ingested later without
// re-querying the databases.
type QueryFile struct {
	Query   QueryParams     `yaml:"query"`
	Config  QueryFileConfig `yaml:"config"`
	Results []SourceResult  `yaml:"results"`
	Summary QuerySummary    `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	Text             string   `yaml:"text"`
	YearFrom         int      `yaml:"year_from,omitempty"`
	YearTo           int      `yaml:"year_to,omitempty"`
	PublicationTypes []string `yaml:"publication_types,omitempty"`
}

// QueryFileConfig stores the search configuration that produced the results.
type QueryFileConfig struct {
	MaxResults int      `yaml:"max_results"`
	Sources    []string `yaml:"sources"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total             int       `yaml:"total"`
	Unique            int       `yaml:"unique"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	SourceErrors      []string  `yaml:"source_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves query parameters and per-source results to a YAML file.
func WriteQueryFile(path string, query Query, out Output) error {
	qf := QueryFile{
		Query: QueryParams{
			Text:             query.Text,
			YearFrom:         query.YearFrom,
			YearTo:           query.YearTo,
			PublicationTypes: query.PublicationTypes,
		},
		Config: QueryFileConfig{
			MaxResults: query.MaxResults,
		},
		Results: out.Results,
		Summary: QuerySummary{
			Unique:            len(out.Merged),
			DuplicatesRemoved: out.Duplicates,
			SourceErrors:      out.SourceErrors,
			Timestamp:         time.Now(),
		},
	}
	for _, r := range out.Results {
		qf.Config.Sources = append(qf.Config.Sources, r.Source)
		qf.Summary.Total += len(r.Records)
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToQuery converts stored QueryParams back into a Query.
func (p QueryParams) ToQuery() (Query, error) {
	if p.YearFrom > 0 && p.YearTo > 0 && p.YearFrom > p.YearTo {
		return Query{}, fmt.Errorf("invalid year range %d-%d", p.YearFrom, p.YearTo)
	}
	return Query{
		Text:             p.Text,
		YearFrom:         p.YearFrom,
		YearTo:           p.YearTo,
		PublicationTypes: p.PublicationTypes,
	}, nil
}
