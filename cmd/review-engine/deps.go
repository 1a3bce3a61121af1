// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/internal/catalog"
	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

func openStore() (*store.SQLite, error) {
	return store.Open(cfg.Store.Path)
}

func newProviders() *llm.Registry {
	return llm.NewRegistryFromConfig(cfg.LLM, nil)
}

func newSources() *search.Registry {
	return search.NewRegistryFromConfig(cfg.Search, &http.Client{Timeout: cfg.Search.Timeout})
}

func newScreener(providers *llm.Registry, rec screen.Recorder) *screen.Screener {
	return screen.NewScreener(providers, cfg.Screening, logger, rec)
}

func newResolver(st *store.SQLite, rec catalog.Recorder) *catalog.Resolver {
	return catalog.NewResolver(st, logger, rec)
}

// readCriteria loads a PICO criteria file. Criteria may be given as YAML
// lists or as newline-delimited text; JSON files parse the same way.
func readCriteria(path string) (types.PICOCriteria, error) {
	var pico types.PICOCriteria
	if path == "" {
		return pico, fmt.Errorf("--criteria is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pico, fmt.Errorf("reading criteria: %w", err)
	}
	if err := yaml.Unmarshal(data, &pico); err != nil {
		return pico, fmt.Errorf("parsing criteria %s: %w", path, err)
	}
	if strings.TrimSpace(pico.Question) == "" {
		return pico, fmt.Errorf("criteria %s: pico_question is required", path)
	}
	return pico, nil
}

// readRecords loads a list of records from a .json, .yaml or .yml file.
func readRecords(path string) ([]types.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	var records []types.RawRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &records)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		return nil, fmt.Errorf("unsupported records file %s: use .json, .yaml or .yml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing records %s: %w", path, err)
	}
	return records, nil
}
