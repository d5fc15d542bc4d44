package policy

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aristath/folio/internal/domain"
)

// Document is the YAML file accepted by ImportYAML.
//
//	policy:
//	  cash_min_pct: 2
//	  signal_sizing_mode: step
//	sector_targets:
//	  - {bucket: Technology, target_pct: 30, min_pct: 20, max_pct: 40}
//	tickers:
//	  AAPL: {sector: Technology, region: North America}
type Document struct {
	Snapshot `yaml:",inline"`
	Tickers  map[string]domain.TickerMeta `yaml:"tickers"`
}

// ImportYAML parses a policy document. Fields missing from the document keep
// their default values.
func ImportYAML(r io.Reader) (*Document, error) {
	doc := Document{Snapshot: DefaultSnapshot()}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse policy YAML: %w", err)
	}

	doc.Policy.Normalize()
	if doc.SectorTargets == nil {
		doc.SectorTargets = []Target{}
	}
	if doc.RegionTargets == nil {
		doc.RegionTargets = []Target{}
	}

	tickers := make(map[string]domain.TickerMeta, len(doc.Tickers))
	for ticker, meta := range doc.Tickers {
		tickers[domain.NormalizeTicker(ticker)] = meta
	}
	doc.Tickers = tickers

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return &doc, nil
}
