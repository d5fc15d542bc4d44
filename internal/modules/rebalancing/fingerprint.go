package rebalancing

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/folio/internal/domain"
)

var planNamespace = uuid.MustParse("0b7c9f4e-5d2a-4c61-9a8e-3f1d2e6b7a90")

// Fingerprint returns a stable id for a plan's inputs. Positions are ordered
// by ticker and map keys are sorted before encoding. Signal order is kept:
// it decides legacy trade order and which HOLD tickers fund a cash shortfall.
func Fingerprint(in Inputs) (string, error) {
	canonical := in
	canonical.Positions = append([]domain.Position(nil), in.Positions...)
	sort.SliceStable(canonical.Positions, func(i, j int) bool {
		return canonical.Positions[i].Ticker < canonical.Positions[j].Ticker
	})

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(canonical); err != nil {
		return "", fmt.Errorf("failed to encode plan inputs: %w", err)
	}
	return uuid.NewSHA1(planNamespace, buf.Bytes()).String(), nil
}
