package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// SectorMap resolves the first character of an NTEE classification code
// to a sector label. Unmapped prefixes resolve to "Unknown".
type SectorMap map[string]string

// UnknownSector is the fallback label for unmapped or missing codes
const UnknownSector = "Unknown"

// LoadSectorMap reads the prefix-to-sector mapping from a JSON file
func LoadSectorMap(path string) (SectorMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sector map: %w", err)
	}

	var m SectorMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse sector map %s: %w", path, err)
	}

	if len(m) == 0 {
		return nil, fmt.Errorf("sector map %s is empty", path)
	}

	return m, nil
}

// Sector resolves an NTEE code to its sector label
func (m SectorMap) Sector(nteeCode string) string {
	code := strings.ToUpper(strings.TrimSpace(nteeCode))
	if code == "" {
		return UnknownSector
	}

	if sector, ok := m[code[:1]]; ok {
		return sector
	}
	return UnknownSector
}

// Classifier assigns sector labels and size buckets to organizations
type Classifier struct {
	sectors SectorMap
	logger  *slog.Logger
}

// NewClassifier creates a sector/size classifier
func NewClassifier(sectors SectorMap, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{sectors: sectors, logger: logger}
}

// Classify sets Sector and SizeBucket on every organization and returns
// the classified slice. The input slice is not modified.
func (c *Classifier) Classify(ctx context.Context, orgs []Organization) []Organization {
	classified := make([]Organization, len(orgs))
	sectorCounts := make(map[string]int)

	for i, org := range orgs {
		org.Sector = c.sectors.Sector(org.NTEECode)
		org.SizeBucket = SizeBucketFor(org.Income)
		classified[i] = org
		sectorCounts[org.Sector]++
	}

	c.logger.InfoContext(ctx, "classified organizations",
		slog.Int("orgs", len(classified)),
		slog.Int("sectors", len(sectorCounts)),
		slog.Int("unknown_sector", sectorCounts[UnknownSector]),
	)

	return classified
}
