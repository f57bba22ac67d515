// Package catalog loads tariff catalogs and owns the currently active snapshot.
package catalog

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

type offerKey struct {
	energy  model.EnergyType
	segment model.Segment
}

// Snapshot is one complete, immutable catalog. Offers and regulated charges
// always come from the same document.
type Snapshot struct {
	LoadedAt  time.Time
	offers    map[offerKey][]model.ProviderOffer
	regulated *model.RegulatedCharges
	Version   string
	Source    string
	ID        uuid.UUID
}

// Parse validates and decodes a catalog document into a snapshot.
func Parse(data []byte, source string) (*Snapshot, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	regulated, err := doc.regulated()
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:        uuid.New(),
		Version:   doc.LastUpdated,
		Source:    source,
		LoadedAt:  time.Now(),
		offers:    doc.offers(),
		regulated: regulated,
	}, nil
}

// Offers returns a copy of the offers for an energy type and segment.
func (s *Snapshot) Offers(energy model.EnergyType, segment model.Segment) []model.ProviderOffer {
	if s == nil {
		return nil
	}
	return slices.Clone(s.offers[offerKey{energy, segment}])
}

// OfferCount is the number of offers for an energy type and segment.
func (s *Snapshot) OfferCount(energy model.EnergyType, segment model.Segment) int {
	if s == nil {
		return 0
	}
	return len(s.offers[offerKey{energy, segment}])
}

// RegulatedCharges returns the snapshot's regulated coefficients.
func (s *Snapshot) RegulatedCharges() *model.RegulatedCharges {
	if s == nil {
		return nil
	}
	return s.regulated
}

func (s *Snapshot) String() string {
	if s == nil {
		return "no catalog"
	}
	version := s.Version
	if version == "" {
		version = "unversioned"
	}
	return fmt.Sprintf("catalog %s from %s", version, s.Source)
}
