package source

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"podrecon/internal/domain"
)

type parcelFile struct {
	Parcels []domain.ParcelRecord `yaml:"parcels"`
}

// LoadParcels reads a YAML parcel fixture:
//
//	parcels:
//	  - id: P-1001
//	    lr_number: "503021"
//	    status: In Transit
//
// Every parcel needs an id and ids must be unique.
func LoadParcels(path string) ([]domain.ParcelRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parcels: %w", err)
	}
	return ParseParcels(data)
}

// ParseParcels decodes a YAML parcel fixture.
func ParseParcels(data []byte) ([]domain.ParcelRecord, error) {
	var f parcelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding parcels: %w", err)
	}
	seen := make(map[string]bool, len(f.Parcels))
	for i := range f.Parcels {
		p := &f.Parcels[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("parcel %d: %w", i, domain.ErrInvalidParcel)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("parcel %s: %w", p.ID, domain.ErrDuplicateParcel)
		}
		seen[p.ID] = true
	}
	return f.Parcels, nil
}
