package gdpr

import (
	"encoding/json"
	"errors"
	"time"
)

// VendorInfo is one vendor's declared capabilities from the Global Vendor List.
type VendorInfo struct {
	ID                  uint16  `json:"id"`
	Name                string  `json:"name"`
	Purposes            []uint8 `json:"purposes"`
	LegitimateInterests []uint8 `json:"legIntPurposes"`
	Features            []uint8 `json:"features"`
	SpecialFeatures     []uint8 `json:"specialFeatures"`
}

// DeclaresPurpose reports whether the vendor processes the given purpose
// under either the consent or the legitimate-interest legal basis.
func (v VendorInfo) DeclaresPurpose(purposeID uint8) bool {
	for _, p := range v.Purposes {
		if p == purposeID {
			return true
		}
	}
	for _, p := range v.LegitimateInterests {
		if p == purposeID {
			return true
		}
	}
	return false
}

// VendorList is one immutable snapshot of the IAB Global Vendor List.
//
// Snapshots are shared between goroutines and must never be mutated after
// publication; the cache replaces them wholesale.
type VendorList struct {
	Vendors     map[uint16]VendorInfo
	LastUpdated time.Time
	Version     uint16
}

// NewVendorList returns an empty snapshot.
func NewVendorList() *VendorList {
	return &VendorList{
		Vendors:     make(map[uint16]VendorInfo),
		LastUpdated: time.Now(),
	}
}

// IsValidVendor reports whether the vendor id exists in the list.
func (l *VendorList) IsValidVendor(vendorID uint16) bool {
	_, ok := l.Vendors[vendorID]
	return ok
}

// Vendor returns the vendor's declared capabilities.
func (l *VendorList) Vendor(vendorID uint16) (VendorInfo, bool) {
	vendor, ok := l.Vendors[vendorID]
	return vendor, ok
}

// VendorDeclaresPurpose reports whether a known vendor declares the purpose.
// Unknown vendors declare nothing.
func (l *VendorList) VendorDeclaresPurpose(vendorID uint16, purposeID uint8) bool {
	vendor, ok := l.Vendors[vendorID]
	if !ok {
		return false
	}
	return vendor.DeclaresPurpose(purposeID)
}

// vendorListContract matches the JSON shape of the published Global Vendor
// List (https://vendor-list.consensu.org/v2/vendor-list.json).
type vendorListContract struct {
	Version uint16                `json:"vendorListVersion"`
	Vendors map[string]VendorInfo `json:"vendors"`
}

// ParseVendorList interprets and validates Global Vendor List JSON, returning
// a snapshot safe to share between goroutines.
func ParseVendorList(data []byte) (*VendorList, error) {
	var contract vendorListContract
	if err := json.Unmarshal(data, &contract); err != nil {
		return nil, err
	}

	if contract.Version == 0 {
		return nil, errors.New("vendorListVersion was 0 or undefined. Versions should start at 1")
	}

	list := &VendorList{
		Vendors:     make(map[uint16]VendorInfo, len(contract.Vendors)),
		LastUpdated: time.Now(),
		Version:     contract.Version,
	}
	for _, vendor := range contract.Vendors {
		list.Vendors[vendor.ID] = vendor
	}
	return list, nil
}
