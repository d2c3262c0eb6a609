package domain

import "time"

// Represents a single item in a courier's daily batch.
// A Package has a session-local identifier, a tracking number and a COD flag.
type Package struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"trackingNumber"`
	IsCOD          bool   `json:"isCOD"`
}

// A Package that was scanned into the courier's load for the day.
type ScannedPackage struct {
	Package
	ScanTime time.Time `json:"scanTime"`
	Status   string    `json:"status"`
}

// A Package handed over to its recipient.
type DeliveredPackage struct {
	Package
	RecipientName string    `json:"recipientName"`
	ProofPhoto    string    `json:"proofPhoto"`
	DeliveredAt   time.Time `json:"deliveredAt"`
}

// A Package that could not be delivered.
// It stays outstanding until ReturnedAt is set by a warehouse return.
type PendingPackage struct {
	Package
	Reason      string     `json:"reason"`
	LeaderName  string     `json:"leaderName,omitempty"`
	ReturnPhoto string     `json:"returnPhoto,omitempty"`
	ReturnedAt  *time.Time `json:"returnedAt,omitempty"`
}

// Returned reports whether the package has been handed back to the warehouse.
func (p PendingPackage) Returned() bool { return p.ReturnedAt != nil }

// The operator-entered counts for the day, saved alongside the generated packages.
type DailyInput struct {
	TotalPackages  int       `json:"totalPackages"`
	CODPackages    int       `json:"codPackages"`
	NonCODPackages int       `json:"nonCodPackages"`
	SavedAt        time.Time `json:"savedAt"`
}
