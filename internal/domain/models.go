// Package domain defines the records captured by the funnel (onboarding
// submissions and contact messages) and the value types exchanged with the
// chat relay. The persisted types are mapped with GORM; JSON names follow the
// public API (camelCase).
package domain

import "time"

// OnboardingSubmission is a building-details form record used to seed a
// compliance assessment. Records are append-only: ID and SubmittedAt are
// assigned by the store at creation and never change.
//
// Fields:
//   - ID: UUIDv4 primary key (char(36)).
//   - Address: free-text building address.
//   - BuildingType, YearBuilt, HeightBand: enumerated tags from the form.
//   - NumberOfUnits: dwellings in the building (>= 1).
//   - HasLifts / HasCommercialUnits: building features, default false.
//   - Email: contact address of the duty holder.
//   - SubmittedAt: UTC creation time.
type OnboardingSubmission struct {
	ID                 string    `json:"id"                 gorm:"type:char(36);primaryKey"`
	Address            string    `json:"address"            gorm:"type:text;not null"`
	BuildingType       string    `json:"buildingType"       gorm:"type:varchar(64);not null"`
	YearBuilt          string    `json:"yearBuilt"          gorm:"type:varchar(32);not null"`
	HeightBand         string    `json:"heightBand"         gorm:"type:varchar(32);not null"`
	NumberOfUnits      int       `json:"numberOfUnits"      gorm:"not null;check:number_of_units >= 1"`
	HasLifts           bool      `json:"hasLifts"           gorm:"not null;default:false"`
	HasCommercialUnits bool      `json:"hasCommercialUnits" gorm:"not null;default:false"`
	Email              string    `json:"email"              gorm:"type:varchar(320);not null"`
	SubmittedAt        time.Time `json:"submittedAt"        gorm:"not null;index"`
}

// TableName returns the database table name for OnboardingSubmission.
func (OnboardingSubmission) TableName() string { return "onboarding_submissions" }

// ContactMessage is a message left through the contact form. Same
// append-only lifecycle as OnboardingSubmission.
type ContactMessage struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null"`
	Email     string    `json:"email"     gorm:"type:varchar(320);not null"`
	Message   string    `json:"message"   gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
}

// TableName returns the database table name for ContactMessage.
func (ContactMessage) TableName() string { return "contact_messages" }
