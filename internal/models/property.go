package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PropertyType string

const (
	PropertyResidential PropertyType = "residential"
	PropertyApartment   PropertyType = "apartment"
	PropertyCommercial  PropertyType = "commercial"
	PropertyLand        PropertyType = "land"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyResidential, PropertyApartment, PropertyCommercial, PropertyLand:
		return true
	default:
		return false
	}
}

type SaleOrRent string

const (
	ForSale SaleOrRent = "sale"
	ForRent SaleOrRent = "rent"
)

func (s SaleOrRent) Valid() bool {
	return s == ForSale || s == ForRent
}

type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "available"
	PropertySold      PropertyStatus = "sold"
	PropertyRented    PropertyStatus = "rented"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyAvailable, PropertySold, PropertyRented:
		return true
	default:
		return false
	}
}

type Property struct {
	ID            uuid.UUID
	Title         string
	Description   string
	City          string
	Address       string
	Bedrooms      int
	Bathrooms     int
	Size          int
	Price         decimal.Decimal
	PublishedDate time.Time
	Featured      bool
	Latitude      float64
	Longitude     float64
	Floor         *int // nil for properties without floors (land, houses)
	Type          PropertyType
	Status        PropertyStatus
	SaleOrRent    SaleOrRent
	AgentID       uuid.UUID

	// File names of images relative to property uploads folder
	Images []string
}

// Agent responsible for the property, as shown to site visitors
type AgentInfo struct {
	ID          uuid.UUID
	Name        string
	Email       string
	PhoneNumber string
	AvatarURL   *string
}

type PropertyDetails struct {
	Property
	Agent AgentInfo
}
