package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Category groups inventory items by crop family.
type Category string

const (
	CategoryGrains     Category = "Grains"
	CategoryVegetables Category = "Vegetables"
	CategoryFruits     Category = "Fruits"
	CategoryLegumes    Category = "Legumes"
	CategoryOthers     Category = "Others"
)

// Unit is the measure an item quantity is expressed in.
type Unit string

const (
	UnitKg       Unit = "kg"
	UnitTons     Unit = "tons"
	UnitQuintals Unit = "quintals"
	UnitUnits    Unit = "units"
)

// Status is the lifecycle stage of a crop.
type Status string

const (
	StatusGrowing   Status = "growing"
	StatusHarvested Status = "harvested"
	StatusSold      Status = "sold"
)

// unitFactors converts a quantity to kilograms. Units are counted at face value.
var unitFactors = map[Unit]float64{
	UnitKg:       1,
	UnitQuintals: 100,
	UnitTons:     1000,
	UnitUnits:    1,
}

// BaseQuantity returns q expressed in the summary base unit.
// Unknown units fall back to a factor of 1.
func BaseQuantity(q float64, u Unit) float64 {
	if f, ok := unitFactors[u]; ok {
		return q * f
	}
	return q
}

// InventoryItem is a single crop lot owned by one farmer.
type InventoryItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Quantity    float64   `json:"quantity"`
	Unit        Unit      `json:"unit"`
	PlantedDate Date      `json:"plantedDate"`
	HarvestDate *Date     `json:"harvestDate,omitempty"`
	Status      Status    `json:"status"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ItemInput carries the client-controlled fields of a new item.
// It has no owner field; the owner is always the acting identity.
type ItemInput struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Category    Category `json:"category" validate:"omitempty,oneof=Grains Vegetables Fruits Legumes Others"`
	Quantity    *float64 `json:"quantity" validate:"required,gte=0"`
	Unit        Unit     `json:"unit" validate:"omitempty,oneof=kg tons quintals units"`
	PlantedDate *Date    `json:"plantedDate" validate:"required"`
	HarvestDate *Date    `json:"harvestDate"`
	Status      Status   `json:"status" validate:"omitempty,oneof=growing harvested sold"`
}

// ApplyDefaults fills in the category, unit and status left empty by the client.
func (in *ItemInput) ApplyDefaults() {
	if in.Category == "" {
		in.Category = CategoryOthers
	}
	if in.Unit == "" {
		in.Unit = UnitKg
	}
	if in.Status == "" {
		in.Status = StatusGrowing
	}
}

// ItemPatch is a partial update. Nil fields are left untouched. On the wire an
// absent "harvestDate" keeps the stored date and an explicit null clears it,
// which ClearHarvestDate records.
type ItemPatch struct {
	Name             *string   `json:"name,omitempty" validate:"omitnil,min=1,max=120"`
	Category         *Category `json:"category,omitempty" validate:"omitnil,oneof=Grains Vegetables Fruits Legumes Others"`
	Quantity         *float64  `json:"quantity,omitempty" validate:"omitnil,gte=0"`
	Unit             *Unit     `json:"unit,omitempty" validate:"omitnil,oneof=kg tons quintals units"`
	PlantedDate      *Date     `json:"plantedDate,omitempty" validate:"omitnil"`
	HarvestDate      *Date     `json:"harvestDate,omitempty"`
	Status           *Status   `json:"status,omitempty" validate:"omitnil,oneof=growing harvested sold"`
	ClearHarvestDate bool      `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ItemPatch) UnmarshalJSON(b []byte) error {
	type plain ItemPatch
	var raw struct {
		plain
		HarvestDate json.RawMessage `json:"harvestDate"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*p = ItemPatch(raw.plain)
	switch {
	case len(raw.HarvestDate) == 0:
	case bytes.Equal(raw.HarvestDate, []byte("null")):
		p.ClearHarvestDate = true
	default:
		var d Date
		if err := json.Unmarshal(raw.HarvestDate, &d); err != nil {
			return err
		}
		p.HarvestDate = &d
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p ItemPatch) MarshalJSON() ([]byte, error) {
	type plain ItemPatch
	if !p.ClearHarvestDate {
		return json.Marshal(plain(p))
	}
	return json.Marshal(struct {
		plain
		HarvestDate *Date `json:"harvestDate"`
	}{plain: plain(p)})
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Quantity == nil && p.Unit == nil &&
		p.PlantedDate == nil && p.HarvestDate == nil && p.Status == nil && !p.ClearHarvestDate
}

// Apply copies the set fields of p onto item.
func (p ItemPatch) Apply(item *InventoryItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		item.Unit = *p.Unit
	}
	if p.PlantedDate != nil {
		item.PlantedDate = *p.PlantedDate
	}
	switch {
	case p.ClearHarvestDate:
		item.HarvestDate = nil
	case p.HarvestDate != nil:
		d := *p.HarvestDate
		item.HarvestDate = &d
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
}

// Summary is the dashboard aggregate over one owner's inventory.
type Summary struct {
	TotalCrops    int     `json:"totalCrops"`
	TotalQuantity float64 `json:"totalQuantity"`
}

// Summarize computes the aggregate for items in memory.
func Summarize(items []InventoryItem) Summary {
	var s Summary
	for _, it := range items {
		s.TotalCrops++
		s.TotalQuantity += BaseQuantity(it.Quantity, it.Unit)
	}
	return s
}
