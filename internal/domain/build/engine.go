package build

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/rigforge/internal/domain/catalog"
)

// PowerHeadroomWatts is the PSU capacity reserved for everything except the
// GPU when checking power sufficiency.
const PowerHeadroomWatts = 200

// Compatibility issue messages.
const (
	IssueSocketMismatch    = "CPU and Motherboard socket mismatch"
	IssueInsufficientPower = "Power supply may be insufficient for selected GPU"
)

// Slot names a component position in a custom build.
type Slot string

const (
	SlotCPU         Slot = "cpu"
	SlotGPU         Slot = "gpu"
	SlotMotherboard Slot = "motherboard"
	SlotRAM         Slot = "ram"
	SlotStorage     Slot = "storage"
	SlotPSU         Slot = "psu"
	SlotCase        Slot = "case"
	SlotCooling     Slot = "cooling"
)

// SlotInfo describes a configurator slot.
type SlotInfo struct {
	Slot     Slot
	Name     string
	Required bool
	// Category is the catalog category slug offering parts for the slot.
	Category string
}

var slots = []SlotInfo{
	{Slot: SlotCPU, Name: "CPU", Required: true, Category: "cpu"},
	{Slot: SlotGPU, Name: "Graphics Card", Required: true, Category: "gpu"},
	{Slot: SlotMotherboard, Name: "Motherboard", Required: true, Category: "motherboard"},
	{Slot: SlotRAM, Name: "Memory (RAM)", Required: true, Category: "memory"},
	{Slot: SlotStorage, Name: "Storage", Required: true, Category: "storage"},
	{Slot: SlotPSU, Name: "Power Supply", Required: true, Category: "power-supply"},
	{Slot: SlotCase, Name: "PC Case", Required: true, Category: "case"},
	{Slot: SlotCooling, Name: "CPU Cooler", Required: false, Category: "cooling"},
}

// Slots returns every slot in configurator order.
func Slots() []SlotInfo {
	out := make([]SlotInfo, len(slots))
	copy(out, slots)
	return out
}

// Lookup returns the slot description for s.
func Lookup(s Slot) (SlotInfo, bool) {
	for _, info := range slots {
		if info.Slot == s {
			return info, true
		}
	}
	return SlotInfo{}, false
}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	_, ok := Lookup(s)
	return ok
}

// Selection is the transient, client-held state of a custom build.
type Selection struct {
	parts map[Slot]*catalog.Product
}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{parts: make(map[Slot]*catalog.Product, len(slots))}
}

// Select puts p into slot s, replacing any earlier choice. A nil product
// clears the slot.
func (s *Selection) Select(slot Slot, p *catalog.Product) {
	if s.parts == nil {
		s.parts = make(map[Slot]*catalog.Product, len(slots))
	}
	if p == nil {
		delete(s.parts, slot)
		return
	}
	s.parts[slot] = p
}

// Clear empties slot s.
func (s *Selection) Clear(slot Slot) {
	delete(s.parts, slot)
}

// Get returns the product in slot s, or nil.
func (s Selection) Get(slot Slot) *catalog.Product {
	return s.parts[slot]
}

// Filled returns the occupied slots in configurator order.
func (s Selection) Filled() []Slot {
	var out []Slot
	for _, info := range slots {
		if s.parts[info.Slot] != nil {
			out = append(out, info.Slot)
		}
	}
	return out
}

// Missing returns the required slots that are still empty.
func (s Selection) Missing() []Slot {
	var out []Slot
	for _, info := range slots {
		if info.Required && s.parts[info.Slot] == nil {
			out = append(out, info.Slot)
		}
	}
	return out
}

// TotalPrice sums the prices of all selected parts.
func TotalPrice(sel Selection) decimal.Decimal {
	total := decimal.Zero
	for _, slot := range sel.Filled() {
		total = total.Add(sel.parts[slot].Price)
	}
	return total
}

// CheckCompatibility returns every rule violation in rule order. Rules are
// independent of each other.
func CheckCompatibility(sel Selection) []string {
	issues := []string{}

	cpu, board := sel.Get(SlotCPU), sel.Get(SlotMotherboard)
	if cpu != nil && board != nil {
		// An unpublished socket never matches.
		if cpu.Specs.Socket == "" || board.Specs.Socket == "" || cpu.Specs.Socket != board.Specs.Socket {
			issues = append(issues, IssueSocketMismatch)
		}
	}

	psu, gpu := sel.Get(SlotPSU), sel.Get(SlotGPU)
	if psu != nil && gpu != nil {
		if psu.Specs.Power < gpu.Specs.Power+PowerHeadroomWatts {
			issues = append(issues, IssueInsufficientPower)
		}
	}

	return issues
}

// IsComplete reports whether every required slot is filled.
func IsComplete(sel Selection) bool {
	return len(sel.Missing()) == 0
}

// CanSubmit reports whether sel may be turned into cart entries.
func CanSubmit(sel Selection) bool {
	return IsComplete(sel) && len(CheckCompatibility(sel)) == 0
}

// Evaluation is the engine's verdict on a selection.
type Evaluation struct {
	Total       decimal.Decimal
	Issues      []string
	Missing     []Slot
	Complete    bool
	Submittable bool
}

// Evaluate runs every engine function over sel.
func Evaluate(sel Selection) Evaluation {
	issues := CheckCompatibility(sel)
	missing := sel.Missing()
	return Evaluation{
		Total:       TotalPrice(sel),
		Issues:      issues,
		Missing:     missing,
		Complete:    len(missing) == 0,
		Submittable: len(missing) == 0 && len(issues) == 0,
	}
}
