package build

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/rigforge/internal/domain/catalog"
)

func part(id string, price string, specs catalog.Specifications) *catalog.Product {
	return &catalog.Product{
		ID:    id,
		Name:  id,
		Price: decimal.RequireFromString(price),
		Specs: specs,
	}
}

// fullSelection fills every required slot with compatible parts.
func fullSelection() Selection {
	sel := NewSelection()
	sel.Select(SlotCPU, part("cpu", "300", catalog.Specifications{Socket: "AM5"}))
	sel.Select(SlotGPU, part("gpu", "600", catalog.Specifications{Power: 300}))
	sel.Select(SlotMotherboard, part("mb", "200", catalog.Specifications{Socket: "AM5"}))
	sel.Select(SlotRAM, part("ram", "100", catalog.Specifications{}))
	sel.Select(SlotStorage, part("ssd", "120", catalog.Specifications{}))
	sel.Select(SlotPSU, part("psu", "110", catalog.Specifications{Power: 750}))
	sel.Select(SlotCase, part("case", "90", catalog.Specifications{}))
	return sel
}

func TestSlots(t *testing.T) {
	all := Slots()
	assert.Len(t, all, 8)

	var required int
	for _, s := range all {
		if s.Required {
			required++
		}
	}
	assert.Equal(t, 7, required)

	info, ok := Lookup(SlotCooling)
	assert.True(t, ok)
	assert.False(t, info.Required)
	assert.Equal(t, "cooling", info.Category)

	assert.False(t, Slot("fan").Valid())

	all[0].Name = "mutated"
	info, _ = Lookup(SlotCPU)
	assert.Equal(t, "CPU", info.Name)
}

func TestTotalPrice(t *testing.T) {
	assert.True(t, TotalPrice(NewSelection()).IsZero())
	assert.True(t, TotalPrice(Selection{}).IsZero())

	sel := fullSelection()
	assert.Equal(t, "1520", TotalPrice(sel).String())

	sel.Select(SlotCooling, part("cooler", "49.99", catalog.Specifications{}))
	assert.Equal(t, "1569.99", TotalPrice(sel).String())

	sel.Select(SlotCooling, nil)
	assert.Equal(t, "1520", TotalPrice(sel).String())
}

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name   string
		cpu    catalog.Specifications
		board  catalog.Specifications
		gpu    catalog.Specifications
		psu    catalog.Specifications
		issues []string
	}{
		{
			name:   "compatible",
			cpu:    catalog.Specifications{Socket: "AM5"},
			board:  catalog.Specifications{Socket: "AM5"},
			gpu:    catalog.Specifications{Power: 300},
			psu:    catalog.Specifications{Power: 500},
			issues: []string{},
		},
		{
			name:   "socket mismatch",
			cpu:    catalog.Specifications{Socket: "LGA1700"},
			board:  catalog.Specifications{Socket: "AM5"},
			gpu:    catalog.Specifications{Power: 300},
			psu:    catalog.Specifications{Power: 750},
			issues: []string{IssueSocketMismatch},
		},
		{
			name:   "unpublished socket",
			cpu:    catalog.Specifications{},
			board:  catalog.Specifications{Socket: "AM5"},
			gpu:    catalog.Specifications{Power: 300},
			psu:    catalog.Specifications{Power: 750},
			issues: []string{IssueSocketMismatch},
		},
		{
			name:   "both sockets unpublished",
			cpu:    catalog.Specifications{},
			board:  catalog.Specifications{},
			gpu:    catalog.Specifications{Power: 300},
			psu:    catalog.Specifications{Power: 750},
			issues: []string{IssueSocketMismatch},
		},
		{
			name:   "psu one watt short",
			cpu:    catalog.Specifications{Socket: "AM5"},
			board:  catalog.Specifications{Socket: "AM5"},
			gpu:    catalog.Specifications{Power: 300},
			psu:    catalog.Specifications{Power: 499},
			issues: []string{IssueInsufficientPower},
		},
		{
			name:   "unpublished psu power",
			cpu:    catalog.Specifications{Socket: "AM5"},
			board:  catalog.Specifications{Socket: "AM5"},
			gpu:    catalog.Specifications{},
			psu:    catalog.Specifications{},
			issues: []string{IssueInsufficientPower},
		},
		{
			name:   "both rules fire in order",
			cpu:    catalog.Specifications{Socket: "AM4"},
			board:  catalog.Specifications{Socket: "AM5"},
			gpu:    catalog.Specifications{Power: 450},
			psu:    catalog.Specifications{Power: 550},
			issues: []string{IssueSocketMismatch, IssueInsufficientPower},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelection()
			sel.Select(SlotCPU, part("cpu", "1", tt.cpu))
			sel.Select(SlotMotherboard, part("mb", "1", tt.board))
			sel.Select(SlotGPU, part("gpu", "1", tt.gpu))
			sel.Select(SlotPSU, part("psu", "1", tt.psu))
			assert.Equal(t, tt.issues, CheckCompatibility(sel))
		})
	}
}

func TestCheckCompatibility_PartialSelection(t *testing.T) {
	sel := NewSelection()
	sel.Select(SlotCPU, part("cpu", "1", catalog.Specifications{Socket: "AM4"}))
	sel.Select(SlotGPU, part("gpu", "1", catalog.Specifications{Power: 900}))
	assert.Empty(t, CheckCompatibility(sel))
	assert.NotNil(t, CheckCompatibility(sel))
}

func TestCompleteness(t *testing.T) {
	sel := fullSelection()
	assert.True(t, IsComplete(sel))
	assert.True(t, CanSubmit(sel))
	assert.Empty(t, sel.Missing())

	sel.Clear(SlotRAM)
	assert.False(t, IsComplete(sel))
	assert.False(t, CanSubmit(sel))
	assert.Equal(t, []Slot{SlotRAM}, sel.Missing())

	assert.Len(t, NewSelection().Missing(), 7)
}

func TestCanSubmit_CoolingOptional(t *testing.T) {
	sel := fullSelection()
	assert.True(t, CanSubmit(sel))
	sel.Select(SlotCooling, part("cooler", "50", catalog.Specifications{}))
	assert.True(t, CanSubmit(sel))
}

func TestCanSubmit_IncompatibleComplete(t *testing.T) {
	sel := fullSelection()
	sel.Select(SlotPSU, part("psu", "60", catalog.Specifications{Power: 450}))
	assert.True(t, IsComplete(sel))
	assert.False(t, CanSubmit(sel))
}

func TestEvaluate(t *testing.T) {
	sel := fullSelection()
	sel.Select(SlotMotherboard, part("mb", "200", catalog.Specifications{Socket: "LGA1700"}))
	sel.Clear(SlotCase)

	ev := Evaluate(sel)
	assert.Equal(t, "1430", ev.Total.String())
	assert.Equal(t, []string{IssueSocketMismatch}, ev.Issues)
	assert.Equal(t, []Slot{SlotCase}, ev.Missing)
	assert.False(t, ev.Complete)
	assert.False(t, ev.Submittable)
}

func TestSelection_FilledOrder(t *testing.T) {
	sel := NewSelection()
	sel.Select(SlotCase, part("case", "1", catalog.Specifications{}))
	sel.Select(SlotCPU, part("cpu", "1", catalog.Specifications{}))
	sel.Select(SlotCooling, part("cooler", "1", catalog.Specifications{}))
	assert.Equal(t, []Slot{SlotCPU, SlotCase, SlotCooling}, sel.Filled())
}
