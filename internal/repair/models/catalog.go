package models

import "github.com/google/uuid"

// Seeded status ids. Migrations insert the same rows.
var (
	StatusPending     = uuid.MustParse("6f1c1a52-3f43-4c6e-9d0e-2a0f3b7c1001")
	StatusDiagnosing  = uuid.MustParse("6f1c1a52-3f43-4c6e-9d0e-2a0f3b7c1002")
	StatusRepairing   = uuid.MustParse("6f1c1a52-3f43-4c6e-9d0e-2a0f3b7c1003")
	StatusCompleted   = uuid.MustParse("6f1c1a52-3f43-4c6e-9d0e-2a0f3b7c1004")
	StatusDelivered   = uuid.MustParse("6f1c1a52-3f43-4c6e-9d0e-2a0f3b7c1005")
	AccessoryCharger  = uuid.MustParse("0b7e4d90-5a2b-4f8e-8c11-7d3a9e2f2001")
	AccessoryBattery  = uuid.MustParse("0b7e4d90-5a2b-4f8e-8c11-7d3a9e2f2002")
	AccessoryCase     = uuid.MustParse("0b7e4d90-5a2b-4f8e-8c11-7d3a9e2f2003")
	AccessoryUSBCable = uuid.MustParse("0b7e4d90-5a2b-4f8e-8c11-7d3a9e2f2004")
)

// DefaultStatuses is the seeded workflow, in order.
func DefaultStatuses() []Status {
	return []Status{
		{ID: StatusPending, Name: "Pendente", Position: 1},
		{ID: StatusDiagnosing, Name: "Em diagnóstico", Position: 2},
		{ID: StatusRepairing, Name: "Em reparação", Position: 3},
		{ID: StatusCompleted, Name: "Concluída", Position: 4},
		{ID: StatusDelivered, Name: "Entregue", Position: 5},
	}
}

// DefaultAccessories is the seeded accessory list.
func DefaultAccessories() []Accessory {
	return []Accessory{
		{ID: AccessoryCharger, Name: "Carregador"},
		{ID: AccessoryBattery, Name: "Bateria"},
		{ID: AccessoryCase, Name: "Capa"},
		{ID: AccessoryUSBCable, Name: "Cabo USB"},
	}
}
