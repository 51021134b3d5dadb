package models

import (
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/descriptor"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// Fields are the tracked fields of equipment, in display order.
var Fields = descriptor.MustSet(interaction.EntityEquipment, 1,
	descriptor.Relation("client", "Cliente", func(e *Equipment) *domain.Ref {
		ref := e.ClientRef()
		return &ref
	}),
	descriptor.Text("brand", "Marca", func(e *Equipment) string { return e.Brand }),
	descriptor.Text("model", "Modelo", func(e *Equipment) string { return e.Model }),
	descriptor.OptionalText("serial_number", "Número de série", func(e *Equipment) *string { return e.SerialNumber }),
	descriptor.OptionalText("description", "Descrição", func(e *Equipment) *string { return e.Description }),
)
