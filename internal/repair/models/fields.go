package models

import (
	"time"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/descriptor"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// Fields are the tracked fields of a repair, in display order. The
// estimate is commercial data and only shown to admins and managers.
var Fields = descriptor.MustSet(interaction.EntityRepair, 1,
	descriptor.Relation("equipment", "Equipamento", func(r *Repair) *domain.Ref {
		return &domain.Ref{ID: r.EquipmentID, Name: r.EquipmentName}
	}),
	descriptor.Relation("status", "Estado", func(r *Repair) *domain.Ref {
		return &domain.Ref{ID: r.StatusID, Name: r.StatusName}
	}),
	descriptor.RefList("accessories", "Acessórios", func(r *Repair) []domain.Ref { return r.AccessoryRefs() }),
	descriptor.StringList("reported_issues", "Problemas reportados", func(r *Repair) []string { return r.ReportedIssues }),
	descriptor.OptionalText("diagnosis", "Diagnóstico", func(r *Repair) *string { return r.Diagnosis }),
	descriptor.Date("entry_date", "Data de entrada", func(r *Repair) time.Time { return r.EntryDate }),
	descriptor.Number("estimated_cost", "Orçamento estimado", func(r *Repair) *float64 { return r.EstimatedCost }).
		WithVisibility(domain.RoleAdmin, domain.RoleManager),
	descriptor.Bool("urgent", "Urgente", func(r *Repair) bool { return r.Urgent }),
)
