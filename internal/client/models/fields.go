package models

import (
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/descriptor"
	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// ClientFields are the tracked fields of a client, in display order.
var ClientFields = descriptor.MustSet(interaction.EntityClient, 1,
	descriptor.Text("name", "Nome", func(c *Client) string { return c.Name }),
	descriptor.OptionalText("description", "Descrição", func(c *Client) *string { return c.Description }),
)

// ContactFields are the tracked fields of a client contact. Contact values
// are personal data and only shown to admins and managers.
var ContactFields = descriptor.MustSet(interaction.EntityClientContact, 1,
	descriptor.Text("kind", "Tipo", func(c *Contact) string { return string(c.Kind) }),
	descriptor.Contact("value", "Contacto", func(c *Contact) string { return c.Value }).
		WithVisibility(domain.RoleAdmin, domain.RoleManager),
)
