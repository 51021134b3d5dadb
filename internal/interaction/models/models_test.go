package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

func boolPtr(b bool) *bool { return &b }

func TestFieldChangeJSONPresence(t *testing.T) {
	tests := []struct {
		name   string
		change FieldChange
		want   string
	}{
		{
			name:   "create entry with null after",
			change: FieldChange{Field: "Descrição", After: nil, HasAfter: true},
			want:   `{"field":"Descrição","after":null}`,
		},
		{
			name:   "delete entry",
			change: FieldChange{Field: "Nome", Before: "Acme Inc", HasBefore: true},
			want:   `{"field":"Nome","before":"Acme Inc"}`,
		},
		{
			name: "update entry keeps both sides",
			change: FieldChange{
				Field: "Descrição", Before: nil, HasBefore: true, After: nil, HasAfter: true,
				Changed: boolPtr(false),
			},
			want: `{"field":"Descrição","before":null,"after":null,"changed":false}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.change)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))

			var back FieldChange
			require.NoError(t, json.Unmarshal(got, &back))
			assert.Equal(t, tt.change, back)
		})
	}
}

func TestFieldChangeRejectsUnserializableValue(t *testing.T) {
	_, err := json.Marshal(FieldChange{Field: "x", After: func() {}, HasAfter: true})
	require.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	rec := Record{
		ID:         7,
		EntityType: EntityRepair,
		EntityID:   uuid.New(),
		Kind:       KindUpdated,
		Actor:      &Actor{ID: uuid.New(), Username: "ana", Role: domain.RoleManager},
		Changes: []FieldChange{
			{
				Field:  "Estado",
				Before: map[string]any{"id": "a", "name": "Pendente"}, HasBefore: true,
				After: map[string]any{"id": "b", "name": "Concluída"}, HasAfter: true,
				Changed: boolPtr(true),
			},
			{
				Field:  "Acessórios",
				Before: []any{}, HasBefore: true,
				After: []any{map[string]any{"id": "c", "name": "Capa"}}, HasAfter: true,
				Changed: boolPtr(true),
			},
			{
				Field:  "Orçamento estimado",
				Before: 12.5, HasBefore: true,
				After: 12.5, HasAfter: true,
				Changed: boolPtr(false),
			},
		},
		SchemaVersion: 2,
		PrevHash:      []byte{1, 2, 3},
		Hash:          []byte{4, 5, 6},
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 123000, time.UTC),
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}

func TestRecordCloneIsIndependent(t *testing.T) {
	rec := Record{
		Actor:   &Actor{Username: "ana"},
		Changes: []FieldChange{{Field: "Estado", After: map[string]any{"name": "Pendente"}, HasAfter: true}},
	}
	clone := rec.Clone()
	clone.Actor.Username = "rui"
	clone.Changes[0].After.(map[string]any)["name"] = "Entregue"

	assert.Equal(t, "ana", rec.Actor.Username)
	assert.Equal(t, "Pendente", rec.Changes[0].After.(map[string]any)["name"])
}

func TestTypeStringAndPaths(t *testing.T) {
	assert.Equal(t, "CLIENT_CREATED", TypeString(EntityClient, KindCreated))
	assert.Equal(t, "CLIENT_CONTACT_DELETED", TypeString(EntityClientContact, KindDeleted))

	assert.Equal(t, "client-contacts", EntityClientContact.PathSegment())
	for _, et := range EntityTypes() {
		assert.True(t, et.IsValid())
		assert.NotEmpty(t, et.PathSegment())
	}
}

func TestNewEntry(t *testing.T) {
	actorID := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	withActor := NewEntry(Record{
		ID: 3, EntityType: EntityClient, Kind: KindCreated, CreatedAt: created,
		Actor: &Actor{ID: actorID, Username: "ana", Role: domain.RoleAdmin},
	})
	assert.Equal(t, "CLIENT_CREATED", withActor.Type)
	require.NotNil(t, withActor.ResponsibleUser)
	assert.Equal(t, "ana", withActor.ResponsibleUser.Username)
	assert.NotNil(t, withActor.Changes)

	data, err := json.Marshal(NewEntry(Record{ID: 4, EntityType: EntityClient, Kind: KindDeleted}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"responsible_user":null`)
	assert.Contains(t, string(data), `"created_at_datetime"`)
}
