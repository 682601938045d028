package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type auditColumns struct {
	CreatedBy string `db:"created_by"`
	Ignored   string `db:"-"`
}

type rowWithEmbedded struct {
	auditColumns
	ID       string  `db:"id"`
	Quantity int     `db:"quantity"`
	Vehicle  *string `db:"vehicle_id"`
	Note     string
}

func TestExtractDBColumns_IncludesEmbedded(t *testing.T) {
	cols := ExtractDBColumns[rowWithEmbedded]()

	assert.ElementsMatch(t, []string{"id", "quantity", "vehicle_id", "created_by"}, cols)
}

func TestStructToMap(t *testing.T) {
	vehicle := "VAN-1"
	row := rowWithEmbedded{
		auditColumns: auditColumns{CreatedBy: "u1", Ignored: "x"},
		ID:           "r1",
		Quantity:     3,
		Vehicle:      &vehicle,
		Note:         "not persisted",
	}

	m := StructToMap(&row)

	assert.Len(t, m, 4)
	assert.Equal(t, "r1", m["id"])
	assert.Equal(t, 3, m["quantity"])
	assert.Equal(t, &vehicle, m["vehicle_id"])
	assert.Equal(t, "u1", m["created_by"])
	assert.NotContains(t, m, "Note")
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))

	var nilRow *rowWithEmbedded
	assert.Nil(t, StructToMap(nilRow))
}
