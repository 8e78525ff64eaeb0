package lead

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/leadgenbot/internal/catalog"
)

func TestNewRecord(t *testing.T) {
	at := time.Date(2026, 3, 1, 15, 4, 5, 0, time.FixedZone("X", 3600))
	o := Order{Geo: "italy", LeadType: catalog.Hot, Quantity: "300", Contact: "@buyer"}
	from := Submitter{Name: "Ann", Username: "ann", ChatID: 9}

	r1 := NewRecord(o, from, at)
	r2 := NewRecord(o, from, at)

	_, err := uuid.Parse(r1.ID)
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Equal(t, o, r1.Order)
	assert.Equal(t, from, r1.Submitter)
	assert.Equal(t, time.UTC, r1.SubmittedAt.Location())
	assert.True(t, r1.SubmittedAt.Equal(at))
}
