package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentMetadata_RoundTrip(t *testing.T) {
	m := IntentMetadata{UserID: "7", PlanID: "2", OrganizationID: "42"}

	raw := m.ToMap()
	assert.Equal(t, "7", raw["userId"])
	assert.Equal(t, "2", raw["planId"])
	assert.Equal(t, "42", raw["organizationId"])

	back := MetadataFromMap(raw)
	assert.Equal(t, m, back)
}

func TestIntentMetadata_OmitsEmptyOrg(t *testing.T) {
	m := IntentMetadata{UserID: "7", PlanID: "2"}

	raw := m.ToMap()
	_, present := raw["organizationId"]
	assert.False(t, present)
}

func TestIntentMetadata_Incomplete(t *testing.T) {
	assert.False(t, IntentMetadata{UserID: "7", PlanID: "2"}.Incomplete())
	assert.True(t, IntentMetadata{PlanID: "2"}.Incomplete())
	assert.True(t, IntentMetadata{UserID: "7"}.Incomplete())
	assert.True(t, IntentMetadata{OrganizationID: "42"}.Incomplete())
}

func TestMetadataFromMap_IgnoresUnknownKeys(t *testing.T) {
	m := MetadataFromMap(map[string]string{
		"userId":   "7",
		"planId":   "2",
		"campaign": "spring",
	})
	assert.Equal(t, IntentMetadata{UserID: "7", PlanID: "2"}, m)
}
