package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemeflow/internal/scheme/models"
)

func documentScheme() *models.Scheme {
	return &models.Scheme{
		ID: "farmer-income-support",
		Documents: []models.Document{
			{ID: "aadhaar", Category: "identity", Icon: "id-card", Required: true},
			{ID: "land-record", Category: "property", AppliesWhen: []models.Criterion{
				{Field: "owns_land", Operator: models.OpEquals, Value: models.Text("yes")},
			}},
			{ID: "income-certificate", AppliesWhen: []models.Criterion{
				{Field: "income", Operator: models.OpGreaterThan, Value: models.Number(0)},
			}},
		},
	}
}

func TestSelectDocuments(t *testing.T) {
	t.Run("no inputs returns the full checklist", func(t *testing.T) {
		docs := SelectDocuments(documentScheme(), nil)
		assert.Equal(t, []string{"aadhaar", "land-record", "income-certificate"}, documentIDs(docs))
	})

	t.Run("contradicted applicability drops the document", func(t *testing.T) {
		docs := SelectDocuments(documentScheme(), models.Inputs{
			"owns_land": models.Select("no"),
			"income":    models.Number(50000),
		})
		assert.Equal(t, []string{"aadhaar", "income-certificate"}, documentIDs(docs))
	})

	t.Run("unanswered field keeps the document", func(t *testing.T) {
		docs := SelectDocuments(documentScheme(), models.Inputs{"income": models.Number(0)})
		assert.Equal(t, []string{"aadhaar", "land-record"}, documentIDs(docs))
	})

	t.Run("mismatched type drops the document", func(t *testing.T) {
		docs := SelectDocuments(documentScheme(), models.Inputs{"income": models.Text("a lot")})
		assert.Equal(t, []string{"aadhaar", "land-record"}, documentIDs(docs))
	})

	t.Run("fills presentation defaults", func(t *testing.T) {
		docs := SelectDocuments(documentScheme(), nil)
		require.Len(t, docs, 3)
		assert.Equal(t, "id-card", docs[0].Icon)
		assert.Equal(t, "property", docs[1].Category)
		assert.Equal(t, "document", docs[1].Icon)
		assert.Equal(t, "general", docs[2].Category)
	})

	t.Run("does not mutate the scheme", func(t *testing.T) {
		scheme := documentScheme()
		SelectDocuments(scheme, nil)
		assert.Empty(t, scheme.Documents[2].Category)
	})
}

func documentIDs(docs []models.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
