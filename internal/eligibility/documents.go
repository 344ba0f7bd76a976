package eligibility

import "schemeflow/internal/scheme/models"

const (
	defaultDocumentCategory = "general"
	defaultDocumentIcon     = "document"
)

// SelectDocuments returns the scheme's document checklist tailored to inputs.
//
// With no inputs the full checklist is returned. Otherwise a document is kept when it
// has no applicability criteria, or when none of its criteria is contradicted by the
// inputs: a criterion on a field the user has not answered keeps the document.
// Every returned document has a non-empty category and icon.
func SelectDocuments(scheme *models.Scheme, inputs models.Inputs) []models.Document {
	docs := make([]models.Document, 0, len(scheme.Documents))
	for _, doc := range scheme.Documents {
		if len(inputs) > 0 && !applies(doc, inputs) {
			continue
		}
		docs = append(docs, withPresentationDefaults(doc))
	}
	return docs
}

func applies(doc models.Document, inputs models.Inputs) bool {
	for _, c := range doc.AppliesWhen {
		v, present := inputs.Lookup(c.Field)
		switch Evaluate(c, v, present) {
		case Unmet, Mismatch:
			return false
		}
	}
	return true
}

func withPresentationDefaults(doc models.Document) models.Document {
	if doc.Category == "" {
		doc.Category = defaultDocumentCategory
	}
	if doc.Icon == "" {
		doc.Icon = defaultDocumentIcon
	}
	return doc
}
