package handler

import (
	"schemeflow/internal/eligibility"
	"schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
)

type CriterionResponse struct {
	Field       string `json:"field"`
	Operator    string `json:"operator"`
	Description string `json:"description,omitempty"`
}

type ResultResponse struct {
	SchemeID         string              `json:"schemeId"`
	Eligible         bool                `json:"eligible"`
	MetCriteria      []CriterionResponse `json:"metCriteria"`
	UnmetCriteria    []CriterionResponse `json:"unmetCriteria"`
	MismatchedFields []string            `json:"mismatchedFields,omitempty"`
	Explanation      string              `json:"explanation"`
}

type DocumentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Icon        string `json:"icon"`
	Required    bool   `json:"required"`
}

type DocumentsResponse struct {
	SchemeID  string             `json:"schemeId"`
	Documents []DocumentResponse `json:"documents"`
}

func toCriteria(criteria []models.Criterion, lang string) []CriterionResponse {
	out := make([]CriterionResponse, 0, len(criteria))
	for _, c := range criteria {
		out = append(out, CriterionResponse{
			Field:       c.Field,
			Operator:    c.Operator.String(),
			Description: c.Description.In(lang),
		})
	}
	return out
}

func toResultResponse(result *eligibility.Result, lang string) ResultResponse {
	return ResultResponse{
		SchemeID:         string(result.SchemeID),
		Eligible:         result.Eligible,
		MetCriteria:      toCriteria(result.MetCriteria, lang),
		UnmetCriteria:    toCriteria(result.UnmetCriteria, lang),
		MismatchedFields: result.MismatchedFields,
		Explanation:      eligibility.GenerateExplanation(result, lang),
	}
}

func toDocumentsResponse(schemeID id.SchemeID, docs []models.Document, lang string) DocumentsResponse {
	out := DocumentsResponse{SchemeID: string(schemeID), Documents: make([]DocumentResponse, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, DocumentResponse{
			ID:          d.ID,
			Name:        d.Name.In(lang),
			Description: d.Description.In(lang),
			Category:    d.Category,
			Icon:        d.Icon,
			Required:    d.Required,
		})
	}
	return out
}
