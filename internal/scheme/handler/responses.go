package handler

import "schemeflow/internal/scheme/models"

type SchemeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	TotalSteps  int    `json:"totalSteps"`
}

type SchemeListResponse struct {
	Schemes []SchemeSummary `json:"schemes"`
}

type CriterionResponse struct {
	Field       string `json:"field"`
	Operator    string `json:"operator"`
	Description string `json:"description,omitempty"`
}

type DocumentResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Required bool   `json:"required"`
}

type SchemeDetailResponse struct {
	SchemeSummary
	Language  string              `json:"language"`
	Criteria  []CriterionResponse `json:"criteria"`
	Documents []DocumentResponse  `json:"documents"`
}

func toSummary(s *models.Scheme, lang string) SchemeSummary {
	return SchemeSummary{
		ID:          string(s.ID),
		Name:        s.Name.In(lang),
		Description: s.Description.In(lang),
		Category:    s.Category,
		TotalSteps:  s.TotalSteps(),
	}
}

func toListResponse(schemes []*models.Scheme, lang string) SchemeListResponse {
	out := SchemeListResponse{Schemes: make([]SchemeSummary, 0, len(schemes))}
	for _, s := range schemes {
		out.Schemes = append(out.Schemes, toSummary(s, lang))
	}
	return out
}

func toDetailResponse(s *models.Scheme, lang string) SchemeDetailResponse {
	resp := SchemeDetailResponse{
		SchemeSummary: toSummary(s, lang),
		Language:      lang,
		Criteria:      make([]CriterionResponse, 0, len(s.Criteria)),
		Documents:     make([]DocumentResponse, 0, len(s.Documents)),
	}
	for _, c := range s.Criteria {
		resp.Criteria = append(resp.Criteria, CriterionResponse{
			Field:       c.Field,
			Operator:    c.Operator.String(),
			Description: c.Description.In(lang),
		})
	}
	for _, d := range s.Documents {
		resp.Documents = append(resp.Documents, DocumentResponse{
			ID:       d.ID,
			Name:     d.Name.In(lang),
			Category: d.Category,
			Icon:     d.Icon,
			Required: d.Required,
		})
	}
	return resp
}
