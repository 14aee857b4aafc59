package dto

import "github.com/noah-isme/step-lms-api/internal/models"

// FinalizePlacementRequest carries every student-to-class pair the client
// holds. An empty list is a successful no-op.
type FinalizePlacementRequest struct {
	Placements []models.PlacementItem `json:"placements" validate:"dive"`
	Mode       string                 `json:"mode" validate:"omitempty,oneof=atomic partialOnError"`
}
