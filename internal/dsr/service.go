package dsr

import (
	"context"

	"placement-crm/backend/internal/models"
)

// Service ties gathering, generation, and persistence together for one
// user's report.
type Service struct {
	Store     *Store
	Generator *Generator
}

func NewService(store *Store, generator *Generator) *Service {
	return &Service{Store: store, Generator: generator}
}

// UserResult reports the outcome of one user's generation within a run.
type UserResult struct {
	UserID     int64  `json:"userId"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	DSRID      int64  `json:"dsrId,omitempty"`
	LLMSuccess bool   `json:"llmSuccess,omitempty"`
	Error      string `json:"error,omitempty"`
}

// GenerateForUser produces and stores the report for (userID, date). An
// existing report is left untouched unless force is set.
func (s *Service) GenerateForUser(ctx context.Context, userID int64, date string, force bool) (*models.DSR, UserResult) {
	existingID, err := s.Store.Existing(ctx, userID, date)
	if err != nil {
		return nil, UserResult{UserID: userID, Status: "error", Error: err.Error()}
	}
	if existingID != 0 && !force {
		return nil, UserResult{UserID: userID, Status: "skipped", Reason: "DSR already exists", DSRID: existingID}
	}

	input, err := s.Store.GatherInput(ctx, userID, date)
	if err != nil {
		return nil, UserResult{UserID: userID, Status: "error", Error: err.Error()}
	}

	result := s.Generator.Generate(ctx, input)

	dsr, err := s.Store.Save(ctx, input, result)
	if err != nil {
		return nil, UserResult{UserID: userID, Status: "error", Error: err.Error()}
	}
	if err := s.Store.NotifyReady(ctx, dsr); err != nil {
		return dsr, UserResult{UserID: userID, Status: "error", DSRID: dsr.ID, Error: err.Error()}
	}

	return dsr, UserResult{UserID: userID, Status: "success", DSRID: dsr.ID, LLMSuccess: result.Succeeded}
}
