package calculations

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mathmindlabs/mathmind-backend/pkg/db"
	"github.com/mathmindlabs/mathmind-backend/pkg/enums"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
	"github.com/mathmindlabs/mathmind-backend/pkg/outbox"
	"github.com/mathmindlabs/mathmind-backend/pkg/outbox/payloads"
	"github.com/mathmindlabs/mathmind-backend/pkg/pagination"
)

// Service owns the calculation log use cases.
type Service struct {
	db     *db.Client
	repo   *Repository
	outbox *outbox.Service
	logg   *logger.Logger
}

func NewService(dbClient *db.Client, repo *Repository, outboxSvc *outbox.Service, logg *logger.Logger) *Service {
	return &Service{
		db:     dbClient,
		repo:   repo,
		outbox: outboxSvc,
		logg:   logg,
	}
}

// Save appends one history entry and queues the usage event in the
// same transaction. Result must be present but may be any string,
// "" and "0" included.
func (s *Service) Save(ctx context.Context, userID int64, dto SaveCalculationDTO) (*CalculationDTO, error) {
	if strings.TrimSpace(dto.Type) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type is required")
	}
	if strings.TrimSpace(dto.Input) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "input is required")
	}
	if dto.Result == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "result is required")
	}

	var saved *CalculationDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		calc, err := s.repo.CreateInTx(tx, userID, dto)
		if err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventCalculationSaved,
			AggregateType: enums.AggregateCalculation,
			AggregateID:   calc.ID.String(),
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.CalculationSavedEvent{
				CalculationID: calc.ID.String(),
				UserID:        userID,
				Type:          calc.Type,
				Input:         calc.Input,
				SavedAt:       time.Now().UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		saved = FromModel(calc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"calculation_id": saved.ID,
			"user_id":        userID,
			"type":           saved.Type,
		})
		s.logg.Info(logCtx, "calculation saved")
	}
	return saved, nil
}

// List returns one page of the user's history, newest first.
func (s *Service) List(ctx context.Context, userID int64, params pagination.Params) (*CalculationList, error) {
	return s.repo.ListByUser(ctx, userID, params)
}
