package service

import (
	"context"
	"errors"

	"plant-doctor-be/internal/dto"
	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/repository/specification"
	"plant-doctor-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const defaultHistoryPageSize = 20

var ErrDiagnosisNotFound = errors.New("diagnosis not found")

type IHistoryService interface {
	List(ctx context.Context, userId uuid.UUID, req *dto.DiagnosisHistoryRequest) (*dto.DiagnosisHistoryResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DiagnosisHistoryDetail, error)
}

type historyService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewHistoryService(uowFactory unitofwork.RepositoryFactory) IHistoryService {
	return &historyService{uowFactory: uowFactory}
}

func (s *historyService) List(ctx context.Context, userId uuid.UUID, req *dto.DiagnosisHistoryRequest) (*dto.DiagnosisHistoryResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultHistoryPageSize
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	owned := specification.UserOwnedBy{UserID: userId}

	total, err := uow.DiagnosisRecordRepository().Count(ctx, owned)
	if err != nil {
		return nil, err
	}
	records, err := uow.DiagnosisRecordRepository().FindAll(ctx,
		owned,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: pageSize, Offset: (page - 1) * pageSize},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DiagnosisHistoryItem, 0, len(records))
	for _, r := range records {
		items = append(items, historyItem(r))
	}

	return &dto.DiagnosisHistoryResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *historyService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DiagnosisHistoryDetail, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	record, err := uow.DiagnosisRecordRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrDiagnosisNotFound
	}

	return &dto.DiagnosisHistoryDetail{
		DiagnosisHistoryItem: historyItem(record),
		Result:               record.Result,
	}, nil
}

func historyItem(r *entity.DiagnosisRecord) dto.DiagnosisHistoryItem {
	diseases := r.DiseaseNames
	if diseases == nil {
		diseases = []string{}
	}
	return dto.DiagnosisHistoryItem{
		Id:           r.Id,
		SessionId:    r.SessionId,
		ImageUrl:     r.ImageUrl,
		PlantName:    r.PlantName,
		DiseaseNames: diseases,
		Severity:     r.Severity,
		Healthy:      r.Healthy,
		CreatedAt:    r.CreatedAt,
	}
}
