package mapper

import (
	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/model"

	"gorm.io/datatypes"
)

type DiagnosisRecordMapper struct{}

func NewDiagnosisRecordMapper() *DiagnosisRecordMapper {
	return &DiagnosisRecordMapper{}
}

func (m *DiagnosisRecordMapper) ToEntity(r *model.DiagnosisRecord) *entity.DiagnosisRecord {
	if r == nil {
		return nil
	}
	return &entity.DiagnosisRecord{
		Id:           r.Id,
		UserId:       r.UserId,
		SessionId:    r.SessionId,
		ImageUrl:     r.ImageUrl,
		PlantName:    r.PlantName,
		DiseaseNames: SplitList(r.DiseaseNames),
		Severity:     r.Severity,
		Healthy:      r.Healthy,
		Result:       []byte(r.Result),
		CreatedAt:    r.CreatedAt,
	}
}

func (m *DiagnosisRecordMapper) ToModel(r *entity.DiagnosisRecord) *model.DiagnosisRecord {
	if r == nil {
		return nil
	}
	return &model.DiagnosisRecord{
		Id:           r.Id,
		UserId:       r.UserId,
		SessionId:    r.SessionId,
		ImageUrl:     r.ImageUrl,
		PlantName:    r.PlantName,
		DiseaseNames: JoinList(r.DiseaseNames),
		Severity:     r.Severity,
		Healthy:      r.Healthy,
		Result:       datatypes.JSON(r.Result),
		CreatedAt:    r.CreatedAt,
	}
}

func (m *DiagnosisRecordMapper) ToEntities(records []*model.DiagnosisRecord) []*entity.DiagnosisRecord {
	entities := make([]*entity.DiagnosisRecord, len(records))
	for i, r := range records {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
