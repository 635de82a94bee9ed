package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"coursemate/backend/internal/model"
)

// ── Mock StudentDocumentRepository ──

type mockStudentDocumentRepo struct {
	docs map[string]*model.StudentDocument
}

func newMockStudentDocumentRepo() *mockStudentDocumentRepo {
	return &mockStudentDocumentRepo{docs: make(map[string]*model.StudentDocument)}
}

func (m *mockStudentDocumentRepo) GetByStudent(_ context.Context, studentID string) (*model.StudentDocument, error) {
	if doc, ok := m.docs[studentID]; ok {
		return doc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentDocumentRepo) Put(_ context.Context, doc *model.StudentDocument) error {
	doc.UpdatedAt = time.Now()
	m.docs[doc.StudentID] = doc
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
