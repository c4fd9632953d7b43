package testutil

import (
	"context"

	"keydesk/internal/domain"
	"keydesk/internal/notify"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock for UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) AuthorizeUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) EnsureUserExists(ctx context.Context, userID int64, displayName string) error {
	args := m.Called(ctx, userID, displayName)
	return args.Error(0)
}

func (m *MockUserRepository) DisplayName(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// MockKeyRepository is a mock for KeyRepository
type MockKeyRepository struct {
	mock.Mock
}

func (m *MockKeyRepository) CreateKey(ctx context.Context, k *domain.KeyRequest) error {
	args := m.Called(ctx, k)
	return args.Error(0)
}

func (m *MockKeyRepository) FindKey(ctx context.Context, project domain.Project, key string) (*domain.KeyRequest, error) {
	args := m.Called(ctx, project, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KeyRequest), args.Error(1)
}

func (m *MockKeyRepository) GetKeys(ctx context.Context, ids []string) ([]domain.KeyRequest, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KeyRequest), args.Error(1)
}

func (m *MockKeyRepository) ListKeys(ctx context.Context, status domain.KeyStatus) ([]domain.KeyRequest, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KeyRequest), args.Error(1)
}

// MockProofreadingRepository is a mock for ProofreadingRepository
type MockProofreadingRepository struct {
	mock.Mock
}

func (m *MockProofreadingRepository) CommitBatch(ctx context.Context, r *domain.ProofreadingRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockProofreadingRepository) GetRequest(ctx context.Context, id string) (*domain.ProofreadingRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProofreadingRequest), args.Error(1)
}

func (m *MockProofreadingRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.ProofreadingRequest, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProofreadingRequest), args.Error(1)
}

func (m *MockProofreadingRepository) ListRequests(ctx context.Context) ([]domain.ProofreadingRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProofreadingRequest), args.Error(1)
}

func (m *MockProofreadingRepository) SetCompletion(ctx context.Context, id string, lang domain.Language, done bool) error {
	args := m.Called(ctx, id, lang, done)
	return args.Error(0)
}

// MockGateway is a mock for notify.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Notify(ctx context.Context, msg notify.Message) (notify.Delivery, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(notify.Delivery), args.Error(1)
}

// MockGenerator is a mock for translate.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, sourceText string) (domain.Draft, error) {
	args := m.Called(ctx, sourceText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Draft), args.Error(1)
}
