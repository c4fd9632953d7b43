package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"keydesk/internal/domain"
	"keydesk/internal/notify"
	"keydesk/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProofreadingService_Filter(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	batches := []domain.ProofreadingRequest{
		testutil.NewTestBatch("b1", base, []string{"a"}, domain.ProofreadingLanguages...),
		testutil.NewTestBatch("b2", base.Add(time.Hour), []string{"b"}, domain.LangDE),
		testutil.NewTestBatch("b3", base.Add(2*time.Hour), []string{"c"}, domain.ProofreadingLanguages...),
	}

	tests := []struct {
		name        string
		mode        domain.FilterMode
		expectedIDs []string
	}{
		{name: "all", mode: domain.FilterAll, expectedIDs: []string{"b3", "b2", "b1"}},
		{name: "complete", mode: domain.FilterComplete, expectedIDs: []string{"b3", "b1"}},
		{name: "incomplete", mode: domain.FilterIncomplete, expectedIDs: []string{"b2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockProofreadingRepository)
			repo.On("ListRequests", mock.Anything).Return(batches, nil)

			service := NewProofreadingService(repo, new(testutil.MockGateway), "#translations", nil, testutil.NewTestLogger())

			result, err := service.Filter(context.Background(), tt.mode)

			require.NoError(t, err)
			ids := make([]string, 0, len(result))
			for _, r := range result {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
			repo.AssertExpectations(t)
		})
	}
}

func TestProofreadingService_Filter_Error(t *testing.T) {
	repo := new(testutil.MockProofreadingRepository)
	repo.On("ListRequests", mock.Anything).Return(nil, fmt.Errorf("db error"))

	service := NewProofreadingService(repo, new(testutil.MockGateway), "#translations", nil, testutil.NewTestLogger())

	_, err := service.Filter(context.Background(), domain.FilterAll)

	assert.Error(t, err)
}

func TestProofreadingService_SendReminder(t *testing.T) {
	now := time.Now()
	pending := testutil.NewTestBatch("b1", now, []string{"welcome.title"}, domain.LangDE, domain.LangFR, domain.LangPT)
	complete := testutil.NewTestBatch("b2", now, []string{"search.cta"}, domain.ProofreadingLanguages...)

	tests := []struct {
		name          string
		batch         *domain.ProofreadingRequest
		getError      error
		notifyError   error
		expectNotify  bool
		expectedError error
	}{
		{name: "pending languages", batch: &pending, expectNotify: true},
		{name: "complete batch", batch: &complete, expectedError: domain.ErrAlreadyComplete},
		{name: "missing batch", getError: domain.ErrRequestNotFound, expectedError: domain.ErrRequestNotFound},
		{
			name:         "gateway error",
			batch:        &pending,
			notifyError:  &notify.DeliveryError{Gateway: "slack", Status: 500, Retryable: true, Err: fmt.Errorf("oops")},
			expectNotify: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockProofreadingRepository)
			repo.On("GetRequest", mock.Anything, "b").Return(tt.batch, tt.getError)

			gateway := new(testutil.MockGateway)
			if tt.expectNotify {
				gateway.On("Notify", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
					return m.Channel == "#translations" &&
						assert.ObjectsAreEqual(ComposeReminder(pending, domain.DefaultTeamMentions), m.Text)
				})).Return(notify.Delivery{Ref: "r1"}, tt.notifyError)
			}

			service := NewProofreadingService(repo, gateway, "#fallback", nil, testutil.NewTestLogger())

			d, err := service.SendReminder(context.Background(), "b")

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.notifyError != nil:
				assert.True(t, notify.IsRetryable(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, "r1", d.Ref)
			}

			repo.AssertExpectations(t)
			gateway.AssertExpectations(t)
		})
	}
}

func TestProofreadingService_PreviewReminder(t *testing.T) {
	batch := testutil.NewTestBatch("b1", time.Now(), []string{"welcome.title"}, domain.LangDE)

	repo := new(testutil.MockProofreadingRepository)
	repo.On("GetRequest", mock.Anything, "b1").Return(&batch, nil)

	service := NewProofreadingService(repo, new(testutil.MockGateway), "#translations", map[domain.Language]string{domain.LangES: "@es"}, testutil.NewTestLogger())

	text, err := service.PreviewReminder(context.Background(), "b1")

	require.NoError(t, err)
	assert.Contains(t, text, "👋 Hi @es,")
	assert.Contains(t, text, "ES, PT, NL, FR, IT")
}

func TestProofreadingService_MarkLanguage(t *testing.T) {
	tests := []struct {
		name          string
		lang          domain.Language
		repoError     error
		expectCall    bool
		expectedError error
	}{
		{name: "proofread language", lang: domain.LangNL, expectCall: true},
		{name: "draft-only language", lang: domain.LangSV, expectedError: domain.ErrUnknownLanguage},
		{name: "missing batch", lang: domain.LangDE, expectCall: true, repoError: domain.ErrRequestNotFound, expectedError: domain.ErrRequestNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockProofreadingRepository)
			if tt.expectCall {
				repo.On("SetCompletion", mock.Anything, "b1", tt.lang, true).Return(tt.repoError)
			}

			service := NewProofreadingService(repo, new(testutil.MockGateway), "#translations", nil, testutil.NewTestLogger())

			err := service.MarkLanguage(context.Background(), "b1", tt.lang, true)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
