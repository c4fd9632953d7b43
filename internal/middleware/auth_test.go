package middleware

import (
	"context"
	"testing"

	"keydesk/internal/repository/memory"
	"keydesk/internal/service"
	"keydesk/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		user     *tele.User
		expected string
	}{
		{name: "full name", user: &tele.User{FirstName: "Sarah", LastName: "Johnson", Username: "sj"}, expected: "Sarah Johnson"},
		{name: "first name only", user: &tele.User{FirstName: "Mike"}, expected: "Mike"},
		{name: "username fallback", user: &tele.User{Username: "emma"}, expected: "emma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayName(tt.user))
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		authorized   bool
		ctx          *testutil.FakeContext
		expectNext   bool
		expectPrompt bool
	}{
		{name: "authorized command", authorized: true, ctx: testutil.NewTextContext(1, "/keys"), expectNext: true},
		{name: "start is always allowed", ctx: testutil.NewTextContext(1, "/start"), expectNext: true},
		{name: "password attempt", ctx: testutil.NewTextContext(1, "secret"), expectNext: true},
		{name: "unauthorized command", ctx: testutil.NewTextContext(1, "/keys"), expectPrompt: true},
		{name: "unauthorized button", ctx: testutil.NewCallbackContext(1, "send_batch", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewUserRepo()
			if tt.authorized {
				require.NoError(t, repo.AuthorizeUser(context.Background(), 1))
			}
			auth := service.NewAuthService(repo, "secret")

			called := false
			next := func(tele.Context) error {
				called = true
				return nil
			}

			err := AuthMiddleware(auth, testutil.NewTestLogger())(next)(tt.ctx)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectNext, called)
			if tt.expectPrompt {
				assert.Equal(t, passwordText, tt.ctx.LastReply())
			}
			if tt.ctx.Cb != nil && !tt.expectNext {
				require.Len(t, tt.ctx.Answered, 1)
				assert.True(t, tt.ctx.Answered[0].ShowAlert)
			}

			name, err := repo.DisplayName(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, "Sarah Johnson", name)
		})
	}
}
