package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
)

type revokeRecorder struct{ revoked []string }

func (r *revokeRecorder) RevokeAll(_ context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

func newTestService() (*Service, *revokeRecorder) {
	rec := &revokeRecorder{}
	return NewService(NewMemRepo(), rec), rec
}

func TestSignupDefaultsToClient(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Signup(context.Background(), SignupInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, RoleClient, u.Role)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
	assert.True(t, CheckPassword(u.PasswordHash, "s3cret-pass"))
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Signup(ctx, SignupInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupInput{Name: "Other", Email: "ANA@example.com", Password: "s3cret-pass"})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, in := range []SignupInput{
		{Email: "a@example.com", Password: "s3cret-pass"},
		{Name: "A", Email: "not-an-email", Password: "s3cret-pass"},
		{Name: "A", Email: "a@example.com", Password: "short"},
		{Name: "A", Email: "a@example.com", Password: "s3cret-pass", Role: "courier"},
	} {
		_, err := svc.Signup(ctx, in)
		assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err), in)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Signup(ctx, SignupInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = svc.Authenticate(ctx, "ana@example.com", "wrong-pass")
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cret-pass")
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}

func TestSetRoleAndBanRevokeSessions(t *testing.T) {
	svc, rec := newTestService()
	ctx := context.Background()
	u, err := svc.Signup(ctx, SignupInput{Name: "Vic", Email: "vic@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	updated, err := svc.SetRole(ctx, u.ID, RoleVendor)
	require.NoError(t, err)
	assert.Equal(t, RoleVendor, updated.Role)

	banned, err := svc.SetBanned(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, banned.Banned)

	_, err = svc.SetBanned(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID, u.ID}, rec.revoked)

	_, err = svc.Authenticate(ctx, "vic@example.com", "s3cret-pass")
	assert.NoError(t, err)

	_, err = svc.SetRole(ctx, "missing", RoleAdmin)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
