package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityLog struct {
	events []*Identity
}

func (l *identityLog) record(id *Identity) { l.events = append(l.events, id) }

func TestClient_SignInSignOutEmitsEvents(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	client := NewClient(svc, "test")

	log := &identityLog{}
	unsub := client.OnIdentityChange(log.record)
	assert.Empty(t, log.events, "unresolved client does not emit on register")

	_, err := client.SignIn(ctx, "admin@example.org", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, log.events)

	id, err := client.SignIn(ctx, "admin@example.org", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.org", id.Email)
	assert.NotEmpty(t, client.Token())

	token := client.Token()
	require.NoError(t, client.SignOut(ctx))
	assert.Empty(t, client.Token())

	require.Len(t, log.events, 2)
	assert.NotNil(t, log.events[0])
	assert.Nil(t, log.events[1])

	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsub()
	unsub()
	_, err = client.SignIn(ctx, "admin@example.org", "correct-horse")
	require.NoError(t, err)
	assert.Len(t, log.events, 2)
}

func TestClient_RestoreAndLateListener(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tok, err := svc.Authenticate(ctx, "admin@example.org", "correct-horse", "")
	require.NoError(t, err)

	client := NewClient(svc, "test")
	client.Restore(ctx, tok.AccessToken)

	log := &identityLog{}
	client.OnIdentityChange(log.record)
	require.Len(t, log.events, 1)
	require.NotNil(t, log.events[0])
	assert.Equal(t, "admin@example.org", log.events[0].Email)

	anon := NewClient(svc, "test")
	anon.Restore(ctx, "garbage")
	log = &identityLog{}
	anon.OnIdentityChange(log.record)
	require.Len(t, log.events, 1)
	assert.Nil(t, log.events[0])
	assert.Empty(t, anon.Token())
}

func TestClient_SignOutWhenSignedOut(t *testing.T) {
	svc, _ := newTestService(t)
	client := NewClient(svc, "")
	client.Restore(context.Background(), "")
	assert.NoError(t, client.SignOut(context.Background()))
}

func TestClient_SendPasswordReset(t *testing.T) {
	svc, mailer := newTestService(t)
	client := NewClient(svc, "")

	assert.ErrorIs(t, client.SendPasswordReset(context.Background(), ""), ErrEmailRequired)
	require.NoError(t, client.SendPasswordReset(context.Background(), "admin@example.org"))
	assert.Len(t, mailer.to, 1)
}
