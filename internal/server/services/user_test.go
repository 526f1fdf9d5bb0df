package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/server/auth"
	"github.com/dmitrijs2005/homeshare/internal/server/config"
	"github.com/dmitrijs2005/homeshare/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                     "k",
		AccessTokenValidityDuration:   time.Hour,
		RefreshTokenValidityDuration:  2 * time.Hour,
		PasswordResetValidityDuration: time.Hour,
	}
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := auth.HashPassword(pw)
	require.NoError(t, err)
	return h
}

func TestSignUp_CreatesUserAndProfile(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: newFakeUsers(), p: &fakeProfilesRepo{}}
	s := NewUserService(db, rm, &fakeMailer{}, nopLogger{}, testConfig())

	u, err := s.SignUp(context.Background(), "  Ann@Example.com ", "secret1", "Ann", "Lee")
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEmpty(t, u.ID)
	assert.True(t, auth.VerifyPassword(u.PasswordHash, "secret1"))
	assert.Equal(t, [][3]string{{u.ID, "Ann", "Lee"}}, rm.p.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUp_Duplicate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	existing := &models.User{ID: "u1", Email: "ann@example.com"}
	rm := &fakeRepoManager{u: newFakeUsers(existing), p: &fakeProfilesRepo{}}
	s := NewUserService(db, rm, &fakeMailer{}, nopLogger{}, testConfig())

	_, err := s.SignUp(context.Background(), "ann@example.com", "secret1", "Ann", "Lee")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Empty(t, rm.p.created)
}

func TestSignUp_ProfileErrorRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: newFakeUsers(), p: &fakeProfilesRepo{err: errBoom{}}}
	s := NewUserService(db, rm, &fakeMailer{}, nopLogger{}, testConfig())

	_, err := s.SignUp(context.Background(), "ann@example.com", "secret1", "Ann", "Lee")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error creating user: boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignIn_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)
	user := &models.User{ID: "u1", Email: "ann@example.com", PasswordHash: mustHash(t, "right-pw")}

	t.Run("unknown email", func(t *testing.T) {
		rm := &fakeRepoManager{u: newFakeUsers(), r: newFakeRefresh()}
		s := NewUserService(db, rm, &fakeMailer{}, nopLogger{}, testConfig())
		_, err := s.SignIn(context.Background(), "ghost@example.com", "x")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		rm := &fakeRepoManager{u: newFakeUsers(user), r: newFakeRefresh()}
		s := NewUserService(db, rm, &fakeMailer{}, nopLogger{}, testConfig())
		_, err := s.SignIn(context.Background(), "ann@example.com", "wrong")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("repository failure", func(t *testing.T) {
		u := newFakeUsers()
		u.getErr = errBoom{}
		rm := &fakeRepoManager{u: u, r: newFakeRefresh()}
		s := NewUserService(db, rm, &fakeMailer{}, nopLogger{}, testConfig())
		_, err := s.SignIn(context.Background(), "ann@example.com", "right-pw")
		assert.ErrorIs(t, err, common.ErrorInternal)
	})

	t.Run("success", func(t *testing.T) {
		rt := newFakeRefresh()
		rm := &fakeRepoManager{u: newFakeUsers(user), r: rt}
		s := NewUserService(db, rm, &fakeMailer{}, nopLogger{}, testConfig())

		sess, err := s.SignIn(context.Background(), "ANN@example.com", "right-pw")
		require.NoError(t, err)
		assert.Equal(t, "u1", sess.User.ID)
		assert.NotEmpty(t, sess.AccessToken)
		assert.Contains(t, rt.tokens, sess.RefreshToken)

		claims, err := auth.ParseToken(sess.AccessToken, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, "ann@example.com", claims.Email)
	})
}

func TestRefreshToken_Rotates(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	user := &models.User{ID: "u1", Email: "ann@example.com"}
	rt := newFakeRefresh(&models.RefreshToken{Token: "old", UserID: "u1", Expires: time.Now().Add(time.Hour)})
	rm := &fakeRepoManager{u: newFakeUsers(user), r: rt}
	s := NewUserService(db, rm, &fakeMailer{}, nopLogger{}, testConfig())

	sess, err := s.RefreshToken(context.Background(), "old")
	require.NoError(t, err)
	assert.NotEqual(t, "old", sess.RefreshToken)
	assert.NotContains(t, rt.tokens, "old")
	assert.Contains(t, rt.tokens, sess.RefreshToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshToken_Errors(t *testing.T) {
	db, mock := newSQLMockDB(t)

	t.Run("expired", func(t *testing.T) {
		rt := newFakeRefresh(&models.RefreshToken{Token: "r", UserID: "u1", Expires: time.Now().Add(-time.Minute)})
		s := NewUserService(db, &fakeRepoManager{r: rt}, &fakeMailer{}, nopLogger{}, testConfig())
		_, err := s.RefreshToken(context.Background(), "r")
		assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
	})

	t.Run("unknown", func(t *testing.T) {
		s := NewUserService(db, &fakeRepoManager{r: newFakeRefresh()}, &fakeMailer{}, nopLogger{}, testConfig())
		_, err := s.RefreshToken(context.Background(), "nope")
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("find failure", func(t *testing.T) {
		rt := newFakeRefresh()
		rt.findErr = errBoom{}
		s := NewUserService(db, &fakeRepoManager{r: rt}, &fakeMailer{}, nopLogger{}, testConfig())
		_, err := s.RefreshToken(context.Background(), "r")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error searching refresh token: boom")
	})

	t.Run("delete failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()
		rt := newFakeRefresh(&models.RefreshToken{Token: "r", UserID: "u1", Expires: time.Now().Add(time.Hour)})
		rt.delErr = errBoom{}
		s := NewUserService(db, &fakeRepoManager{r: rt, u: newFakeUsers()}, &fakeMailer{}, nopLogger{}, testConfig())
		_, err := s.RefreshToken(context.Background(), "r")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error deleting refresh token: boom")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSignOut(t *testing.T) {
	db, _ := newSQLMockDB(t)

	t.Run("revokes all sessions of the user", func(t *testing.T) {
		rt := newFakeRefresh(
			&models.RefreshToken{Token: "a", UserID: "u1"},
			&models.RefreshToken{Token: "b", UserID: "u1"},
			&models.RefreshToken{Token: "c", UserID: "u2"},
		)
		s := NewUserService(db, &fakeRepoManager{r: rt}, &fakeMailer{}, nopLogger{}, testConfig())

		require.NoError(t, s.SignOut(context.Background(), "u1", "a"))
		assert.Len(t, rt.tokens, 1)
		assert.Contains(t, rt.tokens, "c")
	})

	t.Run("unknown token still revokes and reports not found", func(t *testing.T) {
		rt := newFakeRefresh(&models.RefreshToken{Token: "a", UserID: "u1"})
		s := NewUserService(db, &fakeRepoManager{r: rt}, &fakeMailer{}, nopLogger{}, testConfig())

		err := s.SignOut(context.Background(), "u1", "gone")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		assert.Empty(t, rt.tokens)
	})

	t.Run("foreign token is forbidden", func(t *testing.T) {
		rt := newFakeRefresh(&models.RefreshToken{Token: "x", UserID: "u2"})
		s := NewUserService(db, &fakeRepoManager{r: rt}, &fakeMailer{}, nopLogger{}, testConfig())

		err := s.SignOut(context.Background(), "u1", "x")
		assert.ErrorIs(t, err, common.ErrorForbidden)
		assert.Contains(t, rt.tokens, "x")
	})
}

func TestGetUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	user := &models.User{ID: "u1", Email: "ann@example.com"}
	s := NewUserService(db, &fakeRepoManager{u: newFakeUsers(user)}, &fakeMailer{}, nopLogger{}, testConfig())

	got, err := s.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = s.GetUser(context.Background(), "u2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSendPasswordReset(t *testing.T) {
	db, _ := newSQLMockDB(t)
	user := &models.User{ID: "u1", Email: "ann@example.com"}

	t.Run("mails link to known address", func(t *testing.T) {
		ml := &fakeMailer{}
		pr := &fakeResetRepo{}
		s := NewUserService(db, &fakeRepoManager{u: newFakeUsers(user), pr: pr}, ml, nopLogger{}, testConfig())

		err := s.SendPasswordReset(context.Background(), "ann@example.com", "http://app.local/auth?mode=reset")
		require.NoError(t, err)
		require.Equal(t, 1, ml.calls)
		assert.Equal(t, "ann@example.com", ml.to)

		u, err := url.Parse(ml.link)
		require.NoError(t, err)
		assert.Equal(t, "app.local", u.Host)
		assert.Equal(t, "reset", u.Query().Get("mode"))
		token := u.Query().Get("token")
		require.Contains(t, pr.resets, token)
		assert.Equal(t, "u1", pr.resets[token].UserID)
	})

	t.Run("unknown address looks the same", func(t *testing.T) {
		ml := &fakeMailer{}
		s := NewUserService(db, &fakeRepoManager{u: newFakeUsers(), pr: &fakeResetRepo{}}, ml, nopLogger{}, testConfig())

		require.NoError(t, s.SendPasswordReset(context.Background(), "ghost@example.com", "http://app.local/"))
		assert.Zero(t, ml.calls)
	})

	t.Run("mail failure is not reported", func(t *testing.T) {
		ml := &fakeMailer{err: errors.New("relay down")}
		s := NewUserService(db, &fakeRepoManager{u: newFakeUsers(user), pr: &fakeResetRepo{}}, ml, nopLogger{}, testConfig())

		require.NoError(t, s.SendPasswordReset(context.Background(), "ann@example.com", "http://app.local/"))
		assert.Equal(t, 1, ml.calls)
	})

	t.Run("relative redirect is rejected", func(t *testing.T) {
		s := NewUserService(db, &fakeRepoManager{u: newFakeUsers(user), pr: &fakeResetRepo{}}, &fakeMailer{}, nopLogger{}, testConfig())
		err := s.SendPasswordReset(context.Background(), "ann@example.com", "/reset")
		assert.ErrorIs(t, err, common.ErrorValidation)
	})
}

func TestCompletePasswordReset(t *testing.T) {
	user := &models.User{ID: "u1", Email: "ann@example.com"}

	t.Run("success revokes sessions", func(t *testing.T) {
		db, mock := newSQLMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		users := newFakeUsers(user)
		rt := newFakeRefresh(&models.RefreshToken{Token: "a", UserID: "u1"})
		pr := &fakeResetRepo{resets: map[string]*models.PasswordReset{
			"tok":   {Token: "tok", UserID: "u1", Expires: time.Now().Add(time.Hour)},
			"other": {Token: "other", UserID: "u1", Expires: time.Now().Add(time.Hour)},
		}}
		s := NewUserService(db, &fakeRepoManager{u: users, r: rt, pr: pr}, &fakeMailer{}, nopLogger{}, testConfig())

		require.NoError(t, s.CompletePasswordReset(context.Background(), "tok", "new-secret"))
		assert.True(t, auth.VerifyPassword(users.passwords["u1"], "new-secret"))
		assert.Empty(t, rt.tokens)
		assert.Empty(t, pr.resets)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown token", func(t *testing.T) {
		db, mock := newSQLMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		s := NewUserService(db, &fakeRepoManager{pr: &fakeResetRepo{}}, &fakeMailer{}, nopLogger{}, testConfig())
		err := s.CompletePasswordReset(context.Background(), "nope", "new-secret")
		assert.ErrorIs(t, err, ErrResetLinkInvalid)
		assert.ErrorIs(t, err, common.ErrorValidation)
	})

	t.Run("expired token", func(t *testing.T) {
		db, mock := newSQLMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		pr := &fakeResetRepo{resets: map[string]*models.PasswordReset{
			"tok": {Token: "tok", UserID: "u1", Expires: time.Now().Add(-time.Minute)},
		}}
		s := NewUserService(db, &fakeRepoManager{pr: pr}, &fakeMailer{}, nopLogger{}, testConfig())
		err := s.CompletePasswordReset(context.Background(), "tok", "new-secret")
		assert.ErrorIs(t, err, ErrResetLinkExpired)
	})
}
