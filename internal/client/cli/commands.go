package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/homeshare/internal/client/failure"
	"github.com/dmitrijs2005/homeshare/internal/client/models"
	"github.com/dmitrijs2005/homeshare/internal/client/notifications"
	"github.com/dmitrijs2005/homeshare/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// errAborted is returned when a form was not submitted because it failed
// validation. The notice has already been printed.
var errAborted = errors.New("form not submitted")

func (a *App) notify(err error) error {
	printNotices(a.out, errorNotices(err)...)
	return err
}

func (a *App) prompt(label string) (string, error) {
	return getSimpleText(a.reader, label, a.out)
}

func (a *App) promptPassword(label string) (string, error) {
	pw, err := getPassword(a.reader, label, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func (a *App) checkForm(form any) error {
	if msgs := validateForm(a.validator, form); len(msgs) > 0 {
		printNotices(a.out, validationNotice(msgs))
		return errAborted
	}
	return nil
}

// Open navigates to path and renders the page it resolves to.
func (a *App) Open(ctx context.Context, path string) error {
	r := Resolve(path, a.isLoggedIn())

	a.mu.Lock()
	a.path = r.Path
	a.mu.Unlock()

	if r.From != "" {
		fmt.Fprintf(a.out, "%s -> %s\n", r.From, r.Path)
	}

	switch r.Page {
	case PageHome:
		renderHome(a.out)
	case PageAuth:
		renderAuth(a.out)
	case PageDashboard:
		renderDashboard(a.out, r.Section, a.session.State(), a.dashboard.State(), a.notifications.State(), a.now())
	case PageProfile:
		if err := a.session.RefreshIdentity(ctx); err != nil {
			a.logger.Warn(ctx, "showing cached user", "error", err.Error())
		}
		renderProfile(a.out, a.session.State())
	default:
		a.logger.Warn(ctx, "404: user attempted to access non-existent route", "path", r.Path)
		renderNotFound(a.out, r.Path)
	}
	return nil
}

func (a *App) SignUp(ctx context.Context) error {
	var f registerForm
	var err error
	if f.FirstName, err = a.prompt("First name"); err != nil {
		return err
	}
	if f.LastName, err = a.prompt("Last name"); err != nil {
		return err
	}
	if f.Email, err = a.prompt("Email"); err != nil {
		return err
	}
	if f.Password, err = a.promptPassword("Password"); err != nil {
		return err
	}
	if f.ConfirmPassword, err = a.promptPassword("Confirm password"); err != nil {
		return err
	}
	if err := a.checkForm(f); err != nil {
		return err
	}

	if err := a.session.SignUp(ctx, f.Email, f.Password, f.FirstName, f.LastName); err != nil {
		return a.notify(err)
	}
	printNotices(a.out, okNotice("Success", "Registration successful! Please check your email for confirmation."))
	return nil
}

func (a *App) Login(ctx context.Context) error {
	var f loginForm
	var err error
	if f.Email, err = a.prompt("Email"); err != nil {
		return err
	}
	if f.Password, err = a.promptPassword("Password"); err != nil {
		return err
	}
	if err := a.checkForm(f); err != nil {
		return err
	}

	if err := a.session.SignIn(ctx, f.Email, f.Password); err != nil {
		return a.notify(err)
	}
	printNotices(a.out, okNotice("Welcome back!", "You have successfully signed in."))
	return a.Open(ctx, "/dashboard")
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		return a.notify(err)
	}
	printNotices(a.out, okNotice("Signed out", "You have been successfully signed out."))
	return a.Open(ctx, "/")
}

func (a *App) Reset(ctx context.Context) error {
	var f resetForm
	var err error
	if f.Email, err = a.prompt("Email"); err != nil {
		return err
	}
	if err := a.checkForm(f); err != nil {
		return err
	}

	if err := a.session.ResetPassword(ctx, f.Email); err != nil {
		return a.notify(err)
	}
	printNotices(a.out, okNotice("Password reset email sent", "Please check your email for instructions to reset your password."))
	return nil
}

func (a *App) ResetConfirm(ctx context.Context) error {
	var f resetConfirmForm
	var err error
	if f.Token, err = a.prompt("Reset token"); err != nil {
		return err
	}
	if f.Password, err = a.promptPassword("New password"); err != nil {
		return err
	}
	if f.ConfirmPassword, err = a.promptPassword("Confirm password"); err != nil {
		return err
	}
	if err := a.checkForm(f); err != nil {
		return err
	}

	if err := a.session.CompletePasswordReset(ctx, f.Token, f.Password); err != nil {
		return a.notify(err)
	}
	printNotices(a.out, okNotice("Password updated", "You can now sign in with your new password."))
	return nil
}

// EditProfile asks for new names; an empty answer keeps the current value.
func (a *App) EditProfile(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.Open(ctx, "/dashboard/profile")
	}

	var patch models.ProfilePatch
	first, err := a.prompt("First name (empty to keep)")
	if err != nil {
		return err
	}
	if first != "" {
		patch.FirstName = &first
	}
	last, err := a.prompt("Last name (empty to keep)")
	if err != nil {
		return err
	}
	if last != "" {
		patch.LastName = &last
	}

	if err := a.session.UpdateProfile(ctx, patch); err != nil {
		return a.notify(err)
	}
	printNotices(a.out, okNotice("Profile updated", "Your profile has been successfully updated."))
	return a.Open(ctx, "/dashboard/profile")
}

func (a *App) Avatar(ctx context.Context, file string) error {
	if !a.isLoggedIn() {
		return a.Open(ctx, "/dashboard/profile")
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return a.notify(failure.Mutation("uploading avatar", err))
	}

	if err := a.session.UploadAvatar(ctx, a.files, filepath.Base(file), data); err != nil {
		return a.notify(err)
	}
	printNotices(a.out, okNotice("Avatar updated", "Your profile picture has been updated successfully."))
	return nil
}

func (a *App) Notifications(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.Open(ctx, "/auth")
	}
	renderNotifications(a.out, a.notifications.State())
	return nil
}

func (a *App) Read(ctx context.Context, id string) error {
	if err := a.notifications.MarkAsRead(ctx, id); err != nil {
		return a.notify(err)
	}
	renderNotifications(a.out, a.notifications.State())
	return nil
}

func (a *App) ReadAll(ctx context.Context) error {
	before := a.notifications.State()
	if err := a.notifications.MarkAllAsRead(ctx); err != nil {
		return a.notify(err)
	}
	if len(before.Items) > 0 && before.UserID != "" {
		printNotices(a.out, okNotice("All notifications marked as read", ""))
	}
	return nil
}

// Refresh reloads the dashboard and the notifications of the current user.
func (a *App) Refresh(ctx context.Context) error {
	userID := ""
	if id := a.session.State().Identity; id != nil {
		userID = id.ID
	}

	var wg sync.WaitGroup
	var dashErr, feedErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		dashErr = a.dashboard.Refetch(ctx)
	}()
	go func() {
		defer wg.Done()
		feedErr = a.notifications.Load(ctx, userID)
	}()
	wg.Wait()

	if err := errors.Join(dashErr, feedErr); err != nil {
		return a.notify(err)
	}
	return nil
}

// Seed inserts n demo notifications for the signed-in user.
func (a *App) Seed(ctx context.Context, n int) error {
	id := a.session.State().Identity
	if id == nil {
		return a.Open(ctx, "/auth")
	}

	created, err := notifications.SeedDemo(ctx, a.rows, id.ID, n, a.rnd)
	if err != nil {
		return a.notify(err)
	}
	printNotices(a.out, okNotice("Demo notifications created", fmt.Sprintf("%d notifications added", len(created))))

	if err := a.notifications.Load(ctx, id.ID); err != nil {
		return a.notify(err)
	}
	return nil
}
