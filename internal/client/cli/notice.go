package cli

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/homeshare/internal/client/dashboard"
	"github.com/dmitrijs2005/homeshare/internal/client/failure"
)

type NoticeKind string

const (
	NoticeOK    NoticeKind = "ok"
	NoticeError NoticeKind = "error"
)

// Notice is a one-line message about the outcome of an operation.
type Notice struct {
	Kind    NoticeKind
	Title   string
	Message string
}

func (n Notice) String() string {
	if n.Message == "" {
		return fmt.Sprintf("[%s] %s", n.Kind, n.Title)
	}
	return fmt.Sprintf("[%s] %s: %s", n.Kind, n.Title, n.Message)
}

func okNotice(title, message string) Notice {
	return Notice{Kind: NoticeOK, Title: title, Message: message}
}

type errorText struct {
	title    string
	fallback string
	// fixed notices always show fallback, never the provider's message.
	fixed bool
}

// errorTexts is keyed by failure.Error.Op.
var errorTexts = map[string]errorText{
	"signing up":                {title: "Error signing up", fallback: "An error occurred during sign up"},
	"signing in":                {title: "Error signing in", fallback: "An error occurred during sign in"},
	"signing out":               {title: "Error signing out", fallback: "An error occurred during sign out"},
	"resetting password":        {title: "Error resetting password", fallback: "An error occurred while sending reset password email"},
	"completing password reset": {title: "Error resetting password", fallback: "An error occurred while resetting your password"},
	"updating profile":          {title: "Error updating profile", fallback: "An error occurred while updating your profile"},
	"uploading avatar":          {title: "Error uploading avatar", fallback: "An error occurred while uploading your avatar"},

	dashboard.ResourceProperties:  {title: "Error fetching dashboard data", fallback: dashboard.ErrorText(dashboard.ResourceProperties), fixed: true},
	dashboard.ResourceBookings:    {title: "Error fetching dashboard data", fallback: dashboard.ErrorText(dashboard.ResourceBookings), fixed: true},
	dashboard.ResourceInvitations: {title: "Error fetching dashboard data", fallback: dashboard.ErrorText(dashboard.ResourceInvitations), fixed: true},

	"notifications":             {title: "Could not load notifications", fallback: "Please try again later", fixed: true},
	"mark as read":              {title: "Could not update notification", fallback: "Please try again", fixed: true},
	"mark all as read":          {title: "Could not update notifications", fallback: "Please try again", fixed: true},
	"create demo notifications": {title: "Error creating demo notifications", fallback: "Please try again"},
}

// errorNotices converts err into one notice per failure it carries. Errors
// that are not failures become a single generic notice.
func errorNotices(err error) []Notice {
	if err == nil {
		return nil
	}

	fails := failure.All(err)
	if len(fails) == 0 {
		return []Notice{{Kind: NoticeError, Title: "Error", Message: err.Error()}}
	}

	out := make([]Notice, 0, len(fails))
	for _, f := range fails {
		t, ok := errorTexts[f.Op]
		if !ok {
			t = errorText{title: "Error", fallback: "An unexpected error occurred"}
		}
		msg := t.fallback
		if !t.fixed {
			msg = f.Message(t.fallback)
		}
		out = append(out, Notice{Kind: NoticeError, Title: t.title, Message: msg})
	}
	return out
}

// validationNotice reports a form that failed validation.
func validationNotice(msgs []string) Notice {
	n := Notice{Kind: NoticeError, Title: "Invalid input"}
	for i, m := range msgs {
		if i > 0 {
			n.Message += "; "
		}
		n.Message += m
	}
	return n
}

func printNotices(w io.Writer, ns ...Notice) {
	for _, n := range ns {
		fmt.Fprintln(w, n.String())
	}
}

