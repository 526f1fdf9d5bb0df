package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/client/dashboard"
	"github.com/dmitrijs2005/homeshare/internal/client/models"
	"github.com/dmitrijs2005/homeshare/internal/client/notifications"
	"github.com/dmitrijs2005/homeshare/internal/client/session"
)

const dateLayout = "2006-01-02"

// unreadBadge renders the unread counter the way the bell icon shows it.
func unreadBadge(n int) string {
	if n > 9 {
		return "9+"
	}
	return strconv.Itoa(n)
}

func renderHome(w io.Writer) {
	fmt.Fprintln(w, "Homeshare: share your holiday home with the people you trust")
	fmt.Fprintln(w)
	for _, f := range [][2]string{
		{"List your property", "Add your holiday home or apartment with photos, descriptions, and all the essential details."},
		{"Invite your people", "Send email invitations to family members and trusted friends who you want to share your space with."},
		{"Manage bookings", "View, accept or decline booking requests with our simple dashboard. No overlapping reservations."},
		{"Get notified", "Receive instant notifications for booking requests, confirmations, and other important updates."},
	} {
		fmt.Fprintf(w, "  * %s: %s\n", f[0], f[1])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Type 'open /auth' to sign in or create an account.")
}

func renderAuth(w io.Writer) {
	fmt.Fprintln(w, "Welcome to Homeshare")
	fmt.Fprintln(w, "  login        sign in with email and password")
	fmt.Fprintln(w, "  signup       create an account")
	fmt.Fprintln(w, "  reset        send a password reset email")
	fmt.Fprintln(w, "  resetconfirm set a new password with the token from the email")
}

func renderNotFound(w io.Writer, path string) {
	fmt.Fprintf(w, "404 Page not found: %s\n", path)
	fmt.Fprintln(w, "Sorry, we couldn't find the page you were looking for. It might have been moved or deleted.")
	fmt.Fprintln(w, "Type 'home' to go back to home.")
}

func displayName(st session.State) string {
	if n := st.Profile.FullName(); n != "" {
		return n
	}
	if st.Identity != nil {
		return st.Identity.Email
	}
	return ""
}

func renderDashboard(w io.Writer, section string, ss session.State, ds dashboard.State, ns notifications.State, now time.Time) {
	fmt.Fprintln(w, "Dashboard")
	if section != "" {
		fmt.Fprintf(w, "(%s)\n", section)
	}
	fmt.Fprintf(w, "Welcome back, %s! Here's an overview of your properties and bookings.\n\n", displayName(ss))

	count := func(loading bool, n int) string {
		if loading {
			return "..."
		}
		return strconv.Itoa(n)
	}
	upcoming := models.UpcomingBookings(ds.Bookings, now)
	fmt.Fprintf(w, "  My Properties:     %-4s Properties you've added\n", count(ds.Loading.Properties, len(ds.Properties)))
	fmt.Fprintf(w, "  Upcoming Bookings: %-4s Your upcoming trips\n", count(ds.Loading.Bookings, len(upcoming)))
	fmt.Fprintf(w, "  Invitations:       %-4s People you've invited\n", count(ds.Loading.Invitations, len(ds.Invitations)))
	fmt.Fprintf(w, "  Notifications:     %s unread\n", unreadBadge(ns.Unread))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "My Properties")
	switch {
	case ds.Loading.Properties:
		fmt.Fprintln(w, "  loading...")
	case ds.Errors.Properties != "":
		fmt.Fprintf(w, "  %s\n", ds.Errors.Properties)
	case len(ds.Properties) == 0:
		fmt.Fprintln(w, "  No properties yet")
	default:
		for _, p := range ds.Properties {
			fmt.Fprintf(w, "  - %s%s  %s\n", p.Title, location(p), price(p))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Upcoming Bookings")
	switch {
	case ds.Loading.Bookings:
		fmt.Fprintln(w, "  loading...")
	case ds.Errors.Bookings != "":
		fmt.Fprintf(w, "  %s\n", ds.Errors.Bookings)
	case len(upcoming) == 0:
		fmt.Fprintln(w, "  No upcoming bookings")
	default:
		for _, b := range upcoming {
			fmt.Fprintf(w, "  - %s to %s  %s  $%.2f\n", b.StartDate.Format(dateLayout), b.EndDate.Format(dateLayout), b.Status, b.TotalPrice)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Invitations")
	switch {
	case ds.Loading.Invitations:
		fmt.Fprintln(w, "  loading...")
	case ds.Errors.Invitations != "":
		fmt.Fprintf(w, "  %s\n", ds.Errors.Invitations)
	case len(ds.Invitations) == 0:
		fmt.Fprintln(w, "  No invitations sent")
	default:
		for _, inv := range ds.Invitations {
			fmt.Fprintf(w, "  - %s  %s\n", inv.Email, inv.Status)
		}
	}
}

func location(p models.Property) string {
	var parts []string
	if p.City != nil && *p.City != "" {
		parts = append(parts, *p.City)
	}
	if p.Country != nil && *p.Country != "" {
		parts = append(parts, *p.Country)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func price(p models.Property) string {
	if p.PricePerNight == nil {
		return "No price set"
	}
	return fmt.Sprintf("$%.2f/night", *p.PricePerNight)
}

func renderProfile(w io.Writer, st session.State) {
	fmt.Fprintln(w, "My Profile")
	if st.Profile == nil {
		fmt.Fprintln(w, "  Profile not available")
	} else {
		p := st.Profile
		fmt.Fprintf(w, "  Avatar:     %s\n", avatar(p))
		fmt.Fprintf(w, "  First Name: %s\n", deref(p.FirstName))
		fmt.Fprintf(w, "  Last Name:  %s\n", deref(p.LastName))
	}
	if st.Identity != nil {
		fmt.Fprintf(w, "  Email Address:   %s\n", st.Identity.Email)
		if !st.Identity.CreatedAt.IsZero() {
			fmt.Fprintf(w, "  Account Created: %s\n", st.Identity.CreatedAt.Format(dateLayout))
		}
	}
}

func avatar(p *models.Profile) string {
	if p.AvatarURL != nil && *p.AvatarURL != "" {
		return *p.AvatarURL
	}
	return "[" + p.Initials() + "]"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func renderNotifications(w io.Writer, st notifications.State) {
	fmt.Fprintf(w, "Notifications (%s unread)\n", unreadBadge(st.Unread))
	switch {
	case st.Loading:
		fmt.Fprintln(w, "  loading...")
		return
	case st.Err != "":
		fmt.Fprintf(w, "  Error: %s\n", st.Err)
	}
	if len(st.Items) == 0 && st.Err == "" {
		fmt.Fprintln(w, "  No notifications yet")
		fmt.Fprintln(w, "  We'll notify you when something happens")
		return
	}
	for _, n := range st.Items {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %s [%s] %s  %s\n", mark, n.ID, n.Type, n.Message, n.CreatedAt.Format(dateLayout))
	}
}
