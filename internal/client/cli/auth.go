package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/carefollow/internal/client/callback"
	"github.com/dmitrijs2005/carefollow/internal/client/client"
	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/dmitrijs2005/carefollow/internal/client/nav"
	"github.com/dmitrijs2005/carefollow/internal/common"
	"github.com/dmitrijs2005/carefollow/internal/logging"
	"golang.org/x/term"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getChoice = GetChoice
var getPassword = GetPassword

// stdinIsTerminal decides whether the password is read without echo.
var stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// callbackWait bounds how long Google waits for the browser to come back.
var callbackWait = 5 * time.Minute

func (a *App) readPassword() ([]byte, error) {
	if !stdinIsTerminal() {
		s, err := getSimpleText(a.reader, "Enter password", a.out)
		return []byte(s), err
	}
	return getPassword(a.out)
}

// Login prompts for email and password and signs in. On success the user
// lands on the remembered location or their role home.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := a.readPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		a.log.Debug(ctx, "login failed", logging.Err(err))
		a.notify.Error(common.UserMessage(err))
		return err
	}

	a.notify.Success("Welcome back, " + user.Name)
	return a.afterSignIn(ctx, user)
}

// Register prompts for the sign-up form. The role defaults to staff.
func (a *App) Register(ctx context.Context) error {
	var reg models.Registration
	var err error

	if reg.Name, err = getSimpleText(a.reader, "Enter full name", a.out); err != nil {
		return err
	}
	if reg.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}

	password, err := a.readPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	reg.Password = string(password)

	if reg.Phone, err = getSimpleText(a.reader, "Enter phone (optional)", a.out); err != nil {
		return err
	}
	role, err := getChoice(a.reader, "Enter role", a.out,
		[]string{string(models.RoleStaff), string(models.RolePatient)}, string(models.RoleStaff))
	if err != nil {
		return err
	}
	reg.Role = models.Role(role)

	user, err := a.auth.Register(ctx, reg)
	if err != nil {
		a.log.Debug(ctx, "registration failed", logging.Err(err))
		msg := common.UserMessage(err)
		var apiErr *client.APIError
		if errors.Is(err, common.ErrValidation) && !errors.As(err, &apiErr) {
			msg = strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": ")
		}
		a.notify.Error(msg)
		return err
	}

	a.notify.Success("Account created")
	return a.afterSignIn(ctx, user)
}

// Google signs in through the external identity provider. It starts a
// loopback receiver, prints the provider URL and waits for the browser to
// return with an exchange token.
func (a *App) Google(ctx context.Context) error {
	h := callback.NewHandler(a.auth, a.nav, a.notify, a.log.With("component", "callback"))
	rc := callback.NewReceiver(a.config.CallbackAddr, h, a.log.With("component", "receiver"))

	redirect, err := rc.Start(ctx)
	if err != nil {
		a.notify.Error("Could not start the sign-in listener")
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = rc.Shutdown(sctx)
	}()

	loginURL, err := callback.ProviderLoginURL(a.config.AuthProviderURL, redirect)
	if err != nil {
		return err
	}
	a.println("Open this address in your browser to sign in:")
	a.println("  " + loginURL)
	a.println("Waiting for the browser...")

	timer := time.NewTimer(callbackWait)
	defer timer.Stop()

	select {
	case res := <-rc.Result():
		err := a.render(ctx)
		if res.Err != nil {
			return res.Err
		}
		return err
	case <-timer.C:
		a.notify.Error("Sign-in timed out")
		return common.ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Callback handles a provider redirect URL pasted by the user.
func (a *App) Callback(ctx context.Context, rawURL string) error {
	a.nav.SetLocation(rawURL)
	return a.handleCallback(ctx)
}

// Whoami prints the signed-in user.
func (a *App) Whoami(ctx context.Context) error {
	st := a.auth.State()
	if st.User == nil {
		a.println("Not signed in")
		return nil
	}
	u := st.User
	a.printf("%s <%s>\n", u.Name, u.Email)
	a.printf("  Role: %s\n", u.Role)
	if u.Phone != "" {
		a.printf("  Phone: %s\n", u.Phone)
	}
	if exp := a.auth.ExpiresAt(); !exp.IsZero() {
		a.printf("  Session expires: %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

// Logout ends the session and shows the login screen.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not signed in")
		return nil
	}
	a.nav.Push(nav.Location{Path: models.LoginPath})
	if err := a.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.notify.Success("Signed out")
	a.loginScreen()
	return nil
}
