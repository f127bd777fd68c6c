package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/carefollow/internal/client/client"
	"github.com/dmitrijs2005/carefollow/internal/client/config"
	"github.com/dmitrijs2005/carefollow/internal/client/credentials"
	"github.com/dmitrijs2005/carefollow/internal/client/gate"
	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/dmitrijs2005/carefollow/internal/client/nav"
	"github.com/dmitrijs2005/carefollow/internal/client/services"
	"github.com/dmitrijs2005/carefollow/internal/common"
	"github.com/dmitrijs2005/carefollow/internal/filex"
	"github.com/dmitrijs2005/carefollow/internal/logging"
)

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	api    client.Client
	auth   services.AuthService
	nav    *nav.Navigator
	routes gate.Table
	notify *terminalNotifier

	reader *bufio.Reader
	out    io.Writer

	unsubscribe func()
	closeOnce   sync.Once
}

// NewApp opens the local session database and wires the backend client and
// the session manager. The session is not restored until Start.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	if log == nil {
		log = logging.Discard()
	}

	if _, err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := credentials.OpenDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, logging.Err(err))
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout, nil)
	auth := services.NewAuthService(api, credentials.NewSQLiteStore(db), services.Options{
		ValidateOnStartup: c.ValidateOnStartup,
		Logger:            log.With("component", "auth"),
	})

	a := newApp(c, log, api, auth, in, out)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, log logging.Logger, api client.Client, auth services.AuthService, in io.Reader, out io.Writer) *App {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	a := &App{
		config: c,
		log:    log,
		api:    api,
		auth:   auth,
		nav:    nav.NewNavigator(nav.Location{Path: "/"}),
		routes: gate.Portal,
		notify: &terminalNotifier{w: out},
		reader: bufio.NewReader(in),
		out:    out,
	}
	a.unsubscribe = auth.Subscribe(a.onAuthChange)
	return a
}

// Start restores the stored session and opens the first screen: the role
// home when signed in, the login screen otherwise.
func (a *App) Start(ctx context.Context) {
	st, err := a.auth.Initialize(ctx)
	if err != nil {
		a.log.Warn(ctx, "session restore failed", logging.Err(err))
	}
	start := models.LoginPath
	if st.User != nil {
		start = models.RoleHome(st.User.Role)
	}
	a.nav.Replace(nav.Location{Path: start})
}

// Close detaches from the session manager and closes the database.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		if a.db != nil {
			err = a.db.Close()
		}
	})
	return err
}

func (a *App) isLoggedIn() bool {
	return a.auth.State().Authenticated()
}

func (a *App) getStatus() string {
	var parts []string
	if u := a.auth.State().User; u != nil {
		parts = append(parts, u.Email, string(u.Role))
	}
	parts = append(parts, a.nav.Current().Path)
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// onAuthChange runs synchronously inside the session manager. It only moves
// the navigator; it must not start auth operations.
func (a *App) onAuthChange(st models.AuthState) {
	if st.Phase != models.PhaseUnauthenticated || st.Loading {
		return
	}
	cur := a.nav.Current()
	route, ok := a.routes.Match(cur.Path)
	if !ok || route.Public {
		return
	}
	a.nav.Replace(nav.Location{Path: models.LoginPath, From: gate.SafeReturn(cur.Path)})
	a.notify.Error(common.UserMessage(common.ErrAuthorizationExpired))
}

func (a *App) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
