package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/user"
	"github.com/darivadeneira/evento-web/core/validation"
	backendsvc "github.com/darivadeneira/evento-web/services/backend"
	geocodesvc "github.com/darivadeneira/evento-web/services/geocode"
	logsvc "github.com/darivadeneira/evento-web/services/logger"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errLoginRequired = errors.New("no hay una sesión activa, ejecuta: admin login")
)

// geocoder resolves the address shown when confirming a map location.
type geocoder interface {
	Reverse(ctx context.Context, p form.Point) (geocodesvc.Place, error)
}

type commandLine struct {
	v        *viper.Viper
	prompter Prompter
	out      io.Writer

	conf      *core.Config
	logger    core.Logger
	backend   *backendsvc.Client
	validator *validation.Validator
	geocoder  geocoder
	store     *sessionStore
	session   user.Session
}

func newCommandLine(v *viper.Viper, p Prompter, out io.Writer) *commandLine {
	return &commandLine{v: v, prompter: p, out: out}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "admin",
		Short:             "Evento dashboard from the terminal",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.setup,
	}
	root.SetOut(cli.out)

	flags := root.PersistentFlags()
	flags.String("backend-url", "", "ticketing backend base URL")
	flags.String("session-path", "", "file holding the login session")
	flags.Bool("debug", false, "log backend calls")
	_ = cli.v.BindPFlag("backendURL", flags.Lookup("backend-url"))
	_ = cli.v.BindPFlag("sessionPath", flags.Lookup("session-path"))
	_ = cli.v.BindPFlag("debug", flags.Lookup("debug"))

	root.AddCommand(
		cli.loginCmd(),
		cli.logoutCmd(),
		cli.signupCmd(),
		cli.registerCmd(),
		cli.eventCmd(),
		cli.categoryCmd(),
		cli.purchaseCmd(),
		cli.metricsCmd(),
	)
	return root
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// setup wires the dependencies once flags are parsed.
func (cli *commandLine) setup(*cobra.Command, []string) error {
	cli.conf = core.LoadConfig(cli.v)

	if cli.logger == nil {
		logger := logsvc.NewRollbarLogger(
			log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
			cli.conf,
		)
		logger.Enable(!cli.conf.Debug)
		cli.logger = logger
	}

	backend, err := backendsvc.NewClient(cli.conf, cli.logger)
	if err != nil {
		return errors.Wrap(err, "setting up backend client")
	}
	cli.backend = backend

	cli.validator = validation.NewDefault()
	user.RegisterValidators(cli.validator)

	if cli.geocoder == nil {
		nominatim, err := geocodesvc.NewNominatim(cli.conf, cli.logger)
		if err != nil {
			return errors.Wrap(err, "setting up geocoder")
		}
		cli.geocoder = nominatim
	}

	cli.store = newSessionStore(cli.conf.Session.Path)
	sess, err := cli.store.Load()
	if err != nil {
		return err
	}
	cli.session = sess
	return nil
}

// requireSession checks the stored session may act with one of roles and returns a backend
// client authenticated as it.
func (cli *commandLine) requireSession(roles ...string) (*backendsvc.Client, error) {
	if err := cli.session.Require(roles...); err != nil {
		if err == user.ErrNoSession || err == user.ErrSessionExpired {
			return nil, errLoginRequired
		}
		return nil, err
	}
	return cli.backend.WithToken(cli.session.Token), nil
}

func (cli *commandLine) printf(format string, a ...interface{}) {
	fmt.Fprintf(cli.out, format, a...)
}
