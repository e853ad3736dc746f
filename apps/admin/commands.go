package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/event"
	"github.com/darivadeneira/evento-web/core/ticket"
	"github.com/darivadeneira/evento-web/core/transaction"
	"github.com/darivadeneira/evento-web/core/user"
)

var managers = []string{user.RoleOrganizer, user.RoleAdmin}

func (cli *commandLine) loginCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in; the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if username == "" {
				var err error
				username, err = cli.prompter.Input(ctx, InputConfig{Name: "username", Message: "Usuario:"})
				if err != nil {
					return err
				}
			}
			cli.printf("Contraseña: ")
			pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
			cli.printf("\n")
			if err != nil {
				return err
			}

			usrSvc, err := user.NewService(cli.backend, cli.validator)
			if err != nil {
				return err
			}
			sess, err := usrSvc.Login(ctx, user.Credentials{Username: username, Password: string(pwd)})
			if err != nil {
				return err
			}
			if err := cli.store.Save(sess); err != nil {
				return err
			}
			cli.session = sess
			cli.logger.Info("logged in", sess)
			cli.printf("Sesión iniciada como %s (%s)\n", sess.Username, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username or email")
	return cmd
}

func (cli *commandLine) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := cli.store.Clear(); err != nil {
				return err
			}
			cli.session = user.Session{}
			cli.printf("Sesión cerrada\n")
			return nil
		},
	}
}

func (cli *commandLine) signupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an attendee account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.openAndRun(cmd, user.SignupForm{}, cli.backend, dialog.Create, "", nil, nil)
		},
	}
}

func (cli *commandLine) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register an organizer or administrator (admins only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := cli.requireSession(user.RoleAdmin)
			if err != nil {
				return err
			}
			choices := map[string][]string{"role": user.AllRoles}
			return cli.openAndRun(cmd, user.RegistrationForm{}, backend, dialog.Create, "", nil, choices)
		},
	}
}

func (cli *commandLine) eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Create or edit events",
	}
	run := func(mode dialog.Mode) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			backend, err := cli.requireSession(managers...)
			if err != nil {
				return err
			}
			svc, err := event.NewService(backend, cli.validator)
			if err != nil {
				return err
			}
			var id string
			if len(args) > 0 {
				id = args[0]
			}
			return cli.openAndRun(cmd, svc, backend, mode, id, nil, nil)
		}
	}
	cmd.AddCommand(
		&cobra.Command{Use: "create", Short: "Create an event", Args: cobra.NoArgs, RunE: run(dialog.Create)},
		&cobra.Command{Use: "edit ID", Short: "Edit an event", Args: cobra.ExactArgs(1), RunE: run(dialog.Edit)},
	)
	return cmd
}

func (cli *commandLine) categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Create or edit ticket categories",
	}

	var eventID string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a ticket category for an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := cli.requireSession(managers...)
			if err != nil {
				return err
			}
			svc, err := ticket.NewService(backend)
			if err != nil {
				return err
			}
			params := map[string]string{"eventId": eventID}
			return cli.openAndRun(cmd, svc, backend, dialog.Create, "", params, nil)
		},
	}
	create.Flags().StringVar(&eventID, "event", "", "event ID")
	_ = create.MarkFlagRequired("event")

	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a ticket category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := cli.requireSession(managers...)
			if err != nil {
				return err
			}
			svc, err := ticket.NewService(backend)
			if err != nil {
				return err
			}
			return cli.openAndRun(cmd, svc, backend, dialog.Edit, args[0], nil, nil)
		},
	}

	cmd.AddCommand(create, edit)
	return cmd
}

func (cli *commandLine) purchaseCmd() *cobra.Command {
	var eventID, categoryID string
	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Buy tickets of a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := cli.requireSession()
			if err != nil {
				return err
			}
			cats, err := ticket.NewService(backend)
			if err != nil {
				return err
			}
			svc, err := transaction.NewService(backend, cats)
			if err != nil {
				return err
			}
			params := map[string]string{"eventId": eventID, "categoryId": categoryID}
			return cli.openAndRun(cmd, svc, backend, dialog.Create, "", params, nil)
		},
	}
	cmd.Flags().StringVar(&eventID, "event", "", "event ID")
	cmd.Flags().StringVar(&categoryID, "category", "", "ticket category ID")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func (cli *commandLine) metricsCmd() *cobra.Command {
	var eventID string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show the sales of an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := cli.requireSession(managers...)
			if err != nil {
				return err
			}
			cats, err := ticket.NewService(backend)
			if err != nil {
				return err
			}
			svc, err := transaction.NewService(backend, cats)
			if err != nil {
				return err
			}
			m, err := svc.Metrics(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			cli.printMetrics(m)
			return nil
		},
	}
	cmd.Flags().StringVar(&eventID, "event", "", "event ID")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func (cli *commandLine) printMetrics(m transaction.Metrics) {
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORÍA\tVENDIDAS\tCAPACIDAD\tOCUPACIÓN\tINGRESOS\tCOMPRAS")
	for _, c := range m.Categories {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f%%\t%.2f\t%d\n",
			c.Name, c.TicketsSold, c.Capacity, c.Occupancy, c.Revenue, c.Transactions)
	}
	fmt.Fprintf(w, "TOTAL\t%d\t%d\t%.2f%%\t%.2f\t%d\n",
		m.TicketsSold, m.Capacity, m.Occupancy, m.Revenue, m.Transactions)
	_ = w.Flush()
}

// openAndRun opens a dialog of frm acting through backend and drives it until it is submitted.
func (cli *commandLine) openAndRun(
	cmd *cobra.Command,
	frm dialog.Form,
	backend dialog.Submitter,
	mode dialog.Mode,
	id string,
	params map[string]string,
	choices map[string][]string,
) error {
	ctx := cmd.Context()
	cfg, err := frm.Config(ctx, mode, id, params)
	if err != nil {
		return err
	}
	cfg.CloseDelay = cli.conf.Dialog.CloseDelay

	d := dialog.New(cfg, cli.validator, backend)
	defer d.Close()
	if err := cli.runDialog(ctx, d, choices); err != nil {
		return err
	}
	if res := d.Result(); res != nil {
		if rid, ok := res["id"]; ok {
			cli.logger.Debug(fmt.Sprintf("%s saved: %v", d.Kind(), rid), cli.session)
		}
	}
	return nil
}
