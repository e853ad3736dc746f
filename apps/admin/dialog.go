package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/wizard"
)

const numberText = "Debe ser un número"

// runDialog asks the fields of d step by step and submits it. Rejected fields are asked again
// until the submission succeeds or fails for a reason the user cannot fix.
func (cli *commandLine) runDialog(ctx context.Context, d *dialog.Dialog, choices map[string][]string) error {
	view := d.View()
	if view.StepCount == 0 {
		for _, f := range d.Schema().Fields() {
			if err := cli.askField(ctx, d, f, choices); err != nil {
				return err
			}
		}
		return cli.finish(ctx, d, choices, d.Submit(ctx))
	}

	fields := view.StepFields
	for {
		if err := cli.askFields(ctx, d, fields, choices); err != nil {
			return err
		}
		outcome, err := d.Next(ctx)
		view = d.View()
		switch outcome {
		case wizard.Advanced:
		case wizard.Blocked:
			cli.printf("✗ %s\n", view.StepError)
		case wizard.Disabled:
			cli.printf("✗ %s\n", view.Blocker)
		case wizard.Submit:
			return cli.finish(ctx, d, choices, err)
		default:
			return dialog.ErrClosed
		}
		fields = view.StepFields
	}
}

// finish handles the result of a submission, retrying after the fields at fault are fixed.
func (cli *commandLine) finish(ctx context.Context, d *dialog.Dialog, choices map[string][]string, err error) error {
	for {
		if err == nil {
			cli.printf("✓ %s\n", d.Status().Text())
			return nil
		}
		fields, ferr := cli.faultyFields(d, err)
		if ferr != nil {
			return ferr
		}
		if err := cli.askFields(ctx, d, fields, choices); err != nil {
			return err
		}
		err = d.Submit(ctx)
	}
}

// faultyFields returns the fields to ask again after err, or an error when asking cannot help.
func (cli *commandLine) faultyFields(d *dialog.Dialog, err error) ([]string, error) {
	view := d.View()
	switch e := errors.Cause(err).(type) {
	case *core.ValidationError:
		fm := e.FieldMap()
		var names []string
		for _, f := range d.Schema().Fields() {
			if msg, ok := fm[f.Name]; ok {
				cli.printf("✗ %s: %s\n", f.Name, msg)
				names = append(names, f.Name)
			}
		}
		if len(names) > 0 {
			return names, nil
		}
		if len(view.StepFields) > 0 {
			cli.printf("✗ %s\n", e.Error())
			return view.StepFields, nil
		}
		return nil, err
	case *core.ServerError:
		if view.Field != "" {
			cli.printf("✗ %s\n", e.Message)
			return []string{view.Field}, nil
		}
		return nil, err
	case *core.ConnectivityError:
		cli.logger.Warn(fmt.Sprintf("submitting %s dialog: %v", d.Kind(), err), cli.session)
		return nil, errors.New(core.ConnectivityText)
	}
	return nil, err
}

func (cli *commandLine) askFields(ctx context.Context, d *dialog.Dialog, names []string, choices map[string][]string) error {
	for _, name := range names {
		f, ok := d.Schema().Field(name)
		if !ok {
			return errors.Errorf("unknown field %q", name)
		}
		if err := cli.askField(ctx, d, f, choices); err != nil {
			return err
		}
	}
	return nil
}

// askField prompts for f until the dialog accepts the answer.
func (cli *commandLine) askField(ctx context.Context, d *dialog.Dialog, f form.Field, choices map[string][]string) error {
	if f.Kind == form.Coordinates {
		return cli.askPoint(ctx, d, f.Name)
	}
	for {
		value, err := cli.ask(ctx, f, d.View().Values[f.Name], choices[f.Name])
		if err != nil {
			return err
		}
		msg, err := d.SetField(f.Name, value)
		if err != nil {
			return err
		}
		if msg == "" {
			return nil
		}
		cli.printf("✗ %s\n", msg)
	}
}

func (cli *commandLine) ask(ctx context.Context, f form.Field, current interface{}, options []string) (interface{}, error) {
	msg := f.Name + ":"
	switch {
	case len(options) > 0:
		def := fmt.Sprint(current)
		cfg := SelectConfig{Name: f.Name, Message: msg, Options: options}
		for _, o := range options {
			if o == def {
				cfg.Default = def
			}
		}
		i, err := cli.prompter.Select(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(options) {
			return nil, errors.Errorf("%s: choice %d out of range", f.Name, i)
		}
		return options[i], nil
	case f.Kind == form.Bool:
		def, _ := current.(bool)
		return cli.prompter.Confirm(ctx, ConfirmConfig{Name: f.Name, Message: msg, Default: def})
	case f.Kind == form.Secret:
		return cli.prompter.Password(ctx, InputConfig{Name: f.Name, Message: msg})
	}

	cfg := InputConfig{Name: f.Name, Message: msg, Default: toText(current)}
	switch f.Kind {
	case form.Date:
		cfg.Help = "AAAA-MM-DD"
	case form.Text:
		return cli.prompter.TextArea(ctx, cfg)
	}
	return cli.prompter.Input(ctx, cfg)
}

// askPoint asks a location and shows the address it resolves to for confirmation.
func (cli *commandLine) askPoint(ctx context.Context, d *dialog.Dialog, name string) error {
	current, _ := d.View().Values[name].(form.Point)
	for {
		lat, err := cli.askFloat(ctx, name+".lat", "latitud:", current.Lat)
		if err != nil {
			return err
		}
		lng, err := cli.askFloat(ctx, name+".lng", "longitud:", current.Lng)
		if err != nil {
			return err
		}
		p := form.Point{Lat: lat, Lng: lng}
		msg, err := d.SetField(name, p)
		if err != nil {
			return err
		}
		if msg != "" {
			cli.printf("✗ %s\n", msg)
			continue
		}

		place, err := cli.geocoder.Reverse(ctx, p)
		if err != nil {
			cli.logger.Warn(fmt.Sprintf("reverse geocoding %v: %v", p, err))
			return nil
		}
		ok, err := cli.prompter.Confirm(ctx, ConfirmConfig{
			Name:    name + ".confirm",
			Message: fmt.Sprintf("¿Es correcta la ubicación %q?", place.DisplayName),
			Default: true,
		})
		if err != nil || ok {
			return err
		}
		current = p
	}
}

func (cli *commandLine) askFloat(ctx context.Context, name, msg string, current float64) (float64, error) {
	cfg := InputConfig{Name: name, Message: msg}
	if current != 0 {
		cfg.Default = strconv.FormatFloat(current, 'f', -1, 64)
	}
	for {
		s, err := cli.prompter.Input(ctx, cfg)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(core.CleanString(s), 64)
		if err == nil {
			return f, nil
		}
		cli.printf("✗ %s\n", numberText)
	}
}

func toText(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
