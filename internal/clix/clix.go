// Package clix is a small Cobra-command + Viper-config builder, adapted
// from the teacher's vendored vendor/github.com/aqua777/krait helper: a
// fluent Command wrapper that registers typed flags, binds them to
// environment variables through Viper, and sets the command's Run
// function. Trimmed to the subset cmd/weavectl actually exercises (string,
// bool, and int flags plus subcommand wiring) rather than porting every
// krait Width*/*Var permutation.
package clix

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command wraps a cobra.Command with a private Viper instance for
// flag/env binding, following krait.Command's shape.
type Command struct {
	cmd   *cobra.Command
	viper *viper.Viper

	Name        string
	Description string
	SubCommands []*Command
}

// New builds a named command with no run function yet.
func New(name, description string) *Command {
	return &Command{
		cmd: &cobra.Command{
			Use:          name,
			Short:        description,
			SilenceUsage: true,
		},
		viper: viper.New(),
		Name:  name,
		Description: description,
	}
}

// App builds the root command of a CLI, equivalent to krait.App.
func App(name, description string) *Command {
	return New(name, description)
}

// WithCommand registers child as a subcommand.
func (c *Command) WithCommand(child *Command) *Command {
	c.SubCommands = append(c.SubCommands, child)
	c.cmd.AddCommand(child.cmd)
	return c
}

// WithRun sets the command's execution function. Errors returned by run
// surface as cobra's usual RunE error path.
func (c *Command) WithRun(run func(args []string) error) *Command {
	c.cmd.RunE = func(_ *cobra.Command, args []string) error {
		return run(args)
	}
	return c
}

// WithExactArgs constrains the command to exactly n positional args.
func (c *Command) WithExactArgs(n int) *Command {
	c.cmd.Args = cobra.ExactArgs(n)
	return c
}

// WithMinimumNArgs constrains the command to at least n positional args.
func (c *Command) WithMinimumNArgs(n int) *Command {
	c.cmd.Args = cobra.MinimumNArgs(n)
	return c
}

// WithStringVar registers a string flag bound to p, with env fallback.
func (c *Command) WithStringVar(p *string, flag, shortFlag, description, envVar string, defaultValue string) *Command {
	if shortFlag != "" {
		c.cmd.Flags().StringVarP(p, flag, shortFlag, defaultValue, description)
	} else {
		c.cmd.Flags().StringVar(p, flag, defaultValue, description)
	}
	c.bindEnv(flag, envVar)
	return c
}

// WithBoolVar registers a bool flag bound to p, with env fallback.
func (c *Command) WithBoolVar(p *bool, flag, shortFlag, description, envVar string, defaultValue bool) *Command {
	if shortFlag != "" {
		c.cmd.Flags().BoolVarP(p, flag, shortFlag, defaultValue, description)
	} else {
		c.cmd.Flags().BoolVar(p, flag, defaultValue, description)
	}
	c.bindEnv(flag, envVar)
	return c
}

// WithIntVar registers an int flag bound to p, with env fallback.
func (c *Command) WithIntVar(p *int, flag, shortFlag, description, envVar string, defaultValue int) *Command {
	if shortFlag != "" {
		c.cmd.Flags().IntVarP(p, flag, shortFlag, defaultValue, description)
	} else {
		c.cmd.Flags().IntVar(p, flag, defaultValue, description)
	}
	c.bindEnv(flag, envVar)
	return c
}

// WithStringSliceVar registers a repeatable string flag bound to p.
func (c *Command) WithStringSliceVar(p *[]string, flag, shortFlag, description, envVar string) *Command {
	if shortFlag != "" {
		c.cmd.Flags().StringSliceVarP(p, flag, shortFlag, nil, description)
	} else {
		c.cmd.Flags().StringSliceVar(p, flag, nil, description)
	}
	c.bindEnv(flag, envVar)
	return c
}

func (c *Command) bindEnv(flag, envVar string) {
	if envVar == "" {
		return
	}
	c.viper.BindEnv(flag, envVar)
	c.viper.BindPFlag(flag, c.cmd.Flags().Lookup(flag))
}

// SetArgs overrides the argument vector Execute dispatches on, instead
// of the default os.Args[1:] — mainly useful for tests.
func (c *Command) SetArgs(args []string) *Command {
	c.cmd.SetArgs(args)
	return c
}

// Execute runs the command tree, resolving bound env vars over
// not-explicitly-set flags before dispatch.
func (c *Command) Execute() error {
	var applyEnv func(cmd *Command) error
	applyEnv = func(cmd *Command) error {
		for _, key := range cmd.viper.AllKeys() {
			if cmd.viper.IsSet(key) {
				if err := cmd.cmd.Flags().Set(key, cmd.viper.GetString(key)); err != nil {
					return err
				}
			}
		}
		for _, sub := range cmd.SubCommands {
			if err := applyEnv(sub); err != nil {
				return err
			}
		}
		return nil
	}
	if err := applyEnv(c); err != nil {
		return err
	}
	return c.cmd.Execute()
}

// Fail is a small helper for Run functions to format a consistent error.
func Fail(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
