package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	prefs "github.com/goliatone/go-prefs"
)

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [category] [name]",
		Short: "Print the value of one preference",
		Long: `Categories: attribute (layout attribute, needs --element), property
(output property) and parameter (stylesheet parameter).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, s *session) error {
				category, err := prefs.ParseCategory(args[0])
				if err != nil {
					return err
				}
				value, ok, err := a.get(ctx, s, category, args[1])
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(a.out, "%s is not set\n", args[1])
					return nil
				}
				fmt.Fprintf(a.out, "%s=%s\n", args[1], value)
				return nil
			})
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [category] [name] [value]",
		Short: "Store the value of one preference in its declared scope",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, s *session) error {
				category, err := prefs.ParseCategory(args[0])
				if err != nil {
					return err
				}
				prev, had, err := a.set(ctx, s, category, args[1], args[2])
				if err != nil {
					return err
				}
				if had {
					fmt.Fprintf(a.out, "%s=%s (was %s)\n", args[1], args[2], prev)
					return nil
				}
				fmt.Fprintf(a.out, "%s=%s\n", args[1], args[2])
				return nil
			})
		},
	}
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [category] [name]",
		Short: "Clear the value of one preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, s *session) error {
				category, err := prefs.ParseCategory(args[0])
				if err != nil {
					return err
				}
				prev, had, err := a.remove(ctx, s, category, args[1])
				if err != nil {
					return err
				}
				if !had {
					fmt.Fprintf(a.out, "%s was not set\n", args[1])
					return nil
				}
				fmt.Fprintf(a.out, "removed %s (was %s)\n", args[1], prev)
				return nil
			})
		},
	}
}

func (a *app) populateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "populate [category]",
		Short: "Print the effective value of every declared preference as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, s *session) error {
				category, err := prefs.ParseCategory(args[0])
				if err != nil {
					return err
				}
				var effective prefs.Effective
				switch category {
				case prefs.CategoryLayoutAttribute:
					effective, err = s.resolver.PopulateLayoutAttributes(ctx, s.request, s.target, a.opts.element)
				case prefs.CategoryOutputProperty:
					effective, err = s.resolver.PopulateOutputProperties(ctx, s.request, s.target)
				default:
					effective, err = s.resolver.PopulateStylesheetParameters(ctx, s.request, s.target)
				}
				if err != nil {
					return err
				}
				payload, err := json.MarshalIndent(effective, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, string(payload))
				return nil
			})
		},
	}
}

func (a *app) catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the stylesheets and preferences declared in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCatalog()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STYLESHEET\tCATEGORY\tNAME\tSCOPE\tDEFAULT\tTARGETS")
			for _, sd := range c.Stylesheets() {
				for _, category := range prefs.Categories() {
					for _, d := range sd.Descriptors(category) {
						fmt.Fprintf(w, "%d:%s\t%s\t%s\t%s\t%s\t%s\n",
							sd.ID, sd.Name, category, d.Name, d.Scope, d.DefaultValue, strings.Join(d.TargetElements, ","))
					}
				}
			}
			return w.Flush()
		},
	}
}

func (a *app) run(ctx context.Context, fn func(context.Context, *session) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()
	return fn(ctx, s)
}

func (a *app) get(ctx context.Context, s *session, category prefs.Category, name string) (string, bool, error) {
	switch category {
	case prefs.CategoryLayoutAttribute:
		return s.resolver.GetLayoutAttribute(ctx, s.request, s.target, a.opts.element, name)
	case prefs.CategoryOutputProperty:
		return s.resolver.GetOutputProperty(ctx, s.request, s.target, name)
	default:
		return s.resolver.GetStylesheetParameter(ctx, s.request, s.target, name)
	}
}

func (a *app) set(ctx context.Context, s *session, category prefs.Category, name, value string) (string, bool, error) {
	switch category {
	case prefs.CategoryLayoutAttribute:
		return s.resolver.SetLayoutAttribute(ctx, s.request, s.target, a.opts.element, name, value)
	case prefs.CategoryOutputProperty:
		return s.resolver.SetOutputProperty(ctx, s.request, s.target, name, value)
	default:
		return s.resolver.SetStylesheetParameter(ctx, s.request, s.target, name, value)
	}
}

func (a *app) remove(ctx context.Context, s *session, category prefs.Category, name string) (string, bool, error) {
	switch category {
	case prefs.CategoryLayoutAttribute:
		return s.resolver.RemoveLayoutAttribute(ctx, s.request, s.target, a.opts.element, name)
	case prefs.CategoryOutputProperty:
		return s.resolver.RemoveOutputProperty(ctx, s.request, s.target, name)
	default:
		return s.resolver.RemoveStylesheetParameter(ctx, s.request, s.target, name)
	}
}
