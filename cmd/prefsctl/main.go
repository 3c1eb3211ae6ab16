// Command prefsctl inspects and edits stylesheet user preferences stored in
// a SQLite or PostgreSQL database, using a YAML descriptor catalog.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	prefs "github.com/goliatone/go-prefs"
	"github.com/goliatone/go-prefs/pkg/activity"
	"github.com/goliatone/go-prefs/pkg/catalog"
	"github.com/goliatone/go-prefs/pkg/state"
	"github.com/goliatone/go-prefs/pkg/zaplog"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds the global flags.
type options struct {
	catalogPath string
	dbPath      string
	dsn         string
	person      int64
	profile     int64
	theme       string
	structure   string
	layout      map[string]string
	target      string
	element     string
	evaluator   string
	noCreate    bool
	debug       bool
}

type app struct {
	opts   options
	out    io.Writer
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "prefsctl",
		Short: "Inspect and edit stylesheet user preferences",
		Long: `prefsctl resolves layout attributes, output properties and stylesheet
parameters the way the portal renderer does.

Persistent values are read from and written to the database. Request and
session scoped values only live for the duration of one invocation.

Example:
  prefsctl --catalog portal.yaml --person 42 --profile 1 --theme Universality \
    set parameter skin red`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if a.opts.debug {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			} else {
				config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.catalogPath, "catalog", "", "path to the YAML descriptor catalog")
	flags.StringVar(&a.opts.dbPath, "db", "prefs.db", "SQLite database path")
	flags.StringVar(&a.opts.dsn, "dsn", "", "PostgreSQL DSN (overrides --db)")
	flags.Int64Var(&a.opts.person, "person", 0, "person id")
	flags.Int64Var(&a.opts.profile, "profile", 0, "profile id")
	flags.StringVar(&a.opts.theme, "theme", "", "theme stylesheet id or name")
	flags.StringVar(&a.opts.structure, "structure", "", "structure stylesheet id or name")
	flags.StringToStringVar(&a.opts.layout, "layout", nil, "layout elements as id=type pairs")
	flags.StringVar(&a.opts.target, "target", "theme", "stylesheet to address: theme or structure")
	flags.StringVar(&a.opts.element, "element", "", "element id for layout attributes")
	flags.StringVar(&a.opts.evaluator, "evaluator", "expr", "constraint evaluator: expr, cel, js or none")
	flags.BoolVar(&a.opts.noCreate, "no-create", false, "do not create preference rows on read")
	flags.BoolVar(&a.opts.debug, "debug", false, "enable debug logging")
	_ = root.MarkPersistentFlagRequired("catalog")

	root.AddCommand(
		a.getCmd(),
		a.setCmd(),
		a.removeCmd(),
		a.populateCmd(),
		a.catalogCmd(),
	)
	return root
}

// session bundles everything one command needs.
type session struct {
	resolver *prefs.Resolver
	request  *prefs.Request
	catalog  *catalog.Catalog
	target   prefs.PreferencesScope
	close    func() error
}

func (a *app) openCatalog() (*catalog.Catalog, error) {
	source, err := catalog.NewFileSource(a.opts.catalogPath, catalog.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	return source.Catalog(), nil
}

func (a *app) open(ctx context.Context) (*session, error) {
	c, err := a.openCatalog()
	if err != nil {
		return nil, err
	}
	target := prefs.ParsePreferencesScope(a.opts.target)
	if target == prefs.PreferencesScopeUnknown {
		return nil, fmt.Errorf("%w: %q", prefs.ErrUnknownPreferencesScope, a.opts.target)
	}
	themeID, err := stylesheetID(ctx, c, a.opts.theme)
	if err != nil {
		return nil, fmt.Errorf("--theme: %w", err)
	}
	structureID, err := stylesheetID(ctx, c, a.opts.structure)
	if err != nil {
		return nil, fmt.Errorf("--structure: %w", err)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	evaluator, err := newEvaluator(a.opts.evaluator)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	identity := prefs.Identity{
		PersonID:              a.opts.person,
		ProfileID:             a.opts.profile,
		ThemeStylesheetID:     themeID,
		StructureStylesheetID: structureID,
	}
	resolver, err := prefs.NewResolver(prefs.Dependencies{
		Identity:    prefs.StaticIdentity(identity),
		Descriptors: c,
		Store:       store,
		Layout:      prefs.StaticLayout(a.opts.layout),
	},
		prefs.WithLogger(zaplog.NewResolutionLogger(a.logger)),
		prefs.WithEvaluator(evaluator),
		prefs.WithCreateOnRead(!a.opts.noCreate),
		prefs.WithActivityHooks(a.activityHook()),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &session{
		resolver: resolver,
		request:  prefs.NewRequest(prefs.NewMemoryBag()),
		catalog:  c,
		target:   target,
		close:    store.Close,
	}, nil
}

func (a *app) openStore(ctx context.Context) (*state.SQLStore, error) {
	if strings.TrimSpace(a.opts.dsn) != "" {
		return state.OpenPostgres(ctx, a.opts.dsn)
	}
	return state.OpenSQLite(ctx, a.opts.dbPath)
}

func (a *app) activityHook() activity.ActivityHook {
	return activity.HookFunc(func(_ context.Context, event activity.Event) error {
		a.logger.Info("preference activity",
			zap.String("verb", event.Verb),
			zap.String("object_type", event.ObjectType),
			zap.String("object_id", event.ObjectID),
			zap.String("actor_id", event.ActorID),
			zap.Any("metadata", event.Metadata),
		)
		return nil
	})
}

// stylesheetID accepts a numeric id or a stylesheet name. Empty means none.
func stylesheetID(ctx context.Context, c *catalog.Catalog, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		if _, err := c.StylesheetDescriptor(ctx, id); err != nil {
			return 0, err
		}
		return id, nil
	}
	sd, err := c.StylesheetDescriptorByName(ctx, value)
	if err != nil {
		return 0, err
	}
	return sd.ID, nil
}

func newEvaluator(name string) (prefs.Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "expr":
		return prefs.NewExprEvaluator(prefs.ExprWithProgramCache(prefs.NewMemoryProgramCache())), nil
	case "cel":
		return prefs.NewCELEvaluator(prefs.CELWithProgramCache(prefs.NewMemoryProgramCache())), nil
	case "js":
		e := prefs.NewJSEvaluator(prefs.JSWithProgramCache(prefs.NewMemoryProgramCache()))
		if e == nil {
			return nil, fmt.Errorf("js evaluator requires building with -tags js_eval")
		}
		return e, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown evaluator %q", name)
	}
}
