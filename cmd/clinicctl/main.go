package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/hackgods/clinic-frontdesk/internal/config"
	"github.com/hackgods/clinic-frontdesk/internal/display"
	"github.com/hackgods/clinic-frontdesk/internal/session"
	"github.com/hackgods/clinic-frontdesk/internal/store"
	"github.com/hackgods/clinic-frontdesk/internal/workspace"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Front desk operations against the clinic record store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("token", "", "session token (defaults to $CLINIC_TOKEN)")
	rootCmd.PersistentFlags().String("lang", "es", "display language (es, en)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log workspace activity to stderr")

	rootCmd.AddCommand(
		loginCmd(),
		todayCmd(),
		listCmd(),
		dashboardCmd(),
		arriveCmd(),
		statusCmd(),
		editCmd(),
		deleteCmd(),
		createCmd(),
		statsCmd(),
		predictCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", store.UserMessage(err))
		os.Exit(1)
	}
}

// env is everything a command needs to reach the store on behalf of one session.
type env struct {
	cfg    config.Config
	http   *http.Client
	log    zerolog.Logger
	format *display.Formatter
	client *store.Client
	ws     *workspace.Coordinator
}

func (e *env) Close() {
	if e.ws != nil {
		e.ws.Close()
	}
}

// newBaseEnv loads configuration without requiring a session.
func newBaseEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	lang, _ := cmd.Flags().GetString("lang")
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("invalid --lang %q: %w", lang, err)
	}
	_, i, _ := language.NewMatcher(supported).Match(tag)

	level := zerolog.WarnLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	return &env{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.StoreTimeout},
		log:    logger,
		format: display.New(supported[i], cfg.Location),
	}, nil
}

var supported = []language.Tag{language.Spanish, language.English}

// newEnv builds the store client and workspace for the session named by
// --token or $CLINIC_TOKEN.
func newEnv(cmd *cobra.Command) (*env, error) {
	e, err := newBaseEnv(cmd)
	if err != nil {
		return nil, err
	}

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv("CLINIC_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("no session: run clinicctl login and export CLINIC_TOKEN")
	}
	sess, err := session.New(token)
	if err != nil {
		return nil, err
	}
	if !sess.Valid() {
		return nil, session.ErrExpired
	}

	e.client = store.NewClient(e.cfg.StoreBaseURL, sess,
		store.WithHTTPClient(e.http),
		store.WithLocation(e.cfg.Location),
	)
	e.ws = workspace.New(e.client, workspace.Options{
		Location:      e.cfg.Location,
		PageSize:      e.cfg.PageSize,
		AllowOverride: e.cfg.AllowStatusOverride,
		Logger:        e.log,
		ActorID:       sess.UserID(),
	})
	return e, nil
}
