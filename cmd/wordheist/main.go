// cmd/wordheist/main.go
//
// Command-line client for Word Heist. Plays the daily puzzle against the
// server when logged in, or fully offline against the embedded catalog.

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wordheist/wordheist/internal/api"
	"github.com/wordheist/wordheist/internal/localstore"
)

var (
	serverURL string
	verbose   bool
)

func main() {
	root := &cobra.Command{
		Use:   "wordheist",
		Short: "Play the Word Heist daily puzzle",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("WORDHEIST_SERVER", "http://localhost:5000"), "server base URL")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(registerCmd(), loginCmd(), logoutCmd(), playCmd(), leaderboardCmd(), statsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// newClient builds an API client, installing the saved token when present.
func newClient() (*api.Client, *localstore.Store, bool) {
	c := api.New(serverURL)
	st, err := localstore.Default()
	if err != nil {
		log.Warn().Err(err).Msg("local store unavailable")
		return c, nil, false
	}
	tok, err := st.Token()
	if err != nil || tok == "" {
		return c, st, false
	}
	c.SetToken(tok)
	return c, st, true
}

func registerCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, st, _ := newClient()
			res, err := c.Register(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			saveAuth(st, res)
			fmt.Printf("Welcome, %s!\n", res.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, st, _ := newClient()
			res, err := c.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			saveAuth(st, res)
			fmt.Printf("Logged in as %s.\n", res.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func saveAuth(st *localstore.Store, res *api.AuthResult) {
	if st == nil {
		return
	}
	if err := st.SaveToken(res.Token); err != nil {
		log.Warn().Err(err).Msg("save token")
	}
	if err := st.SaveProfile(localstore.Profile{
		ID:       res.User.ID,
		Username: res.User.Username,
		Email:    res.User.Email,
		Premium:  res.User.Premium,
	}); err != nil {
		log.Warn().Err(err).Msg("save profile")
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token and profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := localstore.Default()
			if err != nil {
				return err
			}
			if err := st.ClearToken(); err != nil {
				return err
			}
			if err := st.ClearProfile(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func leaderboardCmd() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show rankings",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _ := newClient()
			lb, err := c.Leaderboard(cmd.Context(), period, "")
			if err != nil {
				return err
			}
			if len(lb.Entries) == 0 {
				fmt.Println("No entries yet.")
				return nil
			}
			fmt.Printf("%s leaderboard:\n", lb.Period)
			for _, e := range lb.Entries {
				fmt.Printf("%3d. %-24s %d\n", e.Rank, e.Username, e.Score)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "daily", "daily, weekly, or alltime")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, authed := newClient()
			if !authed {
				return fmt.Errorf("log in first: wordheist login")
			}
			st, err := c.UserStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Streak: %d days\n", st.Streak)
			fmt.Printf("Total score: %d\n", st.TotalScore)
			fmt.Printf("Puzzles solved: %d\n", st.PuzzlesSolved)
			fmt.Printf("Average score: %d\n", st.AverageScore)
			if st.Premium {
				fmt.Println("Premium: yes (unlimited hints)")
			}
			return nil
		},
	}
}
