// cmd/wordheist/play.go
//
// Interactive play loop. Online when a token is saved and the server
// answers; otherwise plays the embedded offline catalog. Either way, the
// reconciler owns the session state and the loop only renders snapshots.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wordheist/wordheist/internal/api"
	"github.com/wordheist/wordheist/internal/localstore"
	"github.com/wordheist/wordheist/internal/puzzle"
	"github.com/wordheist/wordheist/internal/session"
)

const localHintAllowance = 3

func playCmd() *cobra.Command {
	var offline bool
	var date string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the daily puzzle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), offline, date)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "play locally without the server")
	cmd.Flags().StringVar(&date, "date", "", "puzzle date (YYYY-MM-DD, default today)")
	return cmd
}

func runPlay(ctx context.Context, offline bool, date string) error {
	client, st, authed := newClient()

	var (
		sess *session.Session
		rec  *session.Reconciler
	)

	if !offline && authed {
		remote, err := client.DailyPuzzle(ctx, date)
		if err != nil {
			log.Warn().Err(err).Msg("server unreachable, switching to offline play")
			offline = true
		} else {
			sess = onlineSession(remote, st)
			rec = session.New(client)
			printCase(remote.Puzzle.CaseNumber, remote.Puzzle.CaseTitle, remote.Puzzle.Letters)
		}
	} else if !offline {
		fmt.Println("Not logged in; playing offline. Scores will not be recorded.")
		offline = true
	}

	if offline {
		p, err := offlinePuzzle(date)
		if err != nil {
			return err
		}
		sess = session.NewSession(p, session.Anonymous, localHintAllowance)
		rec = session.New(nil)
		printCase(p.CaseNumber, p.CaseTitle, p.Letters)
	}

	return playLoop(ctx, rec, sess)
}

// onlineSession builds an authenticated session. The local fallback puzzle
// is derived from the letter grid; the mystery word stays server-side, so a
// fallback attempt can score plain words but not the mystery bonus.
func onlineSession(remote *api.PuzzleResult, st *localstore.Store) *session.Session {
	p := puzzle.New(remote.Puzzle.ID, remote.Puzzle.Letters, "", puzzle.FromLetters(remote.Puzzle.Letters))
	hints := localHintAllowance
	if st != nil {
		if prof, err := st.Profile(); err == nil && prof.Premium {
			hints = session.HintsUnlimited
		}
	}
	if prog := remote.Progress; prog != nil && prog.HintsRemaining.Unlimited {
		hints = session.HintsUnlimited
	}
	sess := session.NewSession(p, session.Authenticated, hints)
	if prog := remote.Progress; prog != nil {
		sess.Resume(prog.FoundWords, prog.Score, prog.Completed)
	}
	return sess
}

// offlinePuzzle picks the day's puzzle from the embedded catalog.
func offlinePuzzle(date string) (*puzzle.Puzzle, error) {
	catalog, err := puzzle.NewCatalog(envOr("DAILY_SALT", "local_dev_salt"))
	if err != nil {
		return nil, err
	}
	day := time.Now().UTC()
	if date != "" {
		day, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", date)
		}
	}
	return catalog.ForDate(day), nil
}

func printCase(caseNumber int, caseTitle string, letters []string) {
	if caseTitle != "" {
		fmt.Printf("Case #%d: %s\n", caseNumber, caseTitle)
	}
	fmt.Printf("Letters: %s\n", strings.Join(letters, " "))
	fmt.Println(`Type words, "hint" for a hint, or "quit" to stop.`)
}

func playLoop(ctx context.Context, rec *session.Reconciler, sess *session.Session) error {
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			view := sess.Snapshot()
			fmt.Printf("Final score: %d (%d words)\n", view.Score, len(view.FoundWords))
			return nil
		case "hint":
			hint, err := rec.Hint(ctx, sess)
			switch {
			case errors.Is(err, session.ErrOutOfHints):
				fmt.Println("No hints left.")
			case err != nil:
				fmt.Printf("Hint unavailable: %v\n", err)
			case hint == "":
				fmt.Println("Nothing left to reveal.")
			default:
				fmt.Printf("Hint: %s\n", hint)
			}
			continue
		}

		out, err := rec.Submit(ctx, sess, session.NewAttempt(line))
		if err != nil {
			fmt.Printf("Try again: %v\n", err)
			continue
		}
		render(out)

		if out.Completed {
			if err := finish(ctx, rec, sess); err != nil {
				return err
			}
			return nil
		}
	}
}

func render(out session.Outcome) {
	switch out.Kind {
	case session.OutcomeAccepted:
		if out.IsMystery {
			fmt.Printf("MYSTERY WORD! +%d points (score %d)\n", out.Points, out.Score)
		} else {
			fmt.Printf("+%d points (score %d)\n", out.Points, out.Score)
		}
		if out.LocalFallback {
			fmt.Println("(scored offline; the server will settle up when it's back)")
		}
	case session.OutcomeDuplicate:
		fmt.Println("Already found that one.")
	default:
		fmt.Println("Not a word in this case.")
	}
}

func finish(ctx context.Context, rec *session.Reconciler, sess *session.Session) error {
	report, err := rec.Complete(ctx, sess)
	if errors.Is(err, session.ErrAlreadyCompleted) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nCase closed! Score %d in %s (%d words).\n",
		report.Score, report.Elapsed.Round(time.Second), len(report.FoundWords))
	if report.ScoreSubmitted && report.Rank > 0 {
		fmt.Printf("You placed #%d today.\n", report.Rank)
	}
	for _, e := range report.Leaderboard {
		fmt.Printf("%3d. %-24s %d\n", e.Rank, e.Username, e.Score)
	}
	return nil
}
