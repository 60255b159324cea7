// Command play deals interactive games of the solved decathlon events.
// Every roll is looked up in the policy database, so you see what perfect
// play would do before making your own call.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/dice-decathlon/internal/config"
	"github.com/freeeve/dice-decathlon/internal/logger"
	"github.com/freeeve/dice-decathlon/internal/model"
	"github.com/freeeve/dice-decathlon/internal/repository"
	"github.com/freeeve/dice-decathlon/internal/repository/sqlite"
	"github.com/freeeve/dice-decathlon/pkg/decathlon"
	"github.com/freeeve/dice-decathlon/pkg/dice"
)

// longJumpAttempts is the number of attempts in a Long Jump event; the
// best one counts.
const longJumpAttempts = 3

func main() {
	logger.Init()
	cfg := config.Load()

	var (
		game   string
		dbPath string
		seed   int64
		auto   bool
	)
	flag.StringVar(&game, "game", "longjump", "Event to play: longjump or sprint")
	flag.StringVar(&dbPath, "db", "", "Policy database path (default per event)")
	flag.Int64Var(&seed, "seed", 0, "Dice seed (0 = random)")
	flag.BoolVar(&auto, "auto", false, "Follow the stored policy without prompting")
	flag.Parse()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	in := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	switch game {
	case "longjump":
		if dbPath == "" {
			dbPath = cfg.LongJumpDB
		}
		db, err := sqlite.Open(dbPath)
		if err != nil {
			log.Fatal().Err(err).Str("db", dbPath).Msg("Database open failed")
		}
		defer db.Close()
		repo := sqlite.NewLongJumpRepo(db)
		greet(ctx, dbPath, "long jump", repo.Summary)
		playLongJump(ctx, repo, rng, in, auto)
	case "sprint":
		if dbPath == "" {
			dbPath = cfg.SprintDB
		}
		db, err := sqlite.Open(dbPath)
		if err != nil {
			log.Fatal().Err(err).Str("db", dbPath).Msg("Database open failed")
		}
		defer db.Close()
		repo := sqlite.NewSprintRepo(db)
		greet(ctx, dbPath, "100 metres", repo.Summary)
		playSprint(ctx, repo, rng, in, auto)
	default:
		log.Fatal().Str("game", game).Msg("Unknown game (want longjump or sprint)")
	}
}

// greet verifies the policy database was written by a matching solver
// build and prints what perfect play is worth.
func greet(ctx context.Context, dbPath, event string, fetch func(context.Context) (*model.Summary, error)) {
	summary, err := fetch(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("db", dbPath).Msg("No solved policy found -- run the solver first")
	}
	if summary == nil || summary.SchemaVersion != model.SchemaVersion {
		log.Fatal().Str("db", dbPath).Msg("Policy database has the wrong schema version -- re-run the solver")
	}
	fmt.Printf("%s: perfect play scores %.3f +/- %.3f\n", event, summary.EV, summary.SD)
}

func playLongJump(ctx context.Context, repo repository.LongJumpRepository, rng *rand.Rand, in *bufio.Scanner, auto bool) {
	best := 0
	for attempt := 1; attempt <= longJumpAttempts; attempt++ {
		fmt.Printf("\n--- attempt %d of %d ---\n", attempt, longJumpAttempts)
		score := longJumpAttempt(ctx, repo, rng, in, auto)
		fmt.Printf("attempt %d scores %d\n", attempt, score)
		if score > best {
			best = score
		}
	}
	fmt.Printf("\nbest of %d attempts: %d\n", longJumpAttempts, best)
}

// longJumpAttempt plays one attempt to the end and returns its score.
// The player may overrule the policy, including freezes that foul.
func longJumpAttempt(ctx context.Context, repo repository.LongJumpRepository, rng *rand.Rand, in *bufio.Scanner, auto bool) int {
	state := decathlon.LongJump{}.Entry()
	score := 0

	for {
		if state.Phase == decathlon.Jump && state.Dice == 0 {
			return score
		}

		roll := rollCounts(rng, state.Dice)

		if state.Phase == decathlon.RunUp {
			frozen := decathlon.LongJumpDice - state.Dice
			fmt.Printf("run-up: %d frozen (sum %d), rolled [%s]\n", frozen, state.Sum, roll)

			row := lookupLongJump(ctx, repo, state, roll)
			if row.FreezeCount == 0 {
				fmt.Printf("advice: stop and jump with %d dice (attempt EV %.3f, SD %.3f)\n", frozen, row.EV, row.SD)
			} else {
				fmt.Printf("advice: freeze the %d lowest (attempt EV %.3f, SD %.3f)\n", row.FreezeCount, row.EV, row.SD)
			}

			choice := row.FreezeCount
			if !auto {
				choice = promptRunUp(in, state.Dice)
				if choice < 0 {
					choice = row.FreezeCount
				}
			}

			if choice == 0 {
				state = decathlon.LongJumpState{Phase: decathlon.Jump, Dice: frozen}
				continue
			}
			sum := state.Sum + roll.SumLowest(choice)
			if sum > decathlon.RunUpCap {
				fmt.Printf("foul! frozen sum %d passes %d -- no jump\n", sum, decathlon.RunUpCap)
				return 0
			}
			if choice == state.Dice {
				fmt.Println("every die frozen inside the cap -- jump with all five")
				state = decathlon.LongJumpState{Phase: decathlon.Jump, Dice: decathlon.LongJumpDice}
				continue
			}
			state = decathlon.LongJumpState{Phase: decathlon.RunUp, Dice: state.Dice - choice, Sum: sum}
			continue
		}

		fmt.Printf("jump: %d dice, rolled [%s] (banked %d)\n", state.Dice, roll, score)

		row := lookupLongJump(ctx, repo, state, roll)
		fmt.Printf("advice: bank the %d highest for %d (EV %.3f from this roll on)\n",
			row.FreezeCount, roll.SumHighest(row.FreezeCount), row.EV)

		choice := row.FreezeCount
		if !auto {
			choice = promptJump(in, state.Dice)
			if choice < 0 {
				choice = row.FreezeCount
			}
		}

		gain := roll.SumHighest(choice)
		score += gain
		fmt.Printf("banked %d -- jump total %d\n", gain, score)
		state = decathlon.LongJumpState{Phase: decathlon.Jump, Dice: state.Dice - choice}
	}
}

func lookupLongJump(ctx context.Context, repo repository.LongJumpRepository, state decathlon.LongJumpState, roll dice.Counts) *model.LongJumpRow {
	var (
		row *model.LongJumpRow
		err error
	)
	if state.Phase == decathlon.RunUp {
		row, err = repo.RunUpPolicy(ctx, state.Sum, roll)
	} else {
		row, err = repo.JumpPolicy(ctx, roll)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Policy lookup failed")
	}
	if row == nil {
		log.Fatal().Stringer("state", state).Msg("No policy row for this roll")
	}
	return row
}

func playSprint(ctx context.Context, repo repository.SprintRepository, rng *rand.Rand, in *bufio.Scanner, auto bool) {
	state := decathlon.Sprint{}.Entry()

	for {
		roll := rollCounts(rng, decathlon.SprintDice)
		score := decathlon.SetScore(roll)
		fmt.Printf("\nset %d: rolled [%s] -- set score %d, %d rerolls left\n", state.Stage, roll, score, state.Rerolls)

		var (
			row *model.SprintRow
			err error
		)
		if state.Stage == 1 {
			row, err = repo.FirstSetPolicy(ctx, state.Rerolls, roll)
		} else {
			row, err = repo.SecondSetPolicy(ctx, state.Rerolls, state.First, roll)
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Policy lookup failed")
		}
		if row == nil {
			log.Fatal().Stringer("state", state).Msg("No policy row for this roll")
		}

		freezeMark, rerollMark := "  <- advice", ""
		if row.Best == decathlon.Reroll.String() {
			freezeMark, rerollMark = "", "  <- advice"
		}
		fmt.Printf("  freeze: EV %.3f, SD %.3f%s\n", row.EVFreeze, row.SDFreeze, freezeMark)
		if state.Rerolls > 0 {
			fmt.Printf("  reroll: EV %.3f, SD %.3f%s\n", row.EVReroll, row.SDReroll, rerollMark)
		}

		choice := row.Best
		if state.Rerolls == 0 {
			fmt.Println("no rerolls left -- the set is frozen as it lies")
			choice = decathlon.Freeze.String()
		} else if !auto {
			if c := promptSprint(in); c != "" {
				choice = c
			}
		}

		if choice == decathlon.Reroll.String() {
			state.Rerolls--
			continue
		}
		if state.Stage == 1 {
			fmt.Printf("first set frozen at %d\n", score)
			state = decathlon.SprintState{Stage: 2, Rerolls: state.Rerolls, First: score}
			continue
		}
		fmt.Printf("\n100 metres total: %d + %d = %d\n", state.First, score, state.First+score)
		return
	}
}

// promptRunUp reads a run-up move: -1 follows the advice, 0 stops, and
// 1..max freezes that many of the lowest faces.
func promptRunUp(in *bufio.Scanner, max int) int {
	for {
		fmt.Printf("freeze how many? [enter = advice, 1-%d = freeze lowest, all, stop, q = quit] ", max)
		line, ok := readLine(in)
		if !ok || line == "q" {
			quit()
		}
		switch line {
		case "":
			return -1
		case "s", "stop":
			return 0
		case "a", "all":
			return max
		}
		if k, err := strconv.Atoi(line); err == nil && k >= 1 && k <= max {
			return k
		}
		fmt.Println("that is not a legal move")
	}
}

// promptJump reads a jump move: -1 follows the advice, 1..max banks that
// many of the highest faces.
func promptJump(in *bufio.Scanner, max int) int {
	for {
		fmt.Printf("bank how many? [enter = advice, 1-%d = bank highest, all, q = quit] ", max)
		line, ok := readLine(in)
		if !ok || line == "q" {
			quit()
		}
		switch line {
		case "":
			return -1
		case "a", "all":
			return max
		}
		if k, err := strconv.Atoi(line); err == nil && k >= 1 && k <= max {
			return k
		}
		fmt.Println("that is not a legal move")
	}
}

// promptSprint reads a sprint move: "" follows the advice.
func promptSprint(in *bufio.Scanner) string {
	for {
		fmt.Print("keep or reroll? [enter = advice, f = freeze, r = reroll, q = quit] ")
		line, ok := readLine(in)
		if !ok || line == "q" {
			quit()
		}
		switch line {
		case "":
			return ""
		case "f":
			return decathlon.Freeze.String()
		case "r":
			return decathlon.Reroll.String()
		default:
			fmt.Println("that is not a legal move")
		}
	}
}

func readLine(in *bufio.Scanner) (string, bool) {
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(strings.ToLower(in.Text())), true
}

func quit() {
	fmt.Println("bye")
	os.Exit(0)
}

func rollCounts(rng *rand.Rand, n int) dice.Counts {
	var c dice.Counts
	for i := 0; i < n; i++ {
		c[rng.Intn(dice.Faces)]++
	}
	return c
}
