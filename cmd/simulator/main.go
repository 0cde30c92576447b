package main

import (
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dom/squad-roster/internal/api/handlers"
	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/lineup"
)

var (
	apiURL string
	setID  string
)

var rootCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Roster simulator - development tool for exercising a running roster server",
	Long: `Drives a running roster server over HTTP and the websocket gesture channel.

ENVIRONMENT:
  ROSTER_API_URL   Backend API URL (default: http://127.0.0.1:8080)`,
	SilenceUsage: true,
}

func main() {
	defaultURL := "http://127.0.0.1:8080"
	if envURL := os.Getenv("ROSTER_API_URL"); envURL != "" {
		defaultURL = envURL
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "Backend API URL")
	rootCmd.PersistentFlags().StringVar(&setID, "set", "active", "Team set id, or \"active\"")

	rootCmd.AddCommand(showCmd, populateCmd(), shuffleCmd(), dragCmd(), shareCmd, importCmd(), exportCmd(), resetCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a team set",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := NewAPIClient(apiURL).State()
		if err != nil {
			return err
		}
		set, err := pickSet(state.State)
		if err != nil {
			return err
		}
		printSet(set)
		return nil
	},
}

func populateCmd() *cobra.Command {
	var count int
	var seed int64
	var role, burst string

	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Toggle random catalog characters into empty slots",
		Example: `  # Fill the active set
  simulator populate --count=25

  # Add five random supporters to set 2
  simulator populate --set=2 --count=5 --role=sp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(apiURL)

			query := url.Values{}
			if role != "" {
				query.Set("role", role)
			}
			if burst != "" {
				query.Set("burst", burst)
			}
			chars, err := client.Characters(query)
			if err != nil {
				return err
			}
			state, err := client.State()
			if err != nil {
				return err
			}
			set, err := pickSet(state.State)
			if err != nil {
				return err
			}

			placed := make(map[string]bool)
			for _, sq := range set.Squads {
				for _, id := range sq.CharacterIDs() {
					placed[id] = true
				}
			}
			rng := rand.New(rand.NewSource(seed))
			rng.Shuffle(len(chars), func(i, j int) { chars[i], chars[j] = chars[j], chars[i] })

			added := 0
			for _, c := range chars {
				if added >= count {
					break
				}
				if placed[c.ID] {
					continue
				}
				res, err := client.Toggle(set.ID, c.ID)
				if err != nil {
					if strings.Contains(err.Error(), "409") {
						fmt.Println("Team set is full.")
						break
					}
					return err
				}
				if res.Warning != "" {
					fmt.Printf("Warning: %s\n", res.Warning)
				}
				added++
				fmt.Printf("  [%d/%d] %s (%s)\n", added, count, c.Name, c.ID)
			}

			fmt.Printf("\nDone! Added %d characters to %s.\n", added, set.DisplayName())
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", domain.SquadsPerSet*domain.SlotsPerSquad, "Number of characters to add")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	cmd.Flags().StringVar(&role, "role", "", "Only add characters of this class")
	cmd.Flags().StringVar(&burst, "burst", "", "Only add characters of this burst type")
	return cmd
}

func shuffleCmd() *cobra.Command {
	var moves int
	var seed int64

	cmd := &cobra.Command{
		Use:   "shuffle",
		Short: "Apply random drags over REST and report the outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(apiURL)
			rng := rand.New(rand.NewSource(seed))
			counts := make(map[lineup.OutcomeKind]int)

			randomRef := func() domain.SlotRef {
				return domain.SlotRef{Squad: rng.Intn(domain.SquadsPerSet), Slot: rng.Intn(domain.SlotsPerSquad)}
			}
			for i := 0; i < moves; i++ {
				res, err := client.Move(setID, handlers.MoveRequest{
					Source:  randomRef(),
					Dest:    randomRef(),
					Overlap: rng.Float64(),
				})
				if err != nil {
					return err
				}
				counts[res.Outcome.Kind]++
			}

			for _, kind := range []lineup.OutcomeKind{lineup.OutcomeNoop, lineup.OutcomeMove, lineup.OutcomeSwap, lineup.OutcomeInsert} {
				fmt.Printf("  %-7s %d\n", kind, counts[kind])
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&moves, "moves", 50, "Number of random drags")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	return cmd
}

func dragCmd() *cobra.Command {
	var from, to string
	var overlap float64
	var cancel bool

	cmd := &cobra.Command{
		Use:   "drag",
		Short: "Replay one drag gesture over the websocket",
		Example: `  # Swap the first two slots of squad 1
  simulator drag --from=0,0 --to=0,1 --overlap=0.9

  # Drop outside every slot (no change)
  simulator drag --from=0,0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseRef(from)
			if err != nil {
				return err
			}
			var dest *domain.SlotRef
			if to != "" {
				ref, err := parseRef(to)
				if err != nil {
					return err
				}
				dest = &ref
			}

			result, err := NewAPIClient(apiURL).Drag(setID, src, dest, overlap, cancel)
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Println("Drag ended without a change.")
				return nil
			}
			fmt.Printf("Outcome: %s\n", result.Outcome.Kind)
			if result.Outcome.Evicted != "" {
				fmt.Printf("Evicted: %s\n", result.Outcome.Evicted)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source slot as squad,slot (required)")
	cmd.Flags().StringVar(&to, "to", "", "Destination slot as squad,slot (empty drops outside)")
	cmd.Flags().Float64Var(&overlap, "overlap", 1, "Fraction of the destination covered on release")
	cmd.Flags().BoolVar(&cancel, "cancel", false, "Cancel instead of releasing")
	cmd.MarkFlagRequired("from")
	return cmd
}

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Print the share code of a team set",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := NewAPIClient(apiURL).ShareTeamSet(setID)
		if err != nil {
			return err
		}
		fmt.Println(res.Fenced)
		return nil
	},
}

func importCmd() *cobra.Command {
	var name string
	var load bool

	cmd := &cobra.Command{
		Use:   "import CODE",
		Short: "Save a share code to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(apiURL)
			res, err := client.Import(args[0], name)
			if err != nil {
				return err
			}
			fmt.Printf("Saved as %q\n", res.Saved.Name)
			if len(res.Unknown) > 0 {
				fmt.Printf("Dropped unknown characters: %s\n", strings.Join(res.Unknown, ", "))
			}
			if !load {
				return nil
			}
			target := setID
			if target == "active" {
				target = ""
			}
			if _, err := client.LoadSaved(res.Saved.Name, target); err != nil {
				return err
			}
			fmt.Println("Loaded into team set.")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Library name (default: name in the code)")
	cmd.Flags().BoolVar(&load, "load", false, "Also load it into --set")
	return cmd
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the rendered image of a team set",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := NewAPIClient(apiURL).Export(setID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "teamset.png", "Output file")
	return cmd
}

func resetCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Empty a team set, or restore every default with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := setID
			if all {
				target = ""
			}
			if _, err := NewAPIClient(apiURL).Reset(target); err != nil {
				return err
			}
			fmt.Println("Reset done.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Reset every team set and the active selection")
	return cmd
}

func pickSet(state *domain.AppState) (*domain.TeamSet, error) {
	if setID == "active" {
		if set := state.ActiveSet(); set != nil {
			return set, nil
		}
		return nil, fmt.Errorf("no active team set")
	}
	i, ok := state.SetIndex(setID)
	if !ok {
		return nil, fmt.Errorf("team set %q not found", setID)
	}
	return &state.TeamSets[i], nil
}

func parseRef(s string) (domain.SlotRef, error) {
	squad, slot, ok := strings.Cut(s, ",")
	if !ok {
		return domain.SlotRef{}, fmt.Errorf("slot %q: want squad,slot", s)
	}
	a, err := strconv.Atoi(strings.TrimSpace(squad))
	if err != nil {
		return domain.SlotRef{}, fmt.Errorf("slot %q: %w", s, err)
	}
	b, err := strconv.Atoi(strings.TrimSpace(slot))
	if err != nil {
		return domain.SlotRef{}, fmt.Errorf("slot %q: %w", s, err)
	}
	return domain.SlotRef{Squad: a, Slot: b}, nil
}

func printSet(set *domain.TeamSet) {
	fmt.Printf("%s (id %s)\n", set.DisplayName(), set.ID)
	for i, sq := range set.Squads {
		cells := make([]string, len(sq.Slots))
		for j, slot := range sq.Slots {
			cells[j] = slot.CharacterID
			if slot.IsEmpty() {
				cells[j] = "--"
			}
		}
		fmt.Printf("  Squad %d  [%s]  score %.1f\n", i+1, strings.Join(cells, " "), sq.Score)
	}
}
