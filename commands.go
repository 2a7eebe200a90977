package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"go-sightread/career"
	"go-sightread/config"
	"go-sightread/generator"
	"go-sightread/history"
	"go-sightread/midi"
	"go-sightread/music"
	"go-sightread/songbook"
)

func init() {
	rootCmd.AddCommand(careerCmd, generateCmd, portsCmd, songsCmd, historyCmd)
	careerCmd.AddCommand(careerResetCmd)
	generateCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	generateCmd.Flags().BoolVar(&showNotes, "notes", false, "print every note")
}

var (
	seed      int64
	showNotes bool
)

var careerCmd = &cobra.Command{
	Use:   "career",
	Short: "Show career progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := setup()
		if err != nil {
			return err
		}
		path, err := config.PathFor("career.json")
		if err != nil {
			return err
		}
		c := career.New(log)
		if err := career.Load(path, c); err != nil {
			return err
		}
		fmt.Printf("State: %s\n", c.State())
		if c.State() == career.Inactive {
			return nil
		}
		fmt.Printf("Fans:  %d\n", c.Fans())
		if c.CanSkipNext() {
			fmt.Println("Skip token ready")
		}
		for v := career.FirstVenue; v <= career.LastVenue; v++ {
			cfg, _ := generator.Tier(v)
			lock := ""
			if !c.IsVenueUnlocked(v) {
				lock = " (locked)"
			}
			fmt.Printf("  %d %-16s %d/%d sets%s\n", v, cfg.AlbumName, len(c.SetsCompleted(v)), cfg.NumSets, lock)
		}
		if c.Active() {
			fmt.Printf("Next: venue %d set %d\n", c.CurrentVenue(), c.CurrentSet()+1)
		}
		return nil
	},
}

var careerResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the saved career",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := setup()
		if err != nil {
			return err
		}
		path, err := config.PathFor("career.json")
		if err != nil {
			return err
		}
		if err := career.New(log).Save(path); err != nil {
			return err
		}
		fmt.Println("Career reset")
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <tier>",
	Short: "Print the songs generated for a venue tier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("tier must be %d-%d: %w", generator.MinTier, generator.MaxTier, err)
		}
		_, log, err := setup()
		if err != nil {
			return err
		}
		var rng *rand.Rand
		if seed != 0 {
			rng = rand.New(rand.NewSource(seed))
		}
		album, err := generator.New(rng, log).VenueAlbum(tier)
		if err != nil {
			return err
		}
		fmt.Printf("%s (max score %d)\n", album.Name, album.MaxScore())
		for _, s := range album.Songs {
			fmt.Printf("  %-16s %3.0f bpm  %3d notes  %d bars\n",
				s.Title, s.Tempo, len(s.Notes), (s.Length()+music.BarLength-1)/music.BarLength)
			if showNotes {
				fmt.Printf("    %s\n", noteList(s.Notes))
			}
		}
		return nil
	},
}

func noteList(notes []music.Note) string {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " ")
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ins, outs, err := midi.PortNames()
		if err != nil {
			return err
		}
		fmt.Println("Inputs:")
		for i, p := range ins {
			fmt.Printf("  %d: %s\n", i, p)
		}
		fmt.Println("Outputs:")
		for i, p := range outs {
			fmt.Printf("  %d: %s\n", i, p)
		}
		return nil
	},
}

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "List the song book",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := setup()
		if err != nil {
			return err
		}
		path, err := songbook.DefaultPath()
		if err != nil {
			return err
		}
		songbook.Open(path, log).View(func(b *songbook.Book) {
			b.Sort()
			for _, a := range b.Albums {
				fmt.Printf("%s\n", a.Name)
				for _, s := range a.Songs {
					fmt.Printf("  %-32s best %5.1f / %d\n", s.Title, b.BestScore(s), s.MaxScore())
				}
			}
		})
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [n]",
	Short: "Show recent plays",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 20
		if len(args) == 1 {
			var err error
			if n, err = strconv.Atoi(args[0]); err != nil {
				return err
			}
		}
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		path := cfg.HistoryPath
		if path == "" {
			if path, err = config.PathFor("history.db"); err != nil {
				return err
			}
		}
		store, err := history.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		plays, err := store.Recent(n)
		if err != nil {
			return err
		}
		for _, p := range plays {
			fmt.Printf("%s  %-9s %5.1f%%  %-24s %s\n",
				p.PlayedAt.Format("2006-01-02 15:04"), p.Result, p.Percent*100, p.Title, p.Mode)
		}
		return nil
	},
}
