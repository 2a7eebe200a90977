package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-sightread/career"
	"go-sightread/config"
	"go-sightread/debug"
	"go-sightread/history"
	"go-sightread/input"
	"go-sightread/midi"
	"go-sightread/songbook"
	"go-sightread/theme"
	"go-sightread/trainer"
	"go-sightread/tui"
)

var flags struct {
	songAdd   string
	songTrack int
	songAlbum string
	debug     bool
	dev       bool
	mode      string
	keys      string
	output    string
	input     string
}

var rootCmd = &cobra.Command{
	Use:   "sightread [song title]",
	Short: "Sight-reading trainer for MIDI keyboards",
	Long: `Plays a song's backing through a MIDI synth and scores how closely you
play the melody, on a MIDI keyboard or the computer keyboard.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		title := ""
		if len(args) == 1 {
			title = args[0]
		}
		return run(title)
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.BoolVar(&flags.debug, "debug", false, "enable development mode (debug log in the config dir)")
	f.BoolVar(&flags.dev, "dev", false, "alias for --debug")

	f = rootCmd.Flags()
	f.StringVar(&flags.songAdd, "song-add", "", "add a MIDI file or directory of MIDI files to the song book")
	f.IntVar(&flags.songTrack, "song-track", config.DefaultSongTrack, "track holding the melody in added files")
	f.StringVar(&flags.songAlbum, "song-album", "", "album to add songs to")
	f.StringVar(&flags.mode, "mode", "", "play mode: normal or pause-and-learn")
	f.StringVar(&flags.keys, "keys", "", "computer keyboard layout: note-names or piano-row")
	f.StringVar(&flags.output, "output", "", "MIDI output port (substring match)")
	f.StringVar(&flags.input, "input", "", "MIDI input port (substring match)")
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

// setup loads the config and starts logging.
func setup() (*config.Config, debug.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if flags.debug || flags.dev {
		cfg.Dev = true
	}
	if cfg.Dev {
		path, err := config.PathFor("debug.log")
		if err != nil {
			return nil, nil, err
		}
		if err := debug.Enable(path); err != nil {
			return nil, nil, fmt.Errorf("debug log: %w", err)
		}
	}
	return cfg, debug.Default(), nil
}

func run(title string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer debug.Disable()

	if flags.mode != "" {
		cfg.Play.Mode = flags.mode
	}
	if flags.keys != "" {
		cfg.Play.KeyMapping = flags.keys
	}
	if flags.output != "" {
		cfg.SynthOutput.PortName = flags.output
	}
	engineOpts, err := cfg.EngineOptions(log)
	if err != nil {
		return err
	}
	routerOpts, err := cfg.RouterOptions(log)
	if err != nil {
		return err
	}

	// Song book
	bookPath, err := songbook.DefaultPath()
	if err != nil {
		return err
	}
	book := songbook.Open(bookPath, log)
	if flags.songAdd != "" {
		var n int
		book.Update(func(b *songbook.Book) {
			n, err = songbook.Import(b, flags.songAdd, flags.songTrack, flags.songAlbum, log)
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added %d songs from %s\n", n, flags.songAdd)
	}

	// Play history
	historyPath := cfg.HistoryPath
	if historyPath == "" {
		if historyPath, err = config.PathFor("history.db"); err != nil {
			return err
		}
	}
	hist, err := history.Open(historyPath)
	if err != nil {
		log.Log("main", "history disabled: %v", err)
		hist = nil
	} else {
		defer hist.Close()
	}

	// Career
	careerPath, err := config.PathFor("career.json")
	if err != nil {
		return err
	}
	car := career.New(log)
	if err := career.Load(careerPath, car); err != nil {
		log.Log("main", "career: %v", err)
	}

	// Devices: the book remembers the last ports used
	var inputName, outputName string
	book.View(func(b *songbook.Book) {
		inputName, outputName = b.InputDevice, b.OutputDevice
	})
	if flags.input != "" {
		inputName = flags.input
	} else if ctrls := cfg.AutoConnectControllers(); len(ctrls) > 0 {
		inputName = ctrls[0].PortName
	}
	if cfg.SynthOutput.PortName != "" {
		outputName = cfg.SynthOutput.PortName
	}
	channel := midi.AnyChannel
	if ctrl := cfg.FindController(inputName); ctrl != nil && ctrl.InputChannel > 0 {
		channel = ctrl.InputChannel - 1
	}
	deviceMgr := midi.NewDeviceManager(midi.ManagerOptions{
		InputName: inputName,
		Channel:   channel,
		Logger:    log,
	})
	out := deviceMgr.OpenOutput(outputName)
	defer out.Close()
	book.Update(func(b *songbook.Book) {
		b.InputDevice = inputName
		if !out.IsSilent() {
			b.OutputDevice = out.Name()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)

	layout := tui.NewLayout()
	routerOpts.PitchAt = layout.PitchAt
	tr := trainer.NewManager(trainer.Options{
		Engine:     engineOpts,
		Router:     routerOpts,
		Output:     out,
		Notes:      deviceMgr.Notes(),
		Book:       book,
		History:    hist,
		Career:     car,
		CareerPath: careerPath,
		Logger:     log,
	})
	if title != "" {
		err = tr.LoadTitle(title)
	} else {
		err = tr.LoadDefault()
	}
	if err != nil {
		return err
	}

	if !cfg.Dev {
		splash(out, routerOpts.Mapping)
	}

	th := theme.New(theme.LoadOrDefault(cfg.UI.Palette))
	m := tui.NewModel(tr, deviceMgr, th, layout, cfg.UI.FrameRate)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	_, runErr := p.Run()
	if err := tr.Close(); err != nil {
		log.Log("main", "close: %v", err)
	}
	return runErr
}

func splash(out *midi.Output, mapping input.Mapping) {
	fmt.Println("go-sightread")
	if out.IsSilent() {
		fmt.Println("No MIDI output found - playing silently")
	} else {
		fmt.Printf("Output: %s\n", out.Name())
	}
	fmt.Printf("Computer keyboard layout: %s\n", mapping)
	fmt.Println("Connect MIDI keyboards any time - they'll be detected automatically")
	fmt.Println("")
	time.Sleep(1500 * time.Millisecond)
}
