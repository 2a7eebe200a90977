package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-sightread/debug"
	"go-sightread/midi"
	"go-sightread/music"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	arg := ""
	if len(os.Args) > 2 {
		arg = os.Args[2]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		monitor(arg)
	case "scale":
		playScale(arg)
	case "panic":
		panicOutput(arg)
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list           - List all MIDI ports")
	fmt.Println("  monitor [in]   - Print notes from keyboards")
	fmt.Println("  scale [out]    - Play a C major scale")
	fmt.Println("  panic [out]    - Send all-notes-off on every channel")
	fmt.Println("  poll           - Poll for device changes")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ins, outs, err := midi.PortNames()
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p)
	}
}

func monitor(input string) {
	logger := debug.NewLogger(os.Stdout)
	dm := midi.NewDeviceManager(midi.ManagerOptions{
		InputName: input,
		Channel:   midi.AnyChannel,
		Logger:    logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	go dm.Run(ctx)

	fmt.Println("Play something. Ctrl+C to exit.")
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-dm.Notes():
			switch {
			case ev.IsNoteOn():
				fmt.Printf("on  %-4s ch%-2d vel %d\n", music.PitchName(int(ev.Note)), ev.Channel+1, ev.Velocity)
			case ev.IsNoteOff():
				fmt.Printf("off %-4s ch%-2d\n", music.PitchName(int(ev.Note)), ev.Channel+1)
			}
		}
	}
}

func openOutput(name string) *midi.Output {
	dm := midi.NewDeviceManager(midi.ManagerOptions{Logger: debug.NewLogger(os.Stdout)})
	out := dm.OpenOutput(name)
	if out.IsSilent() {
		fmt.Println("No output port found")
		return nil
	}
	fmt.Printf("Using output: %s\n", out.Name())
	return out
}

func playScale(name string) {
	out := openOutput(name)
	if out == nil {
		return
	}
	defer out.Close()

	for _, p := range []uint8{60, 62, 64, 65, 67, 69, 71, 72} {
		out.Send(midi.NoteOnEvent(0, p, 100))
		out.Flush()
		time.Sleep(250 * time.Millisecond)
		out.Send(midi.NoteOffEvent(0, p))
		out.Flush()
	}
	fmt.Println("Done!")
}

func panicOutput(name string) {
	out := openOutput(name)
	if out == nil {
		return
	}
	defer out.Close()
	out.Panic()
	fmt.Println("All notes off sent")
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a keyboard to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		inNames, outNames, err := midi.PortNames()
		if err != nil {
			fmt.Printf("[%s] %v\n", time.Now().Format("15:04:05"), err)
			time.Sleep(2 * time.Second)
			continue
		}

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)

			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}
