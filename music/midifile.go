package music

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/gomidi/midi/v2/smf"
)

var ErrNoSuchFile = errors.New("no such midi file")

// ReadMIDIFile parses an SMF, converting gomidi panics on corrupt input into errors.
func ReadMIDIFile(path string) (s *smf.SMF, e error) {
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s, e = nil, fmt.Errorf("parsing midi file %s: %v", path, r)
		}
	}()

	dat, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchFile, path)
		}
		return nil, fmt.Errorf("reading midi file: %w", err)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, fmt.Errorf("parsing midi file: %w", err)
	}
	return res, nil
}

// FromMIDIFile loads the player track and backing tracks from a file. On any
// failure the song is left untouched.
func (s *Song) FromMIDIFile(path string, playerTrack int) error {
	sm, err := ReadMIDIFile(path)
	if err != nil {
		return err
	}
	loaded := NewSong()
	if err := loaded.FromSMF(sm, playerTrack); err != nil {
		return err
	}
	loaded.Path = path
	loaded.Artist, loaded.Title = SplitArtistTitle(path)
	loaded.ID = s.ID
	*s = *loaded
	return nil
}

// FromSMF fills the song from a parsed SMF.
func (s *Song) FromSMF(sm *smf.SMF, playerTrack int) error {
	mt, ok := sm.TimeFormat.(smf.MetricTicks)
	if !ok {
		return fmt.Errorf("unsupported time format %v", sm.TimeFormat)
	}
	tpb := int(mt.Resolution())
	if tpb <= 0 {
		return fmt.Errorf("invalid ticks per beat %d", tpb)
	}
	if playerTrack < 0 || playerTrack >= len(sm.Tracks) {
		return fmt.Errorf("player track %d out of range (%d tracks)", playerTrack, len(sm.Tracks))
	}

	s.TicksPerBeat = tpb
	s.PlayerTrack = playerTrack
	s.Notes = nil
	s.Backing = make(map[int][]BackingEvent)
	s.TrackNames = make(map[int]string)

	tempoSet, meterSet := false, false
	for i, track := range sm.Tracks {
		var abs int
		pending := make(map[uint8]int)
		for _, ev := range track {
			abs += int(ev.Delta)
			msg := ev.Message

			var name string
			var bpm float64
			var num, denom uint8
			switch {
			case msg.GetMetaTrackName(&name):
				s.TrackNames[i] = name
				continue
			case msg.GetMetaTempo(&bpm):
				if !tempoSet && bpm > 0 {
					s.Tempo = math.Round(bpm)
					tempoSet = true
				}
				continue
			case msg.GetMetaMeter(&num, &denom):
				if !meterSet && num > 0 && denom > 0 {
					s.TimeSignature = TimeSignature{Numerator: int(num), Denominator: int(denom)}
					meterSet = true
				}
				continue
			}

			var ch, key, vel uint8
			on, off := false, false
			if msg.GetNoteOn(&ch, &key, &vel) {
				if vel == 0 {
					off = true
				} else {
					on = true
				}
			} else if msg.GetNoteOff(&ch, &key, &vel) {
				off = true
			}
			if !on && !off {
				continue
			}

			if i != playerTrack {
				evt := BackingEvent{Tick: abs, On: on, Channel: ch, Pitch: key, Velocity: vel}
				if off {
					evt.Velocity = 0
				}
				s.Backing[i] = append(s.Backing[i], evt)
				continue
			}

			if on {
				// quiet note-ons neither start nor end a note
				if vel >= MinVelocity {
					pending[key] = abs
				}
				continue
			}
			start, ok := pending[key]
			if !ok {
				continue
			}
			delete(pending, key)
			s.AppendNote(int(key), toSDQN(start, tpb), toSDQN(abs-start, tpb))
		}
	}

	if len(s.Notes) > 0 && s.Notes[0].Start < LeadIn {
		s.Shift(LeadIn)
	}
	s.Dirty = true
	return nil
}

// toSDQN converts ticks to 32nd notes, rounding up.
func toSDQN(ticks, tpb int) int {
	return int(math.Ceil(float64(ticks) / float64(tpb) * SDQNotesPerBeat))
}

// SplitArtistTitle derives artist and title from a file name stem, splitting
// on the first '-', ':' or '_'.
func SplitArtistTitle(path string) (artist, title string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	i := strings.IndexAny(stem, "-:_")
	if i < 0 {
		return "", strings.TrimSpace(stem)
	}
	return strings.TrimSpace(stem[:i]), strings.TrimSpace(stem[i+1:])
}
