package trainer

import (
	"errors"
	"fmt"
	"sync"

	"go-sightread/career"
	"go-sightread/debug"
	"go-sightread/engine"
	"go-sightread/generator"
	"go-sightread/history"
	"go-sightread/input"
	"go-sightread/midi"
	"go-sightread/music"
	"go-sightread/score"
	"go-sightread/songbook"
)

// ScrubStep is how far one scrub action moves the play head, in SDQN.
const ScrubStep = 1

// ErrSetLocked is returned when a career set has not been reached yet.
var ErrSetLocked = errors.New("set is locked")

// Output is where playback goes. *midi.Output satisfies it.
type Output interface {
	engine.Sink
	Flush() error
	Panic()
}

// Source says where the loaded song came from.
type Source int

const (
	SourceBook Source = iota
	SourceCareer
	SourcePractice
)

func (s Source) String() string {
	switch s {
	case SourceCareer:
		return "career"
	case SourcePractice:
		return "practice"
	}
	return "book"
}

// Options wires a Manager. Every store is optional.
type Options struct {
	Engine engine.Options
	Router input.Options

	Output Output           // nil plays silently
	Notes  <-chan midi.Event // MIDI keyboard input

	Book       *songbook.Store
	History    *history.Store
	Career     *career.Career
	CareerPath string // "" keeps the career in memory only
	Generator  *generator.Generator

	Logger debug.Logger
}

// Summary is what a finished song left behind.
type Summary struct {
	Title    string
	Score    float64
	MaxScore float64
	Percent  float64
	Result   score.Result
	NewBest  bool

	Career  career.Outcome
	InTour  bool // Career is set
}

// Manager runs one trainer session: it owns the engine and routes input,
// playback, scoring results and persistence each frame.
type Manager struct {
	mu sync.Mutex

	engine *engine.Engine
	router *input.Router
	out    Output
	notes  <-chan midi.Event

	book       *songbook.Store
	history    *history.Store
	career     *career.Career
	careerPath string
	gen        *generator.Generator
	log        debug.Logger

	session string
	source  Source
	venue   int
	set     int

	finished bool // set by the engine, handled after the frame
	last     *Summary
	status   string
	onEvent  func(engine.Event)
}

// NewManager builds the engine and router from opts.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = debug.Nop
	}
	if opts.Output == nil {
		opts.Output = midi.Silent(opts.Logger)
	}
	if opts.Career == nil {
		opts.Career = career.New(opts.Logger)
	}
	if opts.Generator == nil {
		opts.Generator = generator.New(nil, opts.Logger)
	}
	m := &Manager{
		out:        opts.Output,
		notes:      opts.Notes,
		book:       opts.Book,
		history:    opts.History,
		career:     opts.Career,
		careerPath: opts.CareerPath,
		gen:        opts.Generator,
		log:        opts.Logger,
		session:    history.NewSession(),
		onEvent:    opts.Engine.OnEvent,
	}
	eopts := opts.Engine
	eopts.Logger = opts.Logger
	eopts.OnEvent = m.handleEvent
	m.engine = engine.New(m.out, eopts)

	ropts := opts.Router
	if ropts.Logger == nil {
		ropts.Logger = opts.Logger
	}
	m.router = input.New(ropts)
	return m
}

func (m *Manager) handleEvent(ev engine.Event) {
	if ev.Kind == engine.EventSongComplete {
		m.finished = true
	}
	if m.onEvent != nil {
		m.onEvent(ev)
	}
}

// Update runs one frame of dt seconds.
func (m *Manager) Update(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drainDevices()
	m.engine.Update(dt)
	if m.finished {
		m.finished = false
		m.complete()
	}
	if err := m.out.Flush(); err != nil {
		m.status = fmt.Sprintf("output: %v", err)
	}
}

func (m *Manager) drainDevices() {
	if m.notes == nil {
		return
	}
	for {
		select {
		case ev, ok := <-m.notes:
			if !ok {
				m.notes = nil
				return
			}
			if ev, ok := m.router.MIDI(ev); ok {
				m.engine.Queue(ev)
			}
		default:
			return
		}
	}
}

// HandleKey routes a computer-keyboard transition.
func (m *Manager) HandleKey(ev input.KeyEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events, act := m.router.Key(ev)
	for _, e := range events {
		m.engine.Queue(e)
	}
	m.apply(act)
}

// HandleMouse routes a click on the note lane.
func (m *Manager) HandleMouse(ev input.MouseEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.router.Mouse(ev) {
		m.engine.Queue(e)
	}
}

// Apply runs an action as if its key was pressed.
func (m *Manager) Apply(act input.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(act)
}

func (m *Manager) apply(act input.Action) {
	switch act {
	case input.ActionScrubForward:
		m.engine.Seek(ScrubStep)
	case input.ActionScrubBack:
		m.engine.Seek(-ScrubStep)
	case input.ActionTogglePause:
		if m.engine.Complete() {
			m.engine.Reset()
		}
		m.engine.TogglePause()
	case input.ActionReset:
		m.engine.Reset()
		m.status = "reset"
	case input.ActionPanic:
		m.out.Panic()
		m.engine.Panic()
		m.status = "panic"
	case input.ActionToggleMode:
		mode := engine.PauseAndLearn
		if m.engine.Mode() == engine.PauseAndLearn {
			mode = engine.Normal
		}
		m.engine.SetMode(mode)
		m.status = "mode " + mode.String()
	case input.ActionOctaveUp, input.ActionOctaveDown:
		m.status = fmt.Sprintf("octave %d", m.router.Octave())
	}
}

// SetMapping switches the computer-keyboard layout.
func (m *Manager) SetMapping(mapping input.Mapping) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.router.SetMapping(mapping) {
		m.engine.Queue(e)
	}
}

// SetTempo overrides the tempo of the loaded song.
func (m *Manager) SetTempo(bpm float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.SetTempo(bpm)
}

// LoadSong loads a song for free play.
func (m *Manager) LoadSong(song *music.Song) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load(song, SourceBook)
}

func (m *Manager) load(song *music.Song, src Source) {
	for _, e := range m.router.ReleaseAll() {
		m.engine.Queue(e)
	}
	m.engine.Load(song)
	m.source = src
	m.finished = false
	m.status = fmt.Sprintf("loaded %q", song.Title)
}

// LoadTitle loads a song from the book by title.
func (m *Manager) LoadTitle(title string) error {
	if m.book == nil {
		return fmt.Errorf("%w: %q", songbook.ErrNotFound, title)
	}
	var song *music.Song
	var err error
	m.book.View(func(b *songbook.Book) {
		song, _, err = b.Find(title)
	})
	if err != nil {
		return err
	}
	m.LoadSong(song.Clone())
	return nil
}

// LoadDefault loads the book's default song, else a practice set.
func (m *Manager) LoadDefault() error {
	var song *music.Song
	if m.book != nil {
		m.book.View(func(b *songbook.Book) {
			if s, ok := b.DefaultSong(); ok {
				song = s.Clone()
			}
		})
	}
	if song != nil {
		m.LoadSong(song)
		return nil
	}
	return m.Practice(generator.MinTier, 0)
}

// Practice loads a generated set outside the career.
func (m *Manager) Practice(tier, set int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	song, err := m.gen.GenerateSet(tier, set)
	if err != nil {
		return err
	}
	m.venue, m.set = tier, set
	m.load(song, SourcePractice)
	return nil
}

// StartCareer begins a new career and loads its first set.
func (m *Manager) StartCareer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.career.Start()
	m.saveCareer()
	return m.loadCareerSet(m.career.CurrentVenue(), m.career.CurrentSet())
}

// ContinueCareer loads the career's current set.
func (m *Manager) ContinueCareer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.career.Active() {
		return career.ErrNoActiveCareer
	}
	return m.loadCareerSet(m.career.CurrentVenue(), m.career.CurrentSet())
}

// PlaySet replays an unlocked career set.
func (m *Manager) PlaySet(venue, set int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.career.Active() {
		return career.ErrNoActiveCareer
	}
	return m.playSet(venue, set)
}

// StepSet moves delta sets from the loaded career set, crossing venue
// boundaries, and plays the set it lands on.
func (m *Manager) StepSet(delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.career.Active() {
		return career.ErrNoActiveCareer
	}
	venue, set := m.career.CurrentVenue(), m.career.CurrentSet()
	if m.source == SourceCareer {
		venue, set = m.venue, m.set
	}
	set += delta
	for set < 0 && venue > career.FirstVenue {
		venue--
		cfg, _ := generator.Tier(venue)
		set += cfg.NumSets
	}
	for {
		cfg, ok := generator.Tier(venue)
		if !ok || set < cfg.NumSets || venue == career.LastVenue {
			break
		}
		set -= cfg.NumSets
		venue++
	}
	if set < 0 {
		set = 0
	}
	return m.playSet(venue, set)
}

func (m *Manager) playSet(venue, set int) error {
	if !m.career.IsSetUnlocked(venue, set) {
		return fmt.Errorf("%w: venue %d set %d", ErrSetLocked, venue, set+1)
	}
	return m.loadCareerSet(venue, set)
}

// SkipSet spends the skip token on the current set.
func (m *Manager) SkipSet() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, _ := generator.Tier(m.career.CurrentVenue())
	ok, err := m.career.UseSkip(cfg.NumSets)
	if err != nil || !ok {
		return ok, err
	}
	m.saveCareer()
	if m.career.Active() {
		return true, m.loadCareerSet(m.career.CurrentVenue(), m.career.CurrentSet())
	}
	return true, nil
}

func (m *Manager) loadCareerSet(venue, set int) error {
	song, err := m.gen.GenerateSet(venue, set)
	if err != nil {
		return err
	}
	m.venue, m.set = venue, set
	m.load(song, SourceCareer)
	return nil
}

// complete records a finished song and moves the career along.
func (m *Manager) complete() {
	song := m.engine.Song()
	sc := m.engine.Scorer()
	sum := &Summary{
		Title:    song.Title,
		Score:    sc.Score(),
		MaxScore: sc.MaxScore(),
		Percent:  sc.Percent(),
		Result:   sc.Result(),
	}
	m.last = sum
	m.status = fmt.Sprintf("%s %.0f%%", sum.Result, sum.Percent*100)

	if m.source == SourceBook && m.book != nil && song.ID != "" {
		m.book.Update(func(b *songbook.Book) {
			if stored, _, err := b.Find(song.Title); err == nil && stored.ID == song.ID {
				sum.NewBest = b.RecordScore(stored, sum.Score)
			}
		})
	}

	if m.history != nil {
		err := m.history.Save(history.Play{
			Session:  m.session,
			SongID:   song.ID,
			Title:    song.Title,
			Artist:   song.Artist,
			Score:    sum.Score,
			MaxScore: sum.MaxScore,
			Percent:  sum.Percent,
			Result:   sum.Result.String(),
			Mode:     m.engine.Mode().String(),
		})
		if err != nil {
			m.log.Log("trainer", "history: %v", err)
		}
	}

	if m.source != SourceCareer || m.venue != m.career.CurrentVenue() || m.set != m.career.CurrentSet() {
		return
	}
	cfg, _ := generator.Tier(m.venue)
	out, err := m.career.ProcessSetResult(sum.Percent, cfg.NumSets)
	if err != nil {
		m.log.Log("trainer", "career: %v", err)
		return
	}
	sum.Career = out
	sum.InTour = true
	m.saveCareer()

	switch {
	case out.CareerOver || out.WorldTourComplete:
	case out.Result == score.Bombed:
		song, err := m.gen.RegenerateSet(m.venue, m.set)
		if err != nil {
			m.log.Log("trainer", "regenerate: %v", err)
			return
		}
		m.load(song, SourceCareer)
	default:
		if err := m.loadCareerSet(m.career.CurrentVenue(), m.career.CurrentSet()); err != nil {
			m.log.Log("trainer", "next set: %v", err)
		}
	}
	m.status = fmt.Sprintf("%s %.0f%% (%+d fans)", sum.Result, sum.Percent*100, out.FanDelta)
}

func (m *Manager) saveCareer() {
	if m.careerPath == "" {
		return
	}
	if err := m.career.Save(m.careerPath); err != nil {
		m.log.Log("trainer", "save career: %v", err)
	}
}

// Close silences output and flushes pending saves.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.Stop()
	m.out.Panic()
	m.engine.Panic()
	m.out.Flush()
	m.saveCareer()
	if m.book != nil {
		return m.book.Flush()
	}
	return nil
}

// Snapshot is a consistent read of the session for rendering.
type Snapshot struct {
	Song      *music.Song
	Source    Source
	Venue     int
	Set       int
	MusicTime float64
	Running   bool
	Complete  bool
	Tempo     float64
	Mode      engine.Mode
	Score     float64
	MaxScore  float64
	Progress  score.Progress
	Upcoming  []music.Note
	Held      map[int]bool
	NoteWidth int
	Mapping   input.Mapping
	Octave    int
	Fans      int
	CanSkip   bool
	Last      *Summary
	Status    string
}

// Snapshot reads the session; window is how far ahead to collect notes.
func (m *Manager) Snapshot(window int) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	held := make(map[int]bool)
	for _, p := range m.engine.PlayerDown() {
		held[p] = true
	}
	sc := m.engine.Scorer()
	return Snapshot{
		Song:      m.engine.Song(),
		Source:    m.source,
		Venue:     m.venue,
		Set:       m.set,
		MusicTime: m.engine.MusicTime(),
		Running:   m.engine.Running(),
		Complete:  m.engine.Complete(),
		Tempo:     m.engine.Tempo(),
		Mode:      m.engine.Mode(),
		Score:     sc.Score(),
		MaxScore:  sc.MaxScore(),
		Progress:  m.engine.Progress(),
		Upcoming:  m.engine.Upcoming(window),
		Held:      held,
		NoteWidth: m.engine.NoteWidth(),
		Mapping:   m.router.Mapping(),
		Octave:    m.router.Octave(),
		Fans:      m.career.Fans(),
		CanSkip:   m.career.CanSkipNext(),
		Last:      m.last,
		Status:    m.status,
	}
}

// Career exposes the career for read-only views.
func (m *Manager) Career() *career.Career { return m.career }
