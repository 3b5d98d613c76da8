// Package lobby queues players by region and rating and spins up rooms
// once enough compatible players are waiting.
package lobby

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"

	"github.com/vantagefps/vantage/pkg/config"
	"github.com/vantagefps/vantage/pkg/game/modes"
	"github.com/vantagefps/vantage/pkg/gameserver"
	"github.com/vantagefps/vantage/pkg/state"
)

const pollInterval = 5 * time.Second

// ratingWindow is how far from the longest-waiting player's rating the
// matchmaker will reach. It widens with waiting time and never narrows.
func ratingWindow(waited time.Duration) int {
	switch {
	case waited < time.Minute:
		return 100
	case waited < 2*time.Minute:
		return 150
	case waited < 3*time.Minute:
		return 200
	}
	return 250
}

type Ticket struct {
	PlayerID uuid.UUID
	Session  uint32
	Name     string
	Region   string
	Rating   int
	JoinTime time.Time
}

// Match is announced once a roster has been assembled. The room is
// already polling; the connection layer joins each player onto their
// assigned team.
type Match struct {
	Room    *gameserver.Room
	Tickets []*Ticket
	Teams   map[uuid.UUID]int
}

type Matchmaker struct {
	settings config.MatchmakingSettings
	roomConf config.RoomSettings

	stateService *state.StateService
	economy      *state.EconomyStore

	mutex      deadlock.Mutex
	queue      []*Ticket
	rooms      []*gameserver.Room
	queueEvent chan bool
	matches    chan *Match
}

func NewMatchmaker(
	settings config.MatchmakingSettings,
	roomConf config.RoomSettings,
	stateService *state.StateService,
	economy *state.EconomyStore,
) *Matchmaker {
	return &Matchmaker{
		settings:     settings,
		roomConf:     roomConf,
		stateService: stateService,
		economy:      economy,
		queue:        make([]*Ticket, 0),
		rooms:        make([]*gameserver.Room, 0),
		queueEvent:   make(chan bool, 1),
		matches:      make(chan *Match, 10),
	}
}

func (m *Matchmaker) ReceiveMatches() <-chan *Match {
	return m.matches
}

func (m *Matchmaker) validRegion(region string) bool {
	for _, candidate := range m.settings.Regions {
		if candidate == region {
			return true
		}
	}
	return false
}

// Queue adds a player to their region's queue. Queueing twice is an
// error; the caller should report ErrAlreadyQueued to the client.
func (m *Matchmaker) Queue(ticket *Ticket) error {
	if !m.validRegion(ticket.Region) {
		return fmt.Errorf("unknown region %s", ticket.Region)
	}

	m.mutex.Lock()
	for _, queued := range m.queue {
		if queued.PlayerID == ticket.PlayerID {
			m.mutex.Unlock()
			return fmt.Errorf("already queued")
		}
	}

	if ticket.JoinTime.IsZero() {
		ticket.JoinTime = time.Now()
	}
	m.queue = append(m.queue, ticket)
	m.mutex.Unlock()

	log.Info().
		Str("player", ticket.PlayerID.String()).
		Str("region", ticket.Region).
		Int("rating", ticket.Rating).
		Msg("queued for matchmaking")

	select {
	case m.queueEvent <- true:
	default:
	}

	return nil
}

// Dequeue removes a player from the queue. Safe to call for players who
// were never queued.
func (m *Matchmaker) Dequeue(player uuid.UUID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cleaned := make([]*Ticket, 0, len(m.queue))
	for _, queued := range m.queue {
		if queued.PlayerID == player {
			log.Info().Str("player", player.String()).Msg("left matchmaking queue")
			continue
		}
		cleaned = append(cleaned, queued)
	}
	m.queue = cleaned
}

func (m *Matchmaker) Poll(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.queueEvent:
			m.MakeMatches(ctx)
		case <-ticker.C:
			m.MakeMatches(ctx)
		}
	}
}

// MakeMatches runs one matching pass over every region.
func (m *Matchmaker) MakeMatches(ctx context.Context) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, region := range m.settings.Regions {
		for m.matchRegion(ctx, region) {
		}
	}
}

// matchRegion tries to assemble one roster around the longest-waiting
// player in the region. Reports whether a match was made, so the caller
// can drain the region completely.
func (m *Matchmaker) matchRegion(ctx context.Context, region string) bool {
	var regional []*Ticket
	for _, queued := range m.queue {
		if queued.Region == region {
			regional = append(regional, queued)
		}
	}

	if len(regional) < m.settings.MinRoster {
		return false
	}

	sort.Slice(regional, func(i, j int) bool {
		return regional[i].JoinTime.Before(regional[j].JoinTime)
	})
	anchor := regional[0]
	window := ratingWindow(time.Since(anchor.JoinTime))

	var roster []*Ticket
	for _, candidate := range regional {
		delta := candidate.Rating - anchor.Rating
		if delta < 0 {
			delta = -delta
		}
		if delta <= window {
			roster = append(roster, candidate)
		}
	}

	if len(roster) < m.settings.MinRoster {
		return false
	}

	// Keep the players closest in rating to the anchor.
	if len(roster) > m.settings.RosterSize {
		sort.SliceStable(roster, func(i, j int) bool {
			return distance(roster[i].Rating, anchor.Rating) <
				distance(roster[j].Rating, anchor.Rating)
		})
		roster = roster[:m.settings.RosterSize]
	}

	if err := m.startMatch(ctx, roster); err != nil {
		log.Error().Err(err).Msg("failed to start match")
		return false
	}

	matched := make(map[uuid.UUID]bool, len(roster))
	for _, ticket := range roster {
		matched[ticket.PlayerID] = true
	}
	cleaned := make([]*Ticket, 0, len(m.queue))
	for _, queued := range m.queue {
		if matched[queued.PlayerID] {
			continue
		}
		cleaned = append(cleaned, queued)
	}
	m.queue = cleaned

	return true
}

func distance(a, b int) int {
	if a < b {
		return b - a
	}
	return a - b
}

// snakeDraft deals rating-sorted players onto teams in serpentine
// order, so the strongest players are spread evenly.
func snakeDraft(roster []*Ticket, teams int) map[uuid.UUID]int {
	assignments := make(map[uuid.UUID]int, len(roster))
	if teams == 0 {
		for _, ticket := range roster {
			assignments[ticket.PlayerID] = modes.NoTeam
		}
		return assignments
	}

	sorted := make([]*Ticket, len(roster))
	copy(sorted, roster)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})

	team, step := 0, 1
	for _, ticket := range sorted {
		assignments[ticket.PlayerID] = team

		next := team + step
		if next < 0 || next >= teams {
			step = -step
			continue
		}
		team = next
	}
	return assignments
}

func (m *Matchmaker) startMatch(ctx context.Context, roster []*Ticket) error {
	room, err := gameserver.New(ctx, &gameserver.Config{
		MaxClients:   m.roomConf.MaxClients,
		MinClients:   m.roomConf.MinClients,
		TickRate:     m.roomConf.TickRate,
		SnapshotRate: m.roomConf.SnapshotRate,
		Mode:         m.roomConf.DefaultMode,
		Map:          m.roomConf.DefaultMap,
	}, m.economy)
	if err != nil {
		return err
	}

	teams := 0
	if mode := modes.Find(m.roomConf.DefaultMode); mode.Value.TeamCount > 0 {
		teams = mode.Value.TeamCount
	}

	match := &Match{
		Room:    room,
		Tickets: roster,
		Teams:   snakeDraft(roster, teams),
	}

	m.rooms = append(m.rooms, room)

	go room.Poll(ctx)
	go m.superviseRoom(ctx, room)

	log.Info().
		Str("room", room.ID.String()).
		Int("players", len(roster)).
		Msg("match assembled")

	select {
	case m.matches <- match:
	default:
		log.Warn().Msg("match channel full, dropping announcement")
	}

	return nil
}

// superviseRoom waits for the room's match result, persists rating
// changes and forgets the room.
func (m *Matchmaker) superviseRoom(ctx context.Context, room *gameserver.Room) {
	subscriber := room.Finished.Subscribe()
	defer subscriber.Done()

	persist := func(result gameserver.MatchResult) {
		if result.Winner.Draw {
			return
		}
		err := m.stateService.ApplyMatchResult(ctx, result.Winners, result.Losers)
		if err != nil {
			log.Error().Err(err).Msg("failed to persist ratings")
		}
	}

	select {
	case <-ctx.Done():
		return
	case result := <-subscriber.Recv():
		persist(result)
	case <-room.Ctx().Done():
		// The result is published just before the room cancels
		// itself; it may still be sitting in the buffer.
		select {
		case result := <-subscriber.Recv():
			persist(result)
		default:
		}
	}

	m.mutex.Lock()
	cleaned := make([]*gameserver.Room, 0, len(m.rooms))
	for _, existing := range m.rooms {
		if existing == room {
			continue
		}
		cleaned = append(cleaned, existing)
	}
	m.rooms = cleaned
	m.mutex.Unlock()
}

// FindRoom locates the room a player is currently in, if any.
func (m *Matchmaker) FindRoom(player uuid.UUID) *gameserver.Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, room := range m.rooms {
		if room.Clients.GetClientByID(player) != nil {
			return room
		}
	}
	return nil
}

type LobbyStatistics struct {
	Queued int
	Rooms  []gameserver.RoomStatistics
}

func (m *Matchmaker) GetStatistics() LobbyStatistics {
	m.mutex.Lock()
	rooms := make([]*gameserver.Room, len(m.rooms))
	copy(rooms, m.rooms)
	queued := len(m.queue)
	m.mutex.Unlock()

	stats := LobbyStatistics{Queued: queued}
	for _, room := range rooms {
		stats.Rooms = append(stats.Rooms, room.GetStatistics())
	}
	return stats
}
