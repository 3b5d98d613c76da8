// Package modes implements game-mode-specific scoring, win conditions, and
// objective-control bookkeeping for a single match.
package modes

import (
	"time"

	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
	"github.com/sasha-s/go-deadlock"

	"github.com/vantagefps/vantage/pkg/clock"
	"github.com/vantagefps/vantage/pkg/geom"
)

type ID string

const (
	TeamDeathmatch ID = "tdm"
	FreeForAll     ID = "ffa"
	KingOfTheHill  ID = "koth"
)

type Phase uint8

const (
	PhaseWaiting Phase = iota
	PhaseActive
	PhaseEnded
)

// NoTeam marks free-for-all players and neutral objectives.
const NoTeam = -1

type Objective struct {
	ID       int
	Position geom.Vec
	Radius   float64
}

type Config struct {
	Mode       ID
	ScoreLimit int
	TimeLimit  time.Duration
	// 0 for free-for-all.
	TeamCount int
	// Points per second of sole control, for objective modes.
	ControlRate float64
	Objectives  []Objective
}

var configs = map[ID]Config{
	TeamDeathmatch: {
		Mode:       TeamDeathmatch,
		ScoreLimit: 75,
		TimeLimit:  10 * time.Minute,
		TeamCount:  2,
	},
	FreeForAll: {
		Mode:       FreeForAll,
		ScoreLimit: 30,
		TimeLimit:  10 * time.Minute,
	},
	KingOfTheHill: {
		Mode:        KingOfTheHill,
		ScoreLimit:  200,
		TimeLimit:   12 * time.Minute,
		TeamCount:   2,
		ControlRate: 1.0,
		Objectives: []Objective{
			{ID: 0, Position: geom.NewVec(0, 0, 0), Radius: 8},
		},
	},
}

// Find looks up a mode's default configuration by name.
func Find(name string) opt.Option[Config] {
	if config, exists := configs[ID(name)]; exists {
		return opt.Some(config)
	}
	return opt.None[Config]()
}

type PlayerStats struct {
	Kills  int
	Deaths int
	Damage float64
	Score  float64
}

type ObjectiveState struct {
	Objective
	// NoTeam when neutral or contested.
	Controlling int
	Contested   bool
}

type Winner struct {
	// NoTeam for free-for-all wins and draws.
	Team   int
	Player uuid.UUID
	Draw   bool
	Reason string // "score_limit" or "time_limit"
}

// Presence is one living player's whereabouts for objective evaluation.
type Presence struct {
	Player   uuid.UUID
	Team     int
	Position geom.Vec
}

// Engine is the match rules state machine: waiting -> active -> ended. Once
// ended, no further score mutations are accepted.
type Engine struct {
	mutex deadlock.Mutex

	config     Config
	phase      Phase
	clock      *clock.Timer
	players    map[uuid.UUID]*PlayerStats
	teamScores []float64
	objectives []*ObjectiveState
	winner     *Winner
	round      int
}

func NewEngine(config Config) *Engine {
	e := &Engine{
		config:     config,
		phase:      PhaseWaiting,
		players:    make(map[uuid.UUID]*PlayerStats),
		teamScores: make([]float64, config.TeamCount),
		round:      1,
	}
	for _, objective := range config.Objectives {
		e.objectives = append(e.objectives, &ObjectiveState{
			Objective:   objective,
			Controlling: NoTeam,
		})
	}
	return e
}

func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) Phase() Phase {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.phase
}

// Start transitions waiting -> active and starts the match clock.
func (e *Engine) Start() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.phase != PhaseWaiting {
		return
	}
	e.phase = PhaseActive
	if e.config.TimeLimit > 0 {
		e.clock = clock.NewTimer(e.config.TimeLimit)
		e.clock.Start()
	}
}

func (e *Engine) TimeLeft() time.Duration {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.clock.TimeLeft()
}

func (e *Engine) AddPlayer(id uuid.UUID) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if _, exists := e.players[id]; !exists {
		e.players[id] = &PlayerStats{}
	}
}

func (e *Engine) RemovePlayer(id uuid.UUID) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.players, id)
}

func (e *Engine) stats(id uuid.UUID) *PlayerStats {
	if s, exists := e.players[id]; exists {
		return s
	}
	s := &PlayerStats{}
	e.players[id] = s
	return s
}

// RegisterKill updates per-player stats and team scores. A team-kill awards
// no score but still counts the victim's death.
func (e *Engine) RegisterKill(killer, victim uuid.UUID, killerTeam, victimTeam int, damage float64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.phase != PhaseActive {
		return
	}

	victimStats := e.stats(victim)
	victimStats.Deaths++

	killerStats := e.stats(killer)
	killerStats.Damage += damage

	teamKill := e.config.TeamCount > 0 && killerTeam == victimTeam && killer != victim
	suicide := killer == victim

	if teamKill || suicide {
		return
	}

	killerStats.Kills++
	killerStats.Score++
	if e.config.TeamCount > 0 && killerTeam >= 0 && killerTeam < len(e.teamScores) {
		e.teamScores[killerTeam]++
	}
}

// RecordDamage tracks damage dealt for per-match stats.
func (e *Engine) RecordDamage(attacker uuid.UUID, damage float64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.phase != PhaseActive {
		return
	}
	e.stats(attacker).Damage += damage
}

// UpdateObjectives re-evaluates control point ownership from player
// positions: neutral when empty, contested when multiple teams occupy the
// radius, controlled (and scoring fractionally) when exactly one does.
func (e *Engine) UpdateObjectives(dt float64, presences []Presence) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.phase != PhaseActive || len(e.objectives) == 0 {
		return
	}

	for _, objective := range e.objectives {
		teams := make(map[int]bool)
		for _, presence := range presences {
			if geom.Distance(presence.Position, objective.Position) <= objective.Radius {
				teams[presence.Team] = true
			}
		}

		switch {
		case len(teams) == 0:
			objective.Controlling = NoTeam
			objective.Contested = false
		case len(teams) > 1:
			objective.Controlling = NoTeam
			objective.Contested = true
		default:
			var team int
			for t := range teams {
				team = t
			}
			objective.Controlling = team
			objective.Contested = false
			if team >= 0 && team < len(e.teamScores) {
				e.teamScores[team] += e.config.ControlRate * dt
			}
		}
	}
}

// CheckWinCondition evaluates score-limit and time-limit termination and, on
// the first hit, transitions the match to ended.
func (e *Engine) CheckWinCondition() (Winner, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.phase == PhaseEnded {
		return *e.winner, true
	}
	if e.phase != PhaseActive {
		return Winner{}, false
	}

	if winner, ok := e.scoreLimitWinner(); ok {
		e.end(winner)
		return winner, true
	}

	if e.clock != nil && e.clock.TimeLeft() <= 0 {
		winner := e.leader()
		winner.Reason = "time_limit"
		e.end(winner)
		return winner, true
	}

	return Winner{}, false
}

func (e *Engine) scoreLimitWinner() (Winner, bool) {
	if e.config.ScoreLimit <= 0 {
		return Winner{}, false
	}
	limit := float64(e.config.ScoreLimit)

	if e.config.TeamCount > 0 {
		for team, score := range e.teamScores {
			if score >= limit {
				return Winner{Team: team, Reason: "score_limit"}, true
			}
		}
		return Winner{}, false
	}

	for id, stats := range e.players {
		if stats.Score >= limit {
			return Winner{Team: NoTeam, Player: id, Reason: "score_limit"}, true
		}
	}
	return Winner{}, false
}

// leader picks the current highest score; equal top scores is a draw.
func (e *Engine) leader() Winner {
	if e.config.TeamCount > 0 {
		best, draw := NoTeam, false
		var bestScore float64 = -1
		for team, score := range e.teamScores {
			if score > bestScore {
				best, bestScore, draw = team, score, false
			} else if score == bestScore {
				draw = true
			}
		}
		if draw {
			return Winner{Team: NoTeam, Draw: true}
		}
		return Winner{Team: best}
	}

	var best uuid.UUID
	var bestScore float64 = -1
	draw := false
	for id, stats := range e.players {
		if stats.Score > bestScore {
			best, bestScore, draw = id, stats.Score, false
		} else if stats.Score == bestScore {
			draw = true
		}
	}
	if draw {
		return Winner{Team: NoTeam, Draw: true}
	}
	return Winner{Team: NoTeam, Player: best}
}

func (e *Engine) end(winner Winner) {
	e.phase = PhaseEnded
	e.winner = &winner
	if e.clock != nil {
		e.clock.Stop()
	}
}

// ForceEnd terminates the match regardless of scores, e.g. when the roster
// drops below the minimum.
func (e *Engine) ForceEnd() Winner {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.phase == PhaseEnded {
		return *e.winner
	}
	winner := e.leader()
	winner.Reason = "abandoned"
	e.end(winner)
	return winner
}

func (e *Engine) TeamScores() []float64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	scores := make([]float64, len(e.teamScores))
	copy(scores, e.teamScores)
	return scores
}

func (e *Engine) Stats(id uuid.UUID) PlayerStats {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if stats, exists := e.players[id]; exists {
		return *stats
	}
	return PlayerStats{}
}

func (e *Engine) Objectives() []ObjectiveState {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	states := make([]ObjectiveState, 0, len(e.objectives))
	for _, objective := range e.objectives {
		states = append(states, *objective)
	}
	return states
}

func (e *Engine) Round() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.round
}
