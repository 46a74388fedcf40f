// internal/game/systems.go
package game

import (
	"github.com/erilali/tictactoe/internal/message"
)

// Systems run in this order for every message a world processes.
var Systems = []System{
	colorSystem,
	connectionSystem,
	gameLoopSystem,
	markerSystem,
	lineCheckSystem,
	turnSystem,
	syncSystem,
	profileSystem,
}

// colorSystem shares the color preferences of a world with its members.
var colorSystem = System{
	Name: "color",
	Handlers: map[message.Kind]Handler{
		message.KindAddPlayer: On(func(a *AddPlayer, w *World) {
			// Runs before the connection system admits the player.
			if !w.hasColor || !w.admits(a.Player) {
				return
			}
			colors := w.colors
			a.Player.Send(message.KindUpdateColors, &colors)
		}),
		message.KindUpdateColors: On(func(c *message.UpdateColors, w *World) {
			if err := c.Validate(); err != nil {
				w.log.Warnf("ignoring colors: %v", err)
				return
			}
			if c.Hue != nil {
				hue := *c.Hue
				w.colors.Hue = &hue
			}
			if c.Scheme != "" {
				w.colors.Scheme = c.Scheme
			}
			w.hasColor = true
			w.channel.Send(message.KindUpdateColors, c)
		}),
	},
}

// connectionSystem admits and removes members.
var connectionSystem = System{
	Name: "connection",
	Handlers: map[message.Kind]Handler{
		message.KindAddPlayer: On(func(a *AddPlayer, w *World) {
			player := a.Player
			if player == nil || w.Has(player) {
				return
			}
			if player.State.Connection != StateConnected {
				w.log.Debugf("player %s is %s, not admitting", player.ID(), player.State.Connection)
				return
			}
			if !w.admits(player) {
				player.Send(message.KindWorldOccupied, &message.WorldOccupied{World: w.name})
				return
			}

			w.addPlayer(player)
			player.State = PlayerState{Connection: StateInWorld}
			player.Send(message.KindJoinedWorld, &message.JoinedWorld{World: w.name})
			w.log.LogEvent("info", "player_joined", player.ID(), w.name)

			if w.Len() == maxPlayers && w.all(StateInWorld) {
				w.Update(message.KindReady, &message.Ready{})
			}
			player.Subscribe(w)
		}),
		message.KindDisconnected: On(func(d *Disconnected, w *World) {
			if d.Player == nil || !w.removePlayer(d.Player) {
				return
			}
			if d.Previous == StateInGame {
				w.channel.Send(message.KindDisconnected, d)
			}
		}),
	},
}

// gameLoopSystem starts games and handles rematches.
var gameLoopSystem = System{
	Name: "gameLoop",
	Handlers: map[message.Kind]Handler{
		message.KindReady: On(func(_ *message.Ready, w *World) {
			signs := []message.Sign{message.SignX, message.SignO}
			if w.coin() {
				signs[0], signs[1] = signs[1], signs[0]
			}
			turn := message.SignX
			if w.coin() {
				turn = message.SignO
			}

			var seated []*Player
			for _, p := range w.players {
				if p.State.Connection == StateInWorld {
					seated = append(seated, p)
				}
			}
			if len(seated) != maxPlayers {
				return
			}

			w.State = WorldState{Connection: WorldInGame, Turn: turn}
			for i, p := range seated {
				p.State = PlayerState{Connection: StateInGame, Name: p.State.Name, Sign: signs[i]}
			}
			for i, p := range seated {
				opponent := seated[1-i]
				p.Send(message.KindStart, &message.Start{
					Opponent: message.PlayerWithSign{
						PlayerData: message.PlayerData{Name: opponent.State.Name},
						Sign:       opponent.State.Sign,
					},
					Sign: p.State.Sign,
					Turn: turn,
				})
			}
			w.log.LogEvent("info", "game_started", "", w.name)
		}),
		message.KindRequestRematch: On(func(r *message.RequestRematch, w *World) {
			player := PlayerOf(r)
			if player == nil {
				ReportMissing(message.KindRequestRematch, r)
				return
			}
			if player.State.Connection != StateInGame {
				return
			}
			player.State = PlayerState{Connection: StateInWorld, Name: player.State.Name}

			if w.Len() == maxPlayers && w.all(StateInWorld) {
				w.Update(message.KindReady, &message.Ready{})
				return
			}
			for _, other := range w.others(player) {
				other.Send(message.KindRematchRequested, &message.RematchRequested{})
			}
		}),
	},
}

// markerSystem places a mark for the player whose turn it is.
var markerSystem = System{
	Name: "marker",
	Handlers: map[message.Kind]Handler{
		message.KindMark: On(func(m *message.Mark, w *World) {
			player := PlayerOf(m)
			if player == nil {
				ReportMissing(message.KindMark, m)
				return
			}
			if w.State.Connection != WorldInGame || player.State.Connection != StateInGame {
				return
			}
			if !w.Has(player) || player.State.Sign != w.State.Turn || !m.Place.Valid() {
				return
			}
			if w.State.Board.At(m.Place) != message.SignNone {
				return
			}
			w.State.Board[m.Place-1] = player.State.Sign
			w.Update(message.KindSwitch, &message.Switch{})
		}),
	},
}

// lineCheckSystem announces a victory or a draw.
var lineCheckSystem = System{
	Name: "lineCheck",
	Handlers: map[message.Kind]Handler{
		message.KindMark: On(func(_ *message.Mark, w *World) {
			if w.State.Connection != WorldInGame {
				return
			}
			for _, line := range message.Lines {
				if sign := w.State.Board.Owner(line); sign != message.SignNone {
					w.channel.Send(message.KindVictory, &message.Victory{WinningSign: sign, Line: line})
					w.log.LogEvent("info", "victory", string(sign), w.name)
					return
				}
			}
			if w.State.Board.Full() {
				w.channel.Send(message.KindDraw, &message.Draw{})
				w.log.LogEvent("info", "draw", "", w.name)
			}
		}),
	},
}

// turnSystem hands the turn over. An explicit To wins over flipping.
var turnSystem = System{
	Name: "turn",
	Handlers: map[message.Kind]Handler{
		message.KindSwitch: On(func(s *message.Switch, w *World) {
			if w.State.Connection != WorldInGame {
				return
			}
			if s.To.Valid() {
				w.State.Turn = s.To
				return
			}
			w.State.Turn = w.State.Turn.Opponent()
		}),
	},
}

// syncSystem broadcasts the authoritative board after every mark.
var syncSystem = System{
	Name: "sync",
	Handlers: map[message.Kind]Handler{
		message.KindMark: On(func(_ *message.Mark, w *World) {
			if w.State.Connection != WorldInGame {
				return
			}
			board := w.State.Board
			w.channel.Send(message.KindSync, &message.Sync{Board: &board, Turn: w.State.Turn})
		}),
	},
}

// profileSystem stores player profiles and forwards them to opponents.
var profileSystem = System{
	Name: "profile",
	Handlers: map[message.Kind]Handler{
		message.KindAddPlayer: On(func(a *AddPlayer, w *World) {
			if !w.Has(a.Player) {
				return
			}
			if own, ok := w.profiles[a.Player.ID()]; ok {
				a.Player.Send(message.KindPlayerProfile, own)
			}
			for _, other := range w.others(a.Player) {
				if profile, ok := w.profiles[other.ID()]; ok {
					a.Player.Send(message.KindOpponentProfile, &message.OpponentProfile{Name: profile.Name})
				}
			}
		}),
		message.KindPlayerProfile: On(func(p *message.PlayerProfile, w *World) {
			player := PlayerOf(p)
			if player == nil {
				ReportMissing(message.KindPlayerProfile, p)
				return
			}
			if err := p.Normalize(); err != nil {
				w.log.Warnf("ignoring profile of %s: %v", player.ID(), err)
				return
			}
			w.profiles[player.ID()] = p
			if player.State.Connection == StateInWorld || player.State.Connection == StateInGame {
				player.State.Name = p.Name
			}
			for _, other := range w.others(player) {
				other.Send(message.KindOpponentProfile, &message.OpponentProfile{Name: p.Name})
			}
		}),
	},
}
