// internal/message/message.go
// Closed catalog of message kinds exchanged between the systems, the server and the clients.
package message

// Kind names a message. The set of kinds is closed: anything not listed in
// the catalog below is rejected by the codec.
type Kind string

const (
	// Game mechanics.
	KindMark             Kind = "Mark"
	KindSwitch           Kind = "Switch"
	KindReady            Kind = "Ready"
	KindStart            Kind = "Start"
	KindSync             Kind = "Sync"
	KindVictory          Kind = "Victory"
	KindDraw             Kind = "Draw"
	KindRequestRematch   Kind = "RequestRematch"
	KindRematchRequested Kind = "RematchRequested"

	// Player customization.
	KindPlayerProfile   Kind = "PlayerProfile"
	KindOpponentProfile Kind = "OpponentProfile"

	// Color syncing.
	KindSyncColors   Kind = "SyncColors"
	KindUpdateColors Kind = "UpdateColors"

	// Cursors.
	KindCursorMove Kind = "CursorMove"
	KindCursorSync Kind = "CursorSync"

	// Connection management and matchmaking.
	KindConnected     Kind = "Connected"
	KindNewWorld      Kind = "NewWorld"
	KindJoinWorld     Kind = "JoinWorld"
	KindAddPlayer     Kind = "AddPlayer"
	KindDisconnected  Kind = "Disconnected"
	KindJoinedWorld   Kind = "JoinedWorld"
	KindWorldNotFound Kind = "WorldNotFound"
	KindWorldOccupied Kind = "WorldOccupied"
)

// Direction records which side of the wire may produce a kind.
type Direction uint8

const (
	FromClient Direction = 1 << iota
	FromServer
)

const (
	// Local kinds never cross the wire.
	Local         Direction = 0
	Bidirectional Direction = FromClient | FromServer
)

type entry struct {
	direction Direction
	// attributable kinds are the client-originated, state-mutating ones;
	// their payloads carry the sending player as a hidden origin.
	attributable bool
	// newPayload returns a pointer to a zero payload. Nil for kinds whose
	// payload references server objects.
	newPayload func() any
}

var catalog = map[Kind]entry{
	KindMark:             {Bidirectional, true, func() any { return &Mark{} }},
	KindSwitch:           {Bidirectional, false, func() any { return &Switch{} }},
	KindReady:            {Bidirectional, false, func() any { return &Ready{} }},
	KindStart:            {Bidirectional, false, func() any { return &Start{} }},
	KindSync:             {Bidirectional, false, func() any { return &Sync{} }},
	KindVictory:          {Bidirectional, false, func() any { return &Victory{} }},
	KindDraw:             {Bidirectional, false, func() any { return &Draw{} }},
	KindRequestRematch:   {Bidirectional, true, func() any { return &RequestRematch{} }},
	KindRematchRequested: {Bidirectional, false, func() any { return &RematchRequested{} }},
	KindPlayerProfile:    {Bidirectional, true, func() any { return &PlayerProfile{} }},
	KindOpponentProfile:  {Bidirectional, false, func() any { return &OpponentProfile{} }},
	KindSyncColors:       {Bidirectional, false, func() any { return &SyncColors{} }},
	KindUpdateColors:     {Bidirectional, false, func() any { return &UpdateColors{} }},
	KindCursorMove:       {Bidirectional, true, func() any { return &CursorMove{} }},
	KindCursorSync:       {Bidirectional, false, func() any { return &CursorSync{} }},
	KindConnected:        {Local, false, func() any { return &Connected{} }},
	KindNewWorld:         {FromClient, true, func() any { return &NewWorld{} }},
	KindJoinWorld:        {FromClient, true, func() any { return &JoinWorld{} }},
	KindAddPlayer:        {Local, false, nil},
	KindDisconnected:     {FromServer, false, nil},
	KindJoinedWorld:      {FromServer, false, func() any { return &JoinedWorld{} }},
	KindWorldNotFound:    {FromServer, false, func() any { return &WorldNotFound{} }},
	KindWorldOccupied:    {FromServer, false, func() any { return &WorldOccupied{} }},
}

// Known reports whether k is part of the catalog.
func (k Kind) Known() bool {
	_, ok := catalog[k]
	return ok
}

// Direction returns who may put k on the wire.
func (k Kind) Direction() Direction {
	return catalog[k].direction
}

// Attributable reports whether payloads of kind k are tagged with the
// player that sent them.
func (k Kind) Attributable() bool {
	return catalog[k].attributable
}

// New returns a pointer to an empty payload of kind k, or nil when the kind
// has no standalone payload.
func New(k Kind) any {
	e, ok := catalog[k]
	if !ok || e.newPayload == nil {
		return nil
	}
	return e.newPayload()
}

func (k Kind) String() string { return string(k) }
