package protocol

// ClientOp is an opcode sent from a player to the server.
// The wire value is the declaration ordinal.
type ClientOp int

const (
	CardsPlayed ClientOp = iota
	TurnEnd
	Ready
	DrawCards
	CardAppend
	CardDiscard
	Victory
	GraveyardPickup
)

// ClientOpCount is the number of client opcodes
const ClientOpCount = int(GraveyardPickup) + 1

var clientOpNames = [ClientOpCount]string{
	"CARDS_PLAYED",
	"TURN_END",
	"READY",
	"DRAW_CARDS",
	"CARD_APPEND",
	"CARD_DISCARD",
	"VICTORY",
	"GRAVEYARD_PICKUP",
}

func (op ClientOp) String() string {
	if op < 0 || int(op) >= ClientOpCount {
		return "UNKNOWN"
	}
	return clientOpNames[op]
}

// ServerOp is an opcode sent from the server to a player.
type ServerOp int

const (
	Welcome ServerOp = iota
	TurnStart
	TurnEndNotice
	Block
	SendCards
	CardsPlayedUpdate
	GraveyardUpdate
	CardAppendUpdate
	Defeat
	VictoryNotice
	GraveyardEmpty
	GraveyardDecrease
)

// ServerOpCount is the number of server opcodes
const ServerOpCount = int(GraveyardDecrease) + 1

var serverOpNames = [ServerOpCount]string{
	"WELCOME",
	"TURN_START",
	"TURN_END",
	"BLOCK",
	"SEND_CARDS",
	"CARDS_PLAYED_UPDATE",
	"GRAVEYARD_UPDATE",
	"CARD_APPEND_UPDATE",
	"DEFEAT",
	"VICTORY",
	"GRAVEYARD_EMPTY",
	"GRAVEYARD_DECREASE",
}

func (op ServerOp) String() string {
	if op < 0 || int(op) >= ServerOpCount {
		return "UNKNOWN"
	}
	return serverOpNames[op]
}
