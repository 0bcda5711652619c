package mighty

import "mighty-lite/card"

// Bid is a pledge: a trump (nil = no-giruda) and a count.
type Bid struct {
	Giruda *card.Pattern `json:"giruda"`
	Count  int           `json:"count"`
}

func (b Bid) sameGiruda(o Bid) bool {
	if (b.Giruda == nil) != (o.Giruda == nil) {
		return false
	}
	return b.Giruda == nil || *b.Giruda == *o.Giruda
}

// FriendFunc selects the friend. Exactly one of the fields is set; all nil
// means no friend.
type FriendFunc struct {
	Card    *card.Card `json:"Card,omitempty"`
	User    *int       `json:"User,omitempty"`
	Winning *int       `json:"Winning,omitempty"`
}

func FriendNone() FriendFunc { return FriendFunc{} }

func FriendByCard(c card.Card) FriendFunc { return FriendFunc{Card: &c} }

func FriendByUser(seat int) FriendFunc { return FriendFunc{User: &seat} }

func FriendByWinning(turn int) FriendFunc { return FriendFunc{Winning: &turn} }

func (f FriendFunc) IsNone() bool {
	return f.Card == nil && f.User == nil && f.Winning == nil
}

// Mode maps the function onto the rule's friend-mode mask.
func (f FriendFunc) Mode() FriendMode {
	switch {
	case f.Card != nil:
		return FriendModeCard
	case f.User != nil:
		return FriendModeUser
	case f.Winning != nil:
		return FriendModeWinning
	}
	return FriendModeNone
}

type PledgeCommand struct {
	// Bid nil is a pass.
	Bid *Bid `json:"bid"`
}

type SelectFriendCommand struct {
	Friend FriendFunc  `json:"friend"`
	Drop   []card.Card `json:"drop"`
}

type GoCommand struct {
	Card card.Card `json:"card"`
	// Rush is honoured only when leading with a joker.
	Rush      card.Rush `json:"rush"`
	JokerCall bool      `json:"joker_call"`
}

// Command is a pointer-tagged union; exactly one field is non-nil.
type Command struct {
	StartGame    *struct{}            `json:"StartGame,omitempty"`
	Pledge       *PledgeCommand       `json:"Pledge,omitempty"`
	SelectFriend *SelectFriendCommand `json:"SelectFriend,omitempty"`
	Go           *GoCommand           `json:"Go,omitempty"`
	Random       *struct{}            `json:"Random,omitempty"`
}

func CmdStartGame() Command { return Command{StartGame: &struct{}{}} }

func CmdPledge(bid *Bid) Command { return Command{Pledge: &PledgeCommand{Bid: bid}} }

func CmdPass() Command { return CmdPledge(nil) }

func CmdSelectFriend(friend FriendFunc, drop []card.Card) Command {
	return Command{SelectFriend: &SelectFriendCommand{Friend: friend, Drop: drop}}
}

func CmdGo(c card.Card, rush card.Rush, jokerCall bool) Command {
	return Command{Go: &GoCommand{Card: c, Rush: rush, JokerCall: jokerCall}}
}

func CmdRandom() Command { return Command{Random: &struct{}{}} }
