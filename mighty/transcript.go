package mighty

import (
	"fmt"
	"strconv"

	"mighty-lite/card"
)

// Compact text form of a seat+command pair, used for game records and
// test transcripts:
//
//	h<seat>                 StartGame
//	p<seat>n0               Pledge pass
//	p<seat><pattern><n>     Pledge at count = pledge.min + n
//	p<seat>n<n>             no-giruda pledge, n >= 1 (see below)
//	s<seat><drops><mode>    SelectFriend; mode n | c<card> | u<seat> | w<turn>
//	g<seat><card><rush><f>  Go; f is the joker-call flag 0|1
//	r<seat>                 Random
//
// Pledge counts are deltas against the rule's minimum, so the codec is
// bound to a rule. A no-giruda delta is shifted up by one ("n0" always
// means pass): n=1 is the lowest admissible no-giruda count.
type Codec struct {
	rule *Rule
}

func NewCodec(rule *Rule) *Codec { return &Codec{rule: rule} }

// Format renders a seat+command line.
func (cd *Codec) Format(seat int, cmd Command) (string, error) {
	switch {
	case cmd.StartGame != nil:
		return fmt.Sprintf("h%d", seat), nil

	case cmd.Pledge != nil:
		bid := cmd.Pledge.Bid
		if bid == nil {
			return fmt.Sprintf("p%dn0", seat), nil
		}
		if bid.Giruda == nil {
			n := bid.Count - cd.noGirudaMin() + 1
			return fmt.Sprintf("p%dn%d", seat, n), nil
		}
		return fmt.Sprintf("p%d%c%d", seat, bid.Giruda.Char(), bid.Count-cd.rule.Pledge.Min), nil

	case cmd.SelectFriend != nil:
		sel := cmd.SelectFriend
		out := fmt.Sprintf("s%d", seat)
		for _, c := range sel.Drop {
			out += c.String()
		}
		switch {
		case sel.Friend.Card != nil:
			out += "c" + sel.Friend.Card.String()
		case sel.Friend.User != nil:
			out += fmt.Sprintf("u%d", *sel.Friend.User)
		case sel.Friend.Winning != nil:
			out += fmt.Sprintf("w%d", *sel.Friend.Winning)
		default:
			out += "n"
		}
		return out, nil

	case cmd.Go != nil:
		flag := '0'
		if cmd.Go.JokerCall {
			flag = '1'
		}
		return fmt.Sprintf("g%d%s%s%c", seat, cmd.Go.Card, cmd.Go.Rush, flag), nil

	case cmd.Random != nil:
		return fmt.Sprintf("r%d", seat), nil
	}
	return "", ParseError("command has no active variant")
}

// Parse reads a seat+command line.
func (cd *Codec) Parse(line string) (int, Command, error) {
	if len(line) < 2 {
		return 0, Command{}, ParseError("line too short: " + line)
	}
	seat, err := strconv.Atoi(line[1:2])
	if err != nil {
		return 0, Command{}, ParseError("invalid seat in " + line)
	}
	rest := line[2:]

	switch line[0] {
	case 'h':
		return seat, CmdStartGame(), cd.wantEmpty(rest, line)
	case 'r':
		return seat, CmdRandom(), cd.wantEmpty(rest, line)
	case 'p':
		cmd, err := cd.parsePledge(rest, line)
		return seat, cmd, err
	case 's':
		cmd, err := cd.parseSelectFriend(rest, line)
		return seat, cmd, err
	case 'g':
		cmd, err := cd.parseGo(rest, line)
		return seat, cmd, err
	}
	return 0, Command{}, ParseError("unknown command letter in " + line)
}

func (cd *Codec) wantEmpty(rest, line string) error {
	if rest != "" {
		return ParseError("trailing text in " + line)
	}
	return nil
}

func (cd *Codec) noGirudaMin() int {
	return cd.rule.Pledge.Min + cd.rule.Pledge.NoGirudaOffset
}

func (cd *Codec) parsePledge(rest, line string) (Command, error) {
	if len(rest) < 2 {
		return Command{}, ParseError("truncated pledge in " + line)
	}
	n, err := strconv.Atoi(rest[1:])
	if err != nil || n < 0 {
		return Command{}, ParseError("invalid pledge count in " + line)
	}
	if rest[0] == 'n' {
		if n == 0 {
			return CmdPass(), nil
		}
		return CmdPledge(&Bid{Count: cd.noGirudaMin() + n - 1}), nil
	}
	p, ok := card.ParsePattern(rest[0])
	if !ok {
		return Command{}, ParseError("invalid pledge giruda in " + line)
	}
	return CmdPledge(&Bid{Giruda: &p, Count: cd.rule.Pledge.Min + n}), nil
}

func (cd *Codec) parseSelectFriend(rest, line string) (Command, error) {
	drops := make([]card.Card, cd.rule.Leftover())
	for i := range drops {
		if len(rest) < 2 {
			return Command{}, ParseError("truncated friend drops in " + line)
		}
		c, err := card.Parse(rest[:2])
		if err != nil {
			return Command{}, ParseError(err.Error())
		}
		drops[i] = c
		rest = rest[2:]
	}
	if rest == "" {
		return Command{}, ParseError("missing friend mode in " + line)
	}

	var friend FriendFunc
	mode, rest := rest[0], rest[1:]
	switch mode {
	case 'n':
		friend = FriendNone()
	case 'c':
		if len(rest) != 2 {
			return Command{}, ParseError("invalid friend card in " + line)
		}
		c, err := card.Parse(rest)
		if err != nil {
			return Command{}, ParseError(err.Error())
		}
		friend = FriendByCard(c)
		rest = ""
	case 'u':
		seat, err := strconv.Atoi(rest)
		if err != nil {
			return Command{}, ParseError("invalid friend seat in " + line)
		}
		friend = FriendByUser(seat)
		rest = ""
	case 'w':
		turn, err := strconv.Atoi(rest)
		if err != nil {
			return Command{}, ParseError("invalid friend turn in " + line)
		}
		friend = FriendByWinning(turn)
		rest = ""
	default:
		return Command{}, ParseError("unknown friend mode in " + line)
	}
	if rest != "" {
		return Command{}, ParseError("trailing text in " + line)
	}
	return CmdSelectFriend(friend, drops), nil
}

func (cd *Codec) parseGo(rest, line string) (Command, error) {
	if len(rest) != 4 {
		return Command{}, ParseError("invalid go length in " + line)
	}
	c, err := card.Parse(rest[:2])
	if err != nil {
		return Command{}, ParseError(err.Error())
	}
	rush, ok := card.ParseRush(rest[2])
	if !ok {
		return Command{}, ParseError("invalid rush in " + line)
	}
	var jokerCall bool
	switch rest[3] {
	case '0':
	case '1':
		jokerCall = true
	default:
		return Command{}, ParseError("invalid joker-call flag in " + line)
	}
	return CmdGo(c, rush, jokerCall), nil
}

// Run drives the engine from a state through a transcript.
func (cd *Codec) Run(e *Engine, s State, lines ...string) (State, error) {
	for _, line := range lines {
		seat, cmd, err := cd.Parse(line)
		if err != nil {
			return s, err
		}
		if s, err = e.Next(s, seat, cmd); err != nil {
			return s, fmt.Errorf("%s: %w", line, err)
		}
	}
	return s, nil
}
