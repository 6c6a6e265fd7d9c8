package ftp

import (
	"errors"
	"net"
	"unicode/utf8"
)

// Parse errors. These messages are sent to the client verbatim, so the
// exact wording (including casing and punctuation) is load-bearing.
var (
	// ErrCommandTooShort indicates the line cannot hold a verb plus CRLF
	ErrCommandTooShort = errors.New("Command is too short")
	// ErrMissingCRLF indicates the line does not end in \r\n
	ErrMissingCRLF = errors.New("All commands should finish with slash r slash n")
	// ErrShortArgument indicates a path command without room for an argument
	ErrShortArgument = errors.New("invalid command length")
	// ErrShortUserCommand indicates USER without room for a name
	ErrShortUserCommand = errors.New("Invalid command length")
	// ErrPasvTrailingBytes indicates PASV followed by anything at all
	ErrPasvTrailingBytes = errors.New("Bad command length")
	// ErrUnknownVerb indicates the verb bytes did not match the expected keyword
	ErrUnknownVerb = errors.New("Invalid command")
	// ErrUnknownCommand indicates an unrecognized byte inside a known prefix
	ErrUnknownCommand = errors.New("Unknown command")
	// ErrUnknownFirstByte indicates no verb starts with the first byte
	ErrUnknownFirstByte = errors.New("invalid command")
	// ErrExpectedSpace indicates a missing separator before a path argument
	ErrExpectedSpace = errors.New("Expected space in between command and the rest.")
	// ErrExpectedArgSpace indicates a missing separator before a USER/PASS argument
	ErrExpectedArgSpace = errors.New("Expected a space in between")
	// ErrInvalidUTF8Path indicates a path argument that is not valid UTF-8
	ErrInvalidUTF8Path = errors.New("expected utf8 string")
	// ErrInvalidUTF8Name indicates a USER/PASS argument that is not valid UTF-8
	ErrInvalidUTF8Name = errors.New("Expected ASCII compliant username")
	// ErrSuggestQuit is returned for a mistyped Q command
	ErrSuggestQuit = errors.New("Invalid command, did you mean `QUIT`?")
	// ErrSuggestList is returned for a mistyped L command
	ErrSuggestList = errors.New("Invalid command, maybe you meant: `LIST`?")
	// ErrSuggestPort is returned for a mistyped PO command
	ErrSuggestPort = errors.New("Invalid command, maybe you meant: `PORT`?")
	// ErrSuggestUser is returned for a mistyped U command
	ErrSuggestUser = errors.New("Invalid command, maybe you meant: `USER`?")
	// ErrSuggestRetrRmd is returned for a mistyped R command
	ErrSuggestRetrRmd = errors.New("Unknown command, maybe you meant 'RETR' or 'RMD'?")
	// ErrSuggestPassPasv is returned for a mistyped PA command
	ErrSuggestPassPasv = errors.New("Unknown command, maybe you meant 'PASS' or 'PASV'")
	// ErrInvalidPortNumber indicates a PORT p1/p2 field outside 0-255 or non-numeric
	ErrInvalidPortNumber = errors.New("Invalid port number")
	// ErrInvalidIPv4 indicates a PORT h1-h4 field outside 0-255 or non-numeric
	ErrInvalidIPv4 = errors.New("Invalid IPv4 address")
	// ErrBadPortFormat indicates trailing bytes after the six PORT fields
	ErrBadPortFormat = errors.New("Bad format of the `PORT` command")
)

// Verb identifies a parsed FTP command.
type Verb uint8

const (
	VerbUser Verb = iota
	VerbPass
	VerbQuit
	VerbPwd
	VerbCwd
	VerbList
	VerbRetr
	VerbStor
	VerbMkd
	VerbRmd
	VerbDele
	VerbRnfr
	VerbRnto
	VerbPort
	VerbPasv
)

// String returns the wire spelling of the verb
func (v Verb) String() string {
	switch v {
	case VerbUser:
		return "USER"
	case VerbPass:
		return "PASS"
	case VerbQuit:
		return "QUIT"
	case VerbPwd:
		return "PWD"
	case VerbCwd:
		return "CWD"
	case VerbList:
		return "LIST"
	case VerbRetr:
		return "RETR"
	case VerbStor:
		return "STOR"
	case VerbMkd:
		return "MKD"
	case VerbRmd:
		return "RMD"
	case VerbDele:
		return "DELE"
	case VerbRnfr:
		return "RNFR"
	case VerbRnto:
		return "RNTO"
	case VerbPort:
		return "PORT"
	case VerbPasv:
		return "PASV"
	default:
		return "UNKNOWN"
	}
}

// RequiresAuth reports whether the verb may only be executed by an
// authenticated session. Only USER, PASS and QUIT are allowed before
// login completes.
func (v Verb) RequiresAuth() bool {
	switch v {
	case VerbUser, VerbPass, VerbQuit:
		return false
	default:
		return true
	}
}

// Command is one parsed request line.
type Command struct {
	Verb Verb

	// Arg holds the username for USER, the password for PASS and the
	// request path for the filesystem verbs. Empty for QUIT, PWD, PASV
	// and PORT. LIST without an argument carries the default "./".
	Arg string

	// Addr and Port are set only for PORT.
	Addr net.IP
	Port uint16
}

// RequiresAuth reports whether the command may only be executed by an
// authenticated session.
func (c Command) RequiresAuth() bool {
	return c.Verb.RequiresAuth()
}

// Parse decodes one request line, CRLF included. The dispatch walks the
// leading bytes the way a keyword trie would, so a line is rejected as
// early as the first byte that cannot start a known verb.
func Parse(line []byte) (Command, error) {
	n := len(line)
	if n <= 2 {
		return Command{}, ErrCommandTooShort
	}
	if line[n-1] != '\n' || line[n-2] != '\r' {
		return Command{}, ErrMissingCRLF
	}

	switch line[0] {
	case 'C':
		arg, err := parsePath(line, "WD", 1, 3)
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: VerbCwd, Arg: arg}, nil

	case 'D':
		arg, err := parsePath(line, "ELE", 1, 4)
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: VerbDele, Arg: arg}, nil

	case 'M':
		arg, err := parsePath(line, "KD", 1, 3)
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: VerbMkd, Arg: arg}, nil

	case 'Q':
		if n <= 4 || string(line[1:4]) != "UIT" {
			return Command{}, ErrSuggestQuit
		}
		return Command{Verb: VerbQuit}, nil

	case 'L':
		return parseList(line)

	case 'R':
		switch line[1] {
		case 'E':
			arg, err := parsePath(line, "TR", 2, 4)
			if err != nil {
				return Command{}, err
			}
			return Command{Verb: VerbRetr, Arg: arg}, nil
		case 'M':
			arg, err := parsePath(line, "D", 2, 3)
			if err != nil {
				return Command{}, err
			}
			return Command{Verb: VerbRmd, Arg: arg}, nil
		case 'N':
			switch line[2] {
			case 'F':
				arg, err := parsePath(line, "R", 3, 4)
				if err != nil {
					return Command{}, err
				}
				return Command{Verb: VerbRnfr, Arg: arg}, nil
			case 'T':
				arg, err := parsePath(line, "O", 3, 4)
				if err != nil {
					return Command{}, err
				}
				return Command{Verb: VerbRnto, Arg: arg}, nil
			default:
				return Command{}, ErrUnknownCommand
			}
		default:
			return Command{}, ErrSuggestRetrRmd
		}

	case 'S':
		arg, err := parsePath(line, "TOR", 1, 4)
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: VerbStor, Arg: arg}, nil

	case 'P':
		switch line[1] {
		case 'W':
			if line[2] != 'D' || n != 5 {
				return Command{}, ErrUnknownCommand
			}
			return Command{Verb: VerbPwd}, nil
		case 'A':
			if line[2] != 'S' {
				return Command{}, ErrSuggestPassPasv
			}
			switch line[3] {
			case 'V':
				if n != 6 {
					return Command{}, ErrPasvTrailingBytes
				}
				return Command{Verb: VerbPasv}, nil
			case 'S':
				if line[4] != ' ' {
					return Command{}, ErrExpectedArgSpace
				}
				password := line[5 : n-2]
				if !utf8.Valid(password) {
					return Command{}, ErrInvalidUTF8Name
				}
				return Command{Verb: VerbPass, Arg: string(password)}, nil
			default:
				return Command{}, ErrSuggestPassPasv
			}
		case 'O':
			return parsePort(line)
		default:
			return Command{}, ErrUnknownCommand
		}

	case 'U':
		if n <= 6 {
			return Command{}, ErrShortUserCommand
		}
		if string(line[1:4]) != "SER" {
			return Command{}, ErrSuggestUser
		}
		if line[4] != ' ' {
			return Command{}, ErrExpectedArgSpace
		}
		username := line[5 : n-2]
		if !utf8.Valid(username) {
			return Command{}, ErrInvalidUTF8Name
		}
		return Command{Verb: VerbUser, Arg: string(username)}, nil

	default:
		return Command{}, ErrUnknownFirstByte
	}
}

// parsePath validates the keyword bytes at line[start:end], the space
// separator at line[end], and returns the UTF-8 argument before the CRLF.
func parsePath(line []byte, keyword string, start, end int) (string, error) {
	if len(line) <= 6 {
		return "", ErrShortArgument
	}
	if string(line[start:end]) != keyword {
		return "", ErrUnknownVerb
	}
	if line[end] != ' ' {
		return "", ErrExpectedSpace
	}
	arg := line[end+1 : len(line)-2]
	if !utf8.Valid(arg) {
		return "", ErrInvalidUTF8Path
	}
	return string(arg), nil
}

// parseList handles LIST, whose argument is optional. "LIST\r\n" lists
// the current directory.
func parseList(line []byte) (Command, error) {
	n := len(line)
	if n <= 5 {
		return Command{}, ErrShortArgument
	}
	if string(line[1:4]) != "IST" {
		return Command{}, ErrSuggestList
	}
	if n == 6 {
		return Command{Verb: VerbList, Arg: "./"}, nil
	}
	if line[4] != ' ' {
		return Command{}, ErrExpectedSpace
	}
	arg := line[5 : n-2]
	if !utf8.Valid(arg) {
		return Command{}, ErrInvalidUTF8Path
	}
	return Command{Verb: VerbList, Arg: string(arg)}, nil
}

// parsePort decodes "PORT h1,h2,h3,h4,p1,p2\r\n". Each field is 1-3
// decimal digits in 0-255; an absent field counts as zero. The port is
// p1*256 + p2.
func parsePort(line []byte) (Command, error) {
	n := len(line)
	if n <= 6 {
		return Command{}, ErrShortArgument
	}
	if string(line[2:4]) != "RT" {
		return Command{}, ErrSuggestPort
	}
	if line[4] != ' ' {
		return Command{}, ErrExpectedSpace
	}

	var addr [4]byte
	var portBytes [2]byte
	byteIdx := 5
	for i := 0; i < 6; i++ {
		prev := byteIdx
		for byteIdx < n-2 && line[byteIdx] != ',' {
			byteIdx++
		}
		var field []byte
		if prev < byteIdx {
			field = line[prev:byteIdx]
		}
		val, ok := decimalByte(field)
		if !ok {
			if i >= 4 {
				return Command{}, ErrInvalidPortNumber
			}
			return Command{}, ErrInvalidIPv4
		}
		if i >= 4 {
			portBytes[i-4] = val
		} else {
			addr[i] = val
		}
		byteIdx++
	}
	// The sixth field must have consumed the line up to the CRLF.
	if byteIdx != n-1 {
		return Command{}, ErrBadPortFormat
	}

	port := uint16(portBytes[0])*256 + uint16(portBytes[1])
	return Command{
		Verb: VerbPort,
		Addr: net.IPv4(addr[0], addr[1], addr[2], addr[3]),
		Port: port,
	}, nil
}

// decimalByte parses up to three ASCII digits into 0-255. An empty
// field yields zero.
func decimalByte(field []byte) (byte, bool) {
	if len(field) > 3 {
		return 0, false
	}
	v := 0
	for _, c := range field {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	if v > 255 {
		return 0, false
	}
	return byte(v), true
}
