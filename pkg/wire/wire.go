// Package wire implements the line-oriented wire codec: parsing one request
// line into a command and validated arguments, and framing a HandlerResult
// back into response bytes.
package wire

import (
	"bytes"
	"fmt"
)

// Status codes. These are the only codes clients may key off of; the
// accompanying description strings are for humans, not load-bearing.
const (
	StatusOK               = 0
	StatusBadEOL           = 100
	StatusBadRequest       = 101
	StatusInternalError    = 199
	StatusInvalidCommand   = 200
	StatusInvalidArguments = 201
	StatusFileNotFound     = 202
	StatusBadOffset        = 203
)

// CommandKind is a closed enumeration over the four recognized commands.
// Dispatch on Kind is a static switch, not a name-keyed map of closures.
type CommandKind int

const (
	CmdGetFileListing CommandKind = iota
	CmdGetMetadata
	CmdGetSlice
	CmdQuit
)

// ArgClass is one of the bounded ASCII character classes a command argument
// may be validated against.
type ArgClass int

const (
	// ArgFilename matches [A-Za-z0-9._-]+
	ArgFilename ArgClass = iota
	// ArgDecimal matches [0-9]+
	ArgDecimal
)

type commandDescriptor struct {
	name string
	kind CommandKind
	args []ArgClass
}

// commandTable is the static command registry. It is consulted by both the
// grammar scanner (to validate argument shapes) and by callers dispatching
// on Request.Kind; there is exactly one source of truth for the four
// recognized commands.
var commandTable = []commandDescriptor{
	{name: "get_file_listing", kind: CmdGetFileListing, args: nil},
	{name: "get_metadata", kind: CmdGetMetadata, args: []ArgClass{ArgFilename}},
	{name: "get_slice", kind: CmdGetSlice, args: []ArgClass{ArgFilename, ArgDecimal, ArgDecimal}},
	{name: "quit", kind: CmdQuit, args: nil},
}

func lookupCommand(name string) (commandDescriptor, bool) {
	for _, d := range commandTable {
		if d.name == name {
			return d, true
		}
	}
	return commandDescriptor{}, false
}

// Request is a fully parsed, argument-validated client request.
type Request struct {
	Kind CommandKind
	Name string
	Args []string
}

// BodyKind distinguishes the three HandlerResult shapes from §3: no body,
// a single opaque blob, or a list of blobs framed as a terminated block.
type BodyKind int

const (
	NoBody BodyKind = iota
	BlobBody
	ListBody
)

// Result is the discriminated HandlerResult value: (code, desc), (code,
// desc, blob), or (code, desc, list).
type Result struct {
	Code int
	Desc string
	Kind BodyKind
	Blob []byte
	List [][]byte
}

// ParseRequest parses one line (bytes up to and including its terminating
// \n, as extracted by the connection state machine) into a Request, or
// returns the Result a malformed line must produce. Exactly one of the two
// return values is meaningful: ok reports which.
//
// Parse outcomes are resolved in priority order: bad EOL, missing command
// token, unregistered command, malformed arguments.
func ParseRequest(line []byte) (Request, Result, bool) {
	if !endsInCRLF(line) {
		return Request{}, Result{Code: StatusBadEOL, Desc: "Bad EOL"}, false
	}
	body := line[:len(line)-2]

	i := 0
	for i < len(body) && isCommandByte(body[i]) {
		i++
	}
	if i == 0 {
		return Request{}, Result{Code: StatusBadRequest, Desc: "Bad request"}, false
	}
	name := string(body[:i])

	desc, ok := lookupCommand(name)
	if !ok {
		return Request{}, Result{Code: StatusInvalidCommand, Desc: fmt.Sprintf("Invalid command '%s'", name)}, false
	}

	args, ok := parseArgs(body[i:], desc.args)
	if !ok {
		return Request{}, Result{Code: StatusInvalidArguments, Desc: "Invalid arguments"}, false
	}

	return Request{Kind: desc.kind, Name: name, Args: args}, Result{}, true
}

// endsInCRLF reports whether line's last two bytes are \r\n. It does not
// scan for an earlier bare \n: a line is only ever handed to us up to and
// including its first \n, so a bare-LF line is exactly one that does not
// end in \r\n.
func endsInCRLF(line []byte) bool {
	return len(line) >= 2 && line[len(line)-2] == '\r' && line[len(line)-1] == '\n'
}

// parseArgs consumes the bytes following the command token. Each declared
// argument class must be preceded by exactly one space; no bytes may
// remain once the declared arguments have been consumed.
func parseArgs(rest []byte, classes []ArgClass) ([]string, bool) {
	if len(classes) == 0 {
		return nil, len(rest) == 0
	}

	args := make([]string, 0, len(classes))
	for _, class := range classes {
		if len(rest) == 0 || rest[0] != ' ' {
			return nil, false
		}
		rest = rest[1:]

		n := matchClass(rest, class)
		if n == 0 {
			return nil, false
		}
		args = append(args, string(rest[:n]))
		rest = rest[n:]
	}

	return args, len(rest) == 0
}

func matchClass(b []byte, class ArgClass) int {
	n := 0
	switch class {
	case ArgFilename:
		for n < len(b) && isFilenameByte(b[n]) {
			n++
		}
	case ArgDecimal:
		for n < len(b) && b[n] >= '0' && b[n] <= '9' {
			n++
		}
	}
	return n
}

func isCommandByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || b == '_'
}

func isFilenameByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '.' || b == '_' || b == '-'
}

// FrameResponse renders a Result into the exact bytes that must be appended
// to a connection's send buffer. The codec never emits a partial response:
// the returned slice is always a complete frame.
func FrameResponse(r Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %s\r\n", r.Code, r.Desc)

	switch r.Kind {
	case BlobBody:
		buf.Write(r.Blob)
		buf.WriteString("\r\n")
	case ListBody:
		for _, item := range r.List {
			buf.Write(item)
			buf.WriteString("\r\n")
		}
		buf.WriteString("\r\n")
	}

	return buf.Bytes()
}
