package ftp

import "fmt"

// Category is the first digit of a reply code, scaled to hundreds. It
// tells the client whether the command succeeded, failed, or still needs
// a follow-up before it can run.
type Category uint16

// Reply categories from RFC 959 section 4.2.
const (
	PositivePreliminary  Category = 100
	PositiveCompletion   Category = 200
	PositiveIntermediate Category = 300
	TransientNegative    Category = 400
	PermanentNegative    Category = 500
)

// Subject is the second digit of a reply code, scaled to tens. It names
// the concern the reply talks about.
type Subject uint16

// Reply subjects from RFC 959 section 4.2.
const (
	SubjectSyntax      Subject = 0
	SubjectInformation Subject = 10
	SubjectConnections Subject = 20
	SubjectAuth        Subject = 30
	SubjectUnspecified Subject = 40
	SubjectFilesystem  Subject = 50
)

// Code is a three-digit FTP reply code: category plus subject plus a
// final detail digit.
type Code uint16

// NewCode composes a reply code from its parts. detail is the final
// digit and must be below ten.
func NewCode(category Category, subject Subject, detail uint8) Code {
	return Code(uint16(category) + uint16(subject) + uint16(detail))
}

// Category returns the hundreds group of the code.
func (c Code) Category() Category { return Category(c - c%100) }

// Subject returns the tens group of the code.
func (c Code) Subject() Subject { return Subject(c%100 - c%10) }

// Detail returns the final digit of the code.
func (c Code) Detail() uint8 { return uint8(c % 10) }

// Reply codes the server emits.
const (
	CodeFileStatusOkay      Code = 150
	CodeCommandOkay         Code = 200
	CodeServiceReady        Code = 220
	CodeClosingControl      Code = 221
	CodeClosingData         Code = 226
	CodePassiveMode         Code = 227
	CodeLoginSuccess        Code = 230
	CodeFileActionOkay      Code = 250
	CodeDirectoryOkay       Code = 257
	CodeUsernameOkay        Code = 331
	CodeFileActionPending   Code = 350
	CodeServiceNotAvailable Code = 421
	CodeCantOpenData        Code = 425
	CodeFileBusy            Code = 450
	CodeSyntaxError         Code = 500
	CodeBadSequence         Code = 503
	CodeNotLoggedIn         Code = 530
	CodeBadAuthSequence     Code = 531
	CodeAllPortsTaken       Code = 541
	CodeFileUnavailable     Code = 550
	CodeFileNameNotAllowed  Code = 553
)

// Reply is one control-channel response line.
type Reply struct {
	Code    Code
	Message string
}

// NewReply pairs a code with its message text.
func NewReply(code Code, message string) Reply {
	return Reply{Code: code, Message: message}
}

// Bytes renders the wire form: code, space, message, CRLF.
func (r Reply) Bytes() []byte {
	return []byte(fmt.Sprintf("%d %s\r\n", r.Code, r.Message))
}

// String renders the reply without the trailing CRLF, for logging.
func (r Reply) String() string {
	return fmt.Sprintf("%d %s", r.Code, r.Message)
}

// Standard replies. The wording is part of the wire contract: clients
// and the end-to-end tests match on these exact strings.
var (
	ReplyServiceReady        = NewReply(CodeServiceReady, "Service ready for new user.")
	ReplyClosingControl      = NewReply(CodeClosingControl, "Service closing control connection.")
	ReplyCommandOkay         = NewReply(CodeCommandOkay, "Command okay.")
	ReplyUsernameOkay        = NewReply(CodeUsernameOkay, "User name okay, need password.")
	ReplyLoginSuccess        = NewReply(CodeLoginSuccess, "User logged in, proceed.")
	ReplyNotLoggedIn         = NewReply(CodeNotLoggedIn, "Not logged in.")
	ReplyNeedUsername        = NewReply(CodeBadAuthSequence, "Need the username first.")
	ReplyBadSequence         = NewReply(CodeBadSequence, "Bad sequence of commands.")
	ReplyFileActionOkay      = NewReply(CodeFileActionOkay, "Requested file action okay, completed.")
	ReplyActionPending       = NewReply(CodeFileActionPending, "Requested file action pending further information.")
	ReplyOpeningData         = NewReply(CodeFileStatusOkay, "File status okay; about to open data connection.")
	ReplyDownloadStarts      = NewReply(CodeFileStatusOkay, "File download starts!")
	ReplyTransferDone        = NewReply(CodeClosingData, "Closing data connection. Requested file action successful (for example, file transfer or file abort).")
	ReplyDownloadDone        = NewReply(CodeClosingData, "Closing data connection. Requested file action successful. (file transfer)")
	ReplyTransferFileError   = NewReply(CodeClosingData, "Unknown error with file transfer")
	ReplyTransferSocketError = NewReply(CodeClosingData, "Error with file transfer connection")
	ReplyUploadFailed        = NewReply(CodeFileBusy, "Requested file action not taken. File unavailable.")
	ReplyCantOpenData        = NewReply(CodeCantOpenData, "Can't open data connection.")
	ReplyCantOpenPort        = NewReply(CodeAllPortsTaken, "Can't open a port.")
	ReplyNoAccess            = NewReply(CodeFileUnavailable, "Requested action not taken. File unavailable, no access.")
	ReplyFileNotFound        = NewReply(CodeFileUnavailable, "Requested action not taken. File unavailable, file not found.")
	ReplyShuttingDown        = NewReply(CodeServiceNotAvailable, "Service not available, closing control connection.")
)

// PassiveReply announces the passive data port as h1,h2,h3,h4,p1,p2.
// The advertised host is 0.0.0.0: clients dial the address the control
// connection already reaches.
func PassiveReply(port uint16) Reply {
	return NewReply(CodePassiveMode, fmt.Sprintf("Entering Passive Mode (0,0,0,0,%d,%d)", port/256, port%256))
}

// WorkingDirReply reports the session's current directory for PWD.
func WorkingDirReply(dir string) Reply {
	return NewReply(CodeDirectoryOkay, fmt.Sprintf("\"%s\" is the current directory.", dir))
}

// CreatedReply reports the directory MKD just created.
func CreatedReply(dir string) Reply {
	return NewReply(CodeDirectoryOkay, fmt.Sprintf("\"%s\" created.", dir))
}

// SyntaxReply carries a parse error back to the client on the 500 code.
// The error text is the whole message.
func SyntaxReply(err error) Reply {
	return NewReply(CodeSyntaxError, err.Error())
}
