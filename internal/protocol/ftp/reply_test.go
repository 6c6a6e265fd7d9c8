package ftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewCode_Composition verifies each named code decomposes into the
// category, subject and detail digits RFC 959 assigns it.
func TestNewCode_Composition(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		subject  Subject
		detail   uint8
		want     Code
	}{
		{"FileStatusOkay", PositivePreliminary, SubjectFilesystem, 0, CodeFileStatusOkay},
		{"CommandOkay", PositiveCompletion, SubjectSyntax, 0, CodeCommandOkay},
		{"ServiceReady", PositiveCompletion, SubjectConnections, 0, CodeServiceReady},
		{"ClosingControl", PositiveCompletion, SubjectConnections, 1, CodeClosingControl},
		{"ClosingData", PositiveCompletion, SubjectConnections, 6, CodeClosingData},
		{"PassiveMode", PositiveCompletion, SubjectConnections, 7, CodePassiveMode},
		{"LoginSuccess", PositiveCompletion, SubjectAuth, 0, CodeLoginSuccess},
		{"FileActionOkay", PositiveCompletion, SubjectFilesystem, 0, CodeFileActionOkay},
		{"DirectoryOkay", PositiveCompletion, SubjectFilesystem, 7, CodeDirectoryOkay},
		{"UsernameOkay", PositiveIntermediate, SubjectAuth, 1, CodeUsernameOkay},
		{"FileActionPending", PositiveIntermediate, SubjectFilesystem, 0, CodeFileActionPending},
		{"ServiceNotAvailable", TransientNegative, SubjectConnections, 1, CodeServiceNotAvailable},
		{"CantOpenData", TransientNegative, SubjectConnections, 5, CodeCantOpenData},
		{"FileBusy", TransientNegative, SubjectFilesystem, 0, CodeFileBusy},
		{"SyntaxError", PermanentNegative, SubjectSyntax, 0, CodeSyntaxError},
		{"BadSequence", PermanentNegative, SubjectSyntax, 3, CodeBadSequence},
		{"NotLoggedIn", PermanentNegative, SubjectAuth, 0, CodeNotLoggedIn},
		{"BadAuthSequence", PermanentNegative, SubjectAuth, 1, CodeBadAuthSequence},
		{"AllPortsTaken", PermanentNegative, SubjectUnspecified, 1, CodeAllPortsTaken},
		{"FileUnavailable", PermanentNegative, SubjectFilesystem, 0, CodeFileUnavailable},
		{"FileNameNotAllowed", PermanentNegative, SubjectFilesystem, 3, CodeFileNameNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCode(tt.category, tt.subject, tt.detail)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.category, got.Category())
			assert.Equal(t, tt.subject, got.Subject())
			assert.Equal(t, tt.detail, got.Detail())
		})
	}
}

func TestReply_Bytes(t *testing.T) {
	r := NewReply(CodeServiceReady, "Service ready for new user.")
	assert.Equal(t, []byte("220 Service ready for new user.\r\n"), r.Bytes())
	assert.Equal(t, "220 Service ready for new user.", r.String())
}

// TestStandardReplies_Wording pins the full wire line of every canned
// reply. Clients and the end-to-end suite match on these exact bytes.
func TestStandardReplies_Wording(t *testing.T) {
	tests := []struct {
		reply Reply
		line  string
	}{
		{ReplyServiceReady, "220 Service ready for new user.\r\n"},
		{ReplyClosingControl, "221 Service closing control connection.\r\n"},
		{ReplyCommandOkay, "200 Command okay.\r\n"},
		{ReplyUsernameOkay, "331 User name okay, need password.\r\n"},
		{ReplyLoginSuccess, "230 User logged in, proceed.\r\n"},
		{ReplyNotLoggedIn, "530 Not logged in.\r\n"},
		{ReplyNeedUsername, "531 Need the username first.\r\n"},
		{ReplyBadSequence, "503 Bad sequence of commands.\r\n"},
		{ReplyFileActionOkay, "250 Requested file action okay, completed.\r\n"},
		{ReplyActionPending, "350 Requested file action pending further information.\r\n"},
		{ReplyOpeningData, "150 File status okay; about to open data connection.\r\n"},
		{ReplyDownloadStarts, "150 File download starts!\r\n"},
		{ReplyTransferDone, "226 Closing data connection. Requested file action successful (for example, file transfer or file abort).\r\n"},
		{ReplyDownloadDone, "226 Closing data connection. Requested file action successful. (file transfer)\r\n"},
		{ReplyTransferFileError, "226 Unknown error with file transfer\r\n"},
		{ReplyTransferSocketError, "226 Error with file transfer connection\r\n"},
		{ReplyUploadFailed, "450 Requested file action not taken. File unavailable.\r\n"},
		{ReplyCantOpenData, "425 Can't open data connection.\r\n"},
		{ReplyCantOpenPort, "541 Can't open a port.\r\n"},
		{ReplyNoAccess, "550 Requested action not taken. File unavailable, no access.\r\n"},
		{ReplyFileNotFound, "550 Requested action not taken. File unavailable, file not found.\r\n"},
		{ReplyShuttingDown, "421 Service not available, closing control connection.\r\n"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.line, string(tt.reply.Bytes()))
	}
}

func TestPassiveReply(t *testing.T) {
	tests := []struct {
		port uint16
		line string
	}{
		{0, "227 Entering Passive Mode (0,0,0,0,0,0)\r\n"},
		{255, "227 Entering Passive Mode (0,0,0,0,0,255)\r\n"},
		{256, "227 Entering Passive Mode (0,0,0,0,1,0)\r\n"},
		{2233, "227 Entering Passive Mode (0,0,0,0,8,185)\r\n"},
		{65535, "227 Entering Passive Mode (0,0,0,0,255,255)\r\n"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.line, string(PassiveReply(tt.port).Bytes()))
	}
}

func TestDirectoryReplies(t *testing.T) {
	assert.Equal(t,
		"257 \"/\" is the current directory.\r\n",
		string(WorkingDirReply("/").Bytes()))
	assert.Equal(t,
		"257 \"/alice/docs\" is the current directory.\r\n",
		string(WorkingDirReply("/alice/docs").Bytes()))
	assert.Equal(t,
		"257 \"docs\" created.\r\n",
		string(CreatedReply("docs").Bytes()))
}

func TestSyntaxReply(t *testing.T) {
	r := SyntaxReply(ErrMissingCRLF)
	require.Equal(t, CodeSyntaxError, r.Code)
	assert.Equal(t, "500 All commands should finish with slash r slash n\r\n", string(r.Bytes()))
}
