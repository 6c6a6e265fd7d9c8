// Package ftp implements the wire grammar of the FTP control channel.
//
// The package has two halves:
//
//   - Command parsing (command.go): decodes one CRLF-terminated request
//     line into a Command value. The parser dispatches on leading bytes
//     and never allocates beyond the argument string it returns. Parse
//     errors carry static messages that are sent verbatim to the client
//     in a 500 reply, so their wording is part of the wire contract.
//
//   - Reply codes (reply.go): three-digit reply codes composed from
//     (category, subject, detail) per RFC 959 section 4.2, plus the
//     standard reply lines the server emits.
//
// Supported verbs: USER, PASS, QUIT, PWD, CWD, LIST, RETR, STOR, MKD,
// RMD, DELE, RNFR, RNTO, PORT, PASV. CDUP is expressed as "CWD ..".
// The protocol engine that executes commands lives in
// internal/adapter/ftp; this package knows nothing about sessions or
// filesystems.
package ftp
