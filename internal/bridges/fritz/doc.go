// Package fritz implements device.Controller for FRITZ!DECT smart plugs
// behind a FRITZ!Box, using the AHA-HTTP interface.
//
// # Session handling
//
// The box hands out a session ID (SID) from /login_sid.lua after a
// challenge/response exchange. Two response schemes exist:
//
//   - MD5 (all firmware): challenge + "-" + md5(UTF-16LE(challenge + "-" + password)),
//     with every non-ASCII password rune replaced by '.'
//   - PBKDF2 (FRITZ!OS 7.24+): challenges of the form "2$iter1$salt1$iter2$salt2"
//
// The all-zero SID means "not logged in". A command answered with HTTP 403
// means the session expired: the client logs in again once and retries.
//
// # Commands
//
// Switch commands are GET requests to /webservices/homeautoswitch.lua with
// switchcmd, sid and ain query parameters. The ain is the device identifier
// printed on the plug (e.g. "087610 123456").
package fritz
