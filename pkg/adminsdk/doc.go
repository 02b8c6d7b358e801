// Package adminsdk contains the wire types for the TkSolution admin service
// and a small Go client for calling it. The server handlers and the client
// share these types so the two cannot drift apart.
package adminsdk
